package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("POST /v1/notifications/password-reset", h.PasswordReset)
	mux.HandleFunc("POST /v1/notifications/bulk", h.BulkNotify)

	mux.HandleFunc("POST /v1/verification-codes/send", h.SendCode)
	mux.HandleFunc("POST /v1/verification-codes/verify", h.VerifyCode)

	mux.HandleFunc("GET /v1/messages/pending", h.ListPendingMessages)
	mux.HandleFunc("POST /v1/messages/{id}/sent", h.MarkMessageSent)
	mux.HandleFunc("POST /v1/messages/{id}/failed", h.MarkMessageFailed)
	mux.HandleFunc("GET /v1/messages/sent", h.ListSentMessages)

	if h.sched != nil {
		mux.HandleFunc("GET /v1/dispatcher/status", h.DispatcherStatus)
		mux.HandleFunc("POST /v1/dispatcher/start", h.DispatcherStart)
		mux.HandleFunc("POST /v1/dispatcher/stop", h.DispatcherStop)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("cargo-notify"))
	})

	return mux
}
