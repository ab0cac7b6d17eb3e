package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTwilioClient_SendsFormEncodedRequest(t *testing.T) {
	t.Parallel()

	var gotPath, gotTo, gotFrom, gotBody string
	var gotAuth bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotPath = r.URL.Path

		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "AC123" && pass == "token"

		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewTwilioClient("AC123", "token", "+15550001111", srv.URL)

	if err := c.Send(context.Background(), "+905551234567", "Kargo dogrulama kodunuz: 1234"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !gotAuth {
		t.Fatalf("expected basic auth with account credentials")
	}
	if gotTo != "+905551234567" || gotFrom != "+15550001111" {
		t.Fatalf("unexpected To/From: %q / %q", gotTo, gotFrom)
	}
	if !strings.Contains(gotBody, "1234") {
		t.Fatalf("expected code in body, got %q", gotBody)
	}
}

func TestTwilioClient_NonSuccessStatusIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authentication Error"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewTwilioClient("AC123", "bad", "+15550001111", srv.URL)

	err := c.Send(context.Background(), "+905551234567", "test")
	if err == nil {
		t.Fatalf("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

func TestTwilioClient_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	c := NewTwilioClient("AC123", "token", "+15550001111", srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Send(ctx, "+905551234567", "test"); err == nil {
		t.Fatalf("expected error due to canceled context")
	}
}
