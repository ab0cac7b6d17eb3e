package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayClient posts messages to the WhatsApp gateway, the HTTP face of the
// branch bot. The gateway acknowledges with 202 and a remote message id.
type GatewayClient struct {
	url    string
	client *http.Client
}

func NewGatewayClient(url string) *GatewayClient {
	return &GatewayClient{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type gatewayRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

type gatewayResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

func (c *GatewayClient) Send(ctx context.Context, phoneNumber, message string) (string, error) {
	reqBody, err := json.Marshal(gatewayRequest{
		PhoneNumber: phoneNumber,
		Message:     message,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}

	var gr gatewayResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("failed to decode json: %w body=%q", err, string(body))
	}
	if gr.MessageID == "" {
		return "", fmt.Errorf("missing messageId in response body=%q", string(body))
	}

	return gr.MessageID, nil
}
