package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError is returned when the gateway rejects or errors a push. It
// carries the HTTP status and whatever the gateway said, so the caller
// can map it onto its own response.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mpesa: http=%d message=%s", e.StatusCode, e.Message)
}

// Client issues STK push requests against a Daraja environment.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// STKPush posts the push envelope and parses the synchronous
// acknowledgment. A non-2xx status or a non-zero ResponseCode is an
// *APIError; the response is only returned when the gateway accepted
// the request for processing.
func (c *Client) STKPush(ctx context.Context, token string, push STKPushRequest) (*STKPushResponse, error) {
	body, err := json.Marshal(push)
	if err != nil {
		return nil, fmt.Errorf("stkpush encode: %w", err)
	}

	url := c.baseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("stkpush request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stkpush request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		// Daraja error bodies carry errorMessage; fall back to raw.
		var apiErr struct {
			RequestID    string `json:"requestId"`
			ErrorCode    string `json:"errorCode"`
			ErrorMessage string `json:"errorMessage"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.ErrorMessage
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Body: string(raw)}
	}

	var res STKPushResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("stkpush decode: %w body=%s", err, string(raw))
	}

	if res.ResponseCode != "0" {
		return nil, &APIError{
			StatusCode: http.StatusBadGateway,
			Message:    res.ResponseDescription,
			Body:       string(raw),
		}
	}
	if res.CheckoutRequestID == "" {
		return nil, fmt.Errorf("stkpush response missing CheckoutRequestID: body=%s", string(raw))
	}

	return &res, nil
}
