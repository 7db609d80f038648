package zipwhip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultAPIURL is the provider's REST endpoint
	DefaultAPIURL = "https://api.zipwhip.com"

	// DefaultTimeout bounds a single dispatch attempt
	DefaultTimeout = 10 * time.Second

	sendPath = "/message/send"
)

// Action is a provider-side action derived from an inbound webhook.
type Action struct {
	// CorrelationID is derived from the webhook's fingerprint+id pair
	CorrelationID string
	Source        string
	Destination   string
	Body          string
	MessageType   string
}

// Ack is the provider's acknowledgment of a dispatched action.
type Ack struct {
	CorrelationID string
	// ProviderRef is the provider-assigned reference for the outbound message
	ProviderRef string
}

// Dispatcher performs provider actions derived from inbound webhooks.
//
// Implementations must be safe for concurrent use: a dispatch in flight for
// one webhook must never block dispatches for unrelated webhooks.
type Dispatcher interface {
	Dispatch(ctx context.Context, action Action) (Ack, error)
}

/* Client talks to the provider's REST API authenticated by a session key
 * The session key is immutable for the process lifetime; the client is
 * constructed once at startup and shared across concurrent dispatches
 */
type Client struct {
	apiURL     string
	sessionKey string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a provider client from a session credential.
// The zero timeout falls back to DefaultTimeout.
func NewClient(apiURL, sessionKey string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiURL:     apiURL,
		sessionKey: sessionKey,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// sendResponse is the provider's JSON envelope for /message/send
type sendResponse struct {
	Success  bool   `json:"success"`
	Response struct {
		Root string `json:"root"`
	} `json:"response"`
}

// Dispatch sends the action through the provider API.
// Every attempt carries its own deadline; exceeding it surfaces as a
// TransientFailure so the caller may retry.
func (c *Client) Dispatch(ctx context.Context, action Action) (Ack, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("session", c.sessionKey)
	form.Set("contacts", action.Destination)
	form.Set("body", action.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+sendPath, strings.NewReader(form.Encode()))
	if err != nil {
		return Ack{}, &DispatchError{Kind: RejectedByProvider, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures and deadline expiry are retryable
		return Ack{}, &DispatchError{Kind: TransientFailure, Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return Ack{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Ack{}, &DispatchError{Kind: TransientFailure, Err: fmt.Errorf("reading response: %w", err)}
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Ack{}, &DispatchError{Kind: RejectedByProvider, Err: fmt.Errorf("parsing response: %w", err)}
	}

	if !sr.Success {
		if strings.Contains(strings.ToLower(string(body)), "session") {
			return Ack{}, &DispatchError{Kind: AuthenticationFailed, Err: fmt.Errorf("provider refused session key")}
		}
		return Ack{}, &DispatchError{Kind: RejectedByProvider, Err: fmt.Errorf("provider reported failure")}
	}

	ref := sr.Response.Root
	if ref == "" {
		ref = uuid.New().String()
	}

	return Ack{
		CorrelationID: action.CorrelationID,
		ProviderRef:   ref,
	}, nil
}

// classifyStatus maps an HTTP status to the dispatch error taxonomy.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &DispatchError{Kind: AuthenticationFailed, Err: fmt.Errorf("status %d", status)}
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return &DispatchError{Kind: TransientFailure, Err: fmt.Errorf("status %d", status)}
	default:
		return &DispatchError{Kind: RejectedByProvider, Err: fmt.Errorf("status %d", status)}
	}
}
