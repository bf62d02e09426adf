// Package feedback talks to the Notedis feedback API and builds the
// submission payload.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultAPIURL is used when no api_url is configured.
const DefaultAPIURL = "https://notedis.com"

// Error types that switch the form to the upsell path.
const (
	ErrorTypeTrialExpired  = "trial_expired"
	ErrorTypeLimitExceeded = "limit_exceeded"
)

var (
	ErrNetwork = errors.New("network error")
	ErrServer  = errors.New("server error")
)

// StatusError is a non-OK response that carried no usable error body.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return ErrServer }

// QuotaError reports an expired trial or an exhausted plan.
type QuotaError struct {
	Type       string
	Message    string
	OwnerEmail string
	PricingURL string
}

func (e *QuotaError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Type
}

// ErrorBody is the structured error returned by the API.
type ErrorBody struct {
	ErrorType string        `json:"error_type,omitempty"`
	Message   string        `json:"message,omitempty"`
	Metadata  ErrorMetadata `json:"metadata"`
}

type ErrorMetadata struct {
	OwnerEmail string `json:"owner_email,omitempty"`
	PricingURL string `json:"pricing_url,omitempty"`
}

// UpgradeRequest is the body of POST /api/feedback/request-upgrade.
type UpgradeRequest struct {
	SiteKey     string `json:"site_key"`
	SenderEmail string `json:"sender_email"`
}

// UpgradeResponse is returned by the upgrade endpoint.
type UpgradeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse is returned by GET /api/site/status.
type StatusResponse struct {
	Active bool `json:"active"`
}

// Client calls the feedback API for one site.
type Client struct {
	BaseURL string
	SiteKey string
	HTTP    *http.Client
	Log     *logrus.Entry
}

// NewClient returns a client for siteKey. An empty baseURL uses
// DefaultAPIURL.
func NewClient(baseURL, siteKey string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		SiteKey: siteKey,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Log:     logrus.WithField("site_key", siteKey),
	}
}

func (c *Client) endpoint(path string) string {
	return c.BaseURL + path
}

func (c *Client) do(ctx context.Context, method, target string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

// Active reports whether the site may show the widget. Every failure is
// treated as inactive.
func (c *Client) Active(ctx context.Context) bool {
	active, err := c.Status(ctx)
	if err != nil {
		c.Log.WithError(err).Debug("site status check failed")
		return false
	}
	return active
}

// Status fetches the site's activation flag.
func (c *Client) Status(ctx context.Context) (bool, error) {
	target := c.endpoint("/api/site/status") + "?site_key=" + url.QueryEscape(c.SiteKey)
	resp, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, &StatusError{Code: resp.StatusCode}
	}
	var sr StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return false, fmt.Errorf("decode status: %w", err)
	}
	return sr.Active, nil
}

// Submit posts the payload. Quota failures come back as *QuotaError.
func (c *Client) Submit(ctx context.Context, p *Payload) error {
	if p.SiteKey == "" {
		p.SiteKey = c.SiteKey
	}
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("/api/feedback"), p)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		c.Log.WithFields(logrus.Fields{
			"category":   p.Category,
			"screenshot": p.ScreenshotBase64 != nil,
			"upload":     p.UploadedFileBase64 != nil,
		}).Info("feedback submitted")
		return nil
	}
	return decodeError(resp)
}

func decodeError(resp *http.Response) error {
	var body ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &StatusError{Code: resp.StatusCode, Message: "Failed to submit feedback. Please try again later."}
	}
	switch body.ErrorType {
	case ErrorTypeTrialExpired, ErrorTypeLimitExceeded:
		return &QuotaError{
			Type:       body.ErrorType,
			Message:    body.Message,
			OwnerEmail: body.Metadata.OwnerEmail,
			PricingURL: body.Metadata.PricingURL,
		}
	}
	msg := body.Message
	if msg == "" {
		msg = "Network response was not ok"
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}

// RequestUpgrade asks the site owner to upgrade on behalf of senderEmail.
func (c *Client) RequestUpgrade(ctx context.Context, senderEmail string) (string, error) {
	if !ValidEmail(senderEmail) {
		return "", fmt.Errorf("%w in the form first", ErrInvalidEmail)
	}
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("/api/feedback/request-upgrade"),
		UpgradeRequest{SiteKey: c.SiteKey, SenderEmail: strings.TrimSpace(senderEmail)})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var ur UpgradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", &StatusError{Code: resp.StatusCode, Message: "Failed to send request"}
	}
	if resp.StatusCode != http.StatusOK || !ur.Success {
		msg := ur.Message
		if msg == "" {
			msg = "Failed to send request"
		}
		return "", &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if ur.Message == "" {
		ur.Message = "Your upgrade request has been sent to the site owner."
	}
	return ur.Message, nil
}

// UserMessage is the notice shown for a submission error.
func UserMessage(err error) string {
	var qe *QuotaError
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &qe):
		return qe.Error()
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	}
	return "Failed to submit feedback. Please check your connection and try again."
}
