package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2
)

// TwilioClient sends messages through the Twilio Messages API
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTPClient *http.Client
	backoff    time.Duration
}

func NewTwilioClient(accountSID, authToken, from, baseURL string) *TwilioClient {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &TwilioClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		backoff:    200 * time.Millisecond,
	}
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts the message. Server errors and transport failures are retried,
// client errors are not. The body is never logged.
func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	if c.AccountSID == "" || c.AuthToken == "" {
		return ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.BaseURL, url.PathEscape(c.AccountSID))
	form := url.Values{"To": {to}, "From": {c.From}, "Body": {body}}.Encode()

	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.backoff))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(c.AccountSID, c.AuthToken)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("sms: send request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		err = statusError(resp)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(err)
		}
		return err
	})
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	var te twilioError
	if json.Unmarshal(raw, &te) == nil && te.Message != "" {
		return fmt.Errorf("sms: request failed status=%d code=%d: %s", resp.StatusCode, te.Code, te.Message)
	}
	return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(raw))
}
