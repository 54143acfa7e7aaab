// Package newsletter manages the community audience at the email provider.
package newsletter

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

	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2
)

var (
	ErrNotConfigured   = errors.New("newsletter: provider not configured")
	ErrContactExists   = errors.New("newsletter: contact already exists")
	ErrContactNotFound = errors.New("newsletter: contact not found")
)

// Audience is a named contact list
type Audience struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Contact is a member of an audience
type Contact struct {
	ID           string `json:"id,omitempty"`
	Email        string `json:"email"`
	Unsubscribed bool   `json:"unsubscribed"`
}

// Client talks to a Resend-compatible audiences/contacts REST API
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	backoff    time.Duration
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		backoff:    200 * time.Millisecond,
	}
}

// ListAudiences returns every audience of the account
func (c *Client) ListAudiences(ctx context.Context) ([]Audience, error) {
	var out struct {
		Data []Audience `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/audiences", nil, &out); err != nil {
		return nil, fmt.Errorf("list audiences: %w", err)
	}
	return out.Data, nil
}

// CreateAudience creates an audience named name
func (c *Client) CreateAudience(ctx context.Context, name string) (*Audience, error) {
	var out Audience
	if err := c.do(ctx, http.MethodPost, "/audiences", map[string]string{"name": name}, &out); err != nil {
		return nil, fmt.Errorf("create audience: %w", err)
	}
	return &out, nil
}

// CreateContact adds a contact. An existing email yields ErrContactExists.
func (c *Client) CreateContact(ctx context.Context, audienceID string, contact Contact) error {
	if err := c.do(ctx, http.MethodPost, contactsPath(audienceID, ""), contact, nil); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// UpdateContact sets the unsubscribed flag of the contact with email
func (c *Client) UpdateContact(ctx context.Context, audienceID, email string, unsubscribed bool) error {
	body := map[string]bool{"unsubscribed": unsubscribed}
	if err := c.do(ctx, http.MethodPatch, contactsPath(audienceID, email), body, nil); err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

// DeleteContact removes the contact with email
func (c *Client) DeleteContact(ctx context.Context, audienceID, email string) error {
	if err := c.do(ctx, http.MethodDelete, contactsPath(audienceID, email), nil, nil); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func contactsPath(audienceID, email string) string {
	p := "/audiences/" + url.PathEscape(audienceID) + "/contacts"
	if email != "" {
		p += "/" + url.PathEscape(email)
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return err
		}
	}

	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.backoff))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)
		case resp.StatusCode == http.StatusConflict:
			return ErrContactExists
		case resp.StatusCode == http.StatusNotFound:
			return ErrContactNotFound
		}

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		err = fmt.Errorf("newsletter: request failed status=%d body=%s", resp.StatusCode, string(raw))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(err)
		}
		return err
	})
}
