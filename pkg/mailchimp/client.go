package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hazelpoint/rewards-backend/pkg/config"
	pkgerrors "github.com/hazelpoint/rewards-backend/pkg/errors"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("mailchimp api key is required")
	errListIDRequired = errors.New("mailchimp list id is required")
	errLoggerRequired = errors.New("mailchimp logger is required")
)

// Client subscribes storefront customers to the marketing list. Only the
// background worker talks to it; request handlers never block on Mailchimp.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	listID     string
	logger     *logger.Logger
}

// NewClient validates the key, derives the datacenter endpoint from its
// suffix, and returns the wrapper.
func NewClient(ctx context.Context, cfg config.MailchimpConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	listID := strings.TrimSpace(cfg.ListID)
	if listID == "" {
		return nil, errListIDRequired
	}

	parts := strings.Split(apiKey, "-")
	if len(parts) != 2 || parts[1] == "" {
		return nil, errors.New("mailchimp api key missing datacenter suffix")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    fmt.Sprintf("https://%s.api.mailchimp.com/3.0", parts[1]),
		apiKey:     apiKey,
		listID:     listID,
		logger:     logg,
	}

	logg.Info(ctx, "mailchimp client initialized")
	return c, nil
}

// SetHTTPClient swaps the underlying transport. Tests only.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetBaseURL overrides the API endpoint. Tests only.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

type memberPayload struct {
	EmailAddress string            `json:"email_address"`
	StatusIfNew  string            `json:"status_if_new"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
}

// Subscribe upserts the list member. The member endpoint is keyed by the MD5
// of the lowercased address, so replays are safe.
func (c *Client) Subscribe(ctx context.Context, email, firstName string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	payload := memberPayload{
		EmailAddress: email,
		StatusIfNew:  "subscribed",
	}
	if firstName != "" {
		payload.MergeFields = map[string]string{"FNAME": firstName}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	sum := md5.Sum([]byte(email))
	endpoint := fmt.Sprintf("%s/lists/%s/members/%s", c.baseURL, c.listID, hex.EncodeToString(sum[:]))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.SetBasicAuth("anystring", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe list member")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("subscribe list member: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
