package shopify

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

	"github.com/shopspring/decimal"

	"github.com/hazelpoint/rewards-backend/pkg/config"
	pkgerrors "github.com/hazelpoint/rewards-backend/pkg/errors"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

var (
	errDomainRequired = errors.New("shopify store domain is required")
	errTokenRequired  = errors.New("shopify admin token is required")
	errLoggerRequired = errors.New("shopify logger is required")
)

// DiscountKind selects how a minted code discounts an order.
type DiscountKind string

const (
	DiscountKindFixedAmount DiscountKind = "fixed_amount"
	DiscountKindFreeProduct DiscountKind = "free_product"
)

// DiscountSpec describes the discount to mint. Code is chosen by the caller
// so the reward-code naming pattern stays under our control.
type DiscountSpec struct {
	Code   string
	Kind   DiscountKind
	Amount decimal.Decimal
}

// Discount is a minted code plus the external identifier needed to
// deactivate it later.
type Discount struct {
	Code       string
	ExternalID string
}

// Client wraps the Shopify Admin REST surface the rewards engine needs:
// price-rule discounts, deactivation, and customer lifetime spend.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	adminToken    string
	webhookSecret string
	logger        *logger.Logger
}

// NewClient initializes the Shopify wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.ShopifyConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	domain := strings.TrimSpace(cfg.StoreDomain)
	if domain == "" {
		return nil, errDomainRequired
	}
	token := strings.TrimSpace(cfg.AdminToken)
	if token == "" {
		return nil, errTokenRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       fmt.Sprintf("https://%s/admin/api/%s", domain, cfg.APIVersion),
		adminToken:    token,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		logger:        logg,
	}

	logg.Info(ctx, "shopify client initialized")
	return c, nil
}

// WebhookSecret returns the configured webhook signing secret. Empty means
// signature verification is bypassed upstream.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// SetHTTPClient swaps the underlying transport. Tests point it at httptest
// servers.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetBaseURL overrides the API endpoint. Tests only.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

type priceRulePayload struct {
	PriceRule struct {
		ID               int64  `json:"id,omitempty"`
		Title            string `json:"title"`
		TargetType       string `json:"target_type"`
		TargetSelection  string `json:"target_selection"`
		AllocationMethod string `json:"allocation_method"`
		ValueType        string `json:"value_type"`
		Value            string `json:"value"`
		CustomerSelect   string `json:"customer_selection"`
		StartsAt         string `json:"starts_at"`
		EndsAt           string `json:"ends_at,omitempty"`
		UsageLimit       int    `json:"usage_limit"`
	} `json:"price_rule"`
}

type discountCodePayload struct {
	DiscountCode struct {
		ID   int64  `json:"id,omitempty"`
		Code string `json:"code"`
	} `json:"discount_code"`
}

// CreateDiscount mints a single-use discount code: a price rule first, then
// the code attached to it. The returned external id is the price rule id.
func (c *Client) CreateDiscount(ctx context.Context, spec DiscountSpec) (*Discount, error) {
	if spec.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	var rule priceRulePayload
	rule.PriceRule.Title = spec.Code
	rule.PriceRule.TargetType = "line_item"
	rule.PriceRule.TargetSelection = "all"
	rule.PriceRule.AllocationMethod = "across"
	rule.PriceRule.CustomerSelect = "all"
	rule.PriceRule.StartsAt = time.Now().UTC().Format(time.RFC3339)
	rule.PriceRule.UsageLimit = 1
	switch spec.Kind {
	case DiscountKindFreeProduct:
		rule.PriceRule.ValueType = "percentage"
		rule.PriceRule.Value = "-100.0"
	default:
		rule.PriceRule.ValueType = "fixed_amount"
		rule.PriceRule.Value = "-" + spec.Amount.StringFixed(2)
	}

	var created priceRulePayload
	if err := c.do(ctx, http.MethodPost, "/price_rules.json", rule, &created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create price rule")
	}

	var code discountCodePayload
	code.DiscountCode.Code = spec.Code
	var codeResp discountCodePayload
	path := fmt.Sprintf("/price_rules/%d/discount_codes.json", created.PriceRule.ID)
	if err := c.do(ctx, http.MethodPost, path, code, &codeResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount code")
	}

	return &Discount{
		Code:       codeResp.DiscountCode.Code,
		ExternalID: fmt.Sprintf("%d", created.PriceRule.ID),
	}, nil
}

// DeactivateDiscount expires the price rule so its code can no longer be
// applied at checkout.
func (c *Client) DeactivateDiscount(ctx context.Context, externalID string) error {
	if strings.TrimSpace(externalID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "external discount id is required")
	}

	payload := map[string]map[string]string{
		"price_rule": {
			"ends_at": time.Now().UTC().Add(-time.Minute).Format(time.RFC3339),
		},
	}
	path := fmt.Sprintf("/price_rules/%s.json", url.PathEscape(externalID))
	if err := c.do(ctx, http.MethodPut, path, payload, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate discount")
	}
	return nil
}

type customerSearchPayload struct {
	Customers []struct {
		ID         int64  `json:"id"`
		Email      string `json:"email"`
		TotalSpent string `json:"total_spent"`
	} `json:"customers"`
}

// TotalSpent returns the customer's lifetime spend. Unknown customers report
// zero spend rather than an error.
func (c *Client) TotalSpent(ctx context.Context, email string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("query", "email:"+email)

	var result customerSearchPayload
	if err := c.do(ctx, http.MethodGet, "/customers/search.json?"+query.Encode(), nil, &result); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search customer")
	}
	for _, customer := range result.Customers {
		if strings.EqualFold(customer.Email, email) {
			spent, err := decimal.NewFromString(customer.TotalSpent)
			if err != nil {
				return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse total spent")
			}
			return spent, nil
		}
	}
	return decimal.Zero, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.adminToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("shopify %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
