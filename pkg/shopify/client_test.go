package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelpoint/rewards-backend/pkg/config"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.ShopifyConfig{
		StoreDomain:   "test-shop.myshopify.com",
		AdminToken:    "shpat_test",
		APIVersion:    "2024-01",
		WebhookSecret: "shhh",
	}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)

	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())
	return client
}

func TestCreateDiscountFixedAmount(t *testing.T) {
	var rulePayload priceRulePayload

	mux := http.NewServeMux()
	mux.HandleFunc("/price_rules.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rulePayload))

		var resp priceRulePayload
		resp.PriceRule = rulePayload.PriceRule
		resp.PriceRule.ID = 123
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/price_rules/123/discount_codes.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var payload discountCodePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payload.DiscountCode.ID = 9
		json.NewEncoder(w).Encode(payload)
	})

	client := newTestClient(t, mux)
	discount, err := client.CreateDiscount(context.Background(), DiscountSpec{
		Code:   "POINTS5CAD_AAAAA",
		Kind:   DiscountKindFixedAmount,
		Amount: decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "POINTS5CAD_AAAAA", discount.Code)
	assert.Equal(t, "123", discount.ExternalID)
	assert.Equal(t, "fixed_amount", rulePayload.PriceRule.ValueType)
	assert.Equal(t, "-5.00", rulePayload.PriceRule.Value)
	assert.Equal(t, 1, rulePayload.PriceRule.UsageLimit)
}

func TestCreateDiscountFreeProduct(t *testing.T) {
	var rulePayload priceRulePayload

	mux := http.NewServeMux()
	mux.HandleFunc("/price_rules.json", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rulePayload))
		var resp priceRulePayload
		resp.PriceRule.ID = 77
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/price_rules/77/discount_codes.json", func(w http.ResponseWriter, r *http.Request) {
		var payload discountCodePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		json.NewEncoder(w).Encode(payload)
	})

	client := newTestClient(t, mux)
	_, err := client.CreateDiscount(context.Background(), DiscountSpec{
		Code: "MILESTONEFREE_AAAAA",
		Kind: DiscountKindFreeProduct,
	})
	require.NoError(t, err)

	assert.Equal(t, "percentage", rulePayload.PriceRule.ValueType)
	assert.Equal(t, "-100.0", rulePayload.PriceRule.Value)
}

func TestCreateDiscountUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/price_rules.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"rate limited"}`, http.StatusTooManyRequests)
	})

	client := newTestClient(t, mux)
	_, err := client.CreateDiscount(context.Background(), DiscountSpec{
		Code:   "POINTS5CAD_AAAAA",
		Amount: decimal.RequireFromString("5.00"),
	})
	require.Error(t, err)
}

func TestDeactivateDiscount(t *testing.T) {
	var called bool
	mux := http.NewServeMux()
	mux.HandleFunc("/price_rules/123.json", func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPut, r.Method)

		var payload map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload["price_rule"]["ends_at"])
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	client := newTestClient(t, mux)
	require.NoError(t, client.DeactivateDiscount(context.Background(), "123"))
	assert.True(t, called)
}

func TestTotalSpent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customers/search.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "email:shopper@example.com", r.URL.Query().Get("query"))
		w.Write([]byte(`{"customers":[
			{"id":1,"email":"other@example.com","total_spent":"10.00"},
			{"id":2,"email":"shopper@example.com","total_spent":"312.45"}
		]}`))
	})

	client := newTestClient(t, mux)
	spent, err := client.TotalSpent(context.Background(), "shopper@example.com")
	require.NoError(t, err)
	assert.True(t, spent.Equal(decimal.RequireFromString("312.45")))
}

func TestTotalSpentUnknownCustomer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customers/search.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"customers":[]}`))
	})

	client := newTestClient(t, mux)
	spent, err := client.TotalSpent(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.True(t, spent.IsZero())
}
