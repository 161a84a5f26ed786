package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazelpoint/rewards-backend/internal/rewards"
	pkgerrors "github.com/hazelpoint/rewards-backend/pkg/errors"
)

type stubPurchases struct {
	input  *rewards.PurchaseInput
	result *rewards.PurchaseResult
	err    error
}

func (s *stubPurchases) ProcessPurchase(ctx context.Context, input rewards.PurchaseInput) (*rewards.PurchaseResult, error) {
	s.input = &input
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &rewards.PurchaseResult{Points: 10, Tier: "Member", Balance: 15}, nil
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
	err     error
}

func newStubGuard() *stubGuard {
	return &stubGuard{seen: map[string]bool{}}
}

func (g *stubGuard) CheckAndMark(ctx context.Context, orderID string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.seen[orderID] {
		return true, nil
	}
	g.seen[orderID] = true
	return false, nil
}

func (g *stubGuard) Delete(ctx context.Context, orderID string) error {
	g.deleted = append(g.deleted, orderID)
	delete(g.seen, orderID)
	return nil
}

type stubSecrets struct {
	secret string
}

func (s stubSecrets) WebhookSecret() string { return s.secret }

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, handler http.HandlerFunc, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/orders/paid", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(hmacHeader, signature)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

const orderBody = `{
  "id": 450789469,
  "email": "",
  "total_price": "49.99",
  "discount_codes": [{"code": "POINTS5CAD_AB3F9"}, {"code": "SUMMER2024"}],
  "customer": {"email": "shopper@example.com"}
}`

func TestOrdersPaidVerifiesAndProcesses(t *testing.T) {
	svc := &stubPurchases{}
	guard := newStubGuard()
	handler := OrdersPaid(svc, stubSecrets{secret: "shhh"}, guard, nil)

	body := []byte(orderBody)
	resp := postWebhook(t, handler, body, sign(body, "shhh"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input == nil {
		t.Fatal("purchase service not invoked")
	}
	if svc.input.OrderID != "450789469" {
		t.Fatalf("unexpected order id %q", svc.input.OrderID)
	}
	if svc.input.Email != "shopper@example.com" {
		t.Fatalf("customer email fallback not applied: %q", svc.input.Email)
	}
	if svc.input.Total.String() != "49.99" {
		t.Fatalf("unexpected total %s", svc.input.Total)
	}
	if len(svc.input.DiscountCodes) != 2 {
		t.Fatalf("unexpected discount codes %v", svc.input.DiscountCodes)
	}
}

func TestOrdersPaidRejectsBadSignature(t *testing.T) {
	svc := &stubPurchases{}
	handler := OrdersPaid(svc, stubSecrets{secret: "shhh"}, newStubGuard(), nil)

	body := []byte(orderBody)
	resp := postWebhook(t, handler, body, sign(body, "wrong-secret"))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.input != nil {
		t.Fatal("purchase service should not run on bad signature")
	}
}

func TestOrdersPaidRejectsMissingSignature(t *testing.T) {
	handler := OrdersPaid(&stubPurchases{}, stubSecrets{secret: "shhh"}, newStubGuard(), nil)

	resp := postWebhook(t, handler, []byte(orderBody), "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrdersPaidBypassesVerificationWithoutSecret(t *testing.T) {
	svc := &stubPurchases{}
	handler := OrdersPaid(svc, stubSecrets{}, newStubGuard(), nil)

	resp := postWebhook(t, handler, []byte(orderBody), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.input == nil {
		t.Fatal("purchase service not invoked")
	}
}

func TestOrdersPaidDuplicateDelivery(t *testing.T) {
	svc := &stubPurchases{}
	guard := newStubGuard()
	handler := OrdersPaid(svc, stubSecrets{secret: "shhh"}, guard, nil)

	body := []byte(orderBody)
	signature := sign(body, "shhh")

	if resp := postWebhook(t, handler, body, signature); resp.Code != http.StatusOK {
		t.Fatalf("first delivery failed: %d", resp.Code)
	}
	svc.input = nil

	resp := postWebhook(t, handler, body, signature)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.input != nil {
		t.Fatal("duplicate delivery should not reach the service")
	}
}

func TestOrdersPaidReleasesGuardOnFailure(t *testing.T) {
	svc := &stubPurchases{err: pkgerrors.New(pkgerrors.CodeDependency, "spend lookup failed")}
	guard := newStubGuard()
	handler := OrdersPaid(svc, stubSecrets{secret: "shhh"}, guard, nil)

	body := []byte(orderBody)
	resp := postWebhook(t, handler, body, sign(body, "shhh"))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if len(guard.deleted) != 1 {
		t.Fatalf("guard entry should be released on failure, got %v", guard.deleted)
	}

	// The storefront retry can now get through.
	svc.err = nil
	if retry := postWebhook(t, handler, body, sign(body, "shhh")); retry.Code != http.StatusOK {
		t.Fatalf("retry failed: %d", retry.Code)
	}
}

func TestOrdersPaidRejectsMissingOrderID(t *testing.T) {
	handler := OrdersPaid(&stubPurchases{}, stubSecrets{}, newStubGuard(), nil)

	resp := postWebhook(t, handler, []byte(`{"email":"shopper@example.com"}`), "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
