package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/hazelpoint/rewards-backend/internal/rewards"
)

type stubService struct{}

func (stubService) Signup(ctx context.Context, input rewards.SignupInput) (*rewards.SignupResult, error) {
	return &rewards.SignupResult{CustomerID: uuid.New(), Points: 5, ReferralCode: "a1b2c3"}, nil
}
func (stubService) AwardPoints(ctx context.Context, input rewards.AwardInput) (*rewards.AwardResult, error) {
	return &rewards.AwardResult{}, nil
}
func (stubService) Redeem(ctx context.Context, input rewards.RedeemInput) (*rewards.RedeemResult, error) {
	return &rewards.RedeemResult{}, nil
}
func (stubService) CancelRedeem(ctx context.Context, input rewards.CancelInput) (*rewards.CancelResult, error) {
	return &rewards.CancelResult{}, nil
}
func (stubService) MarkDiscountUsed(ctx context.Context, input rewards.MarkUsedInput) error {
	return nil
}
func (stubService) MilestoneRedeem(ctx context.Context, input rewards.MilestoneInput) (*rewards.MilestoneResult, error) {
	return &rewards.MilestoneResult{}, nil
}
func (stubService) ProcessPurchase(ctx context.Context, input rewards.PurchaseInput) (*rewards.PurchaseResult, error) {
	return &rewards.PurchaseResult{}, nil
}

type stubGuard struct{}

func (stubGuard) CheckAndMark(ctx context.Context, orderID string) (bool, error) { return false, nil }
func (stubGuard) Delete(ctx context.Context, orderID string) error               { return nil }

type stubSecrets struct{}

func (stubSecrets) WebhookSecret() string { return "" }

func newTestRouter() http.Handler {
	return NewRouter(RouterParams{
		Rewards:   stubService{},
		Purchases: stubService{},
		Secrets:   stubSecrets{},
		Guard:     stubGuard{},
	})
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterExposesRewardRoutes(t *testing.T) {
	router := newTestRouter()

	paths := []string{
		"/v1/signup",
		"/v1/points/award",
		"/v1/points/redeem",
		"/v1/points/redeem/cancel",
		"/v1/discounts/mark-used",
		"/v1/milestones/redeem",
		"/v1/webhooks/orders/paid",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code == http.StatusNotFound || resp.Code == http.StatusMethodNotAllowed {
			t.Fatalf("%s: route not registered (status %d)", path, resp.Code)
		}
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
