package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hazelpoint/rewards-backend/api/responses"
	"github.com/hazelpoint/rewards-backend/internal/rewards"
	pkgerrors "github.com/hazelpoint/rewards-backend/pkg/errors"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

const hmacHeader = "X-Shopify-Hmac-Sha256"

type PurchaseService interface {
	ProcessPurchase(ctx context.Context, input rewards.PurchaseInput) (*rewards.PurchaseResult, error)
}

type orderGuard interface {
	CheckAndMark(ctx context.Context, orderID string) (bool, error)
	Delete(ctx context.Context, orderID string) error
}

type secretSource interface {
	WebhookSecret() string
}

type orderPaidPayload struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	TotalPrice    string `json:"total_price"`
	DiscountCodes []struct {
		Code string `json:"code"`
	} `json:"discount_codes"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// OrdersPaid ingests the storefront's order-paid webhook. Signature first,
// replay guard second, then the purchase pipeline. The guard entry is
// released on failure so the storefront's retry can get through.
func OrdersPaid(svc PurchaseService, secrets secretSource, guard orderGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		secret := ""
		if secrets != nil {
			secret = secrets.WebhookSecret()
		}
		if secret == "" {
			if logg != nil {
				logg.Warn(ctx, "webhook signature verification bypassed: no secret configured")
			}
		} else if !verifySignature(body, r.Header.Get(hmacHeader), secret) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch"))
			return
		}

		var payload orderPaidPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}
		if payload.ID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}
		orderID := strconv.FormatInt(payload.ID, 10)

		email := strings.TrimSpace(payload.Email)
		if email == "" {
			email = strings.TrimSpace(payload.Customer.Email)
		}

		total := decimal.Zero
		if raw := strings.TrimSpace(payload.TotalPrice); raw != "" {
			total, err = decimal.NewFromString(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order total"))
				return
			}
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
			return
		}

		codes := make([]string, 0, len(payload.DiscountCodes))
		for _, dc := range payload.DiscountCodes {
			codes = append(codes, dc.Code)
		}

		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}

		result, err := svc.ProcessPurchase(ctx, rewards.PurchaseInput{
			Email:         email,
			OrderID:       orderID,
			Total:         total,
			DiscountCodes: codes,
		})
		if err != nil {
			_ = guard.Delete(ctx, orderID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "order webhook processed")
		}
		responses.WriteSuccess(w, result)
	}
}

func verifySignature(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
