package controllers

import (
	"net/http"

	"github.com/hazelpoint/rewards-backend/api/responses"
	"github.com/hazelpoint/rewards-backend/api/validators"
	"github.com/hazelpoint/rewards-backend/internal/rewards"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

type markUsedRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,max=64"`
}

func MarkDiscountUsed(svc RewardsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req markUsedRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithCustomerEmail(ctx, req.Email)
		}

		if err := svc.MarkDiscountUsed(ctx, rewards.MarkUsedInput{Email: req.Email, Code: req.Code}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "used"})
	}
}
