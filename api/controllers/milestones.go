package controllers

import (
	"net/http"

	"github.com/hazelpoint/rewards-backend/api/responses"
	"github.com/hazelpoint/rewards-backend/api/validators"
	"github.com/hazelpoint/rewards-backend/internal/rewards"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

type milestoneRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Threshold int    `json:"threshold" validate:"required,gt=0"`
}

type milestoneResponse struct {
	Reward string `json:"reward"`
	Code   string `json:"code"`
}

func MilestoneRedeem(svc RewardsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req milestoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithCustomerEmail(ctx, req.Email)
		}

		result, err := svc.MilestoneRedeem(ctx, rewards.MilestoneInput{
			Email:     req.Email,
			Threshold: req.Threshold,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, milestoneResponse{Reward: result.Reward, Code: result.Code})
	}
}
