package controllers

import (
	"context"
	"net/http"

	"github.com/hazelpoint/rewards-backend/api/responses"
	"github.com/hazelpoint/rewards-backend/api/validators"
	"github.com/hazelpoint/rewards-backend/internal/rewards"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

// RewardsService is the slice of the rewards engine the HTTP surface needs.
type RewardsService interface {
	Signup(ctx context.Context, input rewards.SignupInput) (*rewards.SignupResult, error)
	AwardPoints(ctx context.Context, input rewards.AwardInput) (*rewards.AwardResult, error)
	Redeem(ctx context.Context, input rewards.RedeemInput) (*rewards.RedeemResult, error)
	CancelRedeem(ctx context.Context, input rewards.CancelInput) (*rewards.CancelResult, error)
	MarkDiscountUsed(ctx context.Context, input rewards.MarkUsedInput) error
	MilestoneRedeem(ctx context.Context, input rewards.MilestoneInput) (*rewards.MilestoneResult, error)
}

type signupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	ReferredBy string `json:"referred_by" validate:"omitempty,max=32"`
}

type signupResponse struct {
	CustomerID   string  `json:"customer_id"`
	Points       int     `json:"points"`
	ReferralCode string  `json:"referral_code"`
	ReferralURL  string  `json:"referral_url"`
	WelcomeCode  *string `json:"welcome_code,omitempty"`
}

func Signup(svc RewardsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req signupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithCustomerEmail(ctx, req.Email)
		}

		result, err := svc.Signup(ctx, rewards.SignupInput{
			Email:      req.Email,
			FirstName:  req.FirstName,
			ReferredBy: req.ReferredBy,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, signupResponse{
			CustomerID:   result.CustomerID.String(),
			Points:       result.Points,
			ReferralCode: result.ReferralCode,
			ReferralURL:  result.ReferralURL,
			WelcomeCode:  result.WelcomeCode,
		})
	}
}
