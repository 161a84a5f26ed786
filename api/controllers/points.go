package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hazelpoint/rewards-backend/api/responses"
	"github.com/hazelpoint/rewards-backend/api/validators"
	"github.com/hazelpoint/rewards-backend/internal/rewards"
	pkgerrors "github.com/hazelpoint/rewards-backend/pkg/errors"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

type awardRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Action string `json:"action" validate:"required,max=64"`
}

type awardResponse struct {
	Awarded int `json:"awarded"`
	Balance int `json:"balance"`
}

func AwardPoints(svc RewardsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req awardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithCustomerEmail(ctx, req.Email)
		}

		result, err := svc.AwardPoints(ctx, rewards.AwardInput{Email: req.Email, Action: req.Action})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, awardResponse{Awarded: result.Awarded, Balance: result.Balance})
	}
}

type redeemRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Points int    `json:"points" validate:"required,gt=0"`
	Kind   string `json:"kind" validate:"omitempty,oneof=fixed_amount free_product"`
	Value  string `json:"value" validate:"required"`
}

type redeemResponse struct {
	Code    string `json:"code"`
	Balance int    `json:"balance"`
}

func Redeem(svc RewardsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req redeemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		value, err := decimal.NewFromString(req.Value)
		if err != nil || value.IsNegative() {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "value must be a non-negative decimal"))
			return
		}

		if logg != nil {
			ctx = logg.WithCustomerEmail(ctx, req.Email)
		}

		result, err := svc.Redeem(ctx, rewards.RedeemInput{
			Email:  req.Email,
			Points: req.Points,
			Kind:   req.Kind,
			Value:  value,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, redeemResponse{Code: result.Code, Balance: result.Balance})
	}
}

type cancelRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Points int    `json:"points" validate:"omitempty,gt=0"`
}

type cancelResponse struct {
	Refunded int `json:"refunded"`
	Balance  int `json:"balance"`
}

func CancelRedeem(svc RewardsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req cancelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithCustomerEmail(ctx, req.Email)
		}

		result, err := svc.CancelRedeem(ctx, rewards.CancelInput{Email: req.Email, Points: req.Points})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, cancelResponse{Refunded: result.Refunded, Balance: result.Balance})
	}
}
