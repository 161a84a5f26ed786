package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazelpoint/rewards-backend/api/controllers"
	webhookcontrollers "github.com/hazelpoint/rewards-backend/api/controllers/webhooks"
	"github.com/hazelpoint/rewards-backend/api/middleware"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type orderGuard interface {
	CheckAndMark(ctx context.Context, orderID string) (bool, error)
	Delete(ctx context.Context, orderID string) error
}

type secretSource interface {
	WebhookSecret() string
}

// RouterParams wires the HTTP surface's collaborators.
type RouterParams struct {
	Logger    *logger.Logger
	DB        pinger
	Redis     pinger
	Rewards   controllers.RewardsService
	Purchases webhookcontrollers.PurchaseService
	Secrets   secretSource
	Guard     orderGuard
}

func NewRouter(params RouterParams) http.Handler {
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive())
	r.Get("/readyz", controllers.HealthReady(params.DB, params.Redis, logg))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/signup", controllers.Signup(params.Rewards, logg))

		r.Route("/points", func(r chi.Router) {
			r.Post("/award", controllers.AwardPoints(params.Rewards, logg))
			r.Post("/redeem", controllers.Redeem(params.Rewards, logg))
			r.Post("/redeem/cancel", controllers.CancelRedeem(params.Rewards, logg))
		})

		r.Post("/discounts/mark-used", controllers.MarkDiscountUsed(params.Rewards, logg))
		r.Post("/milestones/redeem", controllers.MilestoneRedeem(params.Rewards, logg))

		r.Post("/webhooks/orders/paid", webhookcontrollers.OrdersPaid(params.Purchases, params.Secrets, params.Guard, logg))
	})

	return r
}
