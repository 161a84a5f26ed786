package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hazelpoint/rewards-backend/pkg/config"
	"github.com/hazelpoint/rewards-backend/pkg/db"
	"github.com/hazelpoint/rewards-backend/pkg/db/models"
	"github.com/hazelpoint/rewards-backend/pkg/enums"
	pkgerrors "github.com/hazelpoint/rewards-backend/pkg/errors"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
	"github.com/hazelpoint/rewards-backend/pkg/outbox"
	"github.com/hazelpoint/rewards-backend/pkg/shopify"
)

const referralCodeAttempts = 3

// Skip reasons reported for purchases that change nothing.
const (
	SkipReasonUnknownCustomer = "unknown_customer"
	SkipReasonDuplicateOrder  = "order_already_processed"
)

// DiscountIssuer mints and voids single-use discount codes on the commerce
// platform.
type DiscountIssuer interface {
	CreateDiscount(ctx context.Context, spec shopify.DiscountSpec) (*shopify.Discount, error)
	DeactivateDiscount(ctx context.Context, externalID string) error
}

// SpendLookup resolves a customer's lifetime spend for tier placement.
type SpendLookup interface {
	TotalSpent(ctx context.Context, email string) (decimal.Decimal, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type taskEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, task outbox.Task) error
}

// ServiceParams wires the rewards engine's collaborators.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Discounts DiscountIssuer
	Spend     SpendLookup
	Outbox    taskEmitter
	Config    config.RewardsConfig
	Tiers     []Tier
	Logger    *logger.Logger
}

// Service owns the points ledger: every enrollment, award, redemption, and
// purchase accrual flows through it.
type Service struct {
	repo      Repository
	tx        txRunner
	discounts DiscountIssuer
	spend     SpendLookup
	outbox    taskEmitter
	cfg       config.RewardsConfig
	tiers     []Tier
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("rewards repository is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Discounts == nil {
		return nil, errors.New("discount issuer is required")
	}
	if params.Spend == nil {
		return nil, errors.New("spend lookup is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	tiers := params.Tiers
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Service{
		repo:      params.Repo,
		tx:        params.Tx,
		discounts: params.Discounts,
		spend:     params.Spend,
		outbox:    params.Outbox,
		cfg:       params.Config,
		tiers:     tiers,
		logg:      params.Logger,
	}, nil
}

type subscribePayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
}

// Signup enrolls a customer, grants the signup bonus, credits the referrer,
// queues the marketing-list subscription, and, for referred signups, mints a
// welcome discount. The welcome mint is best effort; everything else commits
// atomically.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	referredBy := strings.TrimSpace(input.ReferredBy)

	if _, err := s.repo.FindCustomerByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "customer already enrolled")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up customer")
	}

	var (
		customer         *models.Customer
		referrerResolved bool
	)
	for attempt := 0; ; attempt++ {
		code, err := NewReferralCode()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating referral code")
		}

		customer = &models.Customer{
			Email:         email,
			FirstName:     strings.TrimSpace(input.FirstName),
			PointsBalance: s.cfg.SignupBonus,
			ReferralCode:  code,
			TierName:      baseTier.Name,
		}
		if referredBy != "" {
			customer.ReferredBy = &referredBy
		}

		referrerResolved = false
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.CreateCustomer(ctx, customer); err != nil {
				return err
			}
			if err := repo.AppendAction(ctx, &models.RewardAction{
				CustomerID: customer.ID,
				Type:       enums.ActionTypeSignup,
				Points:     s.cfg.SignupBonus,
				Reference:  ref("action:signup"),
			}); err != nil {
				return err
			}

			if referredBy != "" {
				referrer, err := repo.FindCustomerByReferralCode(ctx, referredBy)
				switch {
				case err == nil:
					referrerResolved = true
					if err := repo.AddPoints(ctx, referrer.ID, s.cfg.ReferralSignupBonus); err != nil {
						return err
					}
					if err := repo.AppendAction(ctx, &models.RewardAction{
						CustomerID: referrer.ID,
						Type:       enums.ActionTypeReferralSignup,
						Points:     s.cfg.ReferralSignupBonus,
						Reference:  ref("referral-signup:" + customer.ID.String()),
					}); err != nil {
						return err
					}
				case errors.Is(err, gorm.ErrRecordNotFound):
					// Unknown referral codes are ignored, not rejected.
				default:
					return err
				}
			}

			return s.outbox.Emit(ctx, tx, outbox.Task{
				Kind: enums.OutboxKindListSubscribe,
				Data: subscribePayload{Email: email, FirstName: customer.FirstName},
			})
		})
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, "") {
			// The email was checked above, so a unique violation here is
			// almost certainly the referral code. Retry with a fresh one.
			if attempt+1 < referralCodeAttempts {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "customer already enrolled")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "enrolling customer")
	}

	result := &SignupResult{
		CustomerID:   customer.ID,
		Points:       customer.PointsBalance,
		ReferralCode: customer.ReferralCode,
		ReferralURL:  fmt.Sprintf("%s/?ref=%s", strings.TrimRight(s.cfg.ReferralBaseURL, "/"), customer.ReferralCode),
	}

	if referrerResolved {
		s.attempt(ctx, "welcome_discount", func() error {
			amount, err := decimal.NewFromString(s.cfg.WelcomeDiscount)
			if err != nil {
				return fmt.Errorf("parsing welcome discount amount: %w", err)
			}
			code, err := NewWelcomeCode()
			if err != nil {
				return err
			}
			discount, err := s.discounts.CreateDiscount(ctx, shopify.DiscountSpec{
				Code:   code,
				Kind:   shopify.DiscountKindFixedAmount,
				Amount: amount,
			})
			if err != nil {
				return err
			}
			result.WelcomeCode = &discount.Code
			return nil
		})
	}

	return result, nil
}

// AwardPoints grants a whitelisted social action bonus once per customer per
// action. The unique index on the action reference is the once-only gate.
func (s *Service) AwardPoints(ctx context.Context, input AwardInput) (*AwardResult, error) {
	points, ok := s.cfg.ActionPoints[input.Action]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action %q", input.Action))
	}

	customer, err := s.findCustomer(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	var balance int
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.AppendAction(ctx, &models.RewardAction{
			CustomerID: customer.ID,
			Type:       enums.ActionTypeAward,
			Points:     points,
			Reference:  ref("action:" + input.Action),
		}); err != nil {
			return err
		}
		if err := repo.AddPoints(ctx, customer.ID, points); err != nil {
			return err
		}
		fresh, err := repo.FindCustomerByID(ctx, customer.ID)
		if err != nil {
			return err
		}
		balance = fresh.PointsBalance
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_reward_actions_customer_reference") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("action %q already claimed", input.Action))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "awarding points")
	}

	return &AwardResult{Awarded: points, Balance: balance}, nil
}

// Redeem deducts points and mints a single-use discount code. The deduction,
// the ledger entry, and the issued redemption row commit first; the external
// mint and the external-id write happen after. If either fails the redemption
// is voided so the slot frees up, but the points stay spent and the caller
// sees a dependency error.
func (s *Service) Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	if input.Points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	kind, err := parseDiscountKind(input.Kind)
	if err != nil {
		return nil, err
	}

	customer, err := s.findCustomer(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if customer.PointsBalance < input.Points {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPoints,
			fmt.Sprintf("balance %d is below %d", customer.PointsBalance, input.Points))
	}

	code, err := NewRewardCode(input.Value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating reward code")
	}
	redemption := &models.Redemption{
		CustomerID:  customer.ID,
		Code:        code,
		PointsSpent: input.Points,
		Status:      enums.RedemptionStatusIssued,
	}

	var balance int
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateRedemption(ctx, redemption); err != nil {
			return err
		}
		if err := repo.AddPoints(ctx, customer.ID, -input.Points); err != nil {
			return err
		}
		if err := repo.AppendAction(ctx, &models.RewardAction{
			CustomerID: customer.ID,
			Type:       enums.ActionTypeRedemption,
			Points:     -input.Points,
			Reference:  ref("redeem:" + code),
		}); err != nil {
			return err
		}
		fresh, err := repo.FindCustomerByID(ctx, customer.ID)
		if err != nil {
			return err
		}
		balance = fresh.PointsBalance
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_redemptions_customer_issued") {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a discount code is already outstanding")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording redemption")
	}

	discount, err := s.discounts.CreateDiscount(ctx, shopify.DiscountSpec{
		Code:   code,
		Kind:   kind,
		Amount: input.Value,
	})
	if err != nil {
		// Free the slot so a later redemption is not blocked by a code that
		// never existed. The spent points are not refunded here; the caller
		// retries or cancels.
		s.attempt(ctx, "void_failed_mint", func() error {
			return s.repo.UpdateRedemptionStatus(ctx, redemption.ID, enums.RedemptionStatusCancelled)
		})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issuing discount code")
	}
	if err := s.repo.SetRedemptionExternalID(ctx, redemption.ID, discount.ExternalID); err != nil {
		// A redemption without its external id can never be voided later, so
		// the live code must not outlive this failure. Kill the code and free
		// the slot; the points stay spent, as on a failed mint.
		s.attempt(ctx, "void_unrecorded_discount", func() error {
			return s.discounts.DeactivateDiscount(ctx, discount.ExternalID)
		})
		s.attempt(ctx, "cancel_unrecorded_redemption", func() error {
			return s.repo.UpdateRedemptionStatus(ctx, redemption.ID, enums.RedemptionStatusCancelled)
		})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording discount code")
	}

	return &RedeemResult{Code: discount.Code, Balance: balance}, nil
}

// CancelRedeem voids the outstanding discount and refunds its recorded cost.
// The refund amount comes from the redemption row, never from the caller; a
// non-zero requested amount only has to agree with it.
func (s *Service) CancelRedeem(ctx context.Context, input CancelInput) (*CancelResult, error) {
	customer, err := s.findCustomer(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	redemption, err := s.repo.FindActiveRedemption(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no outstanding discount to cancel")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading redemption")
	}
	if input.Points != 0 && input.Points != redemption.PointsSpent {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("refund amount %d does not match redemption cost %d", input.Points, redemption.PointsSpent))
	}

	if redemption.ExternalID != "" {
		s.attempt(ctx, "deactivate_discount", func() error {
			return s.discounts.DeactivateDiscount(ctx, redemption.ExternalID)
		})
	}

	refund := redemption.PointsSpent
	var balance int
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateRedemptionStatus(ctx, redemption.ID, enums.RedemptionStatusCancelled); err != nil {
			return err
		}
		if err := repo.AddPoints(ctx, customer.ID, refund); err != nil {
			return err
		}
		if err := repo.AppendAction(ctx, &models.RewardAction{
			CustomerID: customer.ID,
			Type:       enums.ActionTypeCancellation,
			Points:     refund,
			Reference:  ref("cancel:" + redemption.Code),
		}); err != nil {
			return err
		}
		fresh, err := repo.FindCustomerByID(ctx, customer.ID)
		if err != nil {
			return err
		}
		balance = fresh.PointsBalance
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "discount already settled")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling redemption")
	}

	return &CancelResult{Refunded: refund, Balance: balance}, nil
}

// MarkDiscountUsed settles the outstanding discount after checkout applied
// it. The external deactivation is best effort; the slot state change is not.
func (s *Service) MarkDiscountUsed(ctx context.Context, input MarkUsedInput) error {
	customer, err := s.findCustomer(ctx, input.Email)
	if err != nil {
		return err
	}

	redemption, err := s.repo.FindActiveRedemption(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no outstanding discount code")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading redemption")
	}
	if !strings.EqualFold(redemption.Code, strings.TrimSpace(input.Code)) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "code does not match the outstanding discount")
	}

	if err := s.repo.UpdateRedemptionStatus(ctx, redemption.ID, enums.RedemptionStatusUsed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "discount already settled")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling redemption")
	}

	if redemption.ExternalID != "" {
		s.attempt(ctx, "deactivate_discount", func() error {
			return s.discounts.DeactivateDiscount(ctx, redemption.ExternalID)
		})
	}
	return nil
}

// ProcessPurchase applies a paid order: tier-rated point accrual, settlement
// of any of our discount codes the order used, and the referrer's
// first-purchase bonus. The whole batch commits in one transaction keyed on
// the order reference, so webhook replays collapse into a skipped result.
func (s *Service) ProcessPurchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.Total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}

	customer, err := s.repo.FindCustomerByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PurchaseResult{Skipped: true, Reason: SkipReasonUnknownCustomer}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up customer")
	}

	hadPurchase, err := s.repo.HasActionOfType(ctx, customer.ID, enums.ActionTypePurchase)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking purchase history")
	}

	spend, err := s.spend.TotalSpent(ctx, customer.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving lifetime spend")
	}
	tier := TierFor(s.tiers, spend)
	points := int(input.Total.Mul(decimal.NewFromInt(int64(tier.PointsPerDollar))).IntPart())

	result := &PurchaseResult{Points: points, Tier: tier.Name}
	var deactivations []string

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.AppendAction(ctx, &models.RewardAction{
			CustomerID: customer.ID,
			Type:       enums.ActionTypePurchase,
			Points:     points,
			Reference:  ref("order:" + orderID),
		}); err != nil {
			return err
		}
		if err := repo.AddPoints(ctx, customer.ID, points); err != nil {
			return err
		}
		if err := repo.UpdateTierSnapshot(ctx, customer.ID, tier.Name, spend); err != nil {
			return err
		}

		for _, code := range input.DiscountCodes {
			code = strings.TrimSpace(code)
			if !IsRewardCode(code) {
				continue
			}
			holder, err := repo.FindActiveRedemptionByCode(ctx, code)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if err := repo.UpdateRedemptionStatus(ctx, holder.ID, enums.RedemptionStatusUsed); err != nil {
				return err
			}
			if _, ok := TierPointsFromCode(code); ok {
				// Zero-point audit marker recording which discount the order
				// consumed. The code's encoded value never moves the balance.
				if err := repo.AppendAction(ctx, &models.RewardAction{
					CustomerID: holder.CustomerID,
					Type:       enums.ActionTypeDiscountTierUsed,
					Points:     0,
					Reference:  ref(fmt.Sprintf("tier:%s:%s", orderID, code)),
				}); err != nil {
					return err
				}
			}
			if holder.ExternalID != "" {
				deactivations = append(deactivations, holder.ExternalID)
			}
		}

		if !hadPurchase && customer.ReferredBy != nil {
			referrer, err := repo.FindCustomerByReferralCode(ctx, *customer.ReferredBy)
			switch {
			case err == nil:
				bonus := s.cfg.ReferralPurchaseBonus
				if err := repo.AppendAction(ctx, &models.RewardAction{
					CustomerID: referrer.ID,
					Type:       enums.ActionTypeReferralPurchase,
					Points:     bonus,
					Reference:  ref(fmt.Sprintf("referral:%s:%s", customer.ID, orderID)),
				}); err != nil {
					return err
				}
				if err := repo.AddPoints(ctx, referrer.ID, bonus); err != nil {
					return err
				}
				if err := repo.IncrementReferralCount(ctx, referrer.ID); err != nil {
					return err
				}
				result.ReferralBonus = true
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return err
			}
		}

		fresh, err := repo.FindCustomerByID(ctx, customer.ID)
		if err != nil {
			return err
		}
		result.Balance = fresh.PointsBalance
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_reward_actions_customer_reference") {
			return &PurchaseResult{Skipped: true, Reason: SkipReasonDuplicateOrder}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying purchase")
	}

	for _, externalID := range deactivations {
		externalID := externalID
		s.attempt(ctx, "deactivate_discount", func() error {
			return s.discounts.DeactivateDiscount(ctx, externalID)
		})
	}

	return result, nil
}

// MilestoneRedeem claims the configured reward for a referral-count
// threshold. The external mint happens before the recording transaction; a
// lost race voids the freshly minted code best effort.
func (s *Service) MilestoneRedeem(ctx context.Context, input MilestoneInput) (*MilestoneResult, error) {
	reward, ok := s.cfg.MilestoneReward(input.Threshold)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("no reward configured for milestone %d", input.Threshold))
	}

	customer, err := s.findCustomer(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if customer.ReferralCount < input.Threshold {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPoints,
			fmt.Sprintf("milestone %d requires %d referred purchases, customer has %d",
				input.Threshold, input.Threshold, customer.ReferralCount))
	}

	claimed, err := s.repo.HasMilestoneAward(ctx, customer.ID, input.Threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking milestone history")
	}
	if claimed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("milestone %d already redeemed", input.Threshold))
	}

	code, err := NewMilestoneCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating milestone code")
	}
	discount, err := s.discounts.CreateDiscount(ctx, shopify.DiscountSpec{
		Code: code,
		Kind: shopify.DiscountKindFreeProduct,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issuing milestone discount")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateMilestoneAward(ctx, &models.MilestoneAward{
			CustomerID: customer.ID,
			Threshold:  input.Threshold,
			Reward:     reward,
			Code:       discount.Code,
			ExternalID: discount.ExternalID,
		}); err != nil {
			return err
		}
		return repo.AppendAction(ctx, &models.RewardAction{
			CustomerID: customer.ID,
			Type:       enums.ActionTypeMilestone,
			Points:     0,
			Reference:  ref(fmt.Sprintf("milestone:%d", input.Threshold)),
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			s.attempt(ctx, "void_duplicate_milestone", func() error {
				return s.discounts.DeactivateDiscount(ctx, discount.ExternalID)
			})
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("milestone %d already redeemed", input.Threshold))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording milestone")
	}

	return &MilestoneResult{Reward: reward, Code: discount.Code}, nil
}

// findCustomer resolves by normalized email, mapping a missing row to the
// NOT_FOUND taxonomy code.
func (s *Service) findCustomer(ctx context.Context, email string) (*models.Customer, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	customer, err := s.repo.FindCustomerByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up customer")
	}
	return customer, nil
}

// attempt runs a best-effort side call. Failure is logged and swallowed; the
// operation that triggered it keeps its outcome.
func (s *Service) attempt(ctx context.Context, step string, fn func() error) bool {
	if err := fn(); err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"step": step, "error": err.Error()})
			s.logg.Warn(logCtx, "best-effort call failed")
		}
		return false
	}
	return true
}

func parseDiscountKind(kind string) (shopify.DiscountKind, error) {
	switch shopify.DiscountKind(strings.TrimSpace(kind)) {
	case shopify.DiscountKindFixedAmount, "":
		return shopify.DiscountKindFixedAmount, nil
	case shopify.DiscountKindFreeProduct:
		return shopify.DiscountKindFreeProduct, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown discount kind %q", kind))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ref(value string) *string {
	return &value
}
