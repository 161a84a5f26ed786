package rewards

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hazelpoint/rewards-backend/pkg/db/models"
	"github.com/hazelpoint/rewards-backend/pkg/enums"
)

// Repository is the persistence surface for the rewards engine. Point
// mutations are relative (`points_balance + ?`) so concurrent writers never
// clobber each other, and the duplicate gates live in the database's unique
// indexes rather than in check-then-act reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCustomer(ctx context.Context, customer *models.Customer) error
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindCustomerByReferralCode(ctx context.Context, code string) (*models.Customer, error)
	AddPoints(ctx context.Context, customerID uuid.UUID, delta int) error
	UpdateTierSnapshot(ctx context.Context, customerID uuid.UUID, tierName string, spend decimal.Decimal) error
	IncrementReferralCount(ctx context.Context, customerID uuid.UUID) error

	AppendAction(ctx context.Context, action *models.RewardAction) error
	HasActionOfType(ctx context.Context, customerID uuid.UUID, actionType enums.ActionType) (bool, error)
	SumActionPoints(ctx context.Context, customerID uuid.UUID) (int, error)

	CreateRedemption(ctx context.Context, redemption *models.Redemption) error
	FindActiveRedemption(ctx context.Context, customerID uuid.UUID) (*models.Redemption, error)
	FindActiveRedemptionByCode(ctx context.Context, code string) (*models.Redemption, error)
	SetRedemptionExternalID(ctx context.Context, redemptionID uuid.UUID, externalID string) error
	UpdateRedemptionStatus(ctx context.Context, redemptionID uuid.UUID, status enums.RedemptionStatus) error

	CreateMilestoneAward(ctx context.Context, award *models.MilestoneAward) error
	HasMilestoneAward(ctx context.Context, customerID uuid.UUID, threshold int) (bool, error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository wires the GORM-backed repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{conn: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{conn: tx}
}

func (r *gormRepository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	return r.conn.WithContext(ctx).Create(customer).Error
}

func (r *gormRepository) FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.conn.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.conn.WithContext(ctx).First(&customer, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) FindCustomerByReferralCode(ctx context.Context, code string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.conn.WithContext(ctx).First(&customer, "referral_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) AddPoints(ctx context.Context, customerID uuid.UUID, delta int) error {
	result := r.conn.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		UpdateColumn("points_balance", gorm.Expr("points_balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) UpdateTierSnapshot(ctx context.Context, customerID uuid.UUID, tierName string, spend decimal.Decimal) error {
	return r.conn.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"tier_name":  tierName,
			"tier_spend": spend,
		}).Error
}

func (r *gormRepository) IncrementReferralCount(ctx context.Context, customerID uuid.UUID) error {
	return r.conn.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		UpdateColumn("referral_count", gorm.Expr("referral_count + 1")).Error
}

func (r *gormRepository) AppendAction(ctx context.Context, action *models.RewardAction) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	return r.conn.WithContext(ctx).Create(action).Error
}

func (r *gormRepository) HasActionOfType(ctx context.Context, customerID uuid.UUID, actionType enums.ActionType) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.RewardAction{}).
		Where("customer_id = ? AND type = ?", customerID, actionType).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) SumActionPoints(ctx context.Context, customerID uuid.UUID) (int, error) {
	var total struct {
		Sum int
	}
	err := r.conn.WithContext(ctx).
		Model(&models.RewardAction{}).
		Select("COALESCE(SUM(points), 0) AS sum").
		Where("customer_id = ?", customerID).
		Scan(&total).Error
	return total.Sum, err
}

func (r *gormRepository) CreateRedemption(ctx context.Context, redemption *models.Redemption) error {
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	return r.conn.WithContext(ctx).Create(redemption).Error
}

func (r *gormRepository) FindActiveRedemption(ctx context.Context, customerID uuid.UUID) (*models.Redemption, error) {
	var redemption models.Redemption
	err := r.conn.WithContext(ctx).
		First(&redemption, "customer_id = ? AND status = ?", customerID, enums.RedemptionStatusIssued).Error
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *gormRepository) FindActiveRedemptionByCode(ctx context.Context, code string) (*models.Redemption, error) {
	var redemption models.Redemption
	err := r.conn.WithContext(ctx).
		First(&redemption, "code = ? AND status = ?", code, enums.RedemptionStatusIssued).Error
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *gormRepository) SetRedemptionExternalID(ctx context.Context, redemptionID uuid.UUID, externalID string) error {
	return r.conn.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("id = ?", redemptionID).
		UpdateColumn("external_id", externalID).Error
}

// UpdateRedemptionStatus moves an issued redemption to a terminal status. The
// status guard in the WHERE clause makes the transition itself the race
// arbiter; losing the race surfaces as ErrRecordNotFound.
func (r *gormRepository) UpdateRedemptionStatus(ctx context.Context, redemptionID uuid.UUID, status enums.RedemptionStatus) error {
	if !enums.RedemptionStatusIssued.CanTransitionTo(status) {
		return gorm.ErrInvalidValue
	}
	result := r.conn.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("id = ? AND status = ?", redemptionID, enums.RedemptionStatusIssued).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) CreateMilestoneAward(ctx context.Context, award *models.MilestoneAward) error {
	if award.ID == uuid.Nil {
		award.ID = uuid.New()
	}
	return r.conn.WithContext(ctx).Create(award).Error
}

func (r *gormRepository) HasMilestoneAward(ctx context.Context, customerID uuid.UUID, threshold int) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.MilestoneAward{}).
		Where("customer_id = ? AND threshold = ?", customerID, threshold).
		Count(&count).Error
	return count > 0, err
}
