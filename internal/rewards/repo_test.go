package rewards

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hazelpoint/rewards-backend/pkg/db"
	"github.com/hazelpoint/rewards-backend/pkg/db/models"
	"github.com/hazelpoint/rewards-backend/pkg/enums"
)

func TestRepositoryCustomerFlow(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customer := &models.Customer{
		Email:         "shopper@example.com",
		FirstName:     "Sam",
		PointsBalance: 5,
		ReferralCode:  "a1b2c3",
		TierName:      "Member",
	}
	require.NoError(t, repo.CreateCustomer(ctx, customer))
	require.NotEqual(t, uuid.Nil, customer.ID)

	byEmail, err := repo.FindCustomerByEmail(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, byEmail.ID)

	byCode, err := repo.FindCustomerByReferralCode(ctx, "a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, byCode.ID)

	require.NoError(t, repo.AddPoints(ctx, customer.ID, 20))
	require.NoError(t, repo.AddPoints(ctx, customer.ID, -10))

	fresh, err := repo.FindCustomerByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, fresh.PointsBalance)

	require.NoError(t, repo.UpdateTierSnapshot(ctx, customer.ID, "Silver", decimal.NewFromInt(300)))
	require.NoError(t, repo.IncrementReferralCount(ctx, customer.ID))
	require.NoError(t, repo.IncrementReferralCount(ctx, customer.ID))

	fresh, err = repo.FindCustomerByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Silver", fresh.TierName)
	assert.Equal(t, 2, fresh.ReferralCount)
	assert.True(t, fresh.TierSpend.Equal(decimal.NewFromInt(300)))
}

func TestRepositoryAddPointsUnknownCustomer(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)

	err := repo.AddPoints(context.Background(), uuid.New(), 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryActionReferenceGate(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()

	require.NoError(t, repo.AppendAction(ctx, &models.RewardAction{
		CustomerID: first,
		Type:       enums.ActionTypePurchase,
		Points:     10,
		Reference:  ref("order:1001"),
	}))

	err := repo.AppendAction(ctx, &models.RewardAction{
		CustomerID: first,
		Type:       enums.ActionTypePurchase,
		Points:     10,
		Reference:  ref("order:1001"),
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_reward_actions_customer_reference"))

	// Same reference under a different customer is a separate fact.
	require.NoError(t, repo.AppendAction(ctx, &models.RewardAction{
		CustomerID: second,
		Type:       enums.ActionTypePurchase,
		Points:     10,
		Reference:  ref("order:1001"),
	}))

	// Nil references never collide.
	require.NoError(t, repo.AppendAction(ctx, &models.RewardAction{
		CustomerID: first, Type: enums.ActionTypeAward, Points: 1,
	}))
	require.NoError(t, repo.AppendAction(ctx, &models.RewardAction{
		CustomerID: first, Type: enums.ActionTypeAward, Points: 1,
	}))
}

func TestRepositorySumActionPoints(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	for _, entry := range []struct {
		points int
		refKey string
	}{
		{5, "action:signup"},
		{10, "order:1"},
		{-8, "redeem:POINTS0.08CAD_AAAAA"},
		{8, "cancel:POINTS0.08CAD_AAAAA"},
	} {
		require.NoError(t, repo.AppendAction(ctx, &models.RewardAction{
			CustomerID: customerID,
			Type:       enums.ActionTypeAward,
			Points:     entry.points,
			Reference:  ref(entry.refKey),
		}))
	}

	sum, err := repo.SumActionPoints(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 15, sum)

	none, err := repo.SumActionPoints(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestRepositoryRedemptionLifecycle(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	issued := &models.Redemption{
		CustomerID:  customerID,
		Code:        "POINTS5CAD_AAAAA",
		PointsSpent: 500,
		Status:      enums.RedemptionStatusIssued,
	}
	require.NoError(t, repo.CreateRedemption(ctx, issued))

	// One issued slot per customer.
	err := repo.CreateRedemption(ctx, &models.Redemption{
		CustomerID:  customerID,
		Code:        "POINTS2CAD_BBBBB",
		PointsSpent: 200,
		Status:      enums.RedemptionStatusIssued,
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_redemptions_customer_issued"))

	active, err := repo.FindActiveRedemption(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, active.ID)

	byCode, err := repo.FindActiveRedemptionByCode(ctx, "POINTS5CAD_AAAAA")
	require.NoError(t, err)
	assert.Equal(t, issued.ID, byCode.ID)

	require.NoError(t, repo.SetRedemptionExternalID(ctx, issued.ID, "pr-42"))
	require.NoError(t, repo.UpdateRedemptionStatus(ctx, issued.ID, enums.RedemptionStatusUsed))

	// Settled rows cannot transition again.
	err = repo.UpdateRedemptionStatus(ctx, issued.ID, enums.RedemptionStatusCancelled)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindActiveRedemption(ctx, customerID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The slot frees up once settled.
	require.NoError(t, repo.CreateRedemption(ctx, &models.Redemption{
		CustomerID:  customerID,
		Code:        "POINTS2CAD_BBBBB",
		PointsSpent: 200,
		Status:      enums.RedemptionStatusIssued,
	}))
}

func TestRepositoryRedemptionRejectsIllegalTransition(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)

	err := repo.UpdateRedemptionStatus(context.Background(), uuid.New(), enums.RedemptionStatusIssued)
	require.Error(t, err)
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryMilestoneAwardGate(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	require.NoError(t, repo.CreateMilestoneAward(ctx, &models.MilestoneAward{
		CustomerID: customerID,
		Threshold:  5,
		Reward:     "Free Sticker Pack",
		Code:       "MILESTONEFREE_AAAAA",
	}))

	claimed, err := repo.HasMilestoneAward(ctx, customerID, 5)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.HasMilestoneAward(ctx, customerID, 10)
	require.NoError(t, err)
	assert.False(t, claimed)

	err = repo.CreateMilestoneAward(ctx, &models.MilestoneAward{
		CustomerID: customerID,
		Threshold:  5,
		Reward:     "Free Sticker Pack",
		Code:       "MILESTONEFREE_BBBBB",
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_milestone_awards_customer_threshold"))
}
