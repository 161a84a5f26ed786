package rewards

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  points_balance INTEGER NOT NULL DEFAULT 0,
  referral_code TEXT NOT NULL,
  referred_by TEXT,
  tier_name TEXT NOT NULL DEFAULT 'Member',
  tier_spend NUMERIC NOT NULL DEFAULT 0,
  referral_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_customers_email ON customers (email);
CREATE UNIQUE INDEX IF NOT EXISTS ux_customers_referral_code ON customers (referral_code);

CREATE TABLE IF NOT EXISTS reward_actions (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  type TEXT NOT NULL,
  points INTEGER NOT NULL,
  reference TEXT,
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_reward_actions_customer_reference
  ON reward_actions (customer_id, reference) WHERE reference IS NOT NULL;

CREATE TABLE IF NOT EXISTS redemptions (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  code TEXT NOT NULL,
  external_id TEXT NOT NULL DEFAULT '',
  points_spent INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'issued',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_redemptions_customer_issued
  ON redemptions (customer_id) WHERE status = 'issued';

CREATE TABLE IF NOT EXISTS milestone_awards (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  threshold INTEGER NOT NULL,
  reward TEXT NOT NULL,
  code TEXT NOT NULL,
  external_id TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_milestone_awards_customer_threshold
  ON milestone_awards (customer_id, threshold);
`

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(testSchema).Error)
	return conn
}

// testTx mirrors the production transaction runner on a raw test connection.
type testTx struct {
	conn *gorm.DB
}

func (x testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := x.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
