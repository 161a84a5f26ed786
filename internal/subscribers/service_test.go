package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hazelpoint/rewards-backend/pkg/config"
	"github.com/hazelpoint/rewards-backend/pkg/db/models"
	"github.com/hazelpoint/rewards-backend/pkg/enums"
	"github.com/hazelpoint/rewards-backend/pkg/outbox"
)

const outboxSchema = `
CREATE TABLE IF NOT EXISTS outbox_tasks (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);
`

type stubList struct {
	calls []string
	err   error
}

func (s *stubList) Subscribe(ctx context.Context, email, firstName string) error {
	s.calls = append(s.calls, email)
	return s.err
}

func setupWorker(t *testing.T, list *stubList) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(outboxSchema).Error)

	svc, err := NewService(ServiceParams{
		Repo:   outbox.NewRepository(conn),
		List:   list,
		Config: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: 3},
	})
	require.NoError(t, err)
	return svc, conn
}

func insertTask(t *testing.T, conn *gorm.DB, kind enums.OutboxKind, payload any) uuid.UUID {
	t.Helper()

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	row := models.OutboxTask{
		ID:        uuid.New(),
		Kind:      kind,
		Payload:   encoded,
		CreatedAt: time.Now(),
	}
	require.NoError(t, conn.Create(&row).Error)
	return row.ID
}

func loadTask(t *testing.T, conn *gorm.DB, id uuid.UUID) models.OutboxTask {
	t.Helper()
	var row models.OutboxTask
	require.NoError(t, conn.First(&row, "id = ?", id).Error)
	return row
}

func TestDrainOnceDeliversAndMarksPublished(t *testing.T) {
	list := &stubList{}
	svc, conn := setupWorker(t, list)

	id := insertTask(t, conn, enums.OutboxKindListSubscribe, map[string]string{
		"email":      "shopper@example.com",
		"first_name": "Sam",
	})

	require.NoError(t, svc.DrainOnce(context.Background()))

	assert.Equal(t, []string{"shopper@example.com"}, list.calls)
	row := loadTask(t, conn, id)
	assert.NotNil(t, row.PublishedAt)
	assert.Zero(t, row.AttemptCount)
}

func TestDrainOnceRecordsFailure(t *testing.T) {
	list := &stubList{err: errors.New("mailchimp down")}
	svc, conn := setupWorker(t, list)

	id := insertTask(t, conn, enums.OutboxKindListSubscribe, map[string]string{
		"email": "shopper@example.com",
	})

	require.NoError(t, svc.DrainOnce(context.Background()))

	row := loadTask(t, conn, id)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.Contains(t, *row.LastError, "mailchimp down")

	// The row stays eligible and a recovered downstream drains it.
	list.err = nil
	require.NoError(t, svc.DrainOnce(context.Background()))
	row = loadTask(t, conn, id)
	assert.NotNil(t, row.PublishedAt)
}

func TestDrainOnceSkipsExhaustedRows(t *testing.T) {
	list := &stubList{}
	svc, conn := setupWorker(t, list)

	id := insertTask(t, conn, enums.OutboxKindListSubscribe, map[string]string{
		"email": "shopper@example.com",
	})
	require.NoError(t, conn.Model(&models.OutboxTask{}).
		Where("id = ?", id).
		Update("attempt_count", 3).Error)

	require.NoError(t, svc.DrainOnce(context.Background()))
	assert.Empty(t, list.calls)
}

func TestDrainOnceUnknownKindFails(t *testing.T) {
	list := &stubList{}
	svc, conn := setupWorker(t, list)

	id := insertTask(t, conn, enums.OutboxKind("list.unsubscribe"), map[string]string{
		"email": "shopper@example.com",
	})

	require.NoError(t, svc.DrainOnce(context.Background()))

	assert.Empty(t, list.calls)
	row := loadTask(t, conn, id)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 1, row.AttemptCount)
}
