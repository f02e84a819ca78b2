package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/generalbots/botengine/domain/automation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActiveScansOptionalLastTriggered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "kind", "target", "schedule", "param", "is_active", "last_triggered", "created_at", "updated_at"}).
		AddRow("a1", "scheduled", "", "* * * * *", "PRINT 1", true, nil, now, now).
		AddRow("a2", "table_insert", "robots", "", "PRINT 2", true, now, now, now)
	mock.ExpectQuery("SELECT id, kind, target, schedule, param, is_active, last_triggered, created_at, updated_at").
		WillReturnRows(rows)

	store := NewAutomationStore(db)
	got, err := store.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].LastTriggered)
	require.NotNil(t, got[1].LastTriggered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkTriggeredUpdatesRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE automations SET last_triggered = \$1 WHERE id = \$2`).
		WithArgs(sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewAutomationStore(db)
	err = store.MarkTriggered(context.Background(), "a1", time.Now())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsIDAndReturnsTimestamps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO automations").
		WithArgs(sqlmock.AnyArg(), "scheduled", "", "@every 1h", "PRINT 1", true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	store := NewAutomationStore(db)
	got, err := store.Create(context.Background(), automationFixture())
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReturnsNotFoundError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, kind, target, schedule, param, is_active, last_triggered, created_at, updated_at").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := NewAutomationStore(db)
	_, err = store.Get(context.Background(), "missing")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveReturnsNotFoundWhenNoRowMatched(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE automations SET is_active = \$1 WHERE id = \$2`).
		WithArgs(false, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewAutomationStore(db)
	err = store.SetActive(context.Background(), "missing", false)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func automationFixture() automation.Automation {
	return automation.Automation{
		Kind:     automation.KindScheduled,
		Schedule: "@every 1h",
		Param:    "PRINT 1",
		IsActive: true,
	}
}
