package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autohub-api/internal/models"
)

func TestAppendActivity(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec("INSERT INTO activity_logs").
		WithArgs(sqlmock.AnyArg(), "u1", "alice", string(models.ActivityLogin), "signed in", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ActivityLog{UserID: "u1", Username: "alice", Action: models.ActivityLogin, Details: "signed in"}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActivityNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"seq", "id", "user_id", "username", "action", "details", "created_at"}).
		AddRow(2, "b", "u1", "alice", "EDIT_CAR", "second", now).
		AddRow(1, "a", "u1", "alice", "LOGIN", "first", now)
	mock.ExpectQuery(`FROM activity_logs WHERE action = \? ORDER BY seq DESC LIMIT 50 OFFSET 0`).
		WithArgs("EDIT_CAR").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity_logs WHERE action = ?")).
		WithArgs("EDIT_CAR").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	entries, total, err := repo.List(context.Background(), models.ActivityFilter{Action: models.ActivityEditCar})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].Seq)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
