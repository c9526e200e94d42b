package repositories

import (
	"context"
	"testing"
	"time"

	"kitchen_inventory_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertCookingEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cookedAt := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO cooking_events \(user_id, menu_id, quantity, cooked_at\)`).
		WithArgs(7, 3, 2, cookedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(15))

	event := &models.CookingEvent{UserID: 7, MenuID: 3, Quantity: 2, CookedAt: cookedAt}
	id, err := NewCookingRepository(db).InsertCookingEvent(context.Background(), db, event)
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)
	assert.Equal(t, int64(15), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCookingEvent_OutOfRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO cooking_events`).WillReturnError(&pgconn.PgError{Code: "22003"})

	_, err = NewCookingRepository(db).InsertCookingEvent(context.Background(), db, &models.CookingEvent{UserID: 7, MenuID: 3, Quantity: 1})
	assert.ErrorIs(t, err, ErrDatabaseError)
}

func TestGetHistory_InclusiveEndDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := int64(7)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	cooked := time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE ce.user_id = \$1 AND ce.cooked_at >= \$2 AND ce.cooked_at < \$3 ORDER BY ce.cooked_at DESC, ce.id DESC$`).
		WithArgs(7, start, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "cooked_at", "menu_name", "user_name"}).
			AddRow(2, 1, cooked, "Toast", "cook1").
			AddRow(1, 3, start, "Soup", nil))

	history, err := NewCookingRepository(db).GetHistory(context.Background(), models.CookingHistoryFilters{
		UserID: &userID, StartDate: &start, EndDate: &end,
	})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Toast", history[0].MenuName)
	require.NotNil(t, history[0].UserName)
	assert.Equal(t, "cook1", *history[0].UserName)
	assert.Nil(t, history[1].UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHistory_NoFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`LEFT JOIN users u ON ce.user_id = u.id ORDER BY ce.cooked_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "cooked_at", "menu_name", "user_name"}))

	history, err := NewCookingRepository(db).GetHistory(context.Background(), models.CookingHistoryFilters{})
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
