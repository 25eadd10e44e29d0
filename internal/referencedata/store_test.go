package referencedata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var budgetColumns = []string{"id", "created_at", "range_label", "min_amount", "max_amount", "display_order"}

func TestStore_ListBudgetRanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, created_at, range_label, min_amount, max_amount, display_order\s+FROM budget_ranges\s+ORDER BY display_order ASC, id ASC`).
		WillReturnRows(sqlmock.NewRows(budgetColumns).
			AddRow(int64(1), now, "Under $5,000", nil, int64(5000), 1).
			AddRow(int64(2), now, "$5,000 - $15,000", int64(5000), int64(15000), 2)).
		RowsWillBeClosed()

	store := NewStore(db)
	ranges, err := store.ListBudgetRanges(context.Background())
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	assert.Equal(t, int64(1), ranges[0].ID)
	assert.Nil(t, ranges[0].MinAmount)
	require.NotNil(t, ranges[1].MinAmount)
	assert.Equal(t, int64(5000), *ranges[1].MinAmount)
	assert.Equal(t, "$5,000 - $15,000", ranges[1].RangeLabel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListBudgetRangesIsRepeatable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		mock.ExpectQuery("FROM budget_ranges").
			WillReturnRows(sqlmock.NewRows(budgetColumns).
				AddRow(int64(3), now, "Tier A", nil, nil, 1).
				AddRow(int64(1), now, "Tier B", nil, nil, 1))
	}

	store := NewStore(db)
	first, err := store.ListBudgetRanges(context.Background())
	require.NoError(t, err)
	second, err := store.ListBudgetRanges(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListProjectTimelines(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM project_timelines\s+ORDER BY display_order ASC, id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "timeline_label", "duration_weeks", "display_order"}).
			AddRow(int64(1), now, "ASAP", int64(2), 1).
			AddRow(int64(2), now, "Just researching", nil, 2)).
		RowsWillBeClosed()

	store := NewStore(db)
	timelines, err := store.ListProjectTimelines(context.Background())
	require.NoError(t, err)
	require.Len(t, timelines, 2)
	require.NotNil(t, timelines[0].DurationWeeks)
	assert.Equal(t, 2, *timelines[0].DurationWeeks)
	assert.Nil(t, timelines[1].DurationWeeks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryErrorIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM project_timelines").WillReturnError(boom)

	_, err = NewStore(db).ListProjectTimelines(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EmptyTableReturnsEmptySlice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM budget_ranges").WillReturnRows(sqlmock.NewRows(budgetColumns))

	ranges, err := NewStore(db).ListBudgetRanges(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ranges)
	assert.Empty(t, ranges)
}
