package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unit-telemetry-backend/internal/apperr"
	"unit-telemetry-backend/internal/db"
	"unit-telemetry-backend/internal/model"
)

func readingIDs(readings []model.SensorReading) []uuid.UUID {
	ids := make([]uuid.UUID, len(readings))
	for i, r := range readings {
		ids[i] = r.ID
	}
	return ids
}

func TestQuery_AcrossUnits(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()

	all, err := s.Readings().Query(ctx, ReadingQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	both, err := s.Readings().Query(ctx, ReadingQuery{
		UnitIDs: []uuid.UUID{db.SeedAssemblyLineID, db.SeedHVACRooftopID, db.SeedAssemblyLineID},
		Status:  ptr(model.StatusPending),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{db.SeedPendingReadingID, db.SeedHVACReadingID}, readingIDs(both))
}

func TestQuery_MissingUnits(t *testing.T) {
	s, _ := seededStore(t)
	ghostA, ghostB := uuid.New(), uuid.New()

	_, err := s.Readings().Query(context.Background(), ReadingQuery{
		UnitIDs: []uuid.UUID{db.SeedAssemblyLineID, ghostA, ghostB},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), ghostA.String())
	assert.Contains(t, err.Error(), ghostB.String())
	assert.NotContains(t, err.Error(), db.SeedAssemblyLineID.String())
}

func TestQuery_TimeRange(t *testing.T) {
	s, _ := newSQLiteStore(t, Options{MaxConcurrent: 1})
	ctx := context.Background()

	unit, err := s.Units().Create(ctx, UnitInput{Name: "Furnace-2"})
	require.NoError(t, err)

	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	ids := make(map[int]uuid.UUID)
	for _, hour := range []int{0, 1, 2, 3} {
		ts := base.Add(time.Duration(hour) * time.Hour)
		r, err := s.Readings().Create(ctx, ReadingInput{UnitID: unit.ID, Timestamp: &ts})
		require.NoError(t, err)
		ids[hour] = r.ID
	}

	from := base.Add(time.Hour)
	to := base.Add(3 * time.Hour)
	readings, err := s.Readings().Query(ctx, ReadingQuery{
		UnitIDs: []uuid.UUID{unit.ID},
		From:    &from,
		To:      &to,
		Order:   OrderAsc,
	})
	require.NoError(t, err)
	// From is inclusive and To exclusive.
	assert.Equal(t, []uuid.UUID{ids[1], ids[2]}, readingIDs(readings))

	newest, err := s.Readings().Query(ctx, ReadingQuery{UnitIDs: []uuid.UUID{unit.ID}, From: &from})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[3], ids[2], ids[1]}, readingIDs(newest))
}

func TestQuery_Validation(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()
	now := time.Now()
	earlier := now.Add(-time.Hour)

	testCases := []struct {
		name  string
		query ReadingQuery
	}{
		{name: "from equals to", query: ReadingQuery{From: &now, To: &now}},
		{name: "from after to", query: ReadingQuery{From: &now, To: &earlier}},
		{name: "unknown order", query: ReadingQuery{Order: "sideways"}},
		{name: "negative page", query: ReadingQuery{Page: Page{Number: -1}}},
		{name: "oversized page", query: ReadingQuery{Page: Page{Size: MaxPageSize + 1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Readings().Query(ctx, tc.query)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestPage_Bounds(t *testing.T) {
	offset, limit, err := Page{}.bounds("test")
	require.NoError(t, err)
	assert.Equal(t, 0, offset)
	assert.Equal(t, DefaultPageSize, limit)

	offset, limit, err = Page{Number: 3, Size: 25}.bounds("test")
	require.NoError(t, err)
	assert.Equal(t, 75, offset)
	assert.Equal(t, 25, limit)

	_, _, err = Page{Size: MaxPageSize}.bounds("test")
	assert.NoError(t, err)
}
