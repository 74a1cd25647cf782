package store

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"

	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"
	"technician-dispatch/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var technicianColumns = []string{"id", "name", "specialization", "rating", "total_reviews", "status", "is_active", "is_verified", "current_latitude", "current_longitude", "service_area_radius", "level", "technician_profile_id"}

func TestTechnicianDirectory_ListAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(technicianColumns).
		AddRow("t-1", "Amal", "plumbing", 4.8, int64(40), "online", true, true, 24.7, 46.6, 15.0, "gold", "p-1").
		AddRow("t-2", "Badr", nil, nil, nil, "available", true, true, 24.8, 46.7, nil, nil, nil).
		AddRow("t-3", "Corrupt", "hvac", 4.9, int64(3), "online", true, true, 95.0, 46.7, 10.0, "gold", nil)

	mock.ExpectQuery(regexp.QuoteMeta(listTechniciansQuery)).
		WithArgs(pq.Array([]string{"online", "available"}), 4.2).
		WillReturnRows(rows)

	dir := NewTechnicianDirectory(db, logger.NewTestLogger(t))
	pool, err := dir.ListAvailable(context.Background(), dispatch.DirectoryQuery{
		Statuses:  []models.TechnicianStatus{models.TechnicianOnline, models.TechnicianAvailable},
		MinRating: 4.2,
	})
	require.NoError(t, err)
	require.Len(t, pool, 2, "row with invalid coordinates is skipped")

	first := pool[0]
	assert.Equal(t, "t-1", first.ID)
	assert.Equal(t, 4.8, first.Rating)
	assert.Equal(t, 40, first.TotalReviews)
	assert.Equal(t, models.TierGold, first.Level)
	assert.Equal(t, 15.0, first.ServiceAreaRadiusKm)
	assert.Equal(t, &models.Coordinates{Latitude: 24.7, Longitude: 46.6}, first.Location)
	require.NotNil(t, first.ProfileID)
	assert.Equal(t, "p-1", *first.ProfileID)

	second := pool[1]
	assert.Equal(t, 0.0, second.Rating)
	assert.Empty(t, second.Specialization)
	assert.Empty(t, second.Level)
	assert.Equal(t, 0.0, second.ServiceAreaRadiusKm)
	assert.Nil(t, second.ProfileID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTechnicianDirectory_SkipsNonFiniteFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(technicianColumns).
		AddRow("t-radius", "Dana", "plumbing", 4.8, int64(40), "online", true, true, 24.7, 46.6, math.NaN(), "gold", nil).
		AddRow("t-rating", "Emad", "plumbing", math.NaN(), int64(40), "online", true, true, 24.7, 46.6, 15.0, "gold", nil).
		AddRow("t-ok", "Fahd", "plumbing", 4.5, int64(12), "online", true, true, 24.7, 46.6, 15.0, "silver", nil)
	mock.ExpectQuery(regexp.QuoteMeta(listTechniciansQuery)).WillReturnRows(rows)

	pool, err := NewTechnicianDirectory(db, logger.NewTestLogger(t)).ListAvailable(context.Background(), dispatch.DirectoryQuery{})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "t-ok", pool[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTechnicianDirectory_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(listTechniciansQuery)).WillReturnError(errors.New("too many connections"))

	_, err = NewTechnicianDirectory(db, logger.NewNoOpLogger()).ListAvailable(context.Background(), dispatch.DirectoryQuery{})
	assert.ErrorContains(t, err, "too many connections")
}

func TestTechnicianDirectory_RowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(technicianColumns).
		AddRow("t-1", "Amal", "plumbing", 4.8, int64(40), "online", true, true, 24.7, 46.6, 15.0, "gold", nil).
		RowError(0, errors.New("connection lost"))
	mock.ExpectQuery(regexp.QuoteMeta(listTechniciansQuery)).WillReturnRows(rows)

	_, err = NewTechnicianDirectory(db, logger.NewNoOpLogger()).ListAvailable(context.Background(), dispatch.DirectoryQuery{})
	assert.Error(t, err)
}
