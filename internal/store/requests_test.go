package store

import (
	"context"
	"database/sql/driver"
	"errors"
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

var requestColumns = []string{"id", "title", "service_type", "category_id", "latitude", "longitude", "status", "workflow_stage", "assigned_technician_id", "version"}

func TestRequestStore_GetRequest(t *testing.T) {
	tests := []struct {
		name     string
		row      []driver.Value
		validate func(t *testing.T, r *models.MaintenanceRequest)
	}{
		{
			name: "open request with location",
			row:  []driver.Value{"req-1", "Leak", "plumbing", "cat-1", 24.71, 46.67, "Open", nil, nil, int64(2)},
			validate: func(t *testing.T, r *models.MaintenanceRequest) {
				assert.Equal(t, &models.Coordinates{Latitude: 24.71, Longitude: 46.67}, r.Location)
				assert.Equal(t, "plumbing", r.ServiceType)
				assert.Equal(t, "cat-1", *r.CategoryID)
				assert.Equal(t, int64(2), r.Version)
				assert.False(t, r.IsAssigned())
			},
		},
		{
			name: "missing longitude",
			row:  []driver.Value{"req-1", "Leak", nil, nil, 24.71, nil, "Open", nil, nil, int64(1)},
			validate: func(t *testing.T, r *models.MaintenanceRequest) {
				assert.Nil(t, r.Location)
				assert.Equal(t, "", r.ServiceType)
				assert.Nil(t, r.CategoryID)
			},
		},
		{
			name: "out of range coordinates are dropped",
			row:  []driver.Value{"req-1", "Leak", nil, nil, 124.71, 46.67, "Open", nil, nil, int64(1)},
			validate: func(t *testing.T, r *models.MaintenanceRequest) {
				assert.Nil(t, r.Location)
			},
		},
		{
			name: "already assigned",
			row:  []driver.Value{"req-1", "Leak", "plumbing", nil, 24.71, 46.67, "Assigned", "ASSIGNED", "t-9", int64(5)},
			validate: func(t *testing.T, r *models.MaintenanceRequest) {
				assert.True(t, r.IsAssigned())
				assert.Equal(t, models.RequestStatusAssigned, r.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(regexp.QuoteMeta(getRequestQuery)).
				WithArgs("req-1").
				WillReturnRows(sqlmock.NewRows(requestColumns).AddRow(tt.row...))

			s := NewRequestStore(db, logger.NewTestLogger(t))
			r, err := s.GetRequest(context.Background(), "req-1")
			require.NoError(t, err)
			tt.validate(t, r)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRequestStore_GetRequest_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(getRequestQuery)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(requestColumns))

	_, err = NewRequestStore(db, logger.NewNoOpLogger()).GetRequest(context.Background(), "nope")
	assert.ErrorIs(t, err, dispatch.ErrRequestNotFound)
}

func TestRequestStore_GetRequest_DriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(getRequestQuery)).WillReturnError(errors.New("connection refused"))

	_, err = NewRequestStore(db, logger.NewNoOpLogger()).GetRequest(context.Background(), "req-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, dispatch.ErrRequestNotFound)
}

func TestRequestStore_CommitAssignment(t *testing.T) {
	assignment := dispatch.Assignment{RequestID: "req-1", TechnicianID: "t-1", ExpectedVersion: 4}

	t.Run("guard treats empty holder as unassigned", func(t *testing.T) {
		assert.Contains(t, commitAssignmentQuery, "NULLIF(assigned_technician_id, '') IS NULL")
	})

	t.Run("wins the race", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WithArgs("t-1", "req-1", int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else assigned first", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WithArgs("t-1", "req-1", int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(requestHolderQuery)).
			WithArgs("req-1").
			WillReturnRows(sqlmock.NewRows([]string{"assigned_technician_id"}).AddRow("t-2"))
		mock.ExpectRollback()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.ErrorIs(t, err, dispatch.ErrAlreadyAssigned)
		assert.Contains(t, err.Error(), "t-2")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(requestHolderQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"assigned_technician_id"}).AddRow(nil))
		mock.ExpectRollback()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.ErrorIs(t, err, dispatch.ErrAlreadyAssigned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty holder is a version conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(requestHolderQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"assigned_technician_id"}).AddRow(""))
		mock.ExpectRollback()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.ErrorIs(t, err, dispatch.ErrAlreadyAssigned)
		assert.Contains(t, err.Error(), "changed since version 4")
		assert.NotContains(t, err.Error(), "held by")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("request deleted meanwhile", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(requestHolderQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"assigned_technician_id"}))
		mock.ExpectRollback()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.ErrorIs(t, err, dispatch.ErrRequestNotFound)
	})

	t.Run("update fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.Error(t, err)
		assert.False(t, dispatch.IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestStore_CommitAssignment_Reserve(t *testing.T) {
	assignment := dispatch.Assignment{
		RequestID:       "req-1",
		TechnicianID:    "t-1",
		ExpectedVersion: 4,
		Reserve:         true,
		ReserveFrom:     []models.TechnicianStatus{models.TechnicianOnline, models.TechnicianAvailable},
	}

	t.Run("technician still free", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(reserveTechnicianQuery)).
			WithArgs("t-1", pq.Array([]string{"online", "available"})).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("technician taken meanwhile rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(commitAssignmentQuery)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(reserveTechnicianQuery)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = NewRequestStore(db, logger.NewNoOpLogger()).CommitAssignment(context.Background(), assignment)
		assert.ErrorIs(t, err, dispatch.ErrTechnicianUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
