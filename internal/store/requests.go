package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"
	"technician-dispatch/internal/models"

	"github.com/lib/pq"
)

const (
	getRequestQuery = `SELECT id, title, service_type, category_id, latitude, longitude, status, workflow_stage, assigned_technician_id, version FROM maintenance_requests WHERE id = $1`

	// The version guard also rejects a writer that loaded the row before
	// some unrelated edit. An empty holder counts as unassigned, matching
	// MaintenanceRequest.IsAssigned.
	commitAssignmentQuery = `UPDATE maintenance_requests SET assigned_technician_id = $1, status = 'Assigned', workflow_stage = 'ASSIGNED', version = version + 1, updated_at = now() WHERE id = $2 AND NULLIF(assigned_technician_id, '') IS NULL AND version = $3`

	requestHolderQuery = `SELECT assigned_technician_id FROM maintenance_requests WHERE id = $1`

	reserveTechnicianQuery = `UPDATE technicians SET status = 'busy', updated_at = now() WHERE id = $1 AND status = ANY($2)`
)

// RequestStore is the Postgres implementation of dispatch.RequestStore.
type RequestStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRequestStore(db *sql.DB, log logger.Logger) *RequestStore {
	return &RequestStore{db: db, logger: log}
}

func (s *RequestStore) GetRequest(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	var (
		req           models.MaintenanceRequest
		title         sql.NullString
		serviceType   sql.NullString
		categoryID    sql.NullString
		lat, lng      sql.NullFloat64
		workflowStage sql.NullString
		assignedTo    sql.NullString
		status        string
	)

	err := s.db.QueryRowContext(ctx, getRequestQuery, id).Scan(
		&req.ID, &title, &serviceType, &categoryID, &lat, &lng,
		&status, &workflowStage, &assignedTo, &req.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", dispatch.ErrRequestNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", id, err)
	}

	req.Title = title.String
	req.ServiceType = serviceType.String
	req.Status = models.RequestStatus(status)
	req.WorkflowStage = workflowStage.String
	req.CategoryID = nullableString(categoryID)
	req.AssignedTechnicianID = nullableString(assignedTo)

	loc, err := models.CoordinatesFrom(nullableFloat(lat), nullableFloat(lng))
	if err != nil {
		// Unusable coordinates are treated like absent ones.
		s.logger.Warn("request has invalid coordinates", map[string]interface{}{
			"requestId": id,
			"error":     err.Error(),
		})
	}
	req.Location = loc

	return &req, nil
}

func (s *RequestStore) CommitAssignment(ctx context.Context, a dispatch.Assignment) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, commitAssignmentQuery, a.TechnicianID, a.RequestID, a.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("assign request %s: %w", a.RequestID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign request %s: %w", a.RequestID, err)
	}

	if affected == 0 {
		var holder sql.NullString
		err = tx.QueryRowContext(ctx, requestHolderQuery, a.RequestID).Scan(&holder)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", dispatch.ErrRequestNotFound, a.RequestID)
		}
		if err != nil {
			return fmt.Errorf("re-read request %s: %w", a.RequestID, err)
		}
		if holder.Valid && holder.String != "" {
			return fmt.Errorf("%w: request %s is held by technician %s", dispatch.ErrAlreadyAssigned, a.RequestID, holder.String)
		}
		return fmt.Errorf("%w: request %s changed since version %d", dispatch.ErrAlreadyAssigned, a.RequestID, a.ExpectedVersion)
	}

	if a.Reserve {
		res, err = tx.ExecContext(ctx, reserveTechnicianQuery, a.TechnicianID, pq.Array(statusStrings(a.ReserveFrom)))
		if err != nil {
			return fmt.Errorf("reserve technician %s: %w", a.TechnicianID, err)
		}
		if affected, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("reserve technician %s: %w", a.TechnicianID, err)
		}
		if affected == 0 {
			err = fmt.Errorf("%w: %s", dispatch.ErrTechnicianUnavailable, a.TechnicianID)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment %s: %w", a.RequestID, err)
	}
	return nil
}

func statusStrings(in []models.TechnicianStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullableFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}
