package store

import (
	"context"
	"database/sql"
	"fmt"

	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"
	"technician-dispatch/internal/models"

	"github.com/lib/pq"
)

// Coarse predicates only; the dispatch filter applies the full rule set.
// ORDER BY id gives equal scores a stable order between runs.
const listTechniciansQuery = `SELECT id, name, specialization, rating, total_reviews, status, is_active, is_verified, current_latitude, current_longitude, service_area_radius, level, technician_profile_id FROM technicians WHERE is_active = true AND is_verified = true AND status = ANY($1) AND rating >= $2 AND current_latitude IS NOT NULL AND current_longitude IS NOT NULL ORDER BY id`

type TechnicianDirectory struct {
	db     *sql.DB
	logger logger.Logger
}

func NewTechnicianDirectory(db *sql.DB, log logger.Logger) *TechnicianDirectory {
	return &TechnicianDirectory{db: db, logger: log}
}

func (d *TechnicianDirectory) ListAvailable(ctx context.Context, q dispatch.DirectoryQuery) ([]models.Technician, error) {
	rows, err := d.db.QueryContext(ctx, listTechniciansQuery, pq.Array(statusStrings(q.Statuses)), q.MinRating)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	defer rows.Close()

	var pool []models.Technician
	for rows.Next() {
		var (
			t              models.Technician
			specialization sql.NullString
			rating         sql.NullFloat64
			reviews        sql.NullInt64
			status         sql.NullString
			active         sql.NullBool
			verified       sql.NullBool
			lat, lng       sql.NullFloat64
			radius         sql.NullFloat64
			level          sql.NullString
			profileID      sql.NullString
		)
		if err := rows.Scan(
			&t.ID, &t.Name, &specialization, &rating, &reviews, &status,
			&active, &verified, &lat, &lng, &radius, &level, &profileID,
		); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}

		t.Specialization = specialization.String
		t.Rating = rating.Float64
		t.TotalReviews = int(reviews.Int64)
		t.Status = models.TechnicianStatus(status.String)
		t.IsActive = active.Bool
		t.IsVerified = verified.Bool
		t.ServiceAreaRadiusKm = radius.Float64
		t.Level = models.Tier(level.String)
		t.ProfileID = nullableString(profileID)

		loc, err := models.CoordinatesFrom(nullableFloat(lat), nullableFloat(lng))
		if err != nil {
			d.logger.Warn("skipping technician with invalid coordinates", map[string]interface{}{
				"technicianId": t.ID,
				"error":        err.Error(),
			})
			continue
		}
		t.Location = loc

		if err := t.Validate(); err != nil {
			d.logger.Warn("skipping invalid technician record", map[string]interface{}{
				"technicianId": t.ID,
				"error":        err.Error(),
			})
			continue
		}

		pool = append(pool, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate technicians: %w", err)
	}
	return pool, nil
}
