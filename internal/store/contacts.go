package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/models"

	"github.com/redis/go-redis/v9"
)

const contactQuery = `SELECT t.technician_profile_id, p.user_id, p.email, p.phone FROM technicians t LEFT JOIN technician_profiles p ON p.id = t.technician_profile_id WHERE t.id = $1`

var ErrTechnicianNotFound = errors.New("technician not found")

// ContactResolver looks up where to reach a technician, caching results in
// Redis. Cache errors are logged and fall through to Postgres.
type ContactResolver struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewContactResolver(db *sql.DB, rdb *redis.Client, ttl time.Duration, prefix string, log logger.Logger) *ContactResolver {
	return &ContactResolver{db: db, redis: rdb, ttl: ttl, prefix: prefix, logger: log}
}

func (r *ContactResolver) ResolveContact(ctx context.Context, technicianID string) (models.TechnicianContact, error) {
	key := r.prefix + technicianID

	if r.redis != nil {
		val, err := r.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			var c models.TechnicianContact
			if err := json.Unmarshal([]byte(val), &c); err == nil {
				return c, nil
			}
		case !errors.Is(err, redis.Nil):
			r.logger.Warn("contact cache read failed", map[string]interface{}{
				"technicianId": technicianID,
				"error":        err.Error(),
			})
		}
	}

	var (
		profileID, userID, email, phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, contactQuery, technicianID).Scan(&profileID, &userID, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TechnicianContact{}, fmt.Errorf("%w: %s", ErrTechnicianNotFound, technicianID)
	}
	if err != nil {
		return models.TechnicianContact{}, fmt.Errorf("load contact for %s: %w", technicianID, err)
	}

	contact := models.TechnicianContact{TechnicianID: technicianID}
	// A profile without a user still gets email and SMS; in-app alerts then
	// fall back to the technician id.
	if profileID.Valid {
		contact.HasProfile = true
		contact.UserID = userID.String
		contact.Email = email.String
		contact.Phone = phone.String
	}

	if r.redis != nil {
		data, _ := json.Marshal(contact)
		if err := r.redis.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.Warn("contact cache write failed", map[string]interface{}{
				"technicianId": technicianID,
				"error":        err.Error(),
			})
		}
	}
	return contact, nil
}
