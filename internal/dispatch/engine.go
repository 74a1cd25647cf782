package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/common/metrics"
	"technician-dispatch/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine runs one match per call: load the request, rank the technician
// pool, commit the winner and alert the shortlist.
type Engine struct {
	requests  RequestStore
	directory TechnicianDirectory
	contacts  ContactResolver
	notifier  Notifier
	recorder  DecisionRecorder
	policy    Policy
	logger    logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Engine)

func WithDecisionRecorder(r DecisionRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(
	requests RequestStore,
	directory TechnicianDirectory,
	contacts ContactResolver,
	notifier Notifier,
	policy Policy,
	log logger.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		requests:  requests,
		directory: directory,
		contacts:  contacts,
		notifier:  notifier,
		recorder:  nopRecorder{},
		policy:    policy,
		logger:    log.WithFields(map[string]interface{}{"component": "dispatch-engine"}),
		tracer:    otel.Tracer("technician-dispatch/dispatch"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Match assigns the best technician to requestID. A run that finds nobody
// returns a result with OutcomeNoCandidates and a nil error.
func (e *Engine) Match(ctx context.Context, requestID string) (*MatchResult, error) {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "dispatch.Match",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer span.End()

	result, err := e.match(ctx, requestID, start)
	metrics.MatchDuration.Observe(e.now().Sub(start).Seconds())

	if err != nil {
		code := string(ToStandardError(err, requestID).Code)
		metrics.MatchRuns.WithLabelValues(code).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		e.logger.Warn("match failed", map[string]interface{}{
			"requestId": requestID,
			"errorCode": code,
			"error":     err.Error(),
		})
		return nil, err
	}

	metrics.MatchRuns.WithLabelValues(string(result.Outcome)).Inc()
	span.SetAttributes(
		attribute.String("dispatch.outcome", string(result.Outcome)),
		attribute.Int("dispatch.pool_size", result.PoolSize),
		attribute.Int("dispatch.eligible", result.EligibleCount),
	)
	return result, nil
}

func (e *Engine) match(ctx context.Context, requestID string, start time.Time) (*MatchResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.policy.MatchTimeout)
	defer cancel()

	req, err := e.requests.GetRequest(runCtx, requestID)
	if err != nil {
		return nil, classify(runCtx, err, ErrRequestStoreUnavailable)
	}
	if req.IsAssigned() {
		return nil, fmt.Errorf("%w: request %s is held by technician %s", ErrAlreadyAssigned, req.ID, *req.AssignedTechnicianID)
	}
	if req.Location == nil {
		return nil, fmt.Errorf("%w: request %s", ErrMissingLocation, req.ID)
	}

	pool, err := e.directory.ListAvailable(runCtx, DirectoryQuery{
		Statuses:  e.policy.AvailableStatuses,
		MinRating: e.policy.MinRating,
	})
	if err != nil {
		return nil, classify(runCtx, err, ErrDirectoryUnavailable)
	}

	result := &MatchResult{
		RunID:        uuid.NewString(),
		RequestID:    req.ID,
		Alternatives: []CandidateSummary{},
		PoolSize:     len(pool),
		StartedAt:    start,
	}

	if len(pool) == 0 {
		result.Outcome = OutcomeNoCandidates
		result.Reason = ReasonNoTechniciansAvailable
		e.finish(ctx, result, start)
		return result, nil
	}

	shortlist, eligible, err := Rank(req, pool, e.policy)
	if err != nil {
		return nil, err
	}
	result.EligibleCount = eligible
	metrics.ShortlistSize.Observe(float64(len(shortlist)))

	if len(shortlist) == 0 {
		result.Outcome = OutcomeNoCandidates
		result.Reason = ReasonNoTechniciansInRange
		e.finish(ctx, result, start)
		return result, nil
	}

	winner := shortlist[0]
	assignment := Assignment{
		RequestID:       req.ID,
		TechnicianID:    winner.Technician.ID,
		ExpectedVersion: req.Version,
	}
	if e.policy.ReserveTechnician {
		assignment.Reserve = true
		assignment.ReserveFrom = e.policy.AvailableStatuses
	}
	err = e.requests.CommitAssignment(runCtx, assignment)
	if err != nil {
		if IsConflict(err) {
			metrics.CommitConflicts.Inc()
			return nil, err
		}
		return nil, classify(runCtx, err, ErrRequestStoreUnavailable)
	}

	e.logger.Info("technician assigned", map[string]interface{}{
		"runId":        result.RunID,
		"requestId":    req.ID,
		"technicianId": winner.Technician.ID,
		"score":        winner.Score.Total,
		"distanceKm":   winner.DistanceKm,
		"shortlisted":  len(shortlist),
	})

	result.Outcome = OutcomeAssigned
	assigned := Summarize(winner)
	result.Assigned = &assigned
	for _, s := range shortlist[1:] {
		result.Alternatives = append(result.Alternatives, Summarize(s))
	}

	// Notifications follow the commit even if the run deadline has passed.
	result.Notifications = e.fanOut(ctx, req, shortlist)

	e.finish(ctx, result, start)
	return result, nil
}

// Rank filters, scores and shortlists pool for req without touching any
// store. It also returns how many technicians passed the filter.
func Rank(req *models.MaintenanceRequest, pool []models.Technician, p Policy) ([]ScoredCandidate, int, error) {
	cands, err := FilterCandidates(req, pool, p)
	if err != nil {
		return nil, 0, err
	}
	return Shortlist(ScoreAll(req, cands, p), p), len(cands), nil
}

func (e *Engine) finish(ctx context.Context, result *MatchResult, start time.Time) {
	result.Duration = e.now().Sub(start)

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.policy.NotifyTimeout)
	defer cancel()
	if err := e.recorder.RecordDecision(auditCtx, result); err != nil {
		e.logger.Warn("decision audit failed", map[string]interface{}{
			"runId":     result.RunID,
			"requestId": result.RequestID,
			"error":     err.Error(),
		})
	}
}

// classify keeps the engine's typed errors and wraps everything else as
// a timeout or as fallback.
func classify(ctx context.Context, err, fallback error) error {
	for _, known := range []error{ErrRequestNotFound, ErrAlreadyAssigned, ErrTechnicianUnavailable, ErrMatchTimeout} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrMatchTimeout, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(context.Context, *MatchResult) error { return nil }
