package dispatch

import (
	"context"

	"technician-dispatch/internal/models"

	"golang.org/x/sync/errgroup"
)

// fanOut alerts every shortlisted candidate concurrently. Failures are
// logged and reported per candidate; they never fail the run.
func (e *Engine) fanOut(ctx context.Context, req *models.MaintenanceRequest, shortlist []ScoredCandidate) []NotificationStatus {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.policy.NotifyTimeout)
	defer cancel()

	statuses := make([]NotificationStatus, len(shortlist))
	g, gctx := errgroup.WithContext(notifyCtx)
	if e.policy.NotifyConcurrency > 0 {
		g.SetLimit(e.policy.NotifyConcurrency)
	}

	for i, c := range shortlist {
		i, c := i, c
		alert := JobAlert{
			RequestID:    req.ID,
			RequestTitle: req.Title,
			ServiceType:  req.ServiceType,
			DistanceKm:   c.DistanceKm,
			Rank:         i + 1,
			Assigned:     i == 0,
		}
		g.Go(func() error {
			statuses[i] = e.notifyCandidate(gctx, c.Technician.ID, alert)
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}

func (e *Engine) notifyCandidate(ctx context.Context, technicianID string, alert JobAlert) NotificationStatus {
	status := NotificationStatus{TechnicianID: technicianID}
	fields := map[string]interface{}{
		"requestId":    alert.RequestID,
		"technicianId": technicianID,
		"rank":         alert.Rank,
	}

	contact, err := e.contacts.ResolveContact(ctx, technicianID)
	if err != nil {
		fields["error"] = err.Error()
		e.logger.Warn("contact lookup failed", fields)
		status.Status = NotificationFailed
		status.Error = err.Error()
		return status
	}

	channels, err := e.notifier.Notify(ctx, contact, alert)
	status.Channels = channels
	if err != nil {
		fields["error"] = err.Error()
		e.logger.Warn("notification failed", fields)
		status.Status = NotificationFailed
		status.Error = err.Error()
		return status
	}

	status.Status = NotificationSkipped
	for _, ch := range channels {
		if ch.Status == NotificationSent {
			status.Status = NotificationSent
			break
		}
	}
	return status
}
