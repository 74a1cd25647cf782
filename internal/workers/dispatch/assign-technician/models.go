package assigntechnician

import "technician-dispatch/internal/dispatch"

type Input struct {
	RequestID string `json:"requestId"`
}

type Output struct {
	Assigned           bool                        `json:"assigned"`
	Outcome            string                      `json:"outcome"`
	Reason             string                      `json:"reason,omitempty"`
	RunID              string                      `json:"runId"`
	AssignedTechnician *dispatch.CandidateSummary  `json:"assignedTechnician"`
	Alternatives       []dispatch.CandidateSummary `json:"alternatives"`
}

func outputFrom(result *dispatch.MatchResult) *Output {
	alternatives := result.Alternatives
	if alternatives == nil {
		alternatives = []dispatch.CandidateSummary{}
	}
	return &Output{
		Assigned:           result.Outcome == dispatch.OutcomeAssigned,
		Outcome:            string(result.Outcome),
		Reason:             result.Reason,
		RunID:              result.RunID,
		AssignedTechnician: result.Assigned,
		Alternatives:       alternatives,
	}
}
