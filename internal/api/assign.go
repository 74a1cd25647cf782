package api

import (
	"net/http"

	apperrors "technician-dispatch/internal/common/errors"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"

	"github.com/gin-gonic/gin"
)

type assignResource struct {
	matcher Matcher
	logger  logger.Logger
}

type assignURI struct {
	RequestID string `uri:"id" binding:"required"`
}

type assignBody struct {
	RequestID string `json:"requestId" binding:"required"`
}

type assignResponse struct {
	Success            bool                          `json:"success"`
	RunID              string                        `json:"run_id,omitempty"`
	AssignedTechnician *dispatch.CandidateSummary    `json:"assigned_technician,omitempty"`
	Alternatives       []dispatch.CandidateSummary   `json:"alternatives"`
	Notifications      []dispatch.NotificationStatus `json:"notifications,omitempty"`
	Reason             string                        `json:"reason,omitempty"`
	Error              string                        `json:"error,omitempty"`
	Code               string                        `json:"code,omitempty"`
	Retryable          bool                          `json:"retryable,omitempty"`
}

func registerAssign(r *gin.RouterGroup, m Matcher, log logger.Logger) {
	rs := &assignResource{matcher: m, logger: log}
	r.POST("requests/:id/assign", rs.AssignByPath)
	r.POST("assign", rs.AssignByBody)
}

func (rs *assignResource) AssignByPath(c *gin.Context) {
	var req assignURI
	if err := c.ShouldBindUri(&req); err != nil {
		badRequest(c, "Request ID is required")
		return
	}
	rs.assign(c, req.RequestID)
}

func (rs *assignResource) AssignByBody(c *gin.Context) {
	var req assignBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Request ID is required")
		return
	}
	rs.assign(c, req.RequestID)
}

func (rs *assignResource) assign(c *gin.Context, requestID string) {
	result, err := rs.matcher.Match(c.Request.Context(), requestID)
	if err != nil {
		_ = c.Error(err)
		writeError(c, dispatch.ToStandardError(err, requestID))
		return
	}

	resp := assignResponse{
		RunID:         result.RunID,
		Alternatives:  result.Alternatives,
		Notifications: result.Notifications,
	}
	if resp.Alternatives == nil {
		resp.Alternatives = []dispatch.CandidateSummary{}
	}

	if result.Outcome == dispatch.OutcomeAssigned {
		resp.Success = true
		resp.AssignedTechnician = result.Assigned
	} else {
		resp.Reason = result.Reason
		resp.Error = noCandidatesMessage(result.Reason)
	}
	c.JSON(http.StatusOK, resp)
}

func noCandidatesMessage(reason string) string {
	if reason == dispatch.ReasonNoTechniciansInRange {
		return "No technicians found within service area"
	}
	return "No available technicians found"
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, assignResponse{
		Error:        msg,
		Code:         string(apperrors.ErrCodeInvalidInput),
		Alternatives: []dispatch.CandidateSummary{},
	})
}

func writeError(c *gin.Context, err *apperrors.StandardError) {
	c.JSON(httpStatus(err), assignResponse{
		Error:        err.Message,
		Code:         string(err.Code),
		Retryable:    err.Retryable,
		Alternatives: []dispatch.CandidateSummary{},
	})
}

func httpStatus(err *apperrors.StandardError) int {
	switch err.Code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeRequestLocationMissing, apperrors.ErrCodeInvalidCoordinates:
		return http.StatusBadRequest
	case apperrors.ErrCodeRequestNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRequestAlreadyAssigned, apperrors.ErrCodeTechnicianUnavailable:
		return http.StatusConflict
	}
	if err.Retryable {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
