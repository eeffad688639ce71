package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
)

// respondError translates the service error taxonomy to HTTP. Policy and
// invariant failures carry machine-readable codes so API clients can branch
// without parsing messages.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		policyErr    *apperrors.PolicyError
		invariantErr *apperrors.CoreInvariantError
		lockErr      *apperrors.GovernanceLockError
		workflowErr  *apperrors.WorkflowStateError
		integrityErr *apperrors.DataIntegrityError
	)

	switch {
	case errors.As(err, &policyErr):
		logger.Warn("Posting blocked by policy", slog.Int("violations", len(policyErr.Violations)))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "posting blocked by policy",
			"violations": policyErr.Violations,
		})
	case errors.As(err, &invariantErr):
		logger.Warn("Core invariant violated", slog.String("code", invariantErr.Code))
		body := gin.H{"error": invariantErr.Message, "code": invariantErr.Code}
		if invariantErr.LineIndex >= 0 {
			body["lineIndex"] = invariantErr.LineIndex
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &lockErr):
		logger.Warn("Blocked by posting lock", slog.String("code", lockErr.Code))
		c.JSON(http.StatusConflict, gin.H{"error": lockErr.Message, "code": lockErr.Code})
	case errors.As(err, &workflowErr):
		logger.Warn("Invalid workflow transition",
			slog.String("current", workflowErr.Current), slog.String("requested", workflowErr.Requested))
		c.JSON(http.StatusConflict, gin.H{"error": workflowErr.Error()})
	case errors.As(err, &integrityErr):
		logger.Error("Data integrity fault", slog.String("code", integrityErr.Code), slog.String("error", integrityErr.Message))
		c.JSON(http.StatusInternalServerError, gin.H{"error": integrityErr.Message, "code": integrityErr.Code})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate resource", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Internal error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
