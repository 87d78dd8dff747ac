package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/XrOne/studio-jenial-sub004/internal/apierr"
	"github.com/XrOne/studio-jenial-sub004/internal/generation"
	"github.com/XrOne/studio-jenial-sub004/internal/repos"
	"github.com/XrOne/studio-jenial-sub004/internal/services"
	"github.com/XrOne/studio-jenial-sub004/internal/storage"
	"github.com/XrOne/studio-jenial-sub004/internal/timeline"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondMapped classifies a service-layer error onto an HTTP status and
// stable code.
func RespondMapped(c *gin.Context, err error) {
	ae := mapError(err)
	RespondError(c, ae.Status, ae.Code, err)
}

func mapError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}

	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		return apierr.New(http.StatusNotFound, "not_found", err)
	}
	var ns *services.NotSucceededError
	if errors.As(err, &ns) {
		return apierr.New(http.StatusConflict, "revision_not_succeeded", err)
	}

	var overlap *timeline.OverlapError
	if errors.As(err, &overlap) {
		return apierr.New(http.StatusConflict, string(generation.CodeTimelineOverlap), err)
	}
	var span *timeline.SpanError
	if errors.As(err, &span) {
		return apierr.New(http.StatusBadRequest, "invalid_span", err)
	}
	var rate *timeline.RateMismatchError
	if errors.As(err, &rate) {
		return apierr.New(http.StatusConflict, string(generation.CodeRateMismatch), err)
	}

	var invalidSpan *repos.InvalidSpanError
	if errors.As(err, &invalidSpan) {
		return apierr.New(http.StatusBadRequest, "invalid_span", err)
	}
	var foreign *repos.ForeignRevisionError
	if errors.As(err, &foreign) {
		return apierr.New(http.StatusUnprocessableEntity, "foreign_revision", err)
	}
	var cycle *repos.RevisionCycleError
	if errors.As(err, &cycle) {
		return apierr.New(http.StatusUnprocessableEntity, string(generation.CodeRevisionCycle), err)
	}
	var invalidTransition *repos.InvalidTransitionError
	if errors.As(err, &invalidTransition) {
		return apierr.New(http.StatusConflict, "invalid_transition", err)
	}
	var stale *repos.StaleTransitionError
	if errors.As(err, &stale) {
		return apierr.New(http.StatusConflict, "stale_transition", err)
	}
	var activeDelete *repos.ActiveRevisionDeleteError
	if errors.As(err, &activeDelete) {
		return apierr.New(http.StatusConflict, "revision_active", err)
	}

	var noStorage *storage.NoProviderAvailableError
	if errors.As(err, &noStorage) {
		return apierr.New(http.StatusServiceUnavailable, string(generation.CodeNoStorageProvider), err)
	}
	var upload *storage.UploadError
	if errors.As(err, &upload) {
		return apierr.New(http.StatusBadGateway, string(generation.CodeUploadFailed), err)
	}

	var ge *generation.Error
	if errors.As(err, &ge) {
		return apierr.New(statusForGenerationCode(ge.Code), string(ge.Code), err)
	}

	return apierr.New(http.StatusInternalServerError, "internal_error", err)
}

func statusForGenerationCode(code generation.Code) int {
	switch code {
	case generation.CodeCredentialMissing, generation.CodeCredentialInvalid:
		return http.StatusUnauthorized
	case generation.CodeProviderNotFound:
		return http.StatusNotFound
	case generation.CodeSegmentBusy:
		return http.StatusConflict
	case generation.CodeTimeout:
		return http.StatusGatewayTimeout
	case generation.CodeProviderTransport, generation.CodeProviderOperation, generation.CodeNoOutputProduced:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
