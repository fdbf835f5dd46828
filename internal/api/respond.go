package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camcoord/coordinator/internal/apierr"
	"github.com/camcoord/coordinator/internal/store"
)

// errorPayload is the structured error body spec.md §4.3.6 requires:
// a machine-readable kind, a one-line message, and an optional field.
type errorPayload struct {
	Kind    apierr.Kind `json:"error"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
}

// RespondError shapes any error into the HTTP response spec.md
// §4.3.6 describes. Unrecognized errors become KindInternal, logged
// with a correlation ID so the opaque string returned to the caller
// can be traced back in the logs.
func RespondError(c *gin.Context, err error) {
	if apiErr, ok := apierr.As(err); ok {
		c.JSON(apiErr.Kind.HTTPStatus(), errorPayload{
			Kind:    apiErr.Kind,
			Message: apiErr.Message,
			Field:   apiErr.Field,
		})
		return
	}

	if kind, ok := store.ClassifyError(err); ok {
		c.JSON(kind.HTTPStatus(), errorPayload{Kind: kind, Message: err.Error()})
		return
	}

	correlationID := uuid.New().String()
	slog.Error("unhandled error", "correlation_id", correlationID, "error", err)
	c.JSON(http.StatusInternalServerError, errorPayload{
		Kind:    apierr.KindInternal,
		Message: "internal error, reference " + correlationID,
	})
}
