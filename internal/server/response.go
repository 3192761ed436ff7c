package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/ingest"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// respondError replies with the user-facing message for err.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := budget.Classify(err)
	c.JSON(statusFor(err), Response{
		Status:  false,
		Message: budget.UserMessage(err),
		Kind:    kind.String(),
	})
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch budget.Classify(err) {
	case budget.KindBusy:
		return http.StatusConflict
	case budget.KindConfig:
		return http.StatusServiceUnavailable
	case budget.KindValidation:
		return http.StatusBadRequest
	case budget.KindIngestion:
		switch {
		case errors.Is(err, ingest.ErrTooLarge):
			return http.StatusRequestEntityTooLarge
		case errors.Is(err, ingest.ErrUnsupportedType):
			return http.StatusUnsupportedMediaType
		}
		return http.StatusBadRequest
	case budget.KindExtraction:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// flexString accepts a JSON string, number, or null. Manual entry fields
// arrive as raw strings from forms and as numbers from API clients.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
