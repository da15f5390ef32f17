package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pao-report-backend/internal/platform/apierr"
)

// ErrorBody is the error shape returned by every endpoint.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

// RespondAPIError maps err onto its HTTP status. Errors without an
// *apierr.Error are reported as 500 with their message.
func RespondAPIError(c *gin.Context, err error) {
	if e, ok := apierr.As(err); ok {
		RespondError(c, apierr.StatusOf(err), e.Code, err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
