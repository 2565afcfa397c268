package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"menza/internal/apperr"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindInvalidInput:     http.StatusBadRequest,
	apperr.KindNotFound:         http.StatusNotFound,
	apperr.KindForbidden:        http.StatusForbidden,
	apperr.KindConflict:         http.StatusConflict,
	apperr.KindAlreadyCancelled: http.StatusConflict,
	apperr.KindQuotaExceeded:    http.StatusUnprocessableEntity,
	apperr.KindClosed:           http.StatusUnprocessableEntity,
	apperr.KindCapacityExceeded: http.StatusUnprocessableEntity,
	apperr.KindStoreUnavailable: http.StatusServiceUnavailable,
}

// writeError maps a service error to its HTTP status and envelope.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	var body errorBody
	body.Error.Kind = string(kind)
	body.Error.Message = err.Error()
	c.JSON(status, body)
}

func writeBadRequest(c *gin.Context, msg string) {
	var body errorBody
	body.Error.Kind = string(apperr.KindInvalidInput)
	body.Error.Message = msg
	c.JSON(http.StatusBadRequest, body)
}
