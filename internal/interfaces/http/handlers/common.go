// Package handlers implements the gateway's HTTP endpoints: session
// lifecycle and filter changes, result and state polling, reference data,
// and health probes.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tradepulse/tradepulse/pkg/errors"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error to its HTTP status and writes the
// uniform body.  Unknown errors are masked as internal.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	resp := ErrorResponse{Code: string(code)}

	var ae *errors.AppError
	if errors.AsAppError(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	} else {
		resp.Code = string(errors.ErrCodeInternal)
		resp.Message = "internal server error"
	}
	c.AbortWithStatusJSON(errors.HTTPStatus(code), resp)
}
