package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/quotation-allocation-api/middleware"
	"github.com/kendall-kelly/quotation-allocation-api/services"
	"github.com/kendall-kelly/quotation-allocation-api/utils"
)

// errorStatus maps an engine error onto an HTTP status and error code
func errorStatus(err error) (int, string, string) {
	var (
		param        *utils.ParamError
		validation   *services.ValidationError
		authz        *services.AuthorizationError
		notFound     *services.NotFoundError
		invalidState *services.InvalidStateError
		concurrency  *services.ConcurrencyError
		transient    *services.TransientError
	)

	switch {
	case errors.As(err, &param):
		return http.StatusBadRequest, param.Code, param.Message
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Code, validation.Message
	case errors.As(err, &authz):
		return http.StatusForbidden, "FORBIDDEN", authz.Message
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NOT_FOUND", notFound.Error()
	case errors.As(err, &invalidState):
		code := invalidState.Code
		if code == "" {
			code = services.CodeIllegalState
		}
		return http.StatusConflict, code, invalidState.Error()
	case errors.As(err, &concurrency):
		return http.StatusConflict, "CONCURRENT_UPDATE", concurrency.Error()
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Temporary failure, please retry"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code, message := errorStatus(err)
	_ = c.Error(err)

	body := gin.H{
		"code":    code,
		"message": message,
	}
	if requestID, idErr := middleware.GetRequestID(c); idErr == nil {
		body["request_id"] = requestID
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondData writes a success envelope. Non-nil warnings are listed so the
// caller knows a side effect such as a notification did not go through.
func respondData(c *gin.Context, status int, data interface{}, warnings ...error) {
	body := gin.H{
		"success": true,
		"data":    data,
	}

	var messages []string
	for _, w := range warnings {
		if w != nil {
			messages = append(messages, w.Error())
		}
	}
	if len(messages) > 0 {
		body["warnings"] = messages
	}

	c.JSON(status, body)
}

// pathID parses a numeric path parameter
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(name, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return id, true
}
