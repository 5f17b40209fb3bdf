package server

import "github.com/gin-gonic/gin"

type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError aborts the request with the standard error body.
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorPayload{
		RequestID: requestID(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}
