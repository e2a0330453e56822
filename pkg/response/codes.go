package response

import "github.com/gin-gonic/gin"

const (
	CodeAccepted        = 2001 // notification accepted for delivery
	CodeParamInvalid    = 4003 // request body failed validation
	CodeUnknownType     = 4004 // notification type not recognized
	CodeUnauthorized    = 4010 // missing or invalid service credentials
	CodeInternalFailure = 5000 // unexpected server-side failure
)

// message
var msg = map[int]string{
	CodeAccepted:        "accepted",
	CodeParamInvalid:    "invalid request parameters",
	CodeUnknownType:     "unknown notification type",
	CodeUnauthorized:    "unauthorized",
	CodeInternalFailure: "internal failure",
}

func Message(code int) string {
	return msg[code]
}

// JSON writes the standard envelope {code, message, data}.
func JSON(c *gin.Context, status int, code int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": Message(code),
		"data":    data,
	})
}
