package response

// Response is the envelope every endpoint writes
type Response struct {
	Status     string      `json:"status"`      // "success", "partial" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Meta       interface{} `json:"meta,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Page wraps a list result with its pagination metadata
func Page(statusCode int, data interface{}, meta interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
		Meta:       meta,
	}
}

// Partial reports a committed write whose follow-up work failed; data carries the committed record.
func Partial(statusCode int, data interface{}, err string) Response {
	return Response{
		Status:     "partial",
		StatusCode: statusCode,
		Data:       data,
		Error:      err,
	}
}

func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// ErrorWithDetails attaches structured context such as field violations or stock shortfalls
func ErrorWithDetails(statusCode int, err string, details interface{}) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Details:    details,
	}
}
