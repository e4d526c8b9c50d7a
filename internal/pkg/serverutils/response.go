package serverutils

// Response is the standard JSON envelope for all endpoints.
type Response[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

type ErrorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(appErr *AppError) Response[ErrorBody] {
	return Response[ErrorBody]{
		Message: appErr.Message,
		Data: ErrorBody{
			Code:        appErr.Code,
			Message:     appErr.Message,
			Recoverable: appErr.Recoverable,
		},
	}
}
