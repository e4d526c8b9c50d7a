package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError is the typed error carried from services up to the HTTP layer.
// Terminal errors end the session view; recoverable errors leave the caller
// in a position to retry the same step without data loss.
type AppError struct {
	Code        string
	Status      int
	Message     string
	Recoverable bool
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes for the interview session engine.
const (
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeNotFound              = "NOT_FOUND"
	CodeInactiveSession       = "INACTIVE_SESSION"
	CodeQuestionFetchFailed   = "QUESTION_FETCH_FAILED"
	CodeSpeechCaptureError    = "SPEECH_CAPTURE_ERROR"
	CodeInteractionSaveFailed = "INTERACTION_SAVE_FAILED"
	CodeFinalizeFailed        = "FINALIZE_FAILED"
	CodeInvalidState          = "INVALID_STATE"
	CodeOperationInFlight     = "OPERATION_IN_FLIGHT"
	CodeValidation            = "VALIDATION_ERROR"
)

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Status: fiber.StatusForbidden, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: message}
}

func NewInactiveSession(message string) *AppError {
	return &AppError{Code: CodeInactiveSession, Status: fiber.StatusConflict, Message: message}
}

func NewQuestionFetchFailed(err error) *AppError {
	return &AppError{
		Code:        CodeQuestionFetchFailed,
		Status:      fiber.StatusBadGateway,
		Message:     "failed to fetch the next question, please try again",
		Recoverable: true,
		Err:         err,
	}
}

func NewSpeechCaptureError(kind string) *AppError {
	return &AppError{
		Code:        CodeSpeechCaptureError,
		Status:      fiber.StatusUnprocessableEntity,
		Message:     "speech capture error: " + kind,
		Recoverable: true,
	}
}

func NewInteractionSaveFailed(err error) *AppError {
	return &AppError{
		Code:        CodeInteractionSaveFailed,
		Status:      fiber.StatusBadGateway,
		Message:     "failed to save answer, please try again",
		Recoverable: true,
		Err:         err,
	}
}

func NewFinalizeFailed(err error) *AppError {
	return &AppError{
		Code:        CodeFinalizeFailed,
		Status:      fiber.StatusBadGateway,
		Message:     "failed to finalize session, your answers are saved",
		Recoverable: true,
		Err:         err,
	}
}

func NewInvalidState(message string) *AppError {
	return &AppError{Code: CodeInvalidState, Status: fiber.StatusConflict, Message: message}
}

func NewOperationInFlight() *AppError {
	return &AppError{
		Code:    CodeOperationInFlight,
		Status:  fiber.StatusConflict,
		Message: "another operation is in flight for this session",
	}
}

func NewValidationError(err error) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Status:  fiber.StatusBadRequest,
		Message: "request validation failed",
		Err:     err,
	}
}

// AsAppError unwraps an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
