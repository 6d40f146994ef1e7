// Package errors defines the application error taxonomy and the utilities
// that turn failures into user-facing messages instead of crashes.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError covers malformed user input. Handled locally by
// re-prompting the current state.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Formato no válido. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewStoreError covers failures of a per-user store backend.
func NewStoreError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("store error: %s", underlyingMsg),
		UserMessage: "Tuvimos un problema temporal, intenta de nuevo en un momento",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewExternalAPIError covers transport-level failures of a collaborator
// (LLM, catalog, order backend, messaging).
func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("external API error: %s", apiName),
		UserMessage: "El servicio no está disponible en este momento, intenta de nuevo",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewBackendRejectionError covers non-2xx answers from the commerce backend
// that carry a human-readable detail (for example an order rejection).
func NewBackendRejectionError(status int, detail string) *AppError {
	if detail == "" {
		detail = "solicitud rechazada"
	}

	return &AppError{
		Code:        "E310",
		Message:     fmt.Sprintf("backend rejected request (status %d): %s", status, detail),
		UserMessage: detail,
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// NewSessionError covers unrecoverable session or identity problems, such
// as a missing customer id at order confirmation. The flow resets afterwards.
func NewSessionError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "Perdimos el hilo de la conversación, volvamos a empezar desde el menú",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// NewInvariantError covers programming-invariant violations (for example a
// state enum falling through every switch branch). Never fatal.
func NewInvariantError(msg string) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     msg,
		UserMessage: "Algo salió mal de nuestro lado, te llevamos al inicio",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       nil,
	}
}
