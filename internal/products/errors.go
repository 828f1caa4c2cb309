package products

import (
	"errors"
	"strings"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorValidationFailed  = errors.New("validation failed")
	ErrorPersistenceFailed = errors.New("persistence failed")
	ErrorNotFound          = errors.New("product not found")
	ErrorInsufficientStock = errors.New("insufficient stock")
	ErrorInvalidQuantity   = errors.New("invalid quantity")
)

// ValidationError lleva los errores por campo de una submission rechazada.
// errors.Is(err, ErrorValidationFailed) da true.
type ValidationError struct {
	Errors []FieldError
}

func (validationError *ValidationError) Error() string {
	parts := make([]string, 0, len(validationError.Errors))
	for _, fieldErr := range validationError.Errors {
		parts = append(parts, fieldErr.Field+": "+fieldErr.Key)
	}
	return ErrorValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

func (validationError *ValidationError) Is(target error) bool {
	return target == ErrorValidationFailed
}

// PersistenceError envuelve una falla del store. Unwrap devuelve el error original
// (pgx, pgconn, red), así que errors.Is/As siguen llegando a él.
type PersistenceError struct {
	Op  string
	Err error
}

func (persistenceError *PersistenceError) Error() string {
	return ErrorPersistenceFailed.Error() + ": " + persistenceError.Op + ": " + persistenceError.Err.Error()
}

func (persistenceError *PersistenceError) Unwrap() error {
	return persistenceError.Err
}

func (persistenceError *PersistenceError) Is(target error) bool {
	return target == ErrorPersistenceFailed
}

// wrapPersistence deja pasar errores de dominio y envuelve el resto.
func wrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var validationError *ValidationError
	switch {
	case errors.As(err, &validationError),
		errors.Is(err, ErrorPersistenceFailed),
		errors.Is(err, ErrorNotFound),
		errors.Is(err, ErrorInsufficientStock),
		errors.Is(err, ErrorInvalidQuantity):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
