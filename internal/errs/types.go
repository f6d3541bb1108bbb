package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

// NotFoundError: the referenced layout/widget/record does not exist.
type NotFoundError struct {
	ErrorMessage
}

// ConflictError: the mutation collides with existing state, e.g. adding a
// second instance of a single-instance widget type. The layout is unchanged.
type ConflictError struct {
	ErrorMessage
}

// ValidationError: malformed input (bad breakpoint, missing layout_config
// section, unknown widget type). No partial state change.
type ValidationError struct {
	ErrorMessage
}

// DatabaseError wraps a persistence failure with the operation that failed.
type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// TransportError: the portfolio data service (or price feed) could not be
// reached at all. Transient errors are expected to clear on the next
// scheduled refresh; callers keep serving the last good snapshot.
type TransportError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *TransportError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewTransportError(service, message string, transient bool, err error) *TransportError {
	return &TransportError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}
