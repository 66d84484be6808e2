package engine

// ValidationError reports an order that cannot be constructed. It never
// affects book state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConsistencyError is the panic value used when the book detects a broken
// invariant. It signals a bug in the engine, not bad input.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "order book inconsistency: " + e.Reason
}
