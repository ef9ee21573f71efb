// Package results separates domain outcomes from infrastructure errors.
//
// A service operation returns (OperationResult, error). The error is reserved
// for infrastructure faults (database down, tx aborted). A domain outcome the
// caller should surface to a user (insufficient funds, slot unavailable) is a
// Failure inside a nil-error result.
package results

// OperationResult holds either a success payload or a failure payload.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// FailureResult wraps a failure payload.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

// IsSuccess reports whether the result carries a success payload.
func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

// IsFailure reports whether the result carries a failure payload.
func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}

// Map converts the success payload, keeping any failure as is.
func Map[S any, F any, T any](r OperationResult[S, F], fn func(S) T) OperationResult[T, F] {
	if r.Failure != nil {
		return OperationResult[T, F]{Failure: r.Failure}
	}
	if r.Success == nil {
		return OperationResult[T, F]{}
	}
	return SuccessResult[T, F](fn(*r.Success))
}
