package pipeline

// Result is the outcome of one model call on one item. On failure Value
// holds the fallback the stage keeps, if it keeps one.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

func success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func failure[T any](fallback T, err error) Result[T] {
	return Result[T]{Value: fallback, Err: err}
}
