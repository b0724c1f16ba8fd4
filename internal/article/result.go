package article

// Result is the outcome of one per-item operation in a best-effort loop.
// Exactly one of Value or Err is meaningful.
type Result[T any] struct {
	// Key identifies the item the result belongs to (request id, slug).
	Key   string
	Value T
	Err   error
}

// Ok builds a successful result.
func Ok[T any](key string, v T) Result[T] {
	return Result[T]{Key: key, Value: v}
}

// Fail builds a failed result.
func Fail[T any](key string, err error) Result[T] {
	return Result[T]{Key: key, Err: err}
}

// Partition splits results into successes and failures, preserving order.
func Partition[T any](results []Result[T]) (oks []T, failed []Result[T]) {
	oks = make([]T, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			continue
		}
		oks = append(oks, r.Value)
	}
	return oks, failed
}
