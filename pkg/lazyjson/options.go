package lazyjson

// Option is a functional option for configuring a Manager.
type Option[T any] func(*options[T])

// options holds configuration for the Manager.
type options[T any] struct {
	createIfMissing bool
}

// WithCreateIfMissing controls whether a missing file materializes as the
// zero value on first load instead of an error. Default is true.
func WithCreateIfMissing[T any](create bool) Option[T] {
	return func(o *options[T]) {
		o.createIfMissing = create
	}
}
