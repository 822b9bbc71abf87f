package dedupe

const defaultMaxSize = 50_000

// Option configures the in-memory deduper.
type Option func(*window)

// WithMaxSize bounds the number of remembered ids. Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(w *window) {
		w.maxSize = maxSize
	}
}
