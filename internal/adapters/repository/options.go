package repository

// Option applies a configuration option to the TreapLeaderboard.
type Option func(*TreapLeaderboard)

// WithPrioritySeed fixes the seed of the treap priorities, for reproducible tree shapes.
func WithPrioritySeed(seed uint64) Option {
	return func(l *TreapLeaderboard) {
		l.seed = seed
	}
}
