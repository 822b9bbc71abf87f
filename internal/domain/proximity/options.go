package proximity

// Option configures Arrange.
type Option func(*arrangeOptions)

type arrangeOptions struct {
	radiusKm  float64
	radiusSet bool
	category  string
}

// WithRadius keeps only events within radiusKm of the origin.
// Without it Arrange ranks every event.
func WithRadius(radiusKm float64) Option {
	return func(o *arrangeOptions) {
		o.radiusKm = radiusKm
		o.radiusSet = true
	}
}

// WithCategory keeps only events of the given type. "" and "all" keep everything.
func WithCategory(category string) Option {
	return func(o *arrangeOptions) {
		o.category = category
	}
}
