package repository

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithCapacity preallocates room for n records.
func WithCapacity(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.ids = make([]int64, 0, n)
			b.index = make(map[int64]int, n)
			b.features = make([][]float64, 0, n)
		}
	}
}
