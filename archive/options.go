package archive

const (
	DefaultCacheSize           = 4096
	DefaultBloomCapacity       = 1 << 20
	DefaultBloomBitsPerElement = 10
)

type Options struct {
	CacheSize           int
	BloomCapacity       uint64
	BloomBitsPerElement uint64
	// Sync makes every write durable before it returns.
	Sync bool
}

// Option is applied to an *Options. Options of other types are ignored.
type Option func(any)

func defaultOptions() Options {
	return Options{
		CacheSize:           DefaultCacheSize,
		BloomCapacity:       DefaultBloomCapacity,
		BloomBitsPerElement: DefaultBloomBitsPerElement,
		Sync:                true,
	}
}

func WithCacheSize(n int) Option {
	return func(opts any) {
		if o, ok := opts.(*Options); ok && n > 0 {
			o.CacheSize = n
		}
	}
}

// WithBloom sizes the prefilter created for a new database. An existing
// database keeps the prefilter it was created with.
func WithBloom(capacity, bitsPerElement uint64) Option {
	return func(opts any) {
		if o, ok := opts.(*Options); ok {
			o.BloomCapacity = capacity
			o.BloomBitsPerElement = bitsPerElement
		}
	}
}

func WithSync(sync bool) Option {
	return func(opts any) {
		if o, ok := opts.(*Options); ok {
			o.Sync = sync
		}
	}
}
