package stockroom

import "github.com/rs/zerolog"

// Config holds global defaults applied to every new storage.
var Config config = config{
	logger: zerolog.Nop(),
}

type config struct {
	logger   zerolog.Logger
	registry *Registry
}

// SetLogger configures the logger new storages inherit
func (c *config) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// SetRegistry configures the registry new storages serialize with. Nil restores DefaultRegistry.
func (c *config) SetRegistry(r *Registry) {
	c.registry = r
}

func (c *config) defaultRegistry() *Registry {
	if c.registry == nil {
		return DefaultRegistry
	}
	return c.registry
}

type storageOptions struct {
	logger   zerolog.Logger
	registry *Registry
	capacity int
}

// StorageOption overrides a Config default for a single storage.
type StorageOption func(*storageOptions)

func WithLogger(logger zerolog.Logger) StorageOption {
	return func(o *storageOptions) {
		o.logger = logger
	}
}

func WithRegistry(r *Registry) StorageOption {
	return func(o *storageOptions) {
		o.registry = r
	}
}

// WithCapacity preallocates room for n entities.
func WithCapacity(n int) StorageOption {
	return func(o *storageOptions) {
		o.capacity = n
	}
}

func newStorageOptions(opts ...StorageOption) storageOptions {
	o := storageOptions{
		logger:   Config.logger,
		registry: Config.defaultRegistry(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
