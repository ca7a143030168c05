package cmd

// Options holds the shared command-line options for the issuewatch CLI.
type Options struct {
	ConfigPath string
	Verbosity  int
	Format     string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Format: "table",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithConfigPath sets an explicit config file path.
func WithConfigPath(path string) Option {
	return func(o *Options) {
		o.ConfigPath = path
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}
