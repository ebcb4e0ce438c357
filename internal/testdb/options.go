package testdb

type options struct {
	bindPort int
	debug    bool
}

type OptionsFunc func(o *options)

// WithBindPort binds the container port to n on the host instead of a random port.
func WithBindPort(n int) OptionsFunc {
	return func(o *options) { o.bindPort = n }
}

// WithDebug leaves the container running after cleanup.
func WithDebug(b bool) OptionsFunc {
	return func(o *options) { o.debug = b }
}
