package fsm

import "log/slog"

// DefaultMaxChainedTransitions bounds how many queued transitions are
// applied after a single ChangeState call.
const DefaultMaxChainedTransitions = 32

type options struct {
	name     string
	logger   *slog.Logger
	maxChain int
}

// Option configures a Machine built by New.
type Option func(*options)

// WithName labels the machine in log records.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger for transitions and errors. Nil keeps
// slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxChainedTransitions sets the queued transition limit. Values <= 0
// keep the default.
func WithMaxChainedTransitions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxChain = n
		}
	}
}
