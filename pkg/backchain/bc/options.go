package bc

import (
	"go.uber.org/zap"

	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/unify"
)

type options struct {
	logger    *zap.Logger
	selector  rules.Selector
	policy    unify.Policy
	sessionID string
}

// Option configures a Chainer.
type Option func(*options)

// WithLogger sets the logger. Steps are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSelector replaces the default random rule selection.
func WithSelector(s rules.Selector) Option {
	return func(o *options) {
		if s != nil {
			o.selector = s
		}
	}
}

func WithUnifyPolicy(p unify.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}
