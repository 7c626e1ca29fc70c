package controller

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jcodybaker/canctl/pkg/can"
)

const defaultAcquireTimeout = 15 * time.Second

type options struct {
	ll             log.FieldLogger
	supportedTypes []can.InterfaceType
	acquireTimeout time.Duration
}

func defaultOptions() options {
	return options{
		ll:             log.StandardLogger(),
		acquireTimeout: defaultAcquireTimeout,
	}
}

// OptionFunc describes the function signature for methods which modify the controller options.
type OptionFunc func(*options) error

// WithLogger sets a logger on the controller options.
func WithLogger(ll log.FieldLogger) OptionFunc {
	return func(o *options) error {
		o.ll = ll
		return nil
	}
}

// WithSupportedTypes restricts the interface types the controller will bring
// up. By default every type the opener supports is allowed.
func WithSupportedTypes(types []can.InterfaceType) OptionFunc {
	return func(o *options) error {
		o.supportedTypes = append(make([]can.InterfaceType, 0, len(types)), types...)
		return nil
	}
}

// WithAcquireTimeout bounds how long bringing up a single transport may take.
func WithAcquireTimeout(timeout time.Duration) OptionFunc {
	return func(o *options) error {
		if timeout <= 0 {
			return errors.New("acquire timeout must be positive")
		}
		o.acquireTimeout = timeout
		return nil
	}
}
