// File: adapters/handler_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the teacher's adapters/handler_adapter.go: HandlerFunc plus a
// small middleware chain around api.Handler, trimmed to the two middlewares
// this module's callers actually reach for (recovery and logging); see
// cmd/wsecho for a real caller wrapping its OnMessage callback this way.

package adapters

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/momentics/wscore/api"
)

// HandlerFunc adapts a plain function to api.Handler.
type HandlerFunc func(data any) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(data any) error { return f(data) }

// RecoveryMiddleware recovers from a panic inside next, turning it into an
// error instead of taking down the caller's goroutine (e.g. an event
// loop's single worker goroutine).
func RecoveryMiddleware(next api.Handler) api.Handler {
	return HandlerFunc(func(data any) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = api.Errf(api.ErrCodeInternal, "adapters: handler panic: %v", r)
			}
		}()
		return next.Handle(data)
	})
}

// LoggingMiddleware logs entry and any error from next at debug level.
func LoggingMiddleware(log *zap.Logger) func(api.Handler) api.Handler {
	return func(next api.Handler) api.Handler {
		return HandlerFunc(func(data any) error {
			err := next.Handle(data)
			log.Debug("handler invoked", zap.String("data_type", fmt.Sprintf("%T", data)), zap.Error(err))
			return err
		})
	}
}
