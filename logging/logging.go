// Package logging builds the zap logger every binary uses.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger tagged with service and env.  env "local" gets the
// development config.
func New(service, env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build(
		zap.Fields(
			zap.String("service", service),
			zap.String("env", env),
		),
	)
}

// Init installs a logger from New as the zap global and returns a function
// that flushes it.  If the logger can't be built, the global stays the
// no-op logger and the error is returned.
func Init(service, env string) (func(), error) {
	l, err := New(service, env)
	if err != nil {
		return func() {}, err
	}
	undo := zap.ReplaceGlobals(l)
	return func() {
		_ = l.Sync()
		undo()
	}, nil
}
