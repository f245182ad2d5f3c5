package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ServiceOptions defines common options for building the application
type ServiceOptions struct {
	Logger   *zap.Logger
	Env      string
	Registry *prometheus.Registry
}

// Option defines a service option modifier
type Option func(*ServiceOptions)

func WithLogger(logger *zap.Logger) Option {
	return func(o *ServiceOptions) {
		o.Logger = logger
	}
}

func WithEnv(env string) Option {
	return func(o *ServiceOptions) {
		o.Env = env
	}
}

// WithRegistry registers metrics on reg instead of the global registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *ServiceOptions) {
		o.Registry = reg
	}
}
