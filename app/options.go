package app

import (
	"go.uber.org/zap"
)

const EnvProduction = "production"

// NewLogger returns a production logger for the production environment and
// a development logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == EnvProduction {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
