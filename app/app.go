package app

import (
	"go.uber.org/fx"
	"verge-groups/internal/api"
	"verge-groups/internal/clash"
	"verge-groups/internal/config"
	"verge-groups/internal/headstate"
	"verge-groups/internal/healthcheck"
	"verge-groups/internal/iconcache"
	"verge-groups/internal/icons"
	"verge-groups/internal/metrics"
	"verge-groups/internal/refresh"
	"verge-groups/internal/render"
	"verge-groups/internal/verge"
	"verge-groups/internal/view"
)

// Modules is the full dependency graph of the service.
var Modules = fx.Options(
	// Core modules
	config.Module,
	metrics.Module,

	// Collaborators
	clash.Module,
	verge.Module,
	icons.Module,

	// Group view
	headstate.Module,
	iconcache.Module,
	render.Module,
	view.Module,
	healthcheck.Module,
	refresh.Module,

	// Outer surface
	api.Module,
)
