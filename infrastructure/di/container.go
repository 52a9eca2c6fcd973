package di

import (
	"myblog-backend/application/commands/bus"
	querybus "myblog-backend/application/queries/bus"
	"myblog-backend/infrastructure/config"
	"myblog-backend/infrastructure/persistence/abstractions"
	"myblog-backend/interfaces/http/rest"
	"myblog-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      abstractions.Store
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Collector
	Tracer     *observability.Tracer
	Router     *rest.Router
}
