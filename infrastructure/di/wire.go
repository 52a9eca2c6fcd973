//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"myblog-backend/application/ports"
	"myblog-backend/infrastructure/config"
	"myblog-backend/infrastructure/persistence/dynamodb"
	"myblog-backend/interfaces/http/rest"

	"github.com/google/wire"
)

// InfrastructureSet provides AWS clients, the store and observability
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideS3PresignClient,
	ProvideMetrics,
	ProvideTracer,
	ProvideDomainConfig,
	ProvideStore,
	ProvidePostRepository,
	wire.Bind(new(ports.PostRepository), new(*dynamodb.PostRepository)),
	wire.Bind(new(ports.HealthChecker), new(*dynamodb.PostRepository)),
	ProvideMediaStorage,
)

// ApplicationSet provides the command and query buses
var ApplicationSet = wire.NewSet(
	ProvideCommandBus,
	ProvideQueryBus,
)

// InterfaceSet provides the HTTP surface
var InterfaceSet = wire.NewSet(
	ProvideErrorHandler,
	ProvideJWTValidator,
	ProvideAuthenticator,
	ProvideRateLimiter,
	ProvidePostHandler,
	ProvideMediaHandler,
	ProvideHealthHandler,
	ProvideRouterConfig,
	rest.NewRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	InterfaceSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
