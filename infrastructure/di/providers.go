package di

import (
	"context"
	"fmt"

	"myblog-backend/application/commands"
	"myblog-backend/application/commands/bus"
	commands_handlers "myblog-backend/application/commands/handlers"
	"myblog-backend/application/ports"
	"myblog-backend/application/queries"
	querybus "myblog-backend/application/queries/bus"
	queries_handlers "myblog-backend/application/queries/handlers"
	domainconfig "myblog-backend/domain/config"
	"myblog-backend/domain/core/validators"
	"myblog-backend/infrastructure/config"
	"myblog-backend/infrastructure/persistence/abstractions"
	"myblog-backend/infrastructure/persistence/dynamodb"
	"myblog-backend/infrastructure/persistence/instrumented"
	"myblog-backend/infrastructure/persistence/memory"
	s3storage "myblog-backend/infrastructure/storage/s3"
	"myblog-backend/interfaces/http/rest"
	"myblog-backend/interfaces/http/rest/handlers"
	"myblog-backend/interfaces/http/rest/middleware"
	"myblog-backend/pkg/auth"
	"myblog-backend/pkg/errors"
	"myblog-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"
)

const serviceName = "myblog-api"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName), zap.String("version", cfg.Version)), nil
}

// ProvideAWSConfig creates AWS configuration. With tracing enabled every SDK
// call is recorded as an X-Ray subsegment.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client. DYNAMODB_ENDPOINT points it at DynamoDB Local.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideS3PresignClient creates the client that signs media upload URLs
func ProvideS3PresignClient(awsCfg aws.Config) *awss3.PresignClient {
	return awss3.NewPresignClient(awss3.NewFromConfig(awsCfg))
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("blog")
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideDomainConfig returns the business rules, with the upload expiry taken from config
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.DefaultDomainConfig()
	if cfg.UploadURLExpiry > 0 {
		domainCfg.UploadURLExpiry = cfg.UploadURLExpiry
	}
	if err := domainCfg.Validate(); err != nil {
		return nil, err
	}
	return domainCfg, nil
}

// ProvideStore selects the store driver and wraps it with metrics and tracing
func ProvideStore(
	client *awsdynamodb.Client,
	cfg *config.Config,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) abstractions.Store {
	var inner abstractions.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		inner = memory.NewStore(cfg.IndexName)
	default:
		inner = dynamodb.NewStore(client, dynamodb.StoreConfig{
			TableName:          cfg.TableName,
			IndexName:          cfg.IndexName,
			Timeout:            cfg.StoreTimeout,
			BreakerMaxFailures: uint32(cfg.BreakerMaxFailures),
			BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		}, logger)
	}
	return instrumented.NewStore(inner, metrics, tracer)
}

// ProvidePostRepository creates the post repository on top of the store
func ProvidePostRepository(
	store abstractions.Store,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) *dynamodb.PostRepository {
	return dynamodb.NewPostRepository(store, domainCfg, cfg.IndexName, logger)
}

// ProvideMediaStorage creates the S3 presigner behind ports.MediaStorage
func ProvideMediaStorage(
	client *awss3.PresignClient,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) ports.MediaStorage {
	return s3storage.NewPresigner(client, s3storage.Config{
		BucketName:       cfg.BucketName,
		CloudFrontDomain: cfg.CloudFrontDomain,
		Expiry:           domainCfg.UploadURLExpiry,
	}, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	repo ports.PostRepository,
	storage ports.MediaStorage,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreatePostCommand{}, commands_handlers.NewCreatePostHandler(repo, logger)},
		{commands.UpdatePostCommand{}, commands_handlers.NewUpdatePostHandler(repo, logger)},
		{commands.DeletePostCommand{}, commands_handlers.NewDeletePostHandler(repo, logger)},
		{commands.RequestUploadURLCommand{}, commands_handlers.NewRequestUploadURLHandler(
			validators.NewMediaValidator(domainCfg), storage, logger)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(repo ports.PostRepository, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(logger)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetPostQuery{}, queries_handlers.NewGetPostHandler(repo)},
		{queries.ListPostsQuery{}, queries_handlers.NewListPostsHandler(repo)},
		{queries.ListPostsByTagQuery{}, queries_handlers.NewListPostsByTagHandler(repo)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}

// ProvideErrorHandler creates the HTTP error writer. In development it
// includes internal messages in 5xx responses.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideJWTValidator creates the bearer token validator, or nil when no
// secret is configured and tokens are verified by the gateway.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
}

// ProvideAuthenticator creates the identity middleware. Gateway user headers
// are only trusted when running behind API Gateway.
func ProvideAuthenticator(
	validator *auth.JWTValidator,
	cfg *config.Config,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *middleware.Authenticator {
	return middleware.NewAuthenticator(validator, cfg.IsLambda, errHandler, logger)
}

// ProvideRateLimiter creates the per-client limiter for mutating routes
func ProvideRateLimiter(cfg *config.Config) *auth.IPRateLimiter {
	return auth.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

// ProvidePostHandler creates the post HTTP handler
func ProvidePostHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errHandler *errors.ErrorHandler,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *handlers.PostHandler {
	return handlers.NewPostHandler(commandBus, queryBus, errHandler, domainCfg.DefaultPageSize, logger)
}

// ProvideMediaHandler creates the media HTTP handler
func ProvideMediaHandler(commandBus *bus.CommandBus, errHandler *errors.ErrorHandler, logger *zap.Logger) *handlers.MediaHandler {
	return handlers.NewMediaHandler(commandBus, errHandler, logger)
}

// ProvideHealthHandler creates the health HTTP handler
func ProvideHealthHandler(store ports.HealthChecker, cfg *config.Config, logger *zap.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(store, cfg.Version, logger)
}

// ProvideRouterConfig derives the HTTP surface settings
func ProvideRouterConfig(cfg *config.Config) rest.RouterConfig {
	return rest.RouterConfig{
		Version:        cfg.Version,
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		// A separate METRICS_ADDRESS listener takes precedence, and a Lambda
		// instance has no stable scrape target
		ExposeMetrics: cfg.EnableMetrics && cfg.MetricsAddress == "" && !cfg.IsLambda,
	}
}
