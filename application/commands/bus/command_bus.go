package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"myblog-backend/pkg/common"

	"go.uber.org/zap"
)

// Command represents a command that changes state
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type and returns what it produced
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) (interface{}, error)
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, cmd Command) (interface{}, error)

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) (interface{}, error) {
	return f(ctx, cmd)
}

// Middleware wraps a handler
type Middleware func(next CommandHandler) CommandHandler

// CommandBus dispatches commands to their handlers
type CommandBus struct {
	handlers    map[reflect.Type]CommandHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewCommandBus creates a new command bus. Middlewares wrap every handler
// registered afterwards, the first one outermost.
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers:    make(map[reflect.Type]CommandHandler),
		middlewares: middlewares,
	}
}

// Register registers a handler for a command type
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", t.Name())
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Send validates a command and dispatches it to its handler
func (b *CommandBus) Send(ctx context.Context, cmd Command) (interface{}, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("command validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no handler registered for command type %T", cmd)
	}

	result, err := handler.Handle(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("command handler failed: %w", err)
	}
	return result, nil
}

// LoggingMiddleware logs command execution along with the caller recorded in the context
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
			cmdType := reflect.TypeOf(cmd).Name()
			start := time.Now()
			fields := callerFields(ctx, zap.String("type", cmdType))
			logger.Debug("Executing command", fields...)

			result, err := next.Handle(ctx, cmd)
			fields = append(fields, zap.Duration("duration", time.Since(start)))
			if elapsed := common.GetElapsedTime(ctx); elapsed > 0 {
				fields = append(fields, zap.Duration("requestElapsed", elapsed))
			}
			if err != nil {
				logger.Info("Command failed", append(fields, zap.Error(err))...)
				return nil, err
			}

			logger.Debug("Command succeeded", fields...)
			return result, nil
		})
	}
}

func callerFields(ctx context.Context, fields ...zap.Field) []zap.Field {
	if email, ok := common.GetUserEmail(ctx); ok && email != "" {
		fields = append(fields, zap.String("userEmail", email))
	}
	if roles, ok := common.GetUserRoles(ctx); ok && len(roles) > 0 {
		fields = append(fields, zap.Strings("userRoles", roles))
	}
	return fields
}
