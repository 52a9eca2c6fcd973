package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myblog-backend/infrastructure/persistence/abstractions"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses
type DynamoDBAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// StoreConfig holds the table layout and resilience settings
type StoreConfig struct {
	TableName          string
	IndexName          string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Store implements abstractions.Store on a DynamoDB table.
// Every call runs under a timeout and through a circuit breaker that opens
// after consecutive transient failures.
type Store struct {
	client  DynamoDBAPI
	cfg     StoreConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ abstractions.Store = (*Store)(nil)

// NewStore creates a DynamoDB-backed store
func NewStore(client DynamoDBAPI, cfg StoreConfig, logger *zap.Logger) *Store {
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout == 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	s := &Store{client: client, cfg: cfg, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dynamodb:" + cfg.TableName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Condition failures and malformed requests say nothing about the table's health
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
	})
	return s
}

// QueryPartition reads a whole post partition, following pages
func (s *Store) QueryPartition(ctx context.Context, pk string) ([]abstractions.Item, error) {
	keyCond := expression.Key(abstractions.AttrPK).Equal(expression.Value(pk))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build partition query: %w", err)
	}

	var items []abstractions.Item
	var startKey map[string]types.AttributeValue
	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.cfg.TableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ConsistentRead:            aws.Bool(true),
			ExclusiveStartKey:         startKey,
		}

		var out *dynamodb.QueryOutput
		err := s.call(ctx, "QueryPartition", func(ctx context.Context) error {
			var err error
			out, err = s.client.Query(ctx, input)
			return err
		})
		if err != nil {
			return nil, err
		}

		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// QueryIndex reads one page of the inverted index
func (s *Store) QueryIndex(ctx context.Context, q abstractions.IndexQuery) (*abstractions.Page, error) {
	keyCond := expression.Key(abstractions.AttrSK).Equal(expression.Value(q.PartitionValue))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build index query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.cfg.TableName),
		IndexName:                 aws.String(q.IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(q.Forward),
		ExclusiveStartKey:         q.StartKey.ToAttributeKey(),
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(int32(q.Limit))
	}

	var out *dynamodb.QueryOutput
	err = s.call(ctx, "QueryIndex", func(ctx context.Context) error {
		var err error
		out, err = s.client.Query(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	lastKey, ok := abstractions.CursorFromAttributeKey(out.LastEvaluatedKey)
	if !ok {
		return nil, fmt.Errorf("index %s returned a non-string resume key", q.IndexName)
	}
	return &abstractions.Page{Items: out.Items, LastKey: lastKey}, nil
}

// TransactWrite issues one TransactWriteItems call
func (s *Store) TransactWrite(ctx context.Context, ops []abstractions.WriteOp) error {
	if len(ops) > abstractions.MaxTransactionItems {
		return fmt.Errorf("%w: %d operations", abstractions.ErrTransactionTooLarge, len(ops))
	}

	absent, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(abstractions.AttrPK))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build put condition: %w", err)
	}

	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case abstractions.WritePut:
			put := &types.Put{
				TableName: aws.String(s.cfg.TableName),
				Item:      op.Item,
			}
			if op.RequireAbsent {
				put.ConditionExpression = absent.Condition()
				put.ExpressionAttributeNames = absent.Names()
			}
			items = append(items, types.TransactWriteItem{Put: put})
		case abstractions.WriteDelete:
			items = append(items, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(s.cfg.TableName),
				Key: map[string]types.AttributeValue{
					abstractions.AttrPK: &types.AttributeValueMemberS{Value: op.Key.PK},
					abstractions.AttrSK: &types.AttributeValueMemberS{Value: op.Key.SK},
				},
			}})
		}
	}

	s.logger.Debug("Writing transaction",
		zap.String("table", s.cfg.TableName),
		zap.Int("items", len(items)),
	)

	return s.call(ctx, "TransactWrite", func(ctx context.Context) error {
		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
		return err
	})
}

// call runs fn under the store timeout and the circuit breaker and classifies its error
func (s *Store) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err == nil {
		return nil
	}

	classified := classifyError(err)
	if errors.Is(classified, abstractions.ErrUnavailable) {
		s.logger.Warn("DynamoDB call failed",
			zap.String("operation", operation),
			zap.String("table", s.cfg.TableName),
			zap.Error(err),
		)
	}
	return fmt.Errorf("dynamodb %s: %w", operation, classified)
}

// classifyError maps SDK and breaker failures onto the store sentinels
func classifyError(err error) error {
	if isConditionFailure(err) {
		return fmt.Errorf("%w: %v", abstractions.ErrConditionFailed, err)
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", abstractions.ErrUnavailable, err)
	}
	return err
}

func isConditionFailure(err error) bool {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
		return false
	}
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// isTransient reports failures a caller may retry: breaker rejections,
// timeouts, throttling, server faults and transport errors.
func isTransient(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			switch aws.ToString(reason.Code) {
			case "TransactionConflict", "ThrottlingError", "ProvisionedThroughputExceeded":
				return true
			}
		}
		return false
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "RequestLimitExceeded",
			"ThrottlingException", "TransactionInProgressException", "InternalServerError",
			"ServiceUnavailable":
			return true
		}
		return ae.ErrorFault() == smithy.FaultServer
	}

	// No API response at all: the request never reached the service
	return true
}
