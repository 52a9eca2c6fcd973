// Package memory provides an in-process implementation of the single-table store.
// It follows the same key, index and transaction rules as the DynamoDB table so
// the repository behaves identically on both.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"myblog-backend/infrastructure/persistence/abstractions"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Store keeps records in a map guarded by a single lock
type Store struct {
	mu        sync.RWMutex
	items     map[abstractions.Key]abstractions.Item
	indexName string
}

var _ abstractions.Store = (*Store)(nil)

// NewStore creates an empty store whose inverted index answers to indexName
func NewStore(indexName string) *Store {
	return &Store{
		items:     make(map[abstractions.Key]abstractions.Item),
		indexName: indexName,
	}
}

// QueryPartition returns copies of every record under pk, ascending by sort key
func (s *Store) QueryPartition(ctx context.Context, pk string) ([]abstractions.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []abstractions.Item
	for key, item := range s.items {
		if key.PK == pk {
			out = append(out, copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return abstractions.StringAttr(out[i], abstractions.AttrSK) < abstractions.StringAttr(out[j], abstractions.AttrSK)
	})
	return out, nil
}

// QueryIndex emulates the inverted index: partition on sk, sort on pk.
// Like DynamoDB, a page that stops at Limit reports LastKey even when nothing follows.
func (s *Store) QueryIndex(ctx context.Context, q abstractions.IndexQuery) (*abstractions.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.IndexName != s.indexName {
		return nil, fmt.Errorf("memory store: unknown index %q", q.IndexName)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []abstractions.Item
	for key, item := range s.items {
		if key.SK == q.PartitionValue {
			matches = append(matches, item)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a := abstractions.StringAttr(matches[i], abstractions.AttrPK)
		b := abstractions.StringAttr(matches[j], abstractions.AttrPK)
		if q.Forward {
			return a < b
		}
		return a > b
	})

	start := 0
	if startPK, ok := q.StartKey[abstractions.AttrPK]; ok {
		start = len(matches)
		for i, item := range matches {
			pk := abstractions.StringAttr(item, abstractions.AttrPK)
			if (q.Forward && pk > startPK) || (!q.Forward && pk < startPK) {
				start = i
				break
			}
		}
	}
	matches = matches[start:]

	page := &abstractions.Page{}
	for _, item := range matches {
		if q.Limit > 0 && len(page.Items) == q.Limit {
			break
		}
		page.Items = append(page.Items, copyItem(item))
	}
	if q.Limit > 0 && len(page.Items) == q.Limit {
		last := abstractions.KeyOf(page.Items[len(page.Items)-1])
		page.LastKey = abstractions.Cursor{abstractions.AttrPK: last.PK, abstractions.AttrSK: last.SK}
	}
	return page, nil
}

// TransactWrite validates every operation before applying any of them
func (s *Store) TransactWrite(ctx context.Context, ops []abstractions.WriteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ops) > abstractions.MaxTransactionItems {
		return fmt.Errorf("%w: %d operations", abstractions.ErrTransactionTooLarge, len(ops))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[abstractions.Key]struct{}, len(ops))
	for _, op := range ops {
		key := op.Key
		if op.Kind == abstractions.WritePut {
			key = abstractions.KeyOf(op.Item)
		}
		if key.PK == "" || key.SK == "" {
			return fmt.Errorf("memory store: operation is missing a key attribute")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("memory store: multiple operations on %s/%s", key.PK, key.SK)
		}
		seen[key] = struct{}{}

		if op.RequireAbsent {
			if _, exists := s.items[key]; exists {
				return fmt.Errorf("%w: %s/%s", abstractions.ErrConditionFailed, key.PK, key.SK)
			}
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case abstractions.WritePut:
			s.items[abstractions.KeyOf(op.Item)] = copyItem(op.Item)
		case abstractions.WriteDelete:
			delete(s.items, op.Key)
		}
	}
	return nil
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func copyItem(item abstractions.Item) abstractions.Item {
	out := make(abstractions.Item, len(item))
	for k, v := range item {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v types.AttributeValue) types.AttributeValue {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return &types.AttributeValueMemberS{Value: tv.Value}
	case *types.AttributeValueMemberN:
		return &types.AttributeValueMemberN{Value: tv.Value}
	case *types.AttributeValueMemberBOOL:
		return &types.AttributeValueMemberBOOL{Value: tv.Value}
	case *types.AttributeValueMemberNULL:
		return &types.AttributeValueMemberNULL{Value: tv.Value}
	case *types.AttributeValueMemberB:
		return &types.AttributeValueMemberB{Value: append([]byte(nil), tv.Value...)}
	case *types.AttributeValueMemberSS:
		return &types.AttributeValueMemberSS{Value: append([]string(nil), tv.Value...)}
	case *types.AttributeValueMemberNS:
		return &types.AttributeValueMemberNS{Value: append([]string(nil), tv.Value...)}
	case *types.AttributeValueMemberL:
		list := make([]types.AttributeValue, len(tv.Value))
		for i, e := range tv.Value {
			list[i] = copyValue(e)
		}
		return &types.AttributeValueMemberL{Value: list}
	case *types.AttributeValueMemberM:
		return &types.AttributeValueMemberM{Value: copyItem(tv.Value)}
	default:
		return v
	}
}
