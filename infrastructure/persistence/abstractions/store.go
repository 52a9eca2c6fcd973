// Package abstractions describes the single-table key-value store the post
// repository runs on. Implementations exist for DynamoDB and for an
// in-process map used in tests and local development.
package abstractions

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key attribute names shared by the base table and the inverted index
const (
	AttrPK = "pk"
	AttrSK = "sk"
)

// MaxTransactionItems is the store's per-transaction item limit
const MaxTransactionItems = 100

// Store errors. Implementations wrap these with %w so callers can use errors.Is.
var (
	// ErrConditionFailed reports that a conditional write found an existing item
	ErrConditionFailed = errors.New("store: condition check failed")

	// ErrTransactionTooLarge reports a transaction over MaxTransactionItems
	ErrTransactionTooLarge = errors.New("store: transaction exceeds item limit")

	// ErrUnavailable reports a transient failure talking to the store
	ErrUnavailable = errors.New("store: unavailable")
)

// Item is one stored record in attribute-value form
type Item = map[string]types.AttributeValue

// Key addresses a single record
type Key struct {
	PK string
	SK string
}

// Cursor is a resume key in plain string form, suitable for token encoding
type Cursor map[string]string

// IndexQuery selects records from a secondary index partition
type IndexQuery struct {
	IndexName      string
	PartitionValue string
	Limit          int
	StartKey       Cursor
	Forward        bool
}

// Page is one page of index results. LastKey is nil when the partition is exhausted.
type Page struct {
	Items   []Item
	LastKey Cursor
}

// WriteKind distinguishes transactional write operations
type WriteKind int

const (
	WritePut WriteKind = iota
	WriteDelete
)

// WriteOp is one element of an atomic transaction
type WriteOp struct {
	Kind WriteKind
	Item Item
	Key  Key

	// RequireAbsent makes a put fail with ErrConditionFailed when the key already exists
	RequireAbsent bool
}

// PutOp builds an unconditional put
func PutOp(item Item) WriteOp {
	return WriteOp{Kind: WritePut, Item: item}
}

// PutIfAbsentOp builds a put that fails when the key is taken
func PutIfAbsentOp(item Item) WriteOp {
	return WriteOp{Kind: WritePut, Item: item, RequireAbsent: true}
}

// DeleteOp builds a delete by key
func DeleteOp(key Key) WriteOp {
	return WriteOp{Kind: WriteDelete, Key: key}
}

// Store is the minimal single-table contract the post repository needs
type Store interface {
	// QueryPartition returns every record under pk in ascending sort-key order, following pages.
	QueryPartition(ctx context.Context, pk string) ([]Item, error)

	// QueryIndex returns one page of an inverted-index partition.
	QueryIndex(ctx context.Context, q IndexQuery) (*Page, error)

	// TransactWrite applies all operations atomically or none of them.
	TransactWrite(ctx context.Context, ops []WriteOp) error
}

// KeyOf extracts the primary key of an item. Missing attributes yield empty strings.
func KeyOf(item Item) Key {
	return Key{PK: StringAttr(item, AttrPK), SK: StringAttr(item, AttrSK)}
}

// StringAttr returns the string value of attribute name, or "" when absent or not a string
func StringAttr(item Item, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// ToAttributeKey converts a cursor into a store resume key
func (c Cursor) ToAttributeKey() map[string]types.AttributeValue {
	if len(c) == 0 {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(c))
	for k, v := range c {
		out[k] = &types.AttributeValueMemberS{Value: v}
	}
	return out
}

// CursorFromAttributeKey converts a store resume key into a cursor.
// Non-string attributes are not part of this table's key schema and yield ok=false.
func CursorFromAttributeKey(key map[string]types.AttributeValue) (Cursor, bool) {
	if len(key) == 0 {
		return nil, true
	}
	out := make(Cursor, len(key))
	for k, v := range key {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return nil, false
		}
		out[k] = s.Value
	}
	return out, true
}
