package dynamodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"myblog-backend/application/ports"
	"myblog-backend/domain/config"
	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/validators"
	"myblog-backend/domain/core/valueobjects"
	"myblog-backend/domain/policy"
	"myblog-backend/infrastructure/persistence/abstractions"
	"myblog-backend/pkg/common"
	pkgerrors "myblog-backend/pkg/errors"

	"go.uber.org/zap"
)

// PostRepository stores each post as a partition of records in a single table
// and keeps those records consistent through one transaction per write.
type PostRepository struct {
	store     abstractions.Store
	codec     *PostCodec
	validator *validators.PostValidator
	cfg       *config.DomainConfig
	indexName string
	logger    *zap.Logger
	now       func() time.Time
}

var (
	_ ports.PostRepository = (*PostRepository)(nil)
	_ ports.HealthChecker  = (*PostRepository)(nil)
)

// NewPostRepository creates a repository over store. indexName is the inverted index.
func NewPostRepository(store abstractions.Store, cfg *config.DomainConfig, indexName string, logger *zap.Logger) *PostRepository {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &PostRepository{
		store:     store,
		codec:     NewPostCodec(),
		validator: validators.NewPostValidator(cfg),
		cfg:       cfg,
		indexName: indexName,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source, for tests
func (r *PostRepository) WithClock(now func() time.Time) *PostRepository {
	r.now = now
	return r
}

// Create validates input and writes every record of the new post in one transaction
func (r *PostRepository) Create(ctx context.Context, input entities.PostInput, callerID string) (*entities.Post, error) {
	if callerID == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	if err := r.validator.ValidateInput(input); err != nil {
		return nil, err
	}

	post := entities.NewPost(valueobjects.NewPostID(), input, callerID, r.now())

	items, err := r.codec.Encode(post)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode post")
	}
	if len(items) > r.cfg.MaxTransactionItems {
		return nil, pkgerrors.NewTooManyItemsError("create", len(items), r.cfg.MaxTransactionItems)
	}

	// The metadata record is first; its condition makes a colliding id fail the whole write
	ops := make([]abstractions.WriteOp, 0, len(items))
	ops = append(ops, abstractions.PutIfAbsentOp(items[0]))
	for _, item := range items[1:] {
		ops = append(ops, abstractions.PutOp(item))
	}

	if err := r.store.TransactWrite(ctx, ops); err != nil {
		return nil, r.storeError("create", err, len(ops))
	}

	r.logger.Info("Post created",
		zap.String("postID", post.ID().String()),
		zap.String("status", string(post.Status())),
		zap.Int("records", len(ops)),
	)
	return post, nil
}

// GetByID returns the post when the caller may see it.
// Absent, corrupt and hidden posts all produce the same NOT_FOUND.
func (r *PostRepository) GetByID(ctx context.Context, postID string, caller policy.Caller) (*entities.Post, error) {
	post, _, err := r.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(post, caller) {
		return nil, notFound()
	}
	return post, nil
}

// ListByStatus pages through the status index newest first.
// A caller who may not see the status gets an empty page.
func (r *PostRepository) ListByStatus(ctx context.Context, status entities.Status, limit int, nextToken string, caller policy.Caller) (*ports.PostPage, error) {
	violations := pkgerrors.NewValidationErrors()
	if !status.IsValid() {
		violations.Addf("status", "Invalid status. Must be one of: draft, published, archived")
	}
	if err := r.validator.ValidateLimit(limit); err != nil {
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			for _, v := range appErr.Violations {
				violations.Add(v.Field, v.Reason)
			}
		}
	}
	if err := violations.ToAppError(); err != nil {
		return nil, err
	}

	partition := StatusSK(status)
	start, err := r.decodeCursor(nextToken, partition)
	if err != nil {
		return nil, err
	}

	if !policy.CanViewStatus(status, caller) {
		return &ports.PostPage{Posts: []entities.PostSummary{}}, nil
	}

	return r.queryPage(ctx, partition, limit, start, nil)
}

// ListByTag pages through the tag index newest first, dropping posts the caller may not see.
// A filtered page can hold fewer than limit posts while still carrying a token.
func (r *PostRepository) ListByTag(ctx context.Context, tag string, limit int, nextToken string, caller policy.Caller) (*ports.PostPage, error) {
	violations := pkgerrors.NewValidationErrors()
	if n := len([]rune(tag)); n < r.cfg.MinTagLength || n > r.cfg.MaxTagLength || strings.TrimSpace(tag) == "" {
		violations.Addf("tag", "Tag must be %d-%d characters", r.cfg.MinTagLength, r.cfg.MaxTagLength)
	}
	if err := r.validator.ValidateLimit(limit); err != nil {
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			for _, v := range appErr.Violations {
				violations.Add(v.Field, v.Reason)
			}
		}
	}
	if err := violations.ToAppError(); err != nil {
		return nil, err
	}

	partition := TagSK(tag)
	start, err := r.decodeCursor(nextToken, partition)
	if err != nil {
		return nil, err
	}

	return r.queryPage(ctx, partition, limit, start, func(s entities.PostSummary) bool {
		return policy.CanViewStatus(s.Status, caller)
	})
}

// Update merges patch into the stored post and reconciles the partition:
// records that disappear are deleted, every record of the merged post is put.
// There is no version check, so concurrent updates are last-writer-wins.
func (r *PostRepository) Update(ctx context.Context, postID string, patch entities.PostPatch, callerID string) (*entities.Post, error) {
	if callerID == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	existing, oldItems, err := r.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(existing, callerID) {
		return nil, pkgerrors.NewForbiddenError("Only the author can update this post")
	}
	if err := r.validator.ValidatePatch(patch); err != nil {
		return nil, err
	}

	merged := existing.Apply(patch, r.now())

	newItems, err := r.codec.Encode(merged)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode post")
	}

	keep := recordKeys(newItems)
	var stale []abstractions.Key
	for key := range recordKeys(oldItems) {
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	stale = sortedByKey(stale)

	total := len(newItems) + len(stale)
	if total > r.cfg.MaxTransactionItems {
		return nil, pkgerrors.NewTooManyItemsError("update", total, r.cfg.MaxTransactionItems)
	}

	ops := make([]abstractions.WriteOp, 0, total)
	for _, item := range newItems {
		ops = append(ops, abstractions.PutOp(item))
	}
	for _, key := range stale {
		ops = append(ops, abstractions.DeleteOp(key))
	}

	r.logger.Debug("Reconciling post records",
		zap.String("postID", postID),
		zap.Int("puts", len(newItems)),
		zap.Int("deletes", len(stale)),
	)

	if err := r.store.TransactWrite(ctx, ops); err != nil {
		return nil, r.storeError("update", err, total)
	}

	r.logger.Info("Post updated",
		zap.String("postID", postID),
		zap.String("status", string(merged.Status())),
	)
	return merged, nil
}

// Delete removes every record of the post in one transaction
func (r *PostRepository) Delete(ctx context.Context, postID string, callerID string) (*ports.DeleteResult, error) {
	if callerID == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	existing, items, err := r.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(existing, callerID) {
		return nil, pkgerrors.NewForbiddenError("Only the author can delete this post")
	}
	if len(items) > r.cfg.MaxDeleteItems {
		return nil, pkgerrors.NewTooManyItemsError("delete", len(items), r.cfg.MaxDeleteItems)
	}

	keys := make([]abstractions.Key, 0, len(items))
	for _, item := range items {
		keys = append(keys, abstractions.KeyOf(item))
	}
	ops := make([]abstractions.WriteOp, 0, len(keys))
	for _, key := range sortedByKey(keys) {
		ops = append(ops, abstractions.DeleteOp(key))
	}

	if err := r.store.TransactWrite(ctx, ops); err != nil {
		return nil, r.storeError("delete", err, len(ops))
	}

	deletedAt := r.now().UTC().Truncate(time.Millisecond)
	r.logger.Info("Post deleted",
		zap.String("postID", postID),
		zap.Int("records", len(ops)),
	)
	return &ports.DeleteResult{PostID: existing.ID().String(), DeletedAt: deletedAt}, nil
}

// Ping probes the index with a one-item query
func (r *PostRepository) Ping(ctx context.Context) error {
	_, err := r.store.QueryIndex(ctx, abstractions.IndexQuery{
		IndexName:      r.indexName,
		PartitionValue: StatusSK(entities.StatusPublished),
		Limit:          1,
	})
	if err != nil {
		return r.storeError("ping", err, 0)
	}
	return nil
}

// load fetches and decodes a post partition
func (r *PostRepository) load(ctx context.Context, postID string) (*entities.Post, []abstractions.Item, error) {
	id, err := valueobjects.NewPostIDFromString(postID)
	if err != nil {
		return nil, nil, notFound()
	}

	items, err := r.store.QueryPartition(ctx, PostPK(id.String()))
	if err != nil {
		return nil, nil, r.storeError("get", err, 0)
	}
	if len(items) == 0 {
		return nil, nil, notFound()
	}

	post, err := r.codec.Decode(items)
	if errors.Is(err, ErrMetadataMissing) {
		r.logger.Warn("Post partition has no metadata record",
			zap.String("postID", postID),
			zap.Int("records", len(items)),
		)
		return nil, nil, notFound()
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "failed to decode post")
	}
	return post, items, nil
}

// queryPage fetches limit+1 index records so the presence of a further page
// is known without a second round trip
func (r *PostRepository) queryPage(
	ctx context.Context,
	partition string,
	limit int,
	start abstractions.Cursor,
	visible func(entities.PostSummary) bool,
) (*ports.PostPage, error) {
	page, err := r.store.QueryIndex(ctx, abstractions.IndexQuery{
		IndexName:      r.indexName,
		PartitionValue: partition,
		Limit:          limit + 1,
		StartKey:       start,
	})
	if err != nil {
		return nil, r.storeError("list", err, 0)
	}

	items := page.Items
	var resume abstractions.Cursor
	if len(items) > limit {
		items = items[:limit]
		last := abstractions.KeyOf(items[len(items)-1])
		resume = abstractions.Cursor{abstractions.AttrPK: last.PK, abstractions.AttrSK: last.SK}
	} else if len(page.LastKey) > 0 {
		resume = page.LastKey
	}

	posts := make([]entities.PostSummary, 0, len(items))
	for _, item := range items {
		summary, err := r.codec.DecodeSummary(item)
		if err != nil {
			r.logger.Warn("Skipping unreadable index record",
				zap.String("partition", partition),
				zap.String("pk", abstractions.StringAttr(item, abstractions.AttrPK)),
				zap.Error(err),
			)
			continue
		}
		if visible != nil && !visible(summary) {
			continue
		}
		posts = append(posts, summary)
	}

	token, err := common.EncodeToken(resume)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode pagination token")
	}
	return &ports.PostPage{Posts: posts, NextToken: token}, nil
}

// decodeCursor turns a token into a resume key for partition. A token minted
// for another partition, or with any key other than pk and sk, is rejected.
func (r *PostRepository) decodeCursor(token, partition string) (abstractions.Cursor, error) {
	key, err := common.DecodeToken(token)
	if err != nil || key == nil {
		return nil, err
	}

	pk, hasPK := key[abstractions.AttrPK]
	sk, hasSK := key[abstractions.AttrSK]
	switch {
	case len(key) != 2 || !hasPK || !hasSK:
		return nil, pkgerrors.NewInvalidTokenError(errors.New("unexpected resume key attributes"))
	case sk != partition:
		return nil, pkgerrors.NewInvalidTokenError(errors.New("token belongs to another listing"))
	case !strings.HasPrefix(pk, postKeyPrefix) || len(pk) == len(postKeyPrefix):
		return nil, pkgerrors.NewInvalidTokenError(errors.New("malformed resume partition key"))
	}
	return abstractions.Cursor(key), nil
}

// storeError converts a store failure into the error taxonomy
func (r *PostRepository) storeError(operation string, err error, items int) error {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr
	}

	switch {
	case errors.Is(err, abstractions.ErrConditionFailed):
		return pkgerrors.NewConflictError("Post already exists").WithCause(err)
	case errors.Is(err, abstractions.ErrTransactionTooLarge):
		return pkgerrors.NewTooManyItemsError(operation, items, abstractions.MaxTransactionItems).WithCause(err)
	case errors.Is(err, abstractions.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.NewStoreUnavailableError(operation, err)
	default:
		r.logger.Error("Store operation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return pkgerrors.NewInternalError("store " + operation + " failed").WithCause(err)
	}
}

func notFound() error {
	return pkgerrors.NewNotFoundError("Post")
}
