package handlers

import (
	"context"
	"fmt"

	"myblog-backend/application/ports"
	"myblog-backend/application/queries"
	"myblog-backend/application/queries/bus"
)

// GetPostHandler returns a *entities.Post
type GetPostHandler struct {
	repo ports.PostRepository
}

// NewGetPostHandler creates a new get post handler
func NewGetPostHandler(repo ports.PostRepository) *GetPostHandler {
	return &GetPostHandler{repo: repo}
}

// Handle executes the query
func (h *GetPostHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetPostQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.repo.GetByID(ctx, q.PostID, q.Caller)
}

// ListPostsHandler returns a *ports.PostPage
type ListPostsHandler struct {
	repo ports.PostRepository
}

// NewListPostsHandler creates a new list posts handler
func NewListPostsHandler(repo ports.PostRepository) *ListPostsHandler {
	return &ListPostsHandler{repo: repo}
}

// Handle executes the query
func (h *ListPostsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListPostsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.repo.ListByStatus(ctx, q.Status, q.Limit, q.NextToken, q.Caller)
}

// ListPostsByTagHandler returns a *ports.PostPage
type ListPostsByTagHandler struct {
	repo ports.PostRepository
}

// NewListPostsByTagHandler creates a new tag listing handler
func NewListPostsByTagHandler(repo ports.PostRepository) *ListPostsByTagHandler {
	return &ListPostsByTagHandler{repo: repo}
}

// Handle executes the query
func (h *ListPostsByTagHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListPostsByTagQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.repo.ListByTag(ctx, q.Tag, q.Limit, q.NextToken, q.Caller)
}
