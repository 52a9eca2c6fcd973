package handlers

import (
	"context"
	"fmt"

	"myblog-backend/application/commands"
	"myblog-backend/application/commands/bus"
	"myblog-backend/application/ports"

	"go.uber.org/zap"
)

// CreatePostHandler handles post creation commands
type CreatePostHandler struct {
	repo   ports.PostRepository
	logger *zap.Logger
}

// NewCreatePostHandler creates a new create post handler
func NewCreatePostHandler(repo ports.PostRepository, logger *zap.Logger) *CreatePostHandler {
	return &CreatePostHandler{repo: repo, logger: logger}
}

// Handle stores a new post and returns it
func (h *CreatePostHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.CreatePostCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	post, err := h.repo.Create(ctx, c.Input, c.AuthorID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Post created",
		zap.String("postID", post.ID().String()),
		zap.String("authorID", c.AuthorID),
		zap.String("status", string(post.Status())),
	)
	return post, nil
}

// UpdatePostHandler handles partial post updates
type UpdatePostHandler struct {
	repo   ports.PostRepository
	logger *zap.Logger
}

// NewUpdatePostHandler creates a new update post handler
func NewUpdatePostHandler(repo ports.PostRepository, logger *zap.Logger) *UpdatePostHandler {
	return &UpdatePostHandler{repo: repo, logger: logger}
}

// Handle merges the patch and returns the updated post
func (h *UpdatePostHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.UpdatePostCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	post, err := h.repo.Update(ctx, c.PostID, c.Patch, c.CallerID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Post updated",
		zap.String("postID", c.PostID),
		zap.String("userID", c.CallerID),
		zap.String("status", string(post.Status())),
	)
	return post, nil
}

// DeletePostHandler handles post deletion commands
type DeletePostHandler struct {
	repo   ports.PostRepository
	logger *zap.Logger
}

// NewDeletePostHandler creates a new delete post handler
func NewDeletePostHandler(repo ports.PostRepository, logger *zap.Logger) *DeletePostHandler {
	return &DeletePostHandler{repo: repo, logger: logger}
}

// Handle removes the post and returns the deletion receipt
func (h *DeletePostHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.DeletePostCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	result, err := h.repo.Delete(ctx, c.PostID, c.CallerID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Post deleted",
		zap.String("postID", c.PostID),
		zap.String("userID", c.CallerID),
	)
	return result, nil
}
