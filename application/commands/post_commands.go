package commands

import (
	"myblog-backend/domain/core/entities"
	"myblog-backend/pkg/errors"
)

// CreatePostCommand represents the command to create a new post
type CreatePostCommand struct {
	AuthorID string
	Input    entities.PostInput
}

// Validate validates the command. Field rules are checked by the repository.
func (c CreatePostCommand) Validate() error {
	return requireCaller(c.AuthorID)
}

// UpdatePostCommand represents a partial update of a post
type UpdatePostCommand struct {
	PostID   string
	CallerID string
	Patch    entities.PostPatch
}

// Validate validates the command
func (c UpdatePostCommand) Validate() error {
	if err := requireCaller(c.CallerID); err != nil {
		return err
	}
	return requirePostID(c.PostID)
}

// DeletePostCommand represents the removal of a post and all its records
type DeletePostCommand struct {
	PostID   string
	CallerID string
}

// Validate validates the command
func (c DeletePostCommand) Validate() error {
	if err := requireCaller(c.CallerID); err != nil {
		return err
	}
	return requirePostID(c.PostID)
}

func requireCaller(id string) error {
	if id == "" {
		return errors.NewUnauthorizedError("Authentication required")
	}
	return nil
}

func requirePostID(id string) error {
	if id == "" {
		return errors.NewValidationFailedError([]errors.FieldViolation{
			{Field: "postId", Reason: "Post ID is required"},
		})
	}
	return nil
}
