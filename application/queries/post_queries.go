package queries

import (
	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/policy"
	"myblog-backend/pkg/errors"
)

// GetPostQuery fetches one post as seen by a caller
type GetPostQuery struct {
	PostID string
	Caller policy.Caller
}

// Validate validates the query
func (q GetPostQuery) Validate() error {
	if q.PostID == "" {
		return errors.NewValidationFailedError([]errors.FieldViolation{
			{Field: "postId", Reason: "Post ID is required"},
		})
	}
	return nil
}

// ListPostsQuery lists posts in one status, newest first.
// Limit and token rules are enforced by the repository.
type ListPostsQuery struct {
	Status    entities.Status
	Limit     int
	NextToken string
	Caller    policy.Caller
}

// Validate validates the query
func (q ListPostsQuery) Validate() error { return nil }

// ListPostsByTagQuery lists posts carrying a tag, newest first
type ListPostsByTagQuery struct {
	Tag       string
	Limit     int
	NextToken string
	Caller    policy.Caller
}

// Validate validates the query
func (q ListPostsByTagQuery) Validate() error {
	if q.Tag == "" {
		return errors.NewValidationFailedError([]errors.FieldViolation{
			{Field: "tag", Reason: "Tag is required"},
		})
	}
	return nil
}
