package ports

import (
	"context"
	"time"

	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/validators"
	"myblog-backend/domain/policy"
)

// PostRepository defines the interface for post persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type PostRepository interface {
	// Create validates input, assigns an id and timestamps, and stores every record atomically
	Create(ctx context.Context, input entities.PostInput, callerID string) (*entities.Post, error)

	// GetByID returns the full post, or NOT_FOUND when it is absent or hidden from the caller
	GetByID(ctx context.Context, postID string, caller policy.Caller) (*entities.Post, error)

	// ListByStatus returns one page of posts in a status, newest first
	ListByStatus(ctx context.Context, status entities.Status, limit int, nextToken string, caller policy.Caller) (*PostPage, error)

	// ListByTag returns one page of posts carrying a tag, newest first, filtered by visibility
	ListByTag(ctx context.Context, tag string, limit int, nextToken string, caller policy.Caller) (*PostPage, error)

	// Update merges a patch into the stored post and reconciles its records in one transaction
	Update(ctx context.Context, postID string, patch entities.PostPatch, callerID string) (*entities.Post, error)

	// Delete removes every record of a post in one transaction
	Delete(ctx context.Context, postID string, callerID string) (*DeleteResult, error)
}

// PostPage is one page of a post listing. NextToken is empty on the last page.
type PostPage struct {
	Posts     []entities.PostSummary
	NextToken string
}

// DeleteResult confirms a deletion
type DeleteResult struct {
	PostID    string
	DeletedAt time.Time
}

// MediaStorage issues direct-upload URLs for post media
type MediaStorage interface {
	// PresignUpload returns a time-limited upload URL and the public URL the object will have
	PresignUpload(ctx context.Context, media validators.ValidatedMedia) (*UploadTarget, error)
}

// UploadTarget describes where a client should upload a file and where it will be served from
type UploadTarget struct {
	UploadURL string
	MediaURL  string
	MediaID   string
	Key       string
	ExpiresIn time.Duration
}

// HealthChecker probes a dependency for readiness
type HealthChecker interface {
	Ping(ctx context.Context) error
}
