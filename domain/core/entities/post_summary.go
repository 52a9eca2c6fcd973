package entities

import (
	"time"

	"myblog-backend/domain/core/valueobjects"
)

// PostSummary is the list-view projection of a post. It never carries content blocks.
type PostSummary struct {
	ID           valueobjects.PostID
	Title        string
	Summary      string
	Status       Status
	AuthorID     string
	ThumbnailURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  *time.Time
}

// Summarize projects a post onto its list view
func (p *Post) Summarize() PostSummary {
	return PostSummary{
		ID:           p.id,
		Title:        p.title,
		Summary:      p.summary,
		Status:       p.status,
		AuthorID:     p.authorID,
		ThumbnailURL: p.thumbnailURL,
		CreatedAt:    p.createdAt,
		UpdatedAt:    p.updatedAt,
		PublishedAt:  p.PublishedAt(),
	}
}
