package entities

import (
	"sort"
	"time"

	"myblog-backend/domain/core/valueobjects"
)

// Status represents the publication state of a post
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Statuses lists the accepted statuses in display order
var Statuses = []Status{StatusDraft, StatusPublished, StatusArchived}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// PostInput carries the caller-supplied fields of a new post
type PostInput struct {
	Title        string
	Summary      string
	Status       Status
	Content      []valueobjects.ContentBlock
	Tags         []string
	ThumbnailURL string
}

// PostPatch carries a partial update. Nil fields keep the existing value.
// A non-nil empty ThumbnailURL clears the thumbnail.
type PostPatch struct {
	Title        *string
	Summary      *string
	Status       *Status
	Content      *[]valueobjects.ContentBlock
	Tags         *[]string
	ThumbnailURL *string
}

// IsEmpty reports whether the patch changes nothing
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Summary == nil && p.Status == nil &&
		p.Content == nil && p.Tags == nil && p.ThumbnailURL == nil
}

// Post is the blog article aggregate
type Post struct {
	id           valueobjects.PostID
	title        string
	summary      string
	status       Status
	content      []valueobjects.ContentBlock
	tags         []string
	thumbnailURL string
	authorID     string
	createdAt    time.Time
	updatedAt    time.Time
	publishedAt  *time.Time
}

// NewPost builds a post from validated input.
// publishedAt is set only when the post is created as published.
func NewPost(id valueobjects.PostID, input PostInput, authorID string, now time.Time) *Post {
	now = normalizeTime(now)
	post := &Post{
		id:           id,
		title:        input.Title,
		summary:      input.Summary,
		status:       input.Status,
		content:      valueobjects.NormalizeBlocks(input.Content),
		tags:         canonicalTags(input.Tags),
		thumbnailURL: input.ThumbnailURL,
		authorID:     authorID,
		createdAt:    now,
		updatedAt:    now,
	}
	if input.Status == StatusPublished {
		published := now
		post.publishedAt = &published
	}
	return post
}

// ReconstructPost rebuilds a post from stored data with preserved timestamps
func ReconstructPost(
	id valueobjects.PostID,
	title, summary string,
	status Status,
	content []valueobjects.ContentBlock,
	tags []string,
	thumbnailURL string,
	authorID string,
	createdAt, updatedAt time.Time,
	publishedAt *time.Time,
) *Post {
	blocks := make([]valueobjects.ContentBlock, len(content))
	copy(blocks, content)
	valueobjects.SortBlocks(blocks)

	var published *time.Time
	if publishedAt != nil {
		t := *publishedAt
		published = &t
	}

	return &Post{
		id:           id,
		title:        title,
		summary:      summary,
		status:       status,
		content:      blocks,
		tags:         canonicalTags(tags),
		thumbnailURL: thumbnailURL,
		authorID:     authorID,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		publishedAt:  published,
	}
}

// ID returns the post's unique identifier
func (p *Post) ID() valueobjects.PostID { return p.id }

// Title returns the title
func (p *Post) Title() string { return p.title }

// Summary returns the summary
func (p *Post) Summary() string { return p.summary }

// Status returns the current status
func (p *Post) Status() Status { return p.status }

// Content returns a copy of the ordered content blocks
func (p *Post) Content() []valueobjects.ContentBlock {
	out := make([]valueobjects.ContentBlock, len(p.content))
	copy(out, p.content)
	return out
}

// Tags returns a copy of the tag set in sorted order
func (p *Post) Tags() []string {
	out := make([]string, len(p.tags))
	copy(out, p.tags)
	return out
}

// ThumbnailURL returns the thumbnail URL, or "" when unset
func (p *Post) ThumbnailURL() string { return p.thumbnailURL }

// AuthorID returns the creator's identity
func (p *Post) AuthorID() string { return p.authorID }

// CreatedAt returns the creation time
func (p *Post) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last modification time
func (p *Post) UpdatedAt() time.Time { return p.updatedAt }

// PublishedAt returns the first publish time, or nil if never published
func (p *Post) PublishedAt() *time.Time {
	if p.publishedAt == nil {
		return nil
	}
	t := *p.publishedAt
	return &t
}

// IsPublished reports whether the post is publicly visible
func (p *Post) IsPublished() bool { return p.status == StatusPublished }

// Apply merges a patch into a copy of the post and returns it; the receiver is untouched.
// publishedAt is stamped on a transition into published and is never reset afterwards.
func (p *Post) Apply(patch PostPatch, now time.Time) *Post {
	now = normalizeTime(now)
	next := p.clone()

	if patch.Title != nil {
		next.title = *patch.Title
	}
	if patch.Summary != nil {
		next.summary = *patch.Summary
	}
	if patch.Status != nil {
		next.status = *patch.Status
	}
	if patch.Content != nil {
		next.content = valueobjects.NormalizeBlocks(*patch.Content)
	}
	if patch.Tags != nil {
		next.tags = canonicalTags(*patch.Tags)
	}
	if patch.ThumbnailURL != nil {
		next.thumbnailURL = *patch.ThumbnailURL
	}

	enteringPublished := next.status == StatusPublished &&
		(p.status == StatusDraft || p.status == StatusArchived)
	if enteringPublished && next.publishedAt == nil {
		published := now
		next.publishedAt = &published
	}

	if now.Before(next.createdAt) {
		now = next.createdAt
	}
	next.updatedAt = now

	return next
}

func (p *Post) clone() *Post {
	next := *p
	next.content = p.Content()
	next.tags = p.Tags()
	next.publishedAt = p.PublishedAt()
	return &next
}

// canonicalTags copies and sorts tags so equal sets compare equal
func canonicalTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	sort.Strings(out)
	return out
}

// normalizeTime drops the monotonic reading and sub-millisecond precision
// so stored and in-memory timestamps compare equal.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
