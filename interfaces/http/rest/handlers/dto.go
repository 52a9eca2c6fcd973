package handlers

import (
	"bytes"
	"encoding/json"
	"time"

	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/valueobjects"
	"myblog-backend/pkg/utils"
)

// missingOrder marks a block sent without an order so validation reports it
const missingOrder = -1

// BlockRequest is one content block in a request body
type BlockRequest struct {
	Order    *int                        `json:"order"`
	Type     string                      `json:"type"`
	Content  string                      `json:"content"`
	Layout   string                      `json:"layout,omitempty"`
	Metadata *valueobjects.BlockMetadata `json:"metadata,omitempty"`
}

// CreatePostRequest represents the request body for creating a post
type CreatePostRequest struct {
	Title        string         `json:"title"`
	Summary      string         `json:"summary"`
	Content      []BlockRequest `json:"content"`
	Status       string         `json:"status"`
	Tags         []string       `json:"tags,omitempty"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
}

// UpdatePostRequest represents a partial update. Absent fields are left unchanged.
type UpdatePostRequest struct {
	Title        *string         `json:"title,omitempty"`
	Summary      *string         `json:"summary,omitempty"`
	Content      *[]BlockRequest `json:"content,omitempty"`
	Status       *string         `json:"status,omitempty"`
	Tags         *[]string       `json:"tags,omitempty"`
	ThumbnailURL nullableString  `json:"thumbnailUrl"`
}

// nullableString tells an absent field apart from an explicit null.
// A present null decodes to the empty string.
type nullableString struct {
	Set   bool
	Value string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = ""
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

func (n nullableString) ptr() *string {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

// PresignRequest represents the body of an upload URL request.
// contentType is accepted as an alias of fileType.
type PresignRequest struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	FileSize    *int64 `json:"fileSize,omitempty"`
}

// PostResponse is the full post as returned by create, get and update
type PostResponse struct {
	PostID       string                      `json:"postId"`
	Title        string                      `json:"title"`
	Summary      string                      `json:"summary"`
	Content      []valueobjects.ContentBlock `json:"content"`
	Status       string                      `json:"status"`
	Tags         []string                    `json:"tags"`
	ThumbnailURL string                      `json:"thumbnailUrl,omitempty"`
	AuthorID     string                      `json:"authorId"`
	CreatedAt    string                      `json:"createdAt"`
	UpdatedAt    string                      `json:"updatedAt"`
	PublishedAt  *string                     `json:"publishedAt,omitempty"`
}

// PostSummaryResponse is one entry of a post listing
type PostSummaryResponse struct {
	PostID       string  `json:"postId"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
	Status       string  `json:"status"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	AuthorID     string  `json:"authorId"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
	PublishedAt  *string `json:"publishedAt,omitempty"`
}

// DeleteResponse confirms a deletion
type DeleteResponse struct {
	PostID    string `json:"postId"`
	DeletedAt string `json:"deletedAt"`
}

// PresignResponse tells the client where to upload and where the file will be served
type PresignResponse struct {
	UploadURL string `json:"uploadUrl"`
	MediaURL  string `json:"mediaUrl"`
	MediaID   string `json:"mediaId"`
	ExpiresIn int    `json:"expiresIn"`
}

func (r CreatePostRequest) toInput() entities.PostInput {
	return entities.PostInput{
		Title:        r.Title,
		Summary:      r.Summary,
		Status:       entities.Status(r.Status),
		Content:      toBlocks(r.Content),
		Tags:         r.Tags,
		ThumbnailURL: r.ThumbnailURL,
	}
}

func (r UpdatePostRequest) toPatch() entities.PostPatch {
	patch := entities.PostPatch{
		Title:        r.Title,
		Summary:      r.Summary,
		Tags:         r.Tags,
		ThumbnailURL: r.ThumbnailURL.ptr(),
	}
	if r.Status != nil {
		status := entities.Status(*r.Status)
		patch.Status = &status
	}
	if r.Content != nil {
		blocks := toBlocks(*r.Content)
		patch.Content = &blocks
	}
	return patch
}

func toBlocks(in []BlockRequest) []valueobjects.ContentBlock {
	if in == nil {
		return nil
	}
	out := make([]valueobjects.ContentBlock, len(in))
	for i, b := range in {
		order := missingOrder
		if b.Order != nil {
			order = *b.Order
		}
		out[i] = valueobjects.ContentBlock{
			Order:    order,
			Type:     valueobjects.BlockType(b.Type),
			Content:  b.Content,
			Layout:   valueobjects.Layout(b.Layout),
			Metadata: b.Metadata,
		}
	}
	return out
}

func newPostResponse(p *entities.Post) PostResponse {
	tags := p.Tags()
	if tags == nil {
		tags = []string{}
	}
	return PostResponse{
		PostID:       p.ID().String(),
		Title:        p.Title(),
		Summary:      p.Summary(),
		Content:      p.Content(),
		Status:       string(p.Status()),
		Tags:         tags,
		ThumbnailURL: p.ThumbnailURL(),
		AuthorID:     p.AuthorID(),
		CreatedAt:    utils.FormatTimestamp(p.CreatedAt()),
		UpdatedAt:    utils.FormatTimestamp(p.UpdatedAt()),
		PublishedAt:  formatOptional(p.PublishedAt()),
	}
}

func newSummaryResponses(in []entities.PostSummary) []PostSummaryResponse {
	out := make([]PostSummaryResponse, len(in))
	for i, s := range in {
		out[i] = PostSummaryResponse{
			PostID:       s.ID.String(),
			Title:        s.Title,
			Summary:      s.Summary,
			Status:       string(s.Status),
			ThumbnailURL: s.ThumbnailURL,
			AuthorID:     s.AuthorID,
			CreatedAt:    utils.FormatTimestamp(s.CreatedAt),
			UpdatedAt:    utils.FormatTimestamp(s.UpdatedAt),
			PublishedAt:  formatOptional(s.PublishedAt),
		}
	}
	return out
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := utils.FormatTimestamp(*t)
	return &s
}
