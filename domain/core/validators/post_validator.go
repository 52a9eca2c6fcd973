package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"myblog-backend/domain/config"
	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/valueobjects"
	"myblog-backend/pkg/errors"
	"myblog-backend/pkg/utils"
)

// PostValidator validates post input against the domain rules.
// Every check runs so callers receive the complete list of violations.
type PostValidator struct {
	cfg *config.DomainConfig
}

// NewPostValidator creates a validator for the given limits
func NewPostValidator(cfg *config.DomainConfig) *PostValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &PostValidator{cfg: cfg}
}

// ValidateInput validates a complete post for creation
func (v *PostValidator) ValidateInput(in entities.PostInput) error {
	violations := errors.NewValidationErrors()

	if strings.TrimSpace(in.Title) == "" {
		violations.Add("title", "Title is required")
	} else {
		v.validateTitle(violations, in.Title)
	}

	if strings.TrimSpace(in.Summary) == "" {
		violations.Add("summary", "Summary is required")
	} else {
		v.validateSummary(violations, in.Summary)
	}

	v.validateContent(violations, in.Content)

	if in.Status == "" {
		violations.Add("status", "Status is required")
	} else {
		v.validateStatus(violations, in.Status)
	}

	v.validateTags(violations, in.Tags)
	v.validateThumbnail(violations, in.ThumbnailURL)

	return violations.ToAppError()
}

// ValidatePatch validates the fields present in a partial update
func (v *PostValidator) ValidatePatch(p entities.PostPatch) error {
	violations := errors.NewValidationErrors()

	if p.IsEmpty() {
		violations.Add("request", "At least one field is required for update")
		return violations.ToAppError()
	}

	if p.Title != nil {
		v.validateTitle(violations, *p.Title)
	}
	if p.Summary != nil {
		v.validateSummary(violations, *p.Summary)
	}
	if p.Content != nil {
		v.validateContent(violations, *p.Content)
	}
	if p.Status != nil {
		v.validateStatus(violations, *p.Status)
	}
	if p.Tags != nil {
		v.validateTags(violations, *p.Tags)
	}
	if p.ThumbnailURL != nil {
		v.validateThumbnail(violations, *p.ThumbnailURL)
	}

	return violations.ToAppError()
}

// ValidateLimit checks a page size
func (v *PostValidator) ValidateLimit(limit int) error {
	if limit < 1 || limit > v.cfg.MaxPageSize {
		violations := errors.NewValidationErrors()
		violations.Addf("limit", "Limit must be between 1 and %d", v.cfg.MaxPageSize)
		return violations.ToAppError()
	}
	return nil
}

func (v *PostValidator) validateTitle(violations *errors.ValidationErrors, title string) {
	if !v.withinLength(title, v.cfg.MinTitleLength, v.cfg.MaxTitleLength) {
		violations.Addf("title", "Title must be %d-%d characters", v.cfg.MinTitleLength, v.cfg.MaxTitleLength)
	}
}

func (v *PostValidator) validateSummary(violations *errors.ValidationErrors, summary string) {
	if !v.withinLength(summary, v.cfg.MinSummaryLength, v.cfg.MaxSummaryLength) {
		violations.Addf("summary", "Summary must be %d-%d characters", v.cfg.MinSummaryLength, v.cfg.MaxSummaryLength)
	}
}

func (v *PostValidator) validateStatus(violations *errors.ValidationErrors, status entities.Status) {
	if !status.IsValid() {
		violations.Addf("status", "Invalid status. Must be one of: %s", joinStatuses())
	}
}

func (v *PostValidator) validateContent(violations *errors.ValidationErrors, blocks []valueobjects.ContentBlock) {
	if len(blocks) < v.cfg.MinContentBlocks {
		violations.Add("content", "At least one content block is required")
		return
	}

	seen := make(map[int]struct{}, len(blocks))
	duplicate := false

	for i, block := range blocks {
		field := fmt.Sprintf("content[%d]", i)

		switch {
		case block.Type == "":
			violations.Add(field+".type", "Block type is required")
		case !block.Type.IsValid():
			violations.Addf(field+".type", "Invalid block type. Must be one of: %s", joinBlockTypes())
		}

		if strings.TrimSpace(block.Content) == "" {
			violations.Add(field+".content", "Block content is required")
		}

		switch {
		case block.Order < 0:
			violations.Add(field+".order", "Order must be a non-negative integer")
		case block.Order > v.cfg.MaxBlockOrder:
			violations.Addf(field+".order", "Order must be at most %d", v.cfg.MaxBlockOrder)
		}

		if block.Layout != "" && !block.Layout.IsValid() {
			violations.Addf(field+".layout", "Invalid layout. Must be one of: %s", joinLayouts())
		}

		if _, ok := seen[block.Order]; ok {
			duplicate = true
		}
		seen[block.Order] = struct{}{}
	}

	if duplicate {
		violations.Add("content", "Duplicate block orders are not allowed")
	}
}

func (v *PostValidator) validateTags(violations *errors.ValidationErrors, tags []string) {
	if len(tags) > v.cfg.MaxTags {
		violations.Addf("tags", "Maximum %d tags allowed", v.cfg.MaxTags)
	}

	seen := make(map[string]struct{}, len(tags))
	duplicate := false
	for i, tag := range tags {
		if !v.withinLength(tag, v.cfg.MinTagLength, v.cfg.MaxTagLength) || strings.TrimSpace(tag) == "" {
			violations.Addf(fmt.Sprintf("tags[%d]", i), "Tag must be %d-%d characters", v.cfg.MinTagLength, v.cfg.MaxTagLength)
		}
		if _, ok := seen[tag]; ok {
			duplicate = true
		}
		seen[tag] = struct{}{}
	}

	if duplicate {
		violations.Add("tags", "Duplicate tags are not allowed")
	}
}

// validateThumbnail accepts "" as "no thumbnail"
func (v *PostValidator) validateThumbnail(violations *errors.ValidationErrors, url string) {
	if url != "" && !utils.IsHTTPURL(url) {
		violations.Add("thumbnailUrl", "Invalid URL format")
	}
}

func (v *PostValidator) withinLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func joinStatuses() string {
	names := make([]string, len(entities.Statuses))
	for i, s := range entities.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func joinBlockTypes() string {
	names := make([]string, len(valueobjects.BlockTypes))
	for i, t := range valueobjects.BlockTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func joinLayouts() string {
	names := make([]string, len(valueobjects.Layouts))
	for i, l := range valueobjects.Layouts {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
