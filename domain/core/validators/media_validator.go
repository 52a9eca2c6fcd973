package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"myblog-backend/domain/config"
	"myblog-backend/domain/core/valueobjects"
	"myblog-backend/pkg/errors"
)

// MediaUpload describes a file the caller intends to upload
type MediaUpload struct {
	FileName string
	FileType string
	FileSize *int64
}

// ValidatedMedia is the outcome of a successful media validation
type ValidatedMedia struct {
	Type      valueobjects.MediaType
	Extension string
	// Size is the declared byte size, if the caller sent one
	Size *int64
}

// MediaValidator checks uploads against the MIME allow-list and size limits
type MediaValidator struct {
	cfg *config.DomainConfig
}

// NewMediaValidator creates a media validator
func NewMediaValidator(cfg *config.DomainConfig) *MediaValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &MediaValidator{cfg: cfg}
}

// Validate returns the resolved media type and lower-cased extension, or every violation found
func (v *MediaValidator) Validate(upload MediaUpload) (ValidatedMedia, error) {
	violations := errors.NewValidationErrors()

	ext := FileExtension(upload.FileName)
	switch {
	case upload.FileName == "":
		violations.Add("fileName", "File name is required")
	case utf8.RuneCountInString(upload.FileName) > v.cfg.MaxFileNameLength:
		violations.Addf("fileName", "File name must be 1-%d characters", v.cfg.MaxFileNameLength)
	case ext == "":
		violations.Add("fileName", "File name must have a valid extension")
	}

	mediaType, known := valueobjects.LookupMediaType(upload.FileType)
	switch {
	case upload.FileType == "":
		violations.Add("fileType", "File type is required")
	case !known:
		violations.Addf("fileType", "File type is not allowed. Allowed types: %s",
			strings.Join(valueobjects.AllowedMIMETypes(), ", "))
	}

	if upload.FileSize != nil {
		limit := v.sizeLimit(mediaType, known)
		switch {
		case *upload.FileSize <= 0:
			violations.Add("fileSize", "File size must be greater than 0")
		case limit > 0 && *upload.FileSize > limit:
			violations.Addf("fileSize", "File size exceeds the limit of %d bytes", limit)
		}
	}

	if known && ext != "" && !mediaType.AllowsExtension(ext) {
		violations.Add("fileName", fmt.Sprintf(
			"File extension does not match the file type. Allowed extensions for %s: %s",
			mediaType.MIME, strings.Join(mediaType.Extensions, ", ")))
	}

	if err := violations.ToAppError(); err != nil {
		return ValidatedMedia{}, err
	}
	return ValidatedMedia{Type: mediaType, Extension: ext, Size: upload.FileSize}, nil
}

func (v *MediaValidator) sizeLimit(t valueobjects.MediaType, known bool) int64 {
	if !known {
		return 0
	}
	if t.Kind == valueobjects.MediaKindVideo {
		return v.cfg.MaxVideoSize
	}
	return v.cfg.MaxImageSize
}

// FileExtension returns the lower-cased extension including the dot, or "" if there is none.
// A leading dot alone (".png") does not count as a name with an extension.
func FileExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i:])
}
