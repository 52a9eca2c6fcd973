package valueobjects

import "strings"

// MediaKind separates the size classes of uploadable media
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaType is an allow-listed MIME type together with the extensions it may use
type MediaType struct {
	MIME       string
	Kind       MediaKind
	Extensions []string
}

var allowedMediaTypes = []MediaType{
	{MIME: "image/jpeg", Kind: MediaKindImage, Extensions: []string{".jpg", ".jpeg"}},
	{MIME: "image/png", Kind: MediaKindImage, Extensions: []string{".png"}},
	{MIME: "image/gif", Kind: MediaKindImage, Extensions: []string{".gif"}},
	{MIME: "image/webp", Kind: MediaKindImage, Extensions: []string{".webp"}},
	{MIME: "image/svg+xml", Kind: MediaKindImage, Extensions: []string{".svg"}},
	{MIME: "video/mp4", Kind: MediaKindVideo, Extensions: []string{".mp4"}},
	{MIME: "video/webm", Kind: MediaKindVideo, Extensions: []string{".webm"}},
	{MIME: "video/quicktime", Kind: MediaKindVideo, Extensions: []string{".mov"}},
}

// LookupMediaType returns the allow-listed type for a MIME string
func LookupMediaType(mime string) (MediaType, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for _, t := range allowedMediaTypes {
		if t.MIME == mime {
			return t, true
		}
	}
	return MediaType{}, false
}

// AllowedMIMETypes lists every accepted MIME type
func AllowedMIMETypes() []string {
	out := make([]string, len(allowedMediaTypes))
	for i, t := range allowedMediaTypes {
		out[i] = t.MIME
	}
	return out
}

// AllowsExtension reports whether ext (with leading dot, any case) belongs to the type
func (t MediaType) AllowsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range t.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
