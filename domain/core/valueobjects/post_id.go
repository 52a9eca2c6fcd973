package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const maxPostIDLength = 64

// PostID is a value object representing a unique, time-sortable post identifier.
// New ids are UUIDv7, whose canonical string form sorts by creation time.
type PostID struct {
	value string
}

// NewPostID creates a new time-ordered PostID
func NewPostID() PostID {
	return PostID{value: uuid.Must(uuid.NewV7()).String()}
}

// NewPostIDFromString creates a PostID from an existing string.
// Ids created before UUIDv7 (ULIDs) are accepted, so only the key-safety rules are enforced.
func NewPostIDFromString(id string) (PostID, error) {
	if id == "" {
		return PostID{}, errors.New("post ID cannot be empty")
	}
	if len(id) > maxPostIDLength {
		return PostID{}, errors.New("post ID is too long")
	}
	if strings.ContainsAny(id, "#/ ") {
		return PostID{}, errors.New("post ID contains reserved characters")
	}
	return PostID{value: id}, nil
}

// String returns the string representation of the PostID
func (id PostID) String() string {
	return id.value
}

// Equals checks if two PostIDs are equal
func (id PostID) Equals(other PostID) bool {
	return id.value == other.value
}

// IsZero checks if the PostID is the zero value
func (id PostID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id PostID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *PostID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("PostID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
