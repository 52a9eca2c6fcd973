// Package policy decides who may see and change posts.
//
// The blog has a single author role: any authenticated caller is an
// administrator and may read every status, while anonymous callers only
// ever see published posts. Mutations additionally require the caller to
// be the post's author.
package policy

import (
	"myblog-backend/domain/core/entities"
)

// Caller identifies who is making a request. A zero Caller is anonymous.
type Caller struct {
	UserID string
}

// Anonymous is the caller used for unauthenticated requests
var Anonymous = Caller{}

// IsAuthenticated reports whether the caller carries an identity
func (c Caller) IsAuthenticated() bool {
	return c.UserID != ""
}

// CanView reports whether caller may read post
func CanView(post *entities.Post, caller Caller) bool {
	if post == nil {
		return false
	}
	return post.IsPublished() || caller.IsAuthenticated()
}

// CanViewStatus reports whether caller may list posts in status
func CanViewStatus(status entities.Status, caller Caller) bool {
	return status == entities.StatusPublished || caller.IsAuthenticated()
}

// CanMutate reports whether callerID may update or delete post
func CanMutate(post *entities.Post, callerID string) bool {
	return post != nil && callerID != "" && callerID == post.AuthorID()
}
