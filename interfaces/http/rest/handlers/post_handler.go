package handlers

import (
	"fmt"
	"net/http"

	"myblog-backend/application/commands"
	"myblog-backend/application/commands/bus"
	"myblog-backend/application/ports"
	"myblog-backend/application/queries"
	querybus "myblog-backend/application/queries/bus"
	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/policy"
	"myblog-backend/pkg/common"
	"myblog-backend/pkg/errors"
	"myblog-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errors       *errors.ErrorHandler
	defaultLimit int
	logger       *zap.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errHandler *errors.ErrorHandler,
	defaultLimit int,
	logger *zap.Logger,
) *PostHandler {
	return &PostHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errors:       errHandler,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// CreatePost handles POST /admin/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	userID, _ := common.GetUserID(r.Context())
	result, err := h.commandBus.Send(r.Context(), commands.CreatePostCommand{
		AuthorID: userID,
		Input:    req.toInput(),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	post, ok := result.(*entities.Post)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusCreated, newPostResponse(post))
}

// GetPost handles GET /posts/{postId}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetPostQuery{
		PostID: chi.URLParam(r, "postId"),
		Caller: callerFrom(r),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	post, ok := result.(*entities.Post)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusOK, newPostResponse(post))
}

// UpdatePost handles PUT /admin/posts/{postId}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	userID, _ := common.GetUserID(r.Context())
	result, err := h.commandBus.Send(r.Context(), commands.UpdatePostCommand{
		PostID:   chi.URLParam(r, "postId"),
		CallerID: userID,
		Patch:    req.toPatch(),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	post, ok := result.(*entities.Post)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusOK, newPostResponse(post))
}

// DeletePost handles DELETE /admin/posts/{postId}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.GetUserID(r.Context())
	result, err := h.commandBus.Send(r.Context(), commands.DeletePostCommand{
		PostID:   chi.URLParam(r, "postId"),
		CallerID: userID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	deleted, ok := result.(*ports.DeleteResult)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusOK, DeleteResponse{
		PostID:    deleted.PostID,
		DeletedAt: utils.FormatTimestamp(deleted.DeletedAt),
	})
}

// ListPosts handles GET /posts?status=&limit=&nextToken=
// The status defaults to published.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := common.ExtractPageRequest(r, h.defaultLimit)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	status := entities.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = entities.StatusPublished
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListPostsQuery{
		Status:    status,
		Limit:     page.Limit,
		NextToken: page.NextToken,
		Caller:    callerFrom(r),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondPage(w, r, result)
}

// ListPostsByTag handles GET /tags/{tag}/posts
func (h *PostHandler) ListPostsByTag(w http.ResponseWriter, r *http.Request) {
	page, err := common.ExtractPageRequest(r, h.defaultLimit)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListPostsByTagQuery{
		Tag:       chi.URLParam(r, "tag"),
		Limit:     page.Limit,
		NextToken: page.NextToken,
		Caller:    callerFrom(r),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondPage(w, r, result)
}

func (h *PostHandler) respondPage(w http.ResponseWriter, r *http.Request, result interface{}) {
	page, ok := result.(*ports.PostPage)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusOK, common.PageResponse{
		Posts:     newSummaryResponses(page.Posts),
		NextToken: page.NextToken,
	})
}

func callerFrom(r *http.Request) policy.Caller {
	if userID, ok := common.GetUserID(r.Context()); ok {
		return policy.Caller{UserID: userID}
	}
	return policy.Anonymous
}

func unexpectedResult(result interface{}) error {
	return errors.NewInternalError(fmt.Sprintf("unexpected handler result %T", result))
}
