package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myblog-backend/application/commands"
	"myblog-backend/application/commands/bus"
	cmdhandlers "myblog-backend/application/commands/handlers"
	"myblog-backend/application/ports"
	"myblog-backend/application/ports/mocks"
	"myblog-backend/application/queries"
	querybus "myblog-backend/application/queries/bus"
	queryhandlers "myblog-backend/application/queries/handlers"
	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/validators"
	"myblog-backend/domain/core/valueobjects"
	"myblog-backend/domain/policy"
	"myblog-backend/pkg/common"
	"myblog-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router  chi.Router
	repo    *mocks.MockPostRepository
	storage *mocks.MockMediaStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	repo := new(mocks.MockPostRepository)
	storage := new(mocks.MockMediaStorage)

	commandBus := bus.NewCommandBus()
	require.NoError(t, commandBus.Register(commands.CreatePostCommand{}, cmdhandlers.NewCreatePostHandler(repo, logger)))
	require.NoError(t, commandBus.Register(commands.UpdatePostCommand{}, cmdhandlers.NewUpdatePostHandler(repo, logger)))
	require.NoError(t, commandBus.Register(commands.DeletePostCommand{}, cmdhandlers.NewDeletePostHandler(repo, logger)))
	require.NoError(t, commandBus.Register(commands.RequestUploadURLCommand{},
		cmdhandlers.NewRequestUploadURLHandler(validators.NewMediaValidator(nil), storage, logger)))

	queryBus := querybus.NewQueryBus(logger)
	require.NoError(t, queryBus.Register(queries.GetPostQuery{}, queryhandlers.NewGetPostHandler(repo)))
	require.NoError(t, queryBus.Register(queries.ListPostsQuery{}, queryhandlers.NewListPostsHandler(repo)))
	require.NoError(t, queryBus.Register(queries.ListPostsByTagQuery{}, queryhandlers.NewListPostsByTagHandler(repo)))

	errHandler := errors.NewErrorHandler(logger, false)
	posts := NewPostHandler(commandBus, queryBus, errHandler, 10, logger)
	media := NewMediaHandler(commandBus, errHandler, logger)

	r := chi.NewRouter()
	r.Get("/posts", posts.ListPosts)
	r.Get("/posts/{postId}", posts.GetPost)
	r.Get("/tags/{tag}/posts", posts.ListPostsByTag)
	r.Post("/admin/posts", posts.CreatePost)
	r.Put("/admin/posts/{postId}", posts.UpdatePost)
	r.Delete("/admin/posts/{postId}", posts.DeletePost)
	r.Post("/admin/presigned-url", media.RequestUploadURL)

	return &testServer{router: r, repo: repo, storage: storage}
}

func (s *testServer) do(method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req = req.WithContext(common.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func samplePost(status entities.Status) *entities.Post {
	return entities.NewPost(valueobjects.NewPostID(), entities.PostInput{
		Title:   "Hello",
		Summary: "First post",
		Status:  status,
		Content: []valueobjects.ContentBlock{{Order: 0, Type: valueobjects.BlockTypeText, Content: "body"}},
		Tags:    []string{"go"},
	}, "author-1", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPostHandler_CreatePost(t *testing.T) {
	t.Run("Should return 201 with the stored post", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		post := samplePost(entities.StatusPublished)
		s.repo.On("Create", mock.Anything, mock.MatchedBy(func(in entities.PostInput) bool {
			return in.Title == "Hello" && len(in.Content) == 1 && in.Content[0].Order == 0
		}), "author-1").Return(post, nil)

		// Act
		rec := s.do(http.MethodPost, "/admin/posts", map[string]interface{}{
			"title":   "Hello",
			"summary": "First post",
			"status":  "published",
			"content": []map[string]interface{}{{"order": 0, "type": "text", "content": "body"}},
			"tags":    []string{"go"},
		}, "author-1")

		// Assert
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, post.ID().String(), body["postId"])
		assert.Equal(t, "published", body["status"])
		assert.Equal(t, "2024-03-01T12:00:00.000Z", body["createdAt"])
		assert.Equal(t, "2024-03-01T12:00:00.000Z", body["publishedAt"])
		s.repo.AssertExpectations(t)
	})

	t.Run("Should mark blocks without an order as missing", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("Create", mock.Anything, mock.MatchedBy(func(in entities.PostInput) bool {
			return len(in.Content) == 1 && in.Content[0].Order == missingOrder
		}), "author-1").Return(nil, errors.NewValidationFailedError([]errors.FieldViolation{
			{Field: "content[0].order", Reason: "Order is required"},
		}))

		// Act
		rec := s.do(http.MethodPost, "/admin/posts", map[string]interface{}{
			"title":   "Hello",
			"summary": "s",
			"status":  "draft",
			"content": []map[string]interface{}{{"type": "text", "content": "body"}},
		}, "author-1")

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, rec)["error"])
		s.repo.AssertExpectations(t)
	})

	t.Run("Should reject unknown fields before reaching the store", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)

		// Act
		rec := s.do(http.MethodPost, "/admin/posts", map[string]interface{}{"title": "x", "bogus": true}, "author-1")

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should return 401 without a caller", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)

		// Act
		rec := s.do(http.MethodPost, "/admin/posts", map[string]interface{}{"title": "x"}, "")

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeBody(t, rec)["error"])
	})
}

func TestPostHandler_GetPost(t *testing.T) {
	t.Run("Should pass the anonymous caller to the store", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		post := samplePost(entities.StatusPublished)
		s.repo.On("GetByID", mock.Anything, "abc", policy.Anonymous).Return(post, nil)

		// Act
		rec := s.do(http.MethodGet, "/posts/abc", nil, "")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Hello", body["title"])
		assert.Equal(t, []interface{}{"go"}, body["tags"])
	})

	t.Run("Should map a missing post to 404", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("GetByID", mock.Anything, "abc", policy.Caller{UserID: "admin"}).
			Return(nil, errors.NewNotFoundError("Post"))

		// Act
		rec := s.do(http.MethodGet, "/posts/abc", nil, "admin")

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeBody(t, rec)["error"])
	})
}

func TestPostHandler_UpdatePost(t *testing.T) {
	t.Run("Should forward only the fields present in the body", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		post := samplePost(entities.StatusArchived)
		s.repo.On("Update", mock.Anything, "abc", mock.MatchedBy(func(p entities.PostPatch) bool {
			return p.Status != nil && *p.Status == entities.StatusArchived &&
				p.Title == nil && p.Content == nil && p.Tags == nil && p.ThumbnailURL == nil
		}), "author-1").Return(post, nil)

		// Act
		rec := s.do(http.MethodPut, "/admin/posts/abc", map[string]interface{}{"status": "archived"}, "author-1")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "archived", decodeBody(t, rec)["status"])
		s.repo.AssertExpectations(t)
	})

	t.Run("Should clear the thumbnail on an explicit null", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("Update", mock.Anything, "abc", mock.MatchedBy(func(p entities.PostPatch) bool {
			return p.ThumbnailURL != nil && *p.ThumbnailURL == "" && p.Title == nil
		}), "author-1").Return(samplePost(entities.StatusDraft), nil)

		// Act
		rec := s.do(http.MethodPut, "/admin/posts/abc", map[string]interface{}{"thumbnailUrl": nil}, "author-1")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		s.repo.AssertExpectations(t)
	})

	t.Run("Should forward a new thumbnail alongside other fields", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("Update", mock.Anything, "abc", mock.MatchedBy(func(p entities.PostPatch) bool {
			return p.ThumbnailURL != nil && *p.ThumbnailURL == "https://cdn.example.com/n.png" &&
				p.Title != nil && *p.Title == "Renamed"
		}), "author-1").Return(samplePost(entities.StatusDraft), nil)

		// Act
		rec := s.do(http.MethodPut, "/admin/posts/abc", map[string]interface{}{
			"title":        "Renamed",
			"thumbnailUrl": "https://cdn.example.com/n.png",
		}, "author-1")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		s.repo.AssertExpectations(t)
	})
}

func TestPostHandler_DeletePost(t *testing.T) {
	t.Run("Should return the deletion receipt", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		deletedAt := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
		s.repo.On("Delete", mock.Anything, "abc", "author-1").
			Return(&ports.DeleteResult{PostID: "abc", DeletedAt: deletedAt}, nil)

		// Act
		rec := s.do(http.MethodDelete, "/admin/posts/abc", nil, "author-1")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "abc", body["postId"])
		assert.Equal(t, "2024-03-02T08:30:00.000Z", body["deletedAt"])
	})

	t.Run("Should surface a transaction that is too large as 500", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("Delete", mock.Anything, "abc", "author-1").
			Return(nil, errors.NewTooManyItemsError("delete", 30, 25))

		// Act
		rec := s.do(http.MethodDelete, "/admin/posts/abc", nil, "author-1")

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPostHandler_ListPosts(t *testing.T) {
	t.Run("Should default to published posts and the default page size", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("ListByStatus", mock.Anything, entities.StatusPublished, 10, "", policy.Anonymous).
			Return(&ports.PostPage{Posts: []entities.PostSummary{{Title: "p1"}}, NextToken: "next"}, nil)

		// Act
		rec := s.do(http.MethodGet, "/posts", nil, "")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Len(t, body["posts"], 1)
		assert.Equal(t, "next", body["nextToken"])
	})

	t.Run("Should pass status, limit and token through", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("ListByStatus", mock.Anything, entities.StatusDraft, 5, "tok", policy.Caller{UserID: "admin"}).
			Return(&ports.PostPage{Posts: []entities.PostSummary{}}, nil)

		// Act
		rec := s.do(http.MethodGet, "/posts?status=draft&limit=5&nextToken=tok", nil, "admin")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Empty(t, body["posts"])
		assert.NotContains(t, body, "nextToken")
	})

	t.Run("Should reject a non-numeric limit", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)

		// Act
		rec := s.do(http.MethodGet, "/posts?limit=ten", nil, "")

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.repo.AssertNotCalled(t, "ListByStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should map a bad token to 400", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("ListByStatus", mock.Anything, entities.StatusPublished, 10, "garbage", policy.Anonymous).
			Return(nil, errors.NewInvalidTokenError(nil))

		// Act
		rec := s.do(http.MethodGet, "/posts?nextToken=garbage", nil, "")

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_TOKEN", decodeBody(t, rec)["error"])
	})
}

func TestPostHandler_ListPostsByTag(t *testing.T) {
	t.Run("Should list by the tag in the path", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.repo.On("ListByTag", mock.Anything, "golang", 10, "", policy.Anonymous).
			Return(&ports.PostPage{Posts: []entities.PostSummary{{Title: "p1"}, {Title: "p2"}}}, nil)

		// Act
		rec := s.do(http.MethodGet, "/tags/golang/posts", nil, "")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["posts"], 2)
	})
}

func TestMediaHandler_RequestUploadURL(t *testing.T) {
	t.Run("Should accept contentType as an alias of fileType", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)
		s.storage.On("PresignUpload", mock.Anything, mock.MatchedBy(func(m validators.ValidatedMedia) bool {
			return m.Type.MIME == "image/png"
		})).Return(&ports.UploadTarget{
			UploadURL: "https://bucket/upload",
			MediaURL:  "https://cdn.example.com/media/1.png",
			MediaID:   "1",
			ExpiresIn: 15 * time.Minute,
		}, nil)

		// Act
		rec := s.do(http.MethodPost, "/admin/presigned-url", map[string]interface{}{
			"fileName":    "cat.png",
			"contentType": "image/png",
		}, "author-1")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "https://bucket/upload", body["uploadUrl"])
		assert.Equal(t, "https://cdn.example.com/media/1.png", body["mediaUrl"])
		assert.Equal(t, float64(900), body["expiresIn"])
	})

	t.Run("Should reject an unsupported file type", func(t *testing.T) {
		// Arrange
		s := newTestServer(t)

		// Act
		rec := s.do(http.MethodPost, "/admin/presigned-url", map[string]interface{}{
			"fileName": "tool.exe",
			"fileType": "application/x-msdownload",
		}, "author-1")

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.storage.AssertNotCalled(t, "PresignUpload", mock.Anything, mock.Anything)
	})
}
