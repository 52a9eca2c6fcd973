package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"myblog-backend/application/commands"
	"myblog-backend/application/commands/bus"
	"myblog-backend/application/ports"
	"myblog-backend/application/ports/mocks"
	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/validators"
	"myblog-backend/domain/core/valueobjects"
	apperrors "myblog-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPost(status entities.Status) *entities.Post {
	return entities.NewPost(valueobjects.NewPostID(), entities.PostInput{
		Title:   "Hello",
		Summary: "First",
		Status:  status,
		Content: []valueobjects.ContentBlock{{Order: 0, Type: valueobjects.BlockTypeText, Content: "body"}},
	}, "author-1", time.Now())
}

func newBus(repo ports.PostRepository, storage ports.MediaStorage) *bus.CommandBus {
	logger := zap.NewNop()
	b := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	_ = b.Register(commands.CreatePostCommand{}, NewCreatePostHandler(repo, logger))
	_ = b.Register(commands.UpdatePostCommand{}, NewUpdatePostHandler(repo, logger))
	_ = b.Register(commands.DeletePostCommand{}, NewDeletePostHandler(repo, logger))
	_ = b.Register(commands.RequestUploadURLCommand{}, NewRequestUploadURLHandler(validators.NewMediaValidator(nil), storage, logger))
	return b
}

func TestCreatePostHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("Should store the post for the author", func(t *testing.T) {
		// Arrange
		repo := new(mocks.MockPostRepository)
		post := newPost(entities.StatusDraft)
		input := entities.PostInput{Title: "Hello"}
		repo.On("Create", ctx, input, "author-1").Return(post, nil)

		// Act
		result, err := newBus(repo, nil).Send(ctx, commands.CreatePostCommand{AuthorID: "author-1", Input: input})

		// Assert
		require.NoError(t, err)
		assert.Same(t, post, result)
		repo.AssertExpectations(t)
	})

	t.Run("Should reject anonymous callers before reaching the repository", func(t *testing.T) {
		repo := new(mocks.MockPostRepository)

		_, err := newBus(repo, nil).Send(ctx, commands.CreatePostCommand{})

		assert.True(t, apperrors.IsUnauthorized(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should keep the repository error type through the bus", func(t *testing.T) {
		repo := new(mocks.MockPostRepository)
		repo.On("Create", ctx, mock.Anything, "author-1").Return(nil, apperrors.NewValidationError("bad"))

		_, err := newBus(repo, nil).Send(ctx, commands.CreatePostCommand{AuthorID: "author-1"})

		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestUpdatePostHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("Should pass the patch through", func(t *testing.T) {
		repo := new(mocks.MockPostRepository)
		title := "New"
		patch := entities.PostPatch{Title: &title}
		post := newPost(entities.StatusPublished)
		repo.On("Update", ctx, "p1", patch, "author-1").Return(post, nil)

		result, err := newBus(repo, nil).Send(ctx, commands.UpdatePostCommand{PostID: "p1", CallerID: "author-1", Patch: patch})

		require.NoError(t, err)
		assert.Same(t, post, result)
	})

	t.Run("Should surface forbidden", func(t *testing.T) {
		repo := new(mocks.MockPostRepository)
		repo.On("Update", ctx, "p1", mock.Anything, "other").Return(nil, apperrors.NewForbiddenError(""))

		_, err := newBus(repo, nil).Send(ctx, commands.UpdatePostCommand{PostID: "p1", CallerID: "other"})

		assert.True(t, apperrors.IsForbidden(err))
	})
}

func TestDeletePostHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return the deletion receipt", func(t *testing.T) {
		repo := new(mocks.MockPostRepository)
		receipt := &ports.DeleteResult{PostID: "p1", DeletedAt: time.Now()}
		repo.On("Delete", ctx, "p1", "author-1").Return(receipt, nil)

		result, err := newBus(repo, nil).Send(ctx, commands.DeletePostCommand{PostID: "p1", CallerID: "author-1"})

		require.NoError(t, err)
		assert.Equal(t, receipt, result)
	})

	t.Run("Should require a post id", func(t *testing.T) {
		repo := new(mocks.MockPostRepository)

		_, err := newBus(repo, nil).Send(ctx, commands.DeletePostCommand{CallerID: "author-1"})

		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestRequestUploadURLHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("Should presign a validated upload", func(t *testing.T) {
		// Arrange
		storage := new(mocks.MockMediaStorage)
		size := int64(1024)
		target := &ports.UploadTarget{UploadURL: "https://signed", MediaURL: "https://cdn/media/x.png", MediaID: "x"}
		storage.On("PresignUpload", ctx, mock.MatchedBy(func(m validators.ValidatedMedia) bool {
			return m.Type.MIME == "image/png" && m.Extension == ".png" && *m.Size == size
		})).Return(target, nil)

		// Act
		result, err := newBus(nil, storage).Send(ctx, commands.RequestUploadURLCommand{
			CallerID: "author-1",
			FileName: "Photo.PNG",
			FileType: "image/png",
			FileSize: &size,
		})

		// Assert
		require.NoError(t, err)
		assert.Same(t, target, result)
		storage.AssertExpectations(t)
	})

	t.Run("Should not presign an invalid upload", func(t *testing.T) {
		storage := new(mocks.MockMediaStorage)

		_, err := newBus(nil, storage).Send(ctx, commands.RequestUploadURLCommand{
			CallerID: "author-1",
			FileName: "clip.mp4",
			FileType: "application/pdf",
		})

		assert.True(t, apperrors.IsValidation(err))
		storage.AssertNotCalled(t, "PresignUpload", mock.Anything, mock.Anything)
	})

	t.Run("Should report signing failures as external errors", func(t *testing.T) {
		storage := new(mocks.MockMediaStorage)
		storage.On("PresignUpload", ctx, mock.Anything).Return(nil, errors.New("expired credentials"))

		_, err := newBus(nil, storage).Send(ctx, commands.RequestUploadURLCommand{
			CallerID: "author-1",
			FileName: "a.gif",
			FileType: "image/gif",
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	})
}

func TestCommandBus_Register(t *testing.T) {
	t.Run("Should refuse a second handler for the same command", func(t *testing.T) {
		b := bus.NewCommandBus()
		require.NoError(t, b.Register(commands.DeletePostCommand{}, NewDeletePostHandler(nil, zap.NewNop())))

		err := b.Register(commands.DeletePostCommand{}, NewDeletePostHandler(nil, zap.NewNop()))

		assert.Error(t, err)
	})

	t.Run("Should fail for an unregistered command", func(t *testing.T) {
		_, err := bus.NewCommandBus().Send(context.Background(), commands.DeletePostCommand{PostID: "p", CallerID: "u"})

		assert.ErrorContains(t, err, "no handler registered")
	})
}
