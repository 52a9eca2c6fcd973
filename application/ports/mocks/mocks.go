// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"myblog-backend/application/ports"
	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/validators"
	"myblog-backend/domain/policy"

	"github.com/stretchr/testify/mock"
)

// MockPostRepository is a mock implementation of ports.PostRepository
type MockPostRepository struct {
	mock.Mock
}

var _ ports.PostRepository = (*MockPostRepository)(nil)

func (m *MockPostRepository) Create(ctx context.Context, input entities.PostInput, callerID string) (*entities.Post, error) {
	args := m.Called(ctx, input, callerID)
	post, _ := args.Get(0).(*entities.Post)
	return post, args.Error(1)
}

func (m *MockPostRepository) GetByID(ctx context.Context, postID string, caller policy.Caller) (*entities.Post, error) {
	args := m.Called(ctx, postID, caller)
	post, _ := args.Get(0).(*entities.Post)
	return post, args.Error(1)
}

func (m *MockPostRepository) ListByStatus(ctx context.Context, status entities.Status, limit int, nextToken string, caller policy.Caller) (*ports.PostPage, error) {
	args := m.Called(ctx, status, limit, nextToken, caller)
	page, _ := args.Get(0).(*ports.PostPage)
	return page, args.Error(1)
}

func (m *MockPostRepository) ListByTag(ctx context.Context, tag string, limit int, nextToken string, caller policy.Caller) (*ports.PostPage, error) {
	args := m.Called(ctx, tag, limit, nextToken, caller)
	page, _ := args.Get(0).(*ports.PostPage)
	return page, args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, postID string, patch entities.PostPatch, callerID string) (*entities.Post, error) {
	args := m.Called(ctx, postID, patch, callerID)
	post, _ := args.Get(0).(*entities.Post)
	return post, args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, postID string, callerID string) (*ports.DeleteResult, error) {
	args := m.Called(ctx, postID, callerID)
	result, _ := args.Get(0).(*ports.DeleteResult)
	return result, args.Error(1)
}

// MockMediaStorage is a mock implementation of ports.MediaStorage
type MockMediaStorage struct {
	mock.Mock
}

var _ ports.MediaStorage = (*MockMediaStorage)(nil)

func (m *MockMediaStorage) PresignUpload(ctx context.Context, media validators.ValidatedMedia) (*ports.UploadTarget, error) {
	args := m.Called(ctx, media)
	target, _ := args.Get(0).(*ports.UploadTarget)
	return target, args.Error(1)
}

// MockHealthChecker is a mock implementation of ports.HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
