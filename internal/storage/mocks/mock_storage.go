package mocks

import (
	"context"

	"comicapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, payload string) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) List(ctx context.Context, limit int) ([]storage.ImageInfo, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ImageInfo), args.Error(1)
}

func (m *MockImageStore) Read(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
