package mocks

import (
	"context"

	"comicapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Generate(ctx context.Context, text string) (*model.GenerationResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GenerationResult), args.Error(1)
}

func (m *MockImageService) List(ctx context.Context) ([]model.ListedImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ListedImage), args.Error(1)
}
