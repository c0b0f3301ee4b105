package registry

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/halstead/image-delivery-backend/interfaces"
)

// MockImageIndex mocks the interfaces.ImageIndex interface.
type MockImageIndex struct {
	mock.Mock
}

// ImageMetadata mocks the ImageMetadata method.
func (m *MockImageIndex) ImageMetadata(ctx context.Context, imageID string) (*interfaces.ImageDescriptor, error) {
	args := m.Called(ctx, imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.ImageDescriptor), args.Error(1)
}
