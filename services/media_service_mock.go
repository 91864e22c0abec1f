package services

import (
	"fmt"
	"mime/multipart"
	"sync"
)

// MockMediaService is a mock implementation of MediaService for testing
type MockMediaService struct {
	uploadedImages map[string][]byte // map of S3 key to image content
	mu             sync.RWMutex
}

// NewMockMediaService creates a new mock media service
func NewMockMediaService() *MockMediaService {
	return &MockMediaService{
		uploadedImages: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global media service instance
func (m *MockMediaService) SetAsMockForTesting() {
	SetMediaService(m)
}

// UploadProductImage simulates uploading a product photo to S3
func (m *MockMediaService) UploadProductImage(merchantID uint, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content := make([]byte, fileHeader.Size)
	_, err = file.Read(content)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	s3Key := fmt.Sprintf("products/%d/mock_%s", merchantID, fileHeader.Filename)

	m.mu.Lock()
	m.uploadedImages[s3Key] = content
	m.mu.Unlock()

	return s3Key, nil
}

// GetPresignedURL simulates generating a presigned URL
func (m *MockMediaService) GetPresignedURL(s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.uploadedImages[s3Key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("image not found in mock S3: %s", s3Key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", s3Key), nil
}

// DeleteImage simulates deleting an image from S3
func (m *MockMediaService) DeleteImage(s3Key string) error {
	if s3Key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.uploadedImages, s3Key)
	m.mu.Unlock()

	return nil
}

// ImageExists checks if an image exists in mock storage
func (m *MockMediaService) ImageExists(s3Key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedImages[s3Key]
	return exists
}

// Clear removes all images from mock storage
func (m *MockMediaService) Clear() {
	m.mu.Lock()
	m.uploadedImages = make(map[string][]byte)
	m.mu.Unlock()
}
