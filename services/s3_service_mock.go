package services

import (
	"context"
	"sync"
)

// MockS3Service is an in-memory S3Interface for tests
type MockS3Service struct {
	objects   map[string][]byte
	uploadErr error
	mu        sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects: make(map[string][]byte),
	}
}

// UploadObject stores body under key, or fails with the configured error
func (m *MockS3Service) UploadObject(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uploadErr != nil {
		return m.uploadErr
	}
	content := make([]byte, len(body))
	copy(content, body)
	m.objects[key] = content
	return nil
}

// FailUploads makes every following upload return err; nil restores success
func (m *MockS3Service) FailUploads(err error) {
	m.mu.Lock()
	m.uploadErr = err
	m.mu.Unlock()
}

// GetUploadedObjects returns a copy of all stored objects
func (m *MockS3Service) GetUploadedObjects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		objects[k] = v
	}
	return objects
}
