package tagger

import (
	"github.com/stretchr/testify/mock"

	"github.com/electronjoe/geotag/internal/location"
	"github.com/electronjoe/geotag/internal/photo"
)

// MockRecordReader is a mock implementation of the RecordReader interface
type MockRecordReader struct {
	mock.Mock
}

func (m *MockRecordReader) Read(path string) (photo.Record, error) {
	args := m.Called(path)
	return args.Get(0).(photo.Record), args.Error(1)
}

// MockGPSWriter is a mock implementation of the GPSWriter interface
type MockGPSWriter struct {
	mock.Mock
}

func (m *MockGPSWriter) WriteGPS(path string, s location.Sample) error {
	args := m.Called(path, s)
	return args.Error(0)
}
