package rtlog

import "testing"

func TestNewReturnsUsableLogger(t *testing.T) {
	log := New("test")
	// GetLogger never returns a nil commonlog.Logger; this just guards
	// against New forgetting to wrap it.
	log.Infof("heap: %d segments", 3)
}

func TestGCSummaryDoesNotPanic(t *testing.T) {
	log := New("test")
	log.GCSummary("young", 2, 1500, 250000)
}
