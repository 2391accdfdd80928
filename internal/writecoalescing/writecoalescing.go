// Package writecoalescing provides a write buffer that coalesces small
// consecutive writes to one file into fewer, larger writes.
package writecoalescing

import (
	"sync"
	"time"
)

const (
	// DefaultCoalesceThreshold is the minimum size to trigger coalescing
	DefaultCoalesceThreshold = 1024 // 1KB
	// DefaultCoalesceTimeout is the maximum time to wait for more writes
	DefaultCoalesceTimeout = 10 * time.Millisecond
	// DefaultMaxCoalesceSize is the maximum size to coalesce before forcing a flush
	DefaultMaxCoalesceSize = 64 * 1024 // 64KB
)

// WriteBuffer represents a coalescing write buffer for a single file
type WriteBuffer struct {
	// Buffer holds the coalesced data
	Buffer []byte
	// Offset is the current write position
	Offset int64
	// LastWriteTime is when the last write occurred
	LastWriteTime time.Time
	// FlushCallback is called when the buffer needs to be flushed
	FlushCallback func(data []byte, offset int64) error
	// Mutex protects concurrent access
	Mutex sync.Mutex
	// Config holds the coalescing configuration
	Config *CoalesceConfig
}

// CoalesceConfig holds configuration for write coalescing
type CoalesceConfig struct {
	// Threshold is the minimum write size to trigger coalescing
	Threshold int
	// Timeout is the maximum time to wait for more writes
	Timeout time.Duration
	// MaxSize is the maximum buffer size before forcing a flush
	MaxSize int
	// Enabled controls whether coalescing is active
	Enabled bool
}

// DefaultConfig returns a default coalescing configuration
func DefaultConfig() *CoalesceConfig {
	return &CoalesceConfig{
		Threshold: DefaultCoalesceThreshold,
		Timeout:   DefaultCoalesceTimeout,
		MaxSize:   DefaultMaxCoalesceSize,
		Enabled:   true,
	}
}

// NewWriteBuffer creates a new write buffer with the given configuration
func NewWriteBuffer(config *CoalesceConfig, flushCallback func(data []byte, offset int64) error) *WriteBuffer {
	if config == nil {
		config = DefaultConfig()
	}

	return &WriteBuffer{
		Buffer:        make([]byte, 0, config.MaxSize),
		FlushCallback: flushCallback,
		Config:        config,
	}
}

// Write adds data to the buffer and potentially flushes it
func (wb *WriteBuffer) Write(data []byte, offset int64) error {
	if !wb.Config.Enabled {
		// If coalescing is disabled, flush immediately
		return wb.FlushCallback(data, offset)
	}

	wb.Mutex.Lock()
	defer wb.Mutex.Unlock()

	// If this is a large write, flush any existing buffer first
	if len(data) >= wb.Config.Threshold {
		if len(wb.Buffer) > 0 {
			err := wb.flushLocked()
			if err != nil {
				return err
			}
		}
		// For large writes, don't buffer - write directly
		return wb.FlushCallback(data, offset)
	}

	// Check if we need to flush due to timeout
	now := time.Now()
	if len(wb.Buffer) > 0 && now.Sub(wb.LastWriteTime) > wb.Config.Timeout {
		err := wb.flushLocked()
		if err != nil {
			return err
		}
	}

	// Check if we need to flush due to buffer size
	if len(wb.Buffer)+len(data) > wb.Config.MaxSize {
		err := wb.flushLocked()
		if err != nil {
			return err
		}
	}

	// Add data to buffer
	if len(wb.Buffer) == 0 {
		wb.Offset = offset
	}
	wb.Buffer = append(wb.Buffer, data...)
	wb.LastWriteTime = now

	return nil
}

// Flush forces a flush of the current buffer
func (wb *WriteBuffer) Flush() error {
	wb.Mutex.Lock()
	defer wb.Mutex.Unlock()
	return wb.flushLocked()
}

// flushLocked flushes the buffer (must be called with mutex held)
func (wb *WriteBuffer) flushLocked() error {
	if len(wb.Buffer) == 0 {
		return nil
	}

	// Make a copy of the buffer data
	data := make([]byte, len(wb.Buffer))
	copy(data, wb.Buffer)
	offset := wb.Offset

	// Clear the buffer
	wb.Buffer = wb.Buffer[:0]

	// Call the flush callback
	return wb.FlushCallback(data, offset)
}

// Close flushes any remaining data and closes the buffer
func (wb *WriteBuffer) Close() error {
	return wb.Flush()
}
