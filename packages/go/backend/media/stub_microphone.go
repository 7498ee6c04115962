package media

import (
	"context"
	"sync"
	"time"
)

// StubMicrophoneConfig configures the stub microphone behavior.
type StubMicrophoneConfig struct {
	// Clip is returned by every Stop call.
	Clip AudioClip
	// DenyPermission makes Open fail with ErrPermissionDenied.
	DenyPermission bool
	// OpenDelay simulates device start-up time.
	OpenDelay time.Duration
}

// DefaultStubMicrophoneConfig returns sensible defaults for testing.
func DefaultStubMicrophoneConfig() *StubMicrophoneConfig {
	return &StubMicrophoneConfig{
		Clip: AudioClip{
			Data:       make([]byte, 3200),
			MIMEType:   "audio/wav",
			SampleRate: 16000,
			Duration:   100 * time.Millisecond,
		},
	}
}

// StubMicrophone is a test implementation that counts device acquisitions
// and releases.
type StubMicrophone struct {
	config *StubMicrophoneConfig

	mu       sync.Mutex
	opened   int
	released int
}

// NewStubMicrophone creates a new stub microphone with the given config.
// If config is nil, defaults are used.
func NewStubMicrophone(config *StubMicrophoneConfig) *StubMicrophone {
	if config == nil {
		config = DefaultStubMicrophoneConfig()
	}
	return &StubMicrophone{config: config}
}

// Open simulates acquiring the recording device.
func (m *StubMicrophone) Open(ctx context.Context) (Recording, error) {
	if m.config.OpenDelay > 0 {
		select {
		case <-time.After(m.config.OpenDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.config.DenyPermission {
		return nil, ErrPermissionDenied
	}

	m.mu.Lock()
	m.opened++
	m.mu.Unlock()

	return &stubRecording{mic: m}, nil
}

// Opened returns how many times the device was acquired.
func (m *StubMicrophone) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Released returns how many times the device was released.
func (m *StubMicrophone) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Health returns the health status of the stub microphone.
func (m *StubMicrophone) Health() HealthStatus {
	return HealthStatus{
		Healthy: true,
		Message: "stub microphone ready",
	}
}

func (m *StubMicrophone) release() {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
}

type stubRecording struct {
	mic  *StubMicrophone
	once sync.Once
}

func (r *stubRecording) Stop() (AudioClip, error) {
	released := false
	r.once.Do(func() {
		r.mic.release()
		released = true
	})
	if !released {
		return AudioClip{}, ErrRecordingClosed
	}
	clip := r.mic.config.Clip
	clip.Data = append([]byte(nil), clip.Data...)
	return clip, nil
}

func (r *stubRecording) Close() error {
	r.once.Do(r.mic.release)
	return nil
}
