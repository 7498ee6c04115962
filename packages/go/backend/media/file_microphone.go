package media

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
)

const wavHeaderSize = 44

// FileMicrophone replays a recorded WAV file as if it had been captured live.
// It is used by the CLI and for demos on machines without a capture device.
type FileMicrophone struct {
	path string
}

// NewFileMicrophone creates a microphone that replays the file at path.
func NewFileMicrophone(path string) *FileMicrophone {
	return &FileMicrophone{path: path}
}

// Open reads the file up front so that Stop cannot fail on I/O.
func (m *FileMicrophone) Open(ctx context.Context) (Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, m.path)
		}
		return nil, fmt.Errorf("open audio file %s: %w", m.path, err)
	}
	return &fileRecording{clip: decodeWAVClip(data)}, nil
}

// Health reports whether the backing file is readable.
func (m *FileMicrophone) Health() HealthStatus {
	if _, err := os.Stat(m.path); err != nil {
		return HealthStatus{Healthy: false, Message: err.Error()}
	}
	return HealthStatus{Healthy: true, Message: "replaying " + m.path}
}

type fileRecording struct {
	clip AudioClip
	once sync.Once
}

func (r *fileRecording) Stop() (AudioClip, error) {
	clip, ok := AudioClip{}, false
	r.once.Do(func() {
		clip, ok = r.clip, true
	})
	if !ok {
		return AudioClip{}, ErrRecordingClosed
	}
	return clip, nil
}

func (r *fileRecording) Close() error {
	r.once.Do(func() {})
	return nil
}

// decodeWAVClip fills in clip metadata from a canonical PCM WAV header. Data
// without a RIFF header is passed through untouched.
func decodeWAVClip(data []byte) AudioClip {
	clip := AudioClip{Data: data, MIMEType: "audio/wav"}
	if len(data) < wavHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return clip
	}
	clip.SampleRate = int(binary.LittleEndian.Uint32(data[24:28]))
	byteRate := binary.LittleEndian.Uint32(data[28:32])
	if byteRate > 0 {
		payload := len(data) - wavHeaderSize
		clip.Duration = time.Duration(float64(payload) / float64(byteRate) * float64(time.Second))
	}
	return clip
}
