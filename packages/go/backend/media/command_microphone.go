package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"sync"
)

// CommandMicrophone captures audio by running an external recorder (for
// example `arecord -q -f S16_LE -r 16000 -c 1 -t wav`) that writes WAV data to
// stdout until it is interrupted.
type CommandMicrophone struct {
	name string
	args []string
}

// NewCommandMicrophone creates a microphone backed by the given command.
func NewCommandMicrophone(name string, args ...string) *CommandMicrophone {
	return &CommandMicrophone{name: name, args: append([]string(nil), args...)}
}

// Open starts the recorder process.
func (m *CommandMicrophone) Open(ctx context.Context) (Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(m.name, m.args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("start recorder %s: %w", m.name, err)
	}

	return &commandRecording{cmd: cmd, stdout: &stdout, stderr: &stderr}, nil
}

// Health reports whether the recorder binary can be found.
func (m *CommandMicrophone) Health() HealthStatus {
	path, err := exec.LookPath(m.name)
	if err != nil {
		return HealthStatus{Healthy: false, Message: err.Error()}
	}
	return HealthStatus{Healthy: true, Message: "recorder " + path}
}

type commandRecording struct {
	cmd    *exec.Cmd
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	once   sync.Once
}

func (r *commandRecording) Stop() (AudioClip, error) {
	var (
		clip    AudioClip
		stopErr error
		stopped bool
	)
	r.once.Do(func() {
		stopped = true
		_ = r.cmd.Process.Signal(os.Interrupt)
		if err := r.cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				stopErr = fmt.Errorf("wait for recorder: %w", err)
				return
			}
		}
		if r.stdout.Len() == 0 && r.stderr.Len() > 0 {
			stopErr = fmt.Errorf("recorder produced no audio: %s", bytes.TrimSpace(r.stderr.Bytes()))
			return
		}
		clip = decodeWAVClip(r.stdout.Bytes())
	})
	if !stopped {
		return AudioClip{}, ErrRecordingClosed
	}
	return clip, stopErr
}

func (r *commandRecording) Close() error {
	var err error
	r.once.Do(func() {
		if killErr := r.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = killErr
		}
		_ = r.cmd.Wait()
	})
	return err
}
