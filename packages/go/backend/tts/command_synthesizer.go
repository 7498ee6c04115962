package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// CommandSynthesizer speaks through an external TTS binary. Args may contain
// the placeholders {voice} and {text}; when {text} is absent the text is
// written to the command's stdin.
//
// Example: NewCommandSynthesizer("espeak-ng", "-v", "{voice}", "{text}").
type CommandSynthesizer struct {
	name   string
	args   []string
	voices map[string]string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSynthesizer creates a synthesizer backed by the given command.
func NewCommandSynthesizer(name string, args ...string) *CommandSynthesizer {
	return &CommandSynthesizer{name: name, args: append([]string(nil), args...)}
}

// WithVoices maps synthesis codes (hi-IN) to engine voice names (hi). Codes
// without an entry are passed through unchanged.
func (c *CommandSynthesizer) WithVoices(voices map[string]string) *CommandSynthesizer {
	c.voices = voices
	return c
}

// Speak runs the command and waits for it to exit.
func (c *CommandSynthesizer) Speak(ctx context.Context, text string, synthesisCode string) error {
	voice := synthesisCode
	if mapped, ok := c.voices[synthesisCode]; ok {
		voice = mapped
	}

	usesText := false
	args := make([]string, len(c.args))
	for i, arg := range c.args {
		if strings.Contains(arg, "{text}") {
			usesText = true
		}
		arg = strings.ReplaceAll(arg, "{voice}", voice)
		args[i] = strings.ReplaceAll(arg, "{text}", text)
	}

	cmd := exec.CommandContext(ctx, c.name, args...)
	if !usesText {
		cmd.Stdin = strings.NewReader(text)
	}

	c.mu.Lock()
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start synthesizer %s: %w", c.name, err)
	}
	c.cmd = cmd
	c.mu.Unlock()

	err := cmd.Wait()

	c.mu.Lock()
	stopped := c.cmd != cmd
	if !stopped {
		c.cmd = nil
	}
	c.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if stopped {
		return ErrStopped
	}
	if err != nil {
		return fmt.Errorf("synthesizer %s: %w", c.name, err)
	}
	return nil
}

// Stop kills the running command, if any.
func (c *CommandSynthesizer) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	err := c.cmd.Process.Kill()
	c.cmd = nil
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop synthesizer: %w", err)
	}
	return nil
}

// IsSpeaking reports whether the command is still running.
func (c *CommandSynthesizer) IsSpeaking(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmd != nil, nil
}

// Health reports whether the TTS binary can be found.
func (c *CommandSynthesizer) Health() HealthStatus {
	path, err := exec.LookPath(c.name)
	if err != nil {
		return HealthStatus{Healthy: false, Message: err.Error()}
	}
	return HealthStatus{Healthy: true, Message: "synthesizer " + path}
}
