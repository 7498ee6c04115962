package tts

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func TestCommandSynthesizer_RunsCommand(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true binary not available")
	}

	synthesizer := NewCommandSynthesizer("true", "-v", "{voice}", "{text}")
	if err := synthesizer.Speak(context.Background(), "hello", "en-IN"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	speaking, _ := synthesizer.IsSpeaking(context.Background())
	if speaking {
		t.Error("expected synthesizer to be idle after command exit")
	}
}

func TestCommandSynthesizer_Stop(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep binary not available")
	}

	synthesizer := NewCommandSynthesizer("sleep", "5")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- synthesizer.Speak(ctx, "ignored", "en-IN") }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if speaking, _ := synthesizer.IsSpeaking(ctx); speaking {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("command never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := synthesizer.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Speak did not return after Stop")
	}
}

func TestCommandSynthesizer_MissingBinary(t *testing.T) {
	synthesizer := NewCommandSynthesizer("definitely-not-a-tts-binary")
	if err := synthesizer.Speak(context.Background(), "x", "en-IN"); err == nil {
		t.Fatal("expected error for missing binary")
	}
	if synthesizer.Health().Healthy {
		t.Error("expected unhealthy status")
	}
}
