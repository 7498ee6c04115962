package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrivoice/packages/go/backend/di"
	"agrivoice/packages/go/backend/generation"
	"agrivoice/packages/go/backend/i18n"
	"agrivoice/packages/go/backend/media"
	"agrivoice/packages/go/backend/pipeline"
	"agrivoice/packages/go/backend/storage"
)

// testFactory shares one preference store across invocations so remembered
// settings survive like they do with a real database.
func testFactory(prefs storage.Store, extra ...di.ContainerOption) containerFactory {
	return func(ctx context.Context, flags globalFlags, opts ...di.ContainerOption) (*di.Container, error) {
		all := append([]di.ContainerOption{di.WithPreferences(prefs)}, extra...)
		return di.NewTestContainer(append(all, opts...)...)
	}
}

func execute(t *testing.T, factory containerFactory, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand(factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLanguagesMarksCurrent(t *testing.T) {
	t.Parallel()

	out, err := execute(t, testFactory(storage.NewMemoryStore()), "languages")
	require.NoError(t, err)

	assert.Contains(t, out, "* en")
	assert.Contains(t, out, "  hi")
	assert.Contains(t, out, "  pa")
}

func TestLanguageIsRemembered(t *testing.T) {
	t.Parallel()

	factory := testFactory(storage.NewMemoryStore())

	out, err := execute(t, factory, "language", "pa")
	require.NoError(t, err)
	assert.Contains(t, out, "pa")

	out, err = execute(t, factory, "language")
	require.NoError(t, err)
	assert.Contains(t, out, "pa (")
}

func TestLanguageRejectsUnsupported(t *testing.T) {
	t.Parallel()

	_, err := execute(t, testFactory(storage.NewMemoryStore()), "language", "fr")

	var unsupported *i18n.UnsupportedLanguageError
	assert.ErrorAs(t, err, &unsupported)
}

func TestTranslateWithParams(t *testing.T) {
	t.Parallel()

	out, err := execute(t, testFactory(storage.NewMemoryStore()), "translate", "home.greeting", "name=Gurpreet")
	require.NoError(t, err)
	assert.Equal(t, "Namaste, Gurpreet!\n", out)

	_, err = execute(t, testFactory(storage.NewMemoryStore()), "translate", "home.greeting", "broken")
	assert.Error(t, err)
}

func TestTranslateHonoursLangFlag(t *testing.T) {
	t.Parallel()

	prefs := storage.NewMemoryStore()
	out, err := execute(t, testFactory(prefs), "--lang", "hi", "translate", "voice.errors.permission")
	require.NoError(t, err)
	assert.NotEqual(t, "voice.errors.permission\n", out)
	assert.NotContains(t, out, "Microphone access")

	value, err := prefs.Get(context.Background(), i18n.LanguageStorageKey)
	require.NoError(t, err)
	assert.Equal(t, "hi", value)
}

func TestAskPrintsAnswer(t *testing.T) {
	t.Parallel()

	out, err := execute(t, testFactory(storage.NewMemoryStore()), "ask", "what", "about", "wheat?")
	require.NoError(t, err)

	assert.Contains(t, out, "You asked: what about wheat?")
	assert.Contains(t, out, "For wheat")
}

func TestAskFallsBackOffline(t *testing.T) {
	t.Parallel()

	gen := generation.NewStubGenerator(&generation.StubGeneratorConfig{Err: errors.New("offline")})
	factory := testFactory(storage.NewMemoryStore(), di.WithGenerator(gen), di.WithRetryPolicy(noWaitPolicy()))

	out, err := execute(t, factory, "ask", "my crop has a fungus")
	require.NoError(t, err)

	assert.Contains(t, out, "Remove and destroy infected leaves")
	assert.Contains(t, out, "You are offline.")
}

func TestListenReplaysAudioFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "question.wav")
	require.NoError(t, os.WriteFile(path, make([]byte, 1600), 0o600))

	out, err := execute(t, testFactory(storage.NewMemoryStore()), "listen", "--audio", path)
	require.NoError(t, err)
	assert.Contains(t, out, "You asked: What fertilizer should I use for wheat?")
}

func TestListenReportsMissingMicrophone(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.wav")
	out, err := execute(t, testFactory(storage.NewMemoryStore()), "listen", "--audio", missing)

	require.Error(t, err)
	assert.Contains(t, out, "The microphone is not available right now.")
}

func TestListenPermissionDenied(t *testing.T) {
	t.Parallel()

	mic := media.NewStubMicrophone(&media.StubMicrophoneConfig{DenyPermission: true})
	out, err := execute(t, testFactory(storage.NewMemoryStore(), di.WithMicrophone(mic)), "listen")

	require.Error(t, err)
	assert.Contains(t, out, "Microphone access is needed")
}

func TestSpeakRequiresText(t *testing.T) {
	t.Parallel()

	_, err := execute(t, testFactory(storage.NewMemoryStore()), "speak")
	assert.Error(t, err)

	_, err = execute(t, testFactory(storage.NewMemoryStore()), "speak", "Sow", "now")
	assert.NoError(t, err)
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	params, err := parseParams([]string{"name=Ravi", "crop=rice=paddy"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ravi", "crop": "rice=paddy"}, params)

	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}

func noWaitPolicy() pipeline.RetryPolicy {
	return pipeline.RetryPolicy{
		MaxAttempts: 2,
		Backoff:     func(int) time.Duration { return 0 },
	}
}
