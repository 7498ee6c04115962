package di

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agrivoice/packages/go/backend/asr"
	"agrivoice/packages/go/backend/config"
	"agrivoice/packages/go/backend/generation"
	"agrivoice/packages/go/backend/i18n"
	"agrivoice/packages/go/backend/media"
	"agrivoice/packages/go/backend/pipeline"
	redispkg "agrivoice/packages/go/backend/redis"
	"agrivoice/packages/go/backend/session"
	"agrivoice/packages/go/backend/status"
	"agrivoice/packages/go/backend/storage"
	"agrivoice/packages/go/backend/tts"
)

// Container holds all service dependencies for the voice assistant.
// It enables dependency injection for both production and test environments.
type Container struct {
	Logger       *zap.SugaredLogger
	Preferences  storage.Store
	Localizer    *i18n.Localizer
	Sessions     *session.Store
	Microphone   media.Microphone
	Transcriber  asr.Transcriber
	Generator    generation.Generator
	Synthesizer  tts.Synthesizer
	Publisher    status.Publisher
	Subscriber   status.Subscriber
	Orchestrator *pipeline.Orchestrator

	retry   *pipeline.RetryPolicy
	closers []func() error
}

// ContainerOption configures a container during construction.
type ContainerOption func(*Container)

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.SugaredLogger) ContainerOption {
	return func(c *Container) { c.Logger = l }
}

// WithPreferences sets the durable preference store.
func WithPreferences(s storage.Store) ContainerOption {
	return func(c *Container) { c.Preferences = s }
}

// WithMicrophone sets the microphone implementation.
func WithMicrophone(m media.Microphone) ContainerOption {
	return func(c *Container) { c.Microphone = m }
}

// WithTranscriber sets the transcription implementation.
func WithTranscriber(t asr.Transcriber) ContainerOption {
	return func(c *Container) { c.Transcriber = t }
}

// WithGenerator sets the text generation implementation.
func WithGenerator(g generation.Generator) ContainerOption {
	return func(c *Container) { c.Generator = g }
}

// WithSynthesizer sets the TTS synthesizer implementation.
func WithSynthesizer(s tts.Synthesizer) ContainerOption {
	return func(c *Container) { c.Synthesizer = s }
}

// WithStatus sets the status publisher and subscriber.
func WithStatus(p status.Publisher, s status.Subscriber) ContainerOption {
	return func(c *Container) {
		c.Publisher = p
		c.Subscriber = s
	}
}

// WithRetryPolicy overrides the generation retry policy.
func WithRetryPolicy(p pipeline.RetryPolicy) ContainerOption {
	return func(c *Container) { c.retry = &p }
}

// NewTestContainer creates a container with all stub implementations
// for testing without external dependencies.
func NewTestContainer(opts ...ContainerOption) (*Container, error) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.GenAI.Driver = config.DriverStub

	hub := status.NewHub(64)
	base := []ContainerOption{
		WithLogger(zap.NewNop().Sugar()),
		WithPreferences(storage.NewMemoryStore()),
		WithMicrophone(media.NewStubMicrophone(nil)),
		WithTranscriber(asr.NewStubTranscriber(nil)),
		WithGenerator(generation.NewStubGenerator(nil)),
		WithSynthesizer(tts.NewStubSynthesizer(nil)),
		WithStatus(hub, hub),
	}
	return New(context.Background(), cfg, append(base, opts...)...)
}

// New builds every component not supplied by opts from cfg.
func New(ctx context.Context, cfg config.Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}

	if err := c.build(ctx, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) build(ctx context.Context, cfg config.Config) error {
	var redisClient *goredis.Client
	redisFor := func() (*goredis.Client, error) {
		if redisClient != nil {
			return redisClient, nil
		}
		client, err := redispkg.NewClient(cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		if err := redispkg.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		redisClient = client
		return client, nil
	}

	if c.Preferences == nil {
		switch cfg.Storage.Driver {
		case config.DriverSQLite:
			store, err := storage.OpenSQLite(ctx, cfg.Storage.DatabasePath)
			if err != nil {
				return err
			}
			c.closers = append(c.closers, store.Close)
			c.Preferences = store
		case config.DriverRedis:
			client, err := redisFor()
			if err != nil {
				return err
			}
			c.Preferences = storage.NewRedisStore(client, cfg.Redis.Prefix)
		default:
			c.Preferences = storage.NewMemoryStore()
		}
	}

	if c.Publisher == nil || c.Subscriber == nil {
		switch cfg.Status.Driver {
		case config.DriverRedis:
			client, err := redisFor()
			if err != nil {
				return err
			}
			c.Publisher = status.NewRedisStatusPublisher(client)
			c.Subscriber = status.NewRedisStatusSubscriber(client)
		default:
			hub := status.NewHub(64)
			c.Publisher = hub
			c.Subscriber = hub
		}
	}

	localizer, err := i18n.NewLocalizer(c.Preferences, c.Logger.Named("i18n"),
		i18n.WithOverrideDir(cfg.I18n.BundlesDir),
		i18n.WithInitialLanguage(i18n.LanguageCode(cfg.I18n.DefaultLanguage)),
	)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	if err := localizer.Restore(ctx); err != nil {
		return err
	}
	c.Localizer = localizer

	if err := c.buildGenAI(ctx, cfg); err != nil {
		return err
	}
	c.buildDevices(cfg)

	c.Sessions = session.NewStore(c.Logger.Named("session"))

	retry := pipeline.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.Voice.Retry.MaxAttempts
	if c.retry != nil {
		retry = *c.retry
	}

	c.Orchestrator, err = pipeline.NewOrchestrator(pipeline.Dependencies{
		Microphone:  c.Microphone,
		Transcriber: c.Transcriber,
		Generator:   c.Generator,
		Synthesizer: c.Synthesizer,
		Localizer:   c.Localizer,
		Store:       c.Sessions,
		Publisher:   c.Publisher,
		Logger:      c.Logger.Named("pipeline"),
	}, pipeline.WithRetryPolicy(retry))
	return err
}

func (c *Container) buildGenAI(ctx context.Context, cfg config.Config) error {
	if c.Generator != nil && c.Transcriber != nil {
		return nil
	}

	if cfg.GenAI.Driver != config.DriverGemini {
		if c.Generator == nil {
			c.Generator = generation.NewStubGenerator(nil)
		}
		if c.Transcriber == nil {
			c.Transcriber = asr.NewStubTranscriber(nil)
		}
		return nil
	}

	client, err := generation.NewGeminiClient(ctx, cfg.GenAI.APIKey)
	if err != nil {
		return err
	}
	if c.Generator == nil {
		var opts []generation.GeminiOption
		if cfg.GenAI.Temperature > 0 {
			opts = append(opts, generation.WithTemperature(cfg.GenAI.Temperature))
		}
		if cfg.GenAI.MaxOutputTokens > 0 {
			opts = append(opts, generation.WithMaxOutputTokens(cfg.GenAI.MaxOutputTokens))
		}
		c.Generator = generation.NewGeminiGenerator(client.Models, cfg.GenAI.Model, opts...)
	}
	if c.Transcriber == nil {
		c.Transcriber = asr.NewGeminiTranscriber(client.Models, cfg.GenAI.Model)
	}
	c.Logger.Infow("gemini collaborators enabled", "model", cfg.GenAI.Model)
	return nil
}

func (c *Container) buildDevices(cfg config.Config) {
	if c.Microphone == nil {
		mic := cfg.Voice.Microphone
		switch {
		case mic.Driver == config.DriverFile:
			c.Microphone = media.NewFileMicrophone(mic.File)
		case mic.Driver == config.DriverCommand && len(mic.Command) > 0:
			c.Microphone = media.NewCommandMicrophone(mic.Command[0], mic.Command[1:]...)
		default:
			c.Microphone = media.NewStubMicrophone(nil)
		}
	}

	if c.Synthesizer == nil {
		synth := cfg.Voice.Synthesizer
		switch {
		case synth.Driver == config.DriverCommand && len(synth.Command) > 0:
			c.Synthesizer = tts.NewCommandSynthesizer(synth.Command[0], synth.Command[1:]...).WithVoices(synth.Voices)
		default:
			c.Synthesizer = tts.NewStubSynthesizer(nil)
		}
	}
}

// Close releases every connection the container opened, in reverse order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
