package app

import (
	"context"
	"fmt"

	"github.com/kbukum/vidscribe/api"
	"github.com/kbukum/vidscribe/bootstrap"
	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/encryption"
	"github.com/kbukum/vidscribe/live"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/media"
	"github.com/kbukum/vidscribe/notify"
	"github.com/kbukum/vidscribe/observability"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/server"
	"github.com/kbukum/vidscribe/storage"
	"github.com/kbukum/vidscribe/storage/local"
	"github.com/kbukum/vidscribe/transcription"
	"github.com/kbukum/vidscribe/util"

	// Storage and transcription backends register their factories.
	_ "github.com/kbukum/vidscribe/storage/memory"
	_ "github.com/kbukum/vidscribe/storage/s3"
	_ "github.com/kbukum/vidscribe/transcription/placeholder"
	_ "github.com/kbukum/vidscribe/transcription/whisper"
)

// Option configures Build.
type Option func(*options)

type options struct {
	withoutHTTP bool
	publishers  []pipeline.Publisher
}

// WithoutHTTP skips the HTTP server, for running uploads from the CLI.
func WithoutHTTP() Option {
	return func(o *options) { o.withoutHTTP = true }
}

// WithPublisher receives every progress message in addition to the hub.
func WithPublisher(p pipeline.Publisher) Option {
	return func(o *options) { o.publishers = append(o.publishers, p) }
}

// Service holds the wired components of one vidscribe process.
type Service struct {
	Telemetry  *observability.Telemetry
	Hub        *notify.Hub
	Workspace  *local.Storage
	Runner     *pipeline.Runner
	Dispatcher *pipeline.Dispatcher
	Server     *server.ServerComponent

	cfg        *Config
	log        *logger.Logger
	components []component.Component
	cancel     context.CancelFunc
}

// Build constructs every component from cfg. Nothing is started; call
// Register to hand the components to a bootstrap.App.
func Build(cfg *Config, log *logger.Logger, opts ...Option) (*Service, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Service{cfg: cfg, log: log.WithComponent("app")}

	tel, err := observability.NewTelemetry(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	s.Telemetry = tel
	s.add(tel)

	s.Hub = notify.NewHub(
		notify.WithQueueSize(cfg.Live.QueueSize),
		notify.WithMetrics(tel.Metrics()),
	)
	s.add(notify.NewComponent(s.Hub))

	s.Workspace, err = local.NewStorage(cfg.Pipeline.WorkspaceDir)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithStageTimeout(cfg.Pipeline.StageTimeout),
		pipeline.WithRunnerMetrics(tel.Metrics()),
	}
	if cfg.Archive.Enabled {
		archive := storage.NewComponent("archive-storage", cfg.Storage, nil, log)
		s.add(archive)
		hook := pipeline.NewArchiveTranscript(archive, cfg.Archive.Prefix)
		if cfg.Archive.EncryptionKey != "" {
			alg := util.Coalesce(cfg.Archive.Algorithm, string(encryption.AlgorithmAESGCM))
			enc, err := encryption.New(cfg.Archive.EncryptionKey,
				encryption.WithAlgorithm(encryption.Algorithm(alg)))
			if err != nil {
				return nil, fmt.Errorf("archive: %w", err)
			}
			hook.Sealer = enc
			s.log.Info("Archived transcripts are sealed", logger.Fields(
				"algorithm", alg,
				"key", util.MaskSecret(cfg.Archive.EncryptionKey, 2),
			))
		}
		runnerOpts = append(runnerOpts, pipeline.WithTrailingSteps(hook))
	}

	extractor := media.NewExtractor(cfg.Media, nil)
	s.add(media.NewComponent(extractor))

	provider, err := transcription.New(cfg.Transcription)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	transcriber := transcription.NewTranscriber(provider, cfg.Transcription)
	s.add(transcription.NewComponent(transcriber))

	var publisher pipeline.Publisher = pipeline.NewHubPublisher(s.Hub, cfg.Pipeline.Topic)
	if len(o.publishers) > 0 {
		publisher = append(pipeline.MultiPublisher{publisher}, o.publishers...)
	}
	s.Runner = pipeline.NewRunner(s.Workspace, extractor, transcriber, publisher, runnerOpts...)

	s.Dispatcher = pipeline.NewDispatcher(s.Runner,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithQueueSize(cfg.Pipeline.QueueSize),
	)
	s.add(s.Dispatcher)

	if !o.withoutHTTP {
		s.buildServer(log)
	}
	return s, nil
}

func (s *Service) buildServer(log *logger.Logger) {
	// Ends the upload rate limiter's pruning when the service stops.
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	srv := server.New(s.cfg.Server, log)
	sc := server.NewComponent(srv)
	srv.ApplyDefaults(s.cfg.Name, s.health)
	api.Register(ctx, srv, api.NewHandler(s.Dispatcher), live.NewHandler(s.Hub, s.cfg.Live), s.cfg.Server.UploadRateLimit, sc)

	s.Server = sc
	s.add(sc)
}

func (s *Service) add(c component.Component) {
	s.components = append(s.components, c)
}

// Components returns the components in start order.
func (s *Service) Components() []component.Component {
	return append([]component.Component(nil), s.components...)
}

func (s *Service) health(ctx context.Context) []component.Health {
	out := make([]component.Health, 0, len(s.components))
	for _, c := range s.components {
		out = append(out, c.Health(ctx))
	}
	return out
}

// Register hands the components to a and installs the lifecycle hooks:
// the stale workspace sweep at start and ending live sessions before the
// server drains.
func (s *Service) Register(a *bootstrap.App[*Config]) error {
	for _, c := range s.components {
		if err := a.RegisterComponent(c); err != nil {
			return err
		}
	}

	a.OnStart(s.sweepWorkspace)
	a.OnStop(func(context.Context) error {
		// Live sessions hold their requests open until the hub closes them.
		s.Hub.Stop()
		if s.cancel != nil {
			s.cancel()
		}
		return nil
	})
	return nil
}

func (s *Service) sweepWorkspace(ctx context.Context) error {
	if s.cfg.Pipeline.SweepAge <= 0 {
		return nil
	}
	removed, err := pipeline.SweepStale(ctx, s.Workspace, s.cfg.Pipeline.SweepAge)
	if err != nil {
		// A partial sweep does not prevent serving.
		s.log.Warn("Workspace sweep incomplete", logger.Fields(
			logger.FieldError, err.Error(),
			"removed", removed,
		))
	}
	return nil
}
