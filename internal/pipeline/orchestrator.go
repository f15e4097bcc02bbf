package pipeline

import (
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mangarecap/internal/config"
	"mangarecap/internal/encoding"
	"mangarecap/internal/language"
	"mangarecap/internal/logging"
	"mangarecap/internal/ocr"
	"mangarecap/internal/panels"
	"mangarecap/internal/preflight"
	"mangarecap/internal/raster"
	"mangarecap/internal/services"
	"mangarecap/internal/voice"
	"mangarecap/internal/workspace"
)

// PanelDetector segments a page image file into reading-ordered panels.
type PanelDetector interface {
	DetectFile(path string, pageIndex int) (image.Image, []panels.Panel)
}

// Synthesizer speaks the narration. It must always return a usable asset.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, path string, preferred voice.State) voice.Asset
}

// RasterizerFunc picks the rasterizer for an input path.
type RasterizerFunc func(cfg *config.Config, input string) (raster.Rasterizer, error)

// Orchestrator runs recaps with one set of collaborators.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger

	rasterizerFor RasterizerFunc
	detector      PanelDetector
	recognizer    ocr.Recognizer
	synthesizer   Synthesizer
	compositor    encoding.Compositor
}

// Option replaces a collaborator, mostly for tests.
type Option func(*Orchestrator)

// WithRasterizer always uses r regardless of the input type.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(o *Orchestrator) {
		o.rasterizerFor = func(*config.Config, string) (raster.Rasterizer, error) { return r, nil }
	}
}

// WithDetector swaps the panel detector.
func WithDetector(d PanelDetector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithRecognizer swaps the OCR engine.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(o *Orchestrator) { o.recognizer = r }
}

// WithSynthesizer swaps the speech cascade.
func WithSynthesizer(s Synthesizer) Option {
	return func(o *Orchestrator) { o.synthesizer = s }
}

// WithCompositor swaps the encoder.
func WithCompositor(c encoding.Compositor) Option {
	return func(o *Orchestrator) { o.compositor = c }
}

// New builds an orchestrator whose collaborators come from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "pipeline"),
		rasterizerFor: raster.ForInput,
		detector:      panels.NewDetector(panels.OptionsFromConfig(cfg)),
		recognizer:    ocr.New(cfg),
		synthesizer:   voice.New(cfg, language.Primary(cfg.OCR.Languages), logger),
		compositor:    encoding.NewFFmpeg(cfg, logger),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run produces one recap video. The returned error is fatal for the run;
// recoverable failures only show up in logs and the summary counters.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	started := time.Now()
	opts = opts.withDefaults(o.cfg)

	if err := preflight.ValidateInput(opts.Input); err != nil {
		return Summary{}, err
	}
	if err := preflight.ValidateOutput(opts.Output); err != nil {
		return Summary{}, err
	}
	if err := o.compositor.Available(); err != nil {
		return Summary{}, services.Fatal("encode", "probe", "video encoder unavailable", err)
	}

	ws, err := workspace.Acquire(preflight.WorkParent(o.cfg), o.logger)
	if err != nil {
		return Summary{}, services.Fatal("workspace", "acquire", "create work directory", err)
	}
	defer func() { _ = ws.Cleanup() }()

	ctx = services.WithRunID(ctx, ws.RunID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("recap started",
		logging.String("input", opts.Input),
		logging.String("output", opts.Output),
		logging.String("title", opts.Title),
		logging.Int("max_pages", opts.MaxPages),
		logging.Duration("scene_duration", opts.SceneDuration),
		logging.String("preferred_engine", opts.Engine.String()),
		logging.String("ocr_language", language.DisplayName(language.Primary(o.cfg.OCR.Languages))),
	)

	summary := Summary{RunID: ws.RunID, Output: opts.Output}
	r := &run{o: o, opts: opts, ws: ws, summary: &summary}

	pages, err := r.rasterize(ctx)
	if err != nil {
		return summary, err
	}
	found, err := r.readPages(ctx, pages)
	if err != nil {
		return summary, err
	}
	asset := r.narrate(ctx, found)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	segments, err := r.render(ctx, pages, found, asset.Duration)
	if err != nil {
		return summary, err
	}
	if err := r.assemble(ctx, segments, asset); err != nil {
		return summary, err
	}

	summary.Elapsed = time.Since(started)
	logger.Info("recap complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", summary.Output),
		logging.Int("pages", summary.Pages),
		logging.Int("panels", summary.Panels),
		logging.Int("scenes", summary.Scenes),
		logging.String("engine", summary.Engine.String()),
		logging.Bool("silent", summary.Silent),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// run carries the state of one Run call.
type run struct {
	o       *Orchestrator
	opts    Options
	ws      *workspace.Workspace
	summary *Summary
}

// stage annotates ctx with name, logs the start, and returns a func that
// logs completion with the supplied attrs.
func (r *run) stage(ctx context.Context, name string) (context.Context, *slog.Logger, func(...logging.Attr)) {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.o.logger)
	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	return stageCtx, logger, func(attrs ...logging.Attr) {
		attrs = append(attrs,
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", time.Since(started)),
		)
		logger.Info("stage completed", logging.Args(attrs...)...)
	}
}

func outputSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func narrationPath(ws *workspace.Workspace) string {
	return filepath.Join(ws.Audio, "narration.wav")
}
