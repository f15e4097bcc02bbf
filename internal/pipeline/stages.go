package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mangarecap/internal/encoding"
	"mangarecap/internal/language"
	"mangarecap/internal/logging"
	"mangarecap/internal/narration"
	"mangarecap/internal/panels"
	"mangarecap/internal/scene"
	"mangarecap/internal/services"
	"mangarecap/internal/voice"
)

const progressEvery = 10

func (r *run) rasterize(ctx context.Context) ([]string, error) {
	ctx, _, done := r.stage(ctx, "rasterize")

	rast, err := r.o.rasterizerFor(r.o.cfg, r.opts.Input)
	if err != nil {
		return nil, unreadable("select rasterizer", err)
	}
	if err := rast.Available(); err != nil {
		return nil, services.Fatal("rasterize", "probe", rast.Name()+" is required to read "+filepath.Base(r.opts.Input), err)
	}
	pages, err := rast.Rasterize(ctx, r.opts.Input, r.ws.Pages, r.opts.MaxPages)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, unreadable(rast.Name(), err)
	}
	if len(pages) == 0 {
		return nil, services.Fatal("rasterize", "pages", "document produced no pages", nil)
	}
	if r.opts.MaxPages > 0 && len(pages) > r.opts.MaxPages {
		pages = pages[:r.opts.MaxPages]
	}
	r.summary.Pages = len(pages)
	done(logging.Int("pages", len(pages)), logging.String("rasterizer", rast.Name()))
	return pages, nil
}

func unreadable(op string, err error) error {
	if services.IsFatal(err) {
		return err
	}
	return services.Fatal("rasterize", op, "input could not be read", err)
}

// readPages detects, crops and reads every page. A page that fails at any
// step contributes no panels.
func (r *run) readPages(ctx context.Context, pages []string) ([]panels.Panel, error) {
	ctx, logger, done := r.stage(ctx, "panels")

	ocrReady := true
	if err := r.o.recognizer.Available(); err != nil {
		ocrReady = false
		logging.WarnDegraded(logger, "text recognition unavailable", "narration will carry no panel text", err,
			logging.String("ocr_language", language.DisplayName(language.Primary(r.o.cfg.OCR.Languages))),
			logging.String(logging.FieldErrorHint, "install tesseract language data or set ocr.enabled = false"),
		)
	}

	progress := logging.NewProgress(logger, "panels", len(pages), progressEvery, false)
	var all []panels.Panel
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageCtx := services.WithPage(ctx, i)
		found, err := r.readPage(pageCtx, page, i, ocrReady)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.summary.PagesDegraded++
			logging.WarnDegraded(logging.WithContext(pageCtx, r.o.logger), "page skipped", "page contributes no narration", err,
				logging.String("page_file", filepath.Base(page)),
			)
			found = nil
		}
		all = append(all, found...)
		progress.Step(logging.Int("panels", len(found)))
	}
	progress.Finish()

	for _, p := range all {
		if p.Text != "" {
			r.summary.PanelsRead++
		}
	}
	r.summary.Panels = len(all)
	done(
		logging.Int("pages", progress.Done()),
		logging.Int("panels", len(all)),
		logging.Int("panels_with_text", r.summary.PanelsRead),
		logging.Int("pages_degraded", r.summary.PagesDegraded),
	)
	return all, nil
}

func (r *run) readPage(ctx context.Context, path string, index int, ocrReady bool) ([]panels.Panel, error) {
	img, found := r.o.detector.DetectFile(path, index)
	if img == nil {
		return nil, services.Wrap(services.ErrValidation, "panels", "decode page", filepath.Base(path), nil)
	}
	if len(found) == 0 {
		return nil, nil
	}

	found = panels.Crop(img, found)
	if err := panels.SaveCrops(r.ws.Panels, found); err != nil {
		logging.WithContext(ctx, r.o.logger).Debug("panel crops not saved", logging.Error(err))
	}
	for i := range found {
		if ocrReady {
			text, err := r.o.recognizer.Recognize(ctx, found[i].Image)
			if err != nil {
				return nil, err
			}
			found[i].Text = text
		}
		// Crops live on disk from here on; holding every page in memory
		// until the end of the run is not needed.
		found[i].Image = nil
	}
	return found, nil
}

// narrate builds the script and synthesizes it. The synthesizer never fails,
// so neither does this stage.
func (r *run) narrate(ctx context.Context, found []panels.Panel) voice.Asset {
	ctx, logger, done := r.stage(ctx, "narration")

	script := narration.BuildScript(found, r.opts.Title)
	r.summary.ScriptChars = script.Len()
	logger.Debug("narration script built", logging.Int("chars", script.Len()))

	asset := r.o.synthesizer.Synthesize(ctx, script.String(), narrationPath(r.ws), r.opts.Engine)
	if d, err := r.o.compositor.AudioDuration(ctx, asset.Path); err == nil && d > 0 {
		asset.Duration = d
	} else if err != nil {
		logger.Debug("narration duration not probed", logging.Error(err), logging.Duration("estimate", asset.Duration))
	}

	r.summary.Engine = asset.Engine
	r.summary.Narration = asset.Duration
	done(
		logging.String(logging.FieldEngine, asset.Engine.String()),
		logging.Duration("narration", asset.Duration),
		logging.Int("script_chars", script.Len()),
	)
	return asset
}

// segment is one entry of the video timeline, built lazily so only one
// page's overscanned source is in memory at a time.
type segment struct {
	name  string
	page  int
	build func() (*scene.Clip, error)
}

// timeline lists the title card, one scene per page, and the outro card.
func (r *run) timeline(pages []string, found []panels.Panel) []segment {
	opts := scene.OptionsFromConfig(r.o.cfg)
	card := seconds(r.o.cfg.Render.CardDuration)
	texts := pageTexts(found, len(pages))

	segs := make([]segment, 0, len(pages)+2)
	segs = append(segs, segment{name: "title", page: -1, build: func() (*scene.Clip, error) {
		return scene.TitleCard(r.opts.Title, card, opts)
	}})
	for i, page := range pages {
		s := scene.Scene{
			ImagePath: page,
			Duration:  r.opts.SceneDuration,
			Text:      texts[i],
			Effect:    scene.EffectKenBurns,
			Pan:       scene.PanFor(i),
		}
		segs = append(segs, segment{name: "page", page: i, build: func() (*scene.Clip, error) {
			return scene.LoadClip(s, opts)
		}})
	}
	segs = append(segs, segment{name: "outro", page: -1, build: func() (*scene.Clip, error) {
		return scene.OutroCard(card, opts)
	}})
	return segs
}

// render builds and encodes every segment in order. Segments that fail are
// skipped. The last segment is stretched when the narration outlasts the
// visuals encoded before it.
func (r *run) render(ctx context.Context, pages []string, found []panels.Panel, narrationLength time.Duration) ([]string, error) {
	ctx, logger, done := r.stage(ctx, "render")

	segs := r.timeline(pages, found)
	progress := logging.NewProgress(logger, "render", len(segs), progressEvery, r.opts.ShowProgress)
	defer progress.Finish()

	var (
		outputs []string
		total   time.Duration
		lastErr error
	)
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		segLogger := logger
		if seg.page >= 0 {
			segLogger = logging.WithContext(services.WithPage(ctx, seg.page), r.o.logger)
		}

		clip, err := seg.build()
		if err != nil {
			lastErr = err
			r.skipSegment(segLogger, seg, "render", err)
			progress.Step()
			continue
		}
		if i == len(segs)-1 && narrationLength > total+clip.Duration() {
			stretched := narrationLength - total
			segLogger.Info("outro extended to fit narration",
				logging.Duration("narration", narrationLength),
				logging.Duration("visuals", total+clip.Duration()),
				logging.Duration("outro", stretched),
			)
			clip = clip.Extend(stretched)
		}

		path := filepath.Join(r.ws.Clips, fmt.Sprintf("%04d.mp4", i))
		if err := r.o.compositor.EncodeClip(ctx, clip, path); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			r.skipSegment(segLogger, seg, "encode", err)
			progress.Step()
			continue
		}
		outputs = append(outputs, path)
		total += clip.Duration()
		if seg.page >= 0 {
			r.summary.Scenes++
		}
		progress.Step(logging.String("segment", seg.name))
	}

	if len(outputs) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "render", "clips", "no clip could be encoded", lastErr)
	}
	r.summary.Video = total
	done(
		logging.Int("segments", len(outputs)),
		logging.Int("scenes_skipped", r.summary.ScenesSkipped),
		logging.Duration("video", total),
	)
	return outputs, nil
}

func (r *run) skipSegment(logger *slog.Logger, seg segment, op string, err error) {
	if seg.page >= 0 {
		r.summary.ScenesSkipped++
	}
	logger.Warn(seg.name+" segment skipped",
		logging.String(logging.FieldEventType, "segment_skipped"),
		logging.String("operation", op),
		logging.String(logging.FieldImpact, "segment missing from the video"),
		logging.String("error_kind", services.Classify(err)),
		logging.Error(err),
	)
}

func (r *run) assemble(ctx context.Context, segments []string, asset voice.Asset) error {
	ctx, logger, done := r.stage(ctx, "assemble")

	audio := asset.Path
	if audio == "" {
		logging.WarnDegraded(logger, "no narration file", "video will be silent", nil)
	} else if _, err := os.Stat(audio); err != nil {
		logging.WarnDegraded(logger, "narration file missing", "video will be silent", err,
			logging.String("path", audio))
		audio = ""
	}

	result, err := r.o.compositor.Assemble(ctx, encoding.AssembleRequest{
		Segments: segments,
		Audio:    audio,
		Output:   r.opts.Output,
		ListPath: filepath.Join(r.ws.Clips, "segments.txt"),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	if result.AudioErr != nil {
		logger.Debug("narration dropped from output", logging.Error(result.AudioErr))
	}
	r.summary.Silent = result.Silent
	r.summary.OutputBytes = outputSize(result.Output)
	r.inspect(ctx, logger, result)
	done(
		logging.String("output", result.Output),
		logging.Bool("silent", result.Silent),
		logging.Int64("bytes", r.summary.OutputBytes),
	)
	return nil
}

// inspect replaces the computed length and audio flag with what ffprobe sees
// in the written file. A failed probe keeps the computed values.
func (r *run) inspect(ctx context.Context, logger *slog.Logger, result encoding.AssembleResult) {
	info, err := r.o.compositor.Inspect(ctx, result.Output)
	if err != nil {
		logger.Debug("output not inspected", logging.Error(err))
		return
	}
	if info.Duration > 0 {
		r.summary.Video = info.Duration
	}
	if info.SizeBytes > 0 {
		r.summary.OutputBytes = info.SizeBytes
	}
	if info.AudioTracks == 0 && !result.Silent {
		logging.WarnDegraded(logger, "output has no audio stream", "video is silent", nil,
			logging.String("output", result.Output))
	}
	r.summary.Silent = info.AudioTracks == 0
}

// pageTexts joins the cleaned panel text of each page.
func pageTexts(found []panels.Panel, pages int) []string {
	parts := make([][]string, pages)
	for _, p := range found {
		if p.PageIndex < 0 || p.PageIndex >= pages {
			continue
		}
		if text := narration.Clean(p.Text); text != "" {
			parts[p.PageIndex] = append(parts[p.PageIndex], text)
		}
	}
	texts := make([]string, pages)
	for i, words := range parts {
		texts[i] = strings.Join(words, " ")
	}
	return texts
}
