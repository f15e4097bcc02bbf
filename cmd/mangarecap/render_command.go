package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mangarecap/internal/config"
	"mangarecap/internal/logging"
	"mangarecap/internal/pipeline"
	"mangarecap/internal/preflight"
	"mangarecap/internal/voice"
	"mangarecap/internal/workspace"
)

// staleWorkspaceAge is how old an abandoned run directory must be before a
// new render removes it.
const staleWorkspaceAge = 24 * time.Hour

type renderFlags struct {
	input      string
	output     string
	title      string
	maxPages   int
	duration   float64
	resolution string
	engine     string
	ocrLang    string
	noOCR      bool
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a narrated video recap of a manga PDF or image folder",
		Example: `  mangarecap render --input chapter.pdf --output recap.mp4
  mangarecap render -i chapter.pdf -o recap.mp4 --title "One Piece 1090" --resolution 720p
  mangarecap render -i pages/ -o recap.mp4 --ocr-lang eng+jpn --tts-engine espeak`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			return runRender(cmd, cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "Manga PDF, page image, or folder of page images")
	f.StringVarP(&flags.output, "output", "o", "", "Output video path (mp4)")
	f.StringVarP(&flags.title, "title", "t", "", "Video title (default from config: \"Manga Recap\")")
	f.IntVarP(&flags.maxPages, "max-pages", "m", 0, "Maximum pages to process (default from config: 50)")
	f.Float64VarP(&flags.duration, "duration", "d", 0, "Seconds per page scene (default from config: 5)")
	f.StringVar(&flags.resolution, "resolution", "", "Output resolution: "+strings.Join(config.ResolutionNames(), ", "))
	f.StringVar(&flags.engine, "tts-engine", "", "Preferred speech engine: piper, system (pyttsx3), espeak")
	f.StringVar(&flags.ocrLang, "ocr-lang", "", "OCR language codes, e.g. eng or eng+jpn")
	f.BoolVar(&flags.noOCR, "no-ocr", false, "Skip text recognition; narration keeps only the opening and closing")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// apply folds command-line overrides into cfg and revalidates it.
func (f *renderFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("resolution") {
		cfg.Render.Resolution = f.resolution
	}
	if changed("tts-engine") {
		state, ok := voice.ParseState(f.engine)
		if !ok || state == voice.StateSilent {
			return fmt.Errorf("invalid --tts-engine %q (use piper, system, or espeak)", f.engine)
		}
		cfg.Voice.Engine = state.String()
	}
	if changed("ocr-lang") {
		cfg.OCR.Languages = f.ocrLang
	}
	if f.noOCR {
		cfg.OCR.Enabled = false
	}
	if changed("duration") {
		if f.duration <= 0 {
			return fmt.Errorf("invalid --duration %v (must be positive)", f.duration)
		}
		cfg.Render.SceneDuration = f.duration
	}
	if changed("max-pages") {
		if f.maxPages <= 0 {
			return fmt.Errorf("invalid --max-pages %d (must be positive)", f.maxPages)
		}
		cfg.Render.MaxPages = f.maxPages
	}
	if changed("title") {
		cfg.Render.Title = f.title
	}
	if err := cfg.Finalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func runRender(cmd *cobra.Command, cfg *config.Config, flags renderFlags) error {
	input, err := config.ExpandPath(strings.TrimSpace(flags.input))
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}
	output, err := config.ExpandPath(strings.TrimSpace(flags.output))
	if err != nil {
		return fmt.Errorf("resolve output: %w", err)
	}
	if err := preflight.ValidateInput(input); err != nil {
		return err
	}
	if err := preflight.ValidateOutput(output); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	lock, err := workspace.LockOutput(output)
	if err != nil {
		if errors.Is(err, workspace.ErrOutputBusy) {
			return fmt.Errorf("another render is already writing %s", output)
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if res := workspace.CleanStale(runCtx, preflight.WorkParent(cfg), staleWorkspaceAge, logger); len(res.Removed) > 0 {
		logger.Info("removed stale work directories", logging.Int("count", len(res.Removed)))
	}

	summary, err := pipeline.New(cfg, logger).Run(runCtx, pipeline.Options{
		Input:         input,
		Output:        output,
		Title:         cfg.Render.Title,
		MaxPages:      cfg.Render.MaxPages,
		SceneDuration: time.Duration(cfg.Render.SceneDuration * float64(time.Second)),
		ShowProgress:  logging.StderrIsTerminal(),
	})
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

func printSummary(out io.Writer, s pipeline.Summary) {
	pages := fmt.Sprintf("%d", s.Pages)
	if s.PagesDegraded > 0 {
		pages += fmt.Sprintf(" (%d without text)", s.PagesDegraded)
	}
	scenes := fmt.Sprintf("%d", s.Scenes)
	if s.ScenesSkipped > 0 {
		scenes += fmt.Sprintf(" (%d skipped)", s.ScenesSkipped)
	}
	narration := fmt.Sprintf("%s, %s", s.Engine, formatDuration(s.Narration))
	if s.Engine == voice.StateSilent {
		narration += " of silence"
	}

	fmt.Fprintln(out, "Recap complete")
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Output", s.Output},
		{"Size", humanize.Bytes(uint64(max(s.OutputBytes, 0)))},
		{"Length", formatDuration(s.Video)},
		{"Pages", pages},
		{"Panels", fmt.Sprintf("%d (%d with text)", s.Panels, s.PanelsRead)},
		{"Scenes", scenes},
		{"Narration", narration},
		{"Audio track", yesNo(!s.Silent)},
		{"Elapsed", formatDuration(s.Elapsed)},
		{"Run ID", s.RunID},
	}))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(100 * time.Millisecond).String()
}
