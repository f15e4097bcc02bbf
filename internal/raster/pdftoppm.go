package raster

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mangarecap/internal/config"
	"mangarecap/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// PDFRasterizer shells out to pdftoppm.
type PDFRasterizer struct {
	binary  string
	dpi     int
	timeout time.Duration
	run     commandRunner
}

// NewPDFRasterizer builds a pdftoppm rasterizer from the [raster] section.
func NewPDFRasterizer(cfg *config.Config) *PDFRasterizer {
	return &PDFRasterizer{
		binary:  cfg.Raster.Binary,
		dpi:     cfg.Raster.DPI,
		timeout: config.Timeout(cfg.Timeouts.Raster),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *PDFRasterizer) WithCommandRunner(run commandRunner) {
	if r != nil && run != nil {
		r.run = run
	}
}

func (r *PDFRasterizer) Name() string { return "pdftoppm" }

// Available reports whether the pdftoppm binary resolves.
func (r *PDFRasterizer) Available() error {
	if err := lookPath(r.binary); err != nil {
		return services.Wrap(services.ErrNotFound, "raster", "probe", "pdftoppm is required for PDF input (install poppler-utils)", err)
	}
	return nil
}

// Rasterize renders pages 1..maxPages as PNG files named page-N.png.
func (r *PDFRasterizer) Rasterize(ctx context.Context, input, outDir string, maxPages int) ([]string, error) {
	if err := r.Available(); err != nil {
		return nil, err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.run(ctx, r.binary, r.args(input, outDir, maxPages)...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "raster", "pdftoppm", fmt.Sprintf("exceeded %s", r.timeout), err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Fatal("raster", "pdftoppm", "input is not a readable PDF", err)
	}

	pages, err := listPages(outDir)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "raster", "list pages", outDir, err)
	}
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	return pages, nil
}

func (r *PDFRasterizer) args(input, outDir string, maxPages int) []string {
	args := []string{"-r", strconv.Itoa(r.dpi), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(maxPages))
	}
	return append(args, input, filepath.Join(outDir, "page"))
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
