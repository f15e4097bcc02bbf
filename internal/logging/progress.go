package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// Progress reports unit-level progress inside a stage. Log lines are sampled
// (the first unit, then every Nth) so long documents do not flood the output.
// When a bar is requested the sampled lines drop to debug level and the bar
// carries the signal instead.
type Progress struct {
	logger  *slog.Logger
	label   string
	total   int
	done    int
	sampler rate.Sometimes
	bar     *progressbar.ProgressBar
}

// NewProgress constructs a reporter for total units. every <= 0 defaults to 10.
func NewProgress(logger *slog.Logger, label string, total, every int, showBar bool) *Progress {
	if logger == nil {
		logger = NewNop()
	}
	if every <= 0 {
		every = 10
	}
	p := &Progress{
		logger:  logger,
		label:   label,
		total:   total,
		sampler: rate.Sometimes{Every: every},
	}
	if showBar && total > 0 {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(label),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p
}

// Step records one finished unit.
func (p *Progress) Step(attrs ...Attr) {
	if p == nil {
		return
	}
	p.done++
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
	p.sampler.Do(func() {
		level := slog.LevelInfo
		if p.bar != nil {
			level = slog.LevelDebug
		}
		attrs = append(attrs, Int("done", p.done), Int("total", p.total))
		p.logger.Log(context.Background(), level, p.label+" progress", Args(attrs...)...)
	})
}

// Done returns the number of recorded units.
func (p *Progress) Done() int {
	if p == nil {
		return 0
	}
	return p.done
}

// Finish closes the bar, if any.
func (p *Progress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
