package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"slices"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"mangarecap/internal/config"
	"mangarecap/internal/language"
	"mangarecap/internal/services"
)

// Recognizer extracts plain text from one image.
type Recognizer interface {
	Name() string
	Available() error
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// New returns the recognizer described by cfg: tesseract when OCR is
// enabled, Nop otherwise.
func New(cfg *config.Config) Recognizer {
	if !cfg.OCR.Enabled {
		return Nop{}
	}
	return NewTesseract(cfg)
}

// Nop recognizes nothing.
type Nop struct{}

func (Nop) Name() string { return "none" }

func (Nop) Available() error { return nil }

func (Nop) Recognize(context.Context, image.Image) (string, error) { return "", nil }

// Tesseract recognizes text with libtesseract.
type Tesseract struct {
	languages     []string
	pageSegMode   int
	timeout       time.Duration
	clientFactory func() *gosseract.Client
	available     func() ([]string, error)
}

// NewTesseract builds a tesseract recognizer from the [ocr] section.
func NewTesseract(cfg *config.Config) *Tesseract {
	return &Tesseract{
		languages:     language.Split(cfg.OCR.Languages),
		pageSegMode:   cfg.OCR.PageSegMode,
		timeout:       config.Timeout(cfg.Timeouts.OCR),
		clientFactory: gosseract.NewClient,
		available:     gosseract.GetAvailableLanguages,
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Available checks that trained data exists for every configured language.
func (t *Tesseract) Available() error {
	installed, err := t.available()
	if err != nil {
		return services.Wrap(services.ErrNotFound, "ocr", "probe", "tesseract data not found (set TESSDATA_PREFIX)", err)
	}
	var missing []string
	for _, lang := range t.languages {
		if !slices.Contains(installed, lang) {
			missing = append(missing, lang)
		}
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrNotFound, "ocr", "probe", "missing trained data: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

type recognition struct {
	text string
	err  error
}

// Recognize binarizes img and runs tesseract on it. Recognition runs on its
// own goroutine so the configured timeout and ctx cancellation return
// promptly; libtesseract itself cannot be interrupted and finishes in the
// background.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Binarize(img)); err != nil {
		return "", services.Wrap(services.ErrValidation, "ocr", "encode", "panel image", err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	done := make(chan recognition, 1)
	go func() {
		text, err := t.recognize(buf.Bytes())
		done <- recognition{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", services.Wrap(services.ErrExternalTool, "ocr", "recognize", "tesseract", res.err)
		}
		return strings.TrimSpace(res.text), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "ocr", "recognize", fmt.Sprintf("exceeded %s", t.timeout), ctx.Err())
		}
		return "", ctx.Err()
	}
}

func (t *Tesseract) recognize(data []byte) (string, error) {
	c := t.clientFactory()
	defer c.Close()

	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if t.pageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(t.pageSegMode)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
