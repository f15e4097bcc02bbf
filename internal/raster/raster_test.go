package raster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mangarecap/internal/config"
	"mangarecap/internal/services"
	"mangarecap/internal/testsupport"
)

func TestSortPages(t *testing.T) {
	paths := []string{"p/page-10.png", "p/page-2.png", "p/cover.png", "p/page-01.png", "p/a.png"}
	SortPages(paths)
	want := []string{"p/page-01.png", "p/page-2.png", "p/page-10.png", "p/a.png", "p/cover.png"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("SortPages = %v, want %v", paths, want)
	}
}

func TestTrailingNumberASCIIOnly(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"page-12.png", 12, true},
		{"page-１２.png", 0, false},
		{"vol3-p１２.png", 3, true},
		{"p٣.png", 0, false},
		{"页7.jpg", 7, true},
	}
	for _, tt := range tests {
		got, ok := trailingNumber(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("trailingNumber(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestImageSourceDirectory(t *testing.T) {
	in := t.TempDir()
	for _, name := range []string{"003.png", "001.jpg", "002.PNG", "notes.txt"} {
		testsupport.WriteFile(t, filepath.Join(in, name), []byte(name))
	}
	out := t.TempDir()

	pages, err := ImageSource{}.Rasterize(context.Background(), in, out, 2)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected max 2 pages, got %v", pages)
	}
	if filepath.Base(pages[0]) != "page-0001.jpg" || filepath.Base(pages[1]) != "page-0002.png" {
		t.Fatalf("unexpected page names %v", pages)
	}
	data, err := os.ReadFile(pages[1])
	if err != nil || string(data) != "002.PNG" {
		t.Fatalf("page 2 should be a copy of 002.PNG, got %q err=%v", data, err)
	}
}

func TestImageSourceSingleFile(t *testing.T) {
	in := filepath.Join(t.TempDir(), "page.png")
	testsupport.WriteFile(t, in, []byte("x"))
	pages, err := ImageSource{}.Rasterize(context.Background(), in, t.TempDir(), 50)
	if err != nil || len(pages) != 1 {
		t.Fatalf("expected one page, got %v err=%v", pages, err)
	}
}

func TestForInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	pdf := filepath.Join(dir, "chapter.pdf")
	testsupport.WriteFile(t, pdf, []byte("%PDF-1.4"))

	r, err := ForInput(cfg, pdf)
	if err != nil || r.Name() != "pdftoppm" {
		t.Fatalf("expected pdftoppm for PDF, got %v err=%v", r, err)
	}
	r, err = ForInput(cfg, dir)
	if err != nil || r.Name() != "images" {
		t.Fatalf("expected images for directory, got %v err=%v", r, err)
	}
	if _, err := ForInput(cfg, filepath.Join(dir, "absent.pdf")); !services.IsFatal(err) {
		t.Fatalf("expected fatal error for missing input, got %v", err)
	}
}

func newStubbedRasterizer(t *testing.T) (*PDFRasterizer, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubBinary("pdftoppm", "exit 0", func(cfg *config.Config, path string) {
		cfg.Raster.Binary = path
	}))
	return NewPDFRasterizer(cfg), cfg
}

func TestPDFRasterizerOrdersPages(t *testing.T) {
	r, cfg := newStubbedRasterizer(t)
	out := t.TempDir()
	var gotArgs []string
	r.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != cfg.Raster.Binary {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		for _, n := range []string{"page-10.png", "page-02.png", "page-01.png"} {
			testsupport.WriteFile(t, filepath.Join(out, n), []byte("png"))
		}
		return nil
	})

	pages, err := r.Rasterize(context.Background(), "chapter.pdf", out, 3)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	var names []string
	for _, p := range pages {
		names = append(names, filepath.Base(p))
	}
	if !reflect.DeepEqual(names, []string{"page-01.png", "page-02.png", "page-10.png"}) {
		t.Fatalf("unexpected order %v", names)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.HasPrefix(joined, "-r 150 -png -f 1 -l 3 chapter.pdf ") {
		t.Fatalf("unexpected args %q", joined)
	}
}

func TestPDFRasterizerFailureIsFatal(t *testing.T) {
	r, _ := newStubbedRasterizer(t)
	r.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("Syntax Error: Couldn't read xref table")
	})
	_, err := r.Rasterize(context.Background(), "broken.pdf", t.TempDir(), 0)
	if !services.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestPDFRasterizerMissingBinary(t *testing.T) {
	r := NewPDFRasterizer(testsupport.NewConfig(t))
	_, err := r.Rasterize(context.Background(), "chapter.pdf", t.TempDir(), 0)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
