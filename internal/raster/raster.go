package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"mangarecap/internal/config"
	"mangarecap/internal/deps"
	"mangarecap/internal/fileutil"
	"mangarecap/internal/services"
)

// Rasterizer renders up to maxPages pages of input into outDir and returns
// the page image paths in document order.
type Rasterizer interface {
	Name() string
	Available() error
	Rasterize(ctx context.Context, input, outDir string, maxPages int) ([]string, error)
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// IsImage reports whether path has a supported page image extension.
func IsImage(path string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ForInput selects the rasterizer for input: a folder, an image, or a PDF.
func ForInput(cfg *config.Config, input string) (Rasterizer, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, services.Fatal("raster", "open input", input, err)
	}
	switch {
	case info.IsDir():
		return ImageSource{}, nil
	case IsImage(input):
		return ImageSource{}, nil
	default:
		return NewPDFRasterizer(cfg), nil
	}
}

// ImageSource reads a directory of page images or a single image file.
type ImageSource struct{}

func (ImageSource) Name() string { return "images" }

func (ImageSource) Available() error { return nil }

// Rasterize copies the page images into outDir so later stages never touch
// the caller's files.
func (ImageSource) Rasterize(ctx context.Context, input, outDir string, maxPages int) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, services.Fatal("raster", "open input", input, err)
	}

	var sources []string
	if info.IsDir() {
		entries, err := os.ReadDir(input)
		if err != nil {
			return nil, services.Fatal("raster", "read input directory", input, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && IsImage(entry.Name()) {
				sources = append(sources, filepath.Join(input, entry.Name()))
			}
		}
		SortPages(sources)
	} else {
		sources = []string{input}
	}
	if maxPages > 0 && len(sources) > maxPages {
		sources = sources[:maxPages]
	}

	pages := make([]string, 0, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dst := filepath.Join(outDir, fmt.Sprintf("page-%04d%s", i+1, strings.ToLower(filepath.Ext(src))))
		if err := fileutil.CopyFile(src, dst); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "raster", "copy page", filepath.Base(src), err)
		}
		pages = append(pages, dst)
	}
	return pages, nil
}

// SortPages orders file names by their last embedded number, then by name.
// "page-2.png" sorts before "page-10.png" regardless of zero padding.
func SortPages(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		ni, oki := trailingNumber(filepath.Base(paths[i]))
		nj, okj := trailingNumber(filepath.Base(paths[j]))
		if oki && okj && ni != nj {
			return ni < nj
		}
		if oki != okj {
			return oki
		}
		return paths[i] < paths[j]
	})
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

// trailingNumber returns the last run of ASCII digits in name, ignoring the
// extension. Other Unicode digits are treated as text.
func trailingNumber(name string) (int, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	end := strings.LastIndexFunc(name, isASCIIDigit)
	if end < 0 {
		return 0, false
	}
	start := end
	for start > 0 && isASCIIDigit(rune(name[start-1])) {
		start--
	}
	n, err := strconv.Atoi(name[start : end+1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// listPages returns the images in dir in page order.
func listPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var pages []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsImage(entry.Name()) {
			pages = append(pages, filepath.Join(dir, entry.Name()))
		}
	}
	SortPages(pages)
	return pages, nil
}

func lookPath(binary string) error {
	_, err := deps.Default().LookPath(binary)
	return err
}
