// Package raster turns the input document into an ordered list of page
// image files.
//
// PDF input is rendered by poppler's pdftoppm at the configured density.
// A directory of images is treated as an already-rasterized document, pages
// ordered by the numbers embedded in their file names, and a single image
// file is a one-page document.
package raster
