// Package ocr extracts text from panel crops.
//
// Recognizer is the capability boundary; the production implementation
// drives libtesseract through gosseract after an adaptive threshold pass
// that flattens screentone and uneven scan lighting. Nop disables OCR and
// keeps the pipeline running with empty text.
package ocr
