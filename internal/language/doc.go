// Package language maps OCR language selections onto the speech side.
//
// Tesseract names its trained data with ISO 639-2 style codes and script
// variants ("jpn_vert", "chi_sim"), joined with "+" when several are loaded.
// Speech engines want ISO 639-1 codes, espeak voice names, or locale prefixes
// to match against an installed voice list. This package owns that mapping.
package language
