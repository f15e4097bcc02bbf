// Package deps probes for the external binaries the recap pipeline shells out
// to (pdftoppm, tesseract data, piper, say, espeak, ffmpeg, ffprobe) and
// reports their availability for the `deps` command and the speech cascade.
package deps
