package encoding

import (
	"context"
	"image"
	"time"
)

// FrameSource is anything that can paint timed frames of a fixed size.
type FrameSource interface {
	Duration() time.Duration
	NewFrame() *image.RGBA
	Frame(t time.Duration, dst *image.RGBA)
}

// AssembleRequest describes the final mux.
type AssembleRequest struct {
	// Segments are encoded clip files in playback order.
	Segments []string
	// Audio is the narration file; empty assembles a silent video.
	Audio string
	// Output is the destination path. A sibling partial file is written first.
	Output string
	// ListPath is where the concat list is written.
	ListPath string
}

// AssembleResult reports what was written.
type AssembleResult struct {
	Output string
	// Silent is true when the video carries no audio track, either because
	// none was requested or because attaching it failed.
	Silent bool
	// AudioErr holds the attach failure that forced a silent video.
	AudioErr error
}

// Compositor encodes clips and assembles the final video.
type Compositor interface {
	Available() error
	EncodeClip(ctx context.Context, clip FrameSource, path string) error
	Assemble(ctx context.Context, req AssembleRequest) (AssembleResult, error)
	AudioDuration(ctx context.Context, path string) (time.Duration, error)
	Inspect(ctx context.Context, path string) (VideoInfo, error)
}
