package encoding

import (
	"context"
	"errors"
	"time"

	"mangarecap/internal/services"
	"mangarecap/internal/voice"
)

// AudioDuration measures path with ffprobe, falling back to the WAV header
// when ffprobe is missing or cannot read the file.
func (f *FFmpeg) AudioDuration(ctx context.Context, path string) (time.Duration, error) {
	probeCtx := ctx
	if f.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, f.probeTimeout)
		defer cancel()
	}

	result, probeErr := encodeProbe(probeCtx, f.probeBinary, path)
	if probeErr == nil {
		if seconds := result.DurationSeconds(); seconds > 0 {
			return time.Duration(seconds * float64(time.Second)), nil
		}
		probeErr = errors.New("ffprobe reported no duration")
	}

	d, wavErr := voice.WAVDuration(path)
	if wavErr == nil && d > 0 {
		return d, nil
	}
	return 0, services.Wrap(services.ErrExternalTool, "encode", "audio duration", path, errors.Join(probeErr, wavErr))
}

// VideoInfo summarizes the assembled output.
type VideoInfo struct {
	Duration    time.Duration
	SizeBytes   int64
	AudioTracks int
	VideoTracks int
}

// Inspect probes the finished video for the run summary.
func (f *FFmpeg) Inspect(ctx context.Context, path string) (VideoInfo, error) {
	if f.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.probeTimeout)
		defer cancel()
	}
	result, err := encodeProbe(ctx, f.probeBinary, path)
	if err != nil {
		return VideoInfo{}, services.Wrap(services.ErrExternalTool, "encode", "inspect output", path, err)
	}
	return VideoInfo{
		Duration:    time.Duration(result.DurationSeconds() * float64(time.Second)),
		SizeBytes:   result.SizeBytes(),
		AudioTracks: result.AudioStreamCount(),
		VideoTracks: result.VideoStreamCount(),
	}, nil
}
