package encoding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mangarecap/internal/config"
	"mangarecap/internal/deps"
	"mangarecap/internal/fileutil"
	"mangarecap/internal/logging"
	"mangarecap/internal/scene"
	"mangarecap/internal/services"
	"mangarecap/internal/workspace"
)

const (
	killGrace    = 2 * time.Second
	stderrTailKB = 4
)

// FFmpeg implements Compositor with the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	binary       string
	probeBinary  string
	videoCodec   string
	audioCodec   string
	preset       string
	threads      int
	fps          int
	width        int
	height       int
	timeout      time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
}

// NewFFmpeg builds the compositor from the [render], [encoding] and
// [timeouts] sections.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	w, h := cfg.FrameSize()
	e := cfg.Encoding
	return &FFmpeg{
		binary:       e.FFmpegBinary,
		probeBinary:  e.FFprobeBinary,
		videoCodec:   e.VideoCodec,
		audioCodec:   e.AudioCodec,
		preset:       e.Preset,
		threads:      e.Threads,
		fps:          cfg.Render.FPS,
		width:        w,
		height:       h,
		timeout:      config.Timeout(cfg.Timeouts.Encode),
		probeTimeout: config.Timeout(cfg.Timeouts.Probe),
		logger:       logging.NewComponentLogger(logger, "encoder"),
	}
}

// Available reports whether ffmpeg resolves on PATH.
func (f *FFmpeg) Available() error {
	if _, err := deps.Default().LookPath(f.binary); err != nil {
		return services.Wrap(services.ErrNotFound, "encode", "probe", "ffmpeg is required", err)
	}
	return nil
}

// EncodeClip renders every frame of clip and pipes them to ffmpeg, writing
// an H.264 segment without audio to path.
func (f *FFmpeg) EncodeClip(ctx context.Context, clip FrameSource, path string) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	frame := clip.NewFrame()
	if frame.Rect.Dx() != f.width || frame.Rect.Dy() != f.height {
		return services.Wrap(services.ErrValidation, "encode", "clip", fmt.Sprintf("frame %v does not match output %dx%d", frame.Rect, f.width, f.height), nil)
	}

	cmd := f.command(ctx, f.clipArgs(path)...)
	var stderr tailBuffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "clip", "open ffmpeg stdin", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "clip", "start ffmpeg", err)
	}

	frames := scene.FrameCount(clip.Duration(), f.fps)
	var writeErr error
	for i := 0; i < frames; i++ {
		t := time.Duration(i) * time.Second / time.Duration(f.fps)
		clip.Frame(t, frame)
		if _, writeErr = stdin.Write(frame.Pix); writeErr != nil {
			break
		}
	}
	closeErr := stdin.Close()
	waitErr := cmd.Wait()

	switch {
	case waitErr != nil:
		return f.toolError(ctx, "clip", waitErr, stderr.String())
	case writeErr != nil:
		return f.toolError(ctx, "clip", writeErr, stderr.String())
	case closeErr != nil:
		return f.toolError(ctx, "clip", closeErr, stderr.String())
	}
	f.logger.Debug("clip encoded", logging.String("path", path), logging.Int("frames", frames))
	return nil
}

// Assemble concatenates segments, attaches narration, and renames the result
// over req.Output. If attaching audio fails the video is rebuilt silent.
func (f *FFmpeg) Assemble(ctx context.Context, req AssembleRequest) (AssembleResult, error) {
	if len(req.Segments) == 0 {
		return AssembleResult{}, services.Wrap(services.ErrValidation, "encode", "assemble", "no segments to assemble", nil)
	}
	listPath := req.ListPath
	if listPath == "" {
		listPath = filepath.Join(filepath.Dir(req.Segments[0]), "segments.txt")
	}
	if err := writeConcatList(listPath, req.Segments); err != nil {
		return AssembleResult{}, services.Wrap(services.ErrExternalTool, "encode", "assemble", "write concat list", err)
	}

	partial := workspace.PartialPath(req.Output)
	result := AssembleResult{Output: req.Output, Silent: req.Audio == ""}

	if req.Audio != "" {
		if err := f.mux(ctx, listPath, req.Audio, partial); err != nil {
			if ctx.Err() != nil {
				_ = fileutil.RemoveIfExists(partial)
				return AssembleResult{}, err
			}
			logging.WarnDegraded(f.logger, "narration could not be attached", "video will be silent", err)
			result.Silent = true
			result.AudioErr = err
		}
	}
	if result.Silent {
		if err := f.mux(ctx, listPath, "", partial); err != nil {
			_ = fileutil.RemoveIfExists(partial)
			return AssembleResult{}, err
		}
	}

	if err := fileutil.MoveFile(partial, req.Output); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return AssembleResult{}, services.Fatal("encode", "finalize", "move output into place", err)
	}
	return result, nil
}

func (f *FFmpeg) mux(ctx context.Context, listPath, audio, output string) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	_ = fileutil.RemoveIfExists(output)
	cmd := f.command(ctx, f.muxArgs(listPath, audio, output)...)
	var stderr tailBuffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = fileutil.RemoveIfExists(output)
		return f.toolError(ctx, "assemble", err, stderr.String())
	}
	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		_ = fileutil.RemoveIfExists(output)
		return services.Wrap(services.ErrExternalTool, "encode", "assemble", "ffmpeg produced no output", err)
	}
	return nil
}

func (f *FFmpeg) clipArgs(path string) []string {
	fps := strconv.Itoa(f.fps)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", f.width, f.height),
		"-r", fps,
		"-i", "-",
		"-an",
		"-c:v", f.videoCodec,
		"-preset", f.preset,
		"-pix_fmt", "yuv420p",
		"-r", fps,
	}
	if f.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(f.threads))
	}
	return append(args, path)
}

func (f *FFmpeg) muxArgs(listPath, audio, output string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
	}
	if audio != "" {
		args = append(args, "-i", audio, "-map", "0:v", "-map", "1:a", "-c:v", "copy", "-c:a", f.audioCodec)
	} else {
		args = append(args, "-map", "0:v", "-c:v", "copy", "-an")
	}
	return append(args, "-r", strconv.Itoa(f.fps), "-movflags", "+faststart", "-f", "mp4", output)
}

func (f *FFmpeg) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, f.binary, args...) //nolint:gosec
	cmd.WaitDelay = killGrace
	return cmd
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeout(ctx, f.timeout)
	}
	return context.WithCancel(ctx)
}

func (f *FFmpeg) toolError(ctx context.Context, op string, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "encode", op, fmt.Sprintf("ffmpeg exceeded %s", f.timeout), err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := "ffmpeg failed"
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		msg += ": " + stderr
	}
	return services.Wrap(services.ErrExternalTool, "encode", op, msg, err)
}

// writeConcatList writes an ffmpeg concat demuxer script.
func writeConcatList(path string, segments []string) error {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			return err
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// tailBuffer keeps the last few KB written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if over := t.buf.Len() - stderrTailKB*1024; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return t.buf.String() }
