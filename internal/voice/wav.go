package voice

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavChannels      = 1
	wavBitsPerSample = 16
	wavFormatPCM     = 1
	silenceChunk     = 16 * 1024
)

// WriteSilence writes a mono 16-bit PCM WAV of samples zero samples.
func WriteSilence(path string, samples, sampleRate int) error {
	if samples < 1 {
		samples = 1
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, sampleRate, wavBitsPerSample, wavChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
		Data:           make([]int, min(samples, silenceChunk)),
		SourceBitDepth: wavBitsPerSample,
	}
	for remaining := samples; remaining > 0; {
		n := min(remaining, len(buf.Data))
		buf.Data = buf.Data[:n]
		if err := enc.Write(buf); err != nil {
			_ = f.Close()
			return fmt.Errorf("write silence: %w", err)
		}
		remaining -= n
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

var errNotWAV = errors.New("not a RIFF/WAVE file")

// WAVDuration returns the playback length of a PCM WAV file, measured from
// its data chunk. Streamed files with an unset data size are rejected so the
// caller can ask ffprobe instead.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: %v", errNotWAV, err)
	}
	if dec.AvgBytesPerSec == 0 {
		return 0, errors.New("wav: zero byte rate")
	}
	size := dec.PCMLen()
	if size <= 0 || size >= 0xFFFFFFFF {
		return 0, errors.New("wav: unsized data chunk")
	}
	return time.Duration(float64(size) / float64(dec.AvgBytesPerSec) * float64(time.Second)), nil
}
