package preflight

import (
	"mangarecap/internal/config"
	"mangarecap/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minWorkSpace is the free space below which the work directory check fails.
// Raw frames are piped to ffmpeg rather than stored, so pages and clips
// dominate; a 50-page 4k render stays well under this.
const minWorkSpace = 2 << 30

// RunAll executes the filesystem checks for a render into output.
func RunAll(cfg *config.Config, output string) []Result {
	if cfg == nil {
		return nil
	}
	workDir := WorkParent(cfg)
	results := []Result{
		CheckDirectoryAccess("Work directory", workDir),
		CheckFreeSpace("Work directory space", workDir, minWorkSpace),
	}
	if output != "" {
		results = append(results, CheckOutputDirectory(output))
	}
	return results
}

// WorkParent returns the directory that will hold run workspaces.
func WorkParent(cfg *config.Config) string {
	if cfg.Paths.WorkDir != "" {
		return cfg.Paths.WorkDir
	}
	return tempDir()
}

// Requirements lists the external binaries a render may use. Speech engines
// are optional because the synthesizer always degrades to silence.
func Requirements(cfg *config.Config) []deps.Requirement {
	reqs := []deps.Requirement{
		{
			Name:        "pdftoppm",
			Command:     cfg.Raster.Binary,
			Description: "Required to rasterize PDF input (image folders work without it)",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Encoding.FFmpegBinary,
			Description: "Required for clip encoding and assembly",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Encoding.FFprobeBinary,
			Description: "Measures narration length (WAV header fallback otherwise)",
			Optional:    true,
		},
		{
			Name:        "Piper",
			Command:     cfg.Voice.PiperBinary,
			Description: "Neural speech engine",
			Optional:    true,
		},
		{
			Name:        "System speech",
			Command:     cfg.Voice.SystemBinary,
			Description: "Host speech engine",
			Optional:    true,
		},
	}
	for _, bin := range cfg.Voice.EspeakBinaries {
		reqs = append(reqs, deps.Requirement{
			Name:        bin,
			Command:     bin,
			Description: "Formant speech engine",
			Optional:    true,
		})
	}
	return reqs
}

// CheckSystemDeps evaluates Requirements against PATH.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(Requirements(cfg))
}
