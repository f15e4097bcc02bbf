package config

const (
	defaultLogDir          = "~/.local/share/mangarecap/logs"
	defaultTitle           = "Manga Recap"
	defaultResolution      = "1080p"
	defaultFPS             = 30
	defaultMaxPages        = 50
	defaultSceneDuration   = 5.0
	defaultCardDuration    = 3.0
	defaultOverscan        = 1.3
	defaultZoomRange       = 0.1
	defaultThreshold       = 240
	defaultKernelSize      = 5
	defaultMinPanelArea    = 10000
	defaultBandHeight      = 100
	defaultRasterBinary    = "pdftoppm"
	defaultDPI             = 150
	defaultOCRLanguages    = "eng"
	defaultPageSegMode     = 6
	defaultVoiceEngine     = "system"
	defaultPiperBinary     = "piper"
	defaultPiperModel      = "en_US-lessac-medium.onnx"
	defaultSystemBinary    = "say"
	defaultRateWPM         = 150
	defaultSecondsPerChar  = 0.05
	defaultSampleRate      = 44100
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultVideoCodec      = "libx264"
	defaultAudioCodec      = "aac"
	defaultEncodingPreset  = "medium"
	defaultEncodingThreads = 4
	defaultRasterTimeout   = 600
	defaultOCRTimeout      = 60
	defaultVoiceTimeout    = 900
	defaultEncodeTimeout   = 3600
	defaultProbeTimeout    = 30
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Detection: Detection{
			Threshold:    defaultThreshold,
			KernelSize:   defaultKernelSize,
			MinPanelArea: defaultMinPanelArea,
			BandHeight:   defaultBandHeight,
		},
		Render: Render{
			Title:         defaultTitle,
			Resolution:    defaultResolution,
			FPS:           defaultFPS,
			MaxPages:      defaultMaxPages,
			SceneDuration: defaultSceneDuration,
			CardDuration:  defaultCardDuration,
			Overscan:      defaultOverscan,
			ZoomRange:     defaultZoomRange,
		},
		Raster: Raster{
			Binary: defaultRasterBinary,
			DPI:    defaultDPI,
		},
		OCR: OCR{
			Enabled:     true,
			Languages:   defaultOCRLanguages,
			PageSegMode: defaultPageSegMode,
		},
		Voice: Voice{
			Engine:         defaultVoiceEngine,
			PiperBinary:    defaultPiperBinary,
			PiperModels:    DefaultPiperModels(),
			SystemBinary:   defaultSystemBinary,
			EspeakBinaries: []string{"espeak-ng", "espeak"},
			RateWPM:        defaultRateWPM,
			SecondsPerChar: defaultSecondsPerChar,
			SampleRate:     defaultSampleRate,
		},
		Encoding: Encoding{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			Preset:        defaultEncodingPreset,
			Threads:       defaultEncodingThreads,
		},
		Timeouts: Timeouts{
			Raster: defaultRasterTimeout,
			OCR:    defaultOCRTimeout,
			Voice:  defaultVoiceTimeout,
			Encode: defaultEncodeTimeout,
			Probe:  defaultProbeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultPiperModels returns the voice model search list in priority order.
// Relative entries resolve against the current directory.
func DefaultPiperModels() []string {
	return []string{
		defaultPiperModel,
		"~/.local/share/piper/voices/" + defaultPiperModel,
		"/usr/share/piper-voices/" + defaultPiperModel,
	}
}
