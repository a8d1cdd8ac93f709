package config

const (
	defaultStagingDir = "~/.local/share/dubber/staging"
	defaultOutputDir  = "~/.local/share/dubber/output"
	defaultLogDir     = "~/.local/share/dubber/logs"

	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultTrackTimeout  = 600

	defaultTTSBinary      = "piper"
	defaultTTSVoice       = "en_US-amy-medium"
	defaultSegmentTimeout = 45

	defaultTranscriptionBinary  = "whisper"
	defaultTranscriptionModel   = "base"
	defaultTranscriptionTimeout = 1800

	defaultTranslationBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultTranslationModel   = "gpt-4o-mini"
	defaultTranslationTimeout = 120
	defaultTranslationRPM     = 60

	defaultCaptionWrapWidth    = 40
	defaultCaptionMinFileBytes = 32

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			TrackTimeout:  defaultTrackTimeout,
		},
		TTS: TTS{
			Binary:         defaultTTSBinary,
			Voice:          defaultTTSVoice,
			SegmentTimeout: defaultSegmentTimeout,
		},
		Transcription: Transcription{
			Binary:  defaultTranscriptionBinary,
			Model:   defaultTranscriptionModel,
			Timeout: defaultTranscriptionTimeout,
		},
		Translation: Translation{
			BaseURL:           defaultTranslationBaseURL,
			Model:             defaultTranslationModel,
			Timeout:           defaultTranslationTimeout,
			RequestsPerMinute: defaultTranslationRPM,
			FallbackToSource:  false,
		},
		Captions: Captions{
			WrapWidth:    defaultCaptionWrapWidth,
			MinFileBytes: defaultCaptionMinFileBytes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
