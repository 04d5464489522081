package config

// DefaultCoverSheet is the template used for the human-readable summary when
// the configuration does not supply one.
const DefaultCoverSheet = `$CPL_NAME

CPL Filename: $CPL_FILENAME
Type: $TYPE
Format: $CONTAINER
Audio: $AUDIO
Audio Language: $AUDIO_LANGUAGE
Subtitle Language: $SUBTITLE_LANGUAGE
Length: $LENGTH
Size: $SIZE
`

// Default returns the repository defaults. Callers layer their TOML file on
// top of this value.
func Default() Config {
	return Config{
		Package: Package{
			ContentKind:     "feature",
			Standard:        "smpte",
			VideoFrameRate:  24,
			AudioChannels:   6,
			AudioSampleRate: 48000,
			FrameWidth:      1998,
			FrameHeight:     1080,
			ReelSeconds:     1200,
		},
		Encoding: Encoding{
			Threads:                  4,
			FramesInMemoryMultiplier: 3,
		},
		Logging: Logging{
			Level: "info",
		},
		CoverSheet: DefaultCoverSheet,
	}
}
