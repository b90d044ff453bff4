package config

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Dir      string         `yaml:"dir"`    // log directory path
	Console  ConsoleConfig  `yaml:"console"`
	File     FileConfig     `yaml:"file"`
	Rotation RotationConfig `yaml:"rotation"`
}

// ConsoleConfig holds console output configuration.
type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // optional override
}

// FileConfig holds file output configuration.
type FileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // optional override
}

// RotationConfig holds log rotation settings.
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // number of files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`
}

// DefaultLoggingConfig returns default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "text",
		Dir:    "logs",
		Console: ConsoleConfig{
			Enabled: true,
		},
		File: FileConfig{
			Enabled: false,
		},
		Rotation: RotationConfig{
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
	}
}
