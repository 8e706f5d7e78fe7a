package log

// LoggerConfig controls the process logger.
type LoggerConfig struct {
	Level   string `mapstructure:"level"`
	Pattern string `mapstructure:"pattern"`
	Time    string `mapstructure:"time"`

	// File enables an additional rotating file appender when Filename is
	// set; console output is always on.
	File FileAppenderOpt `mapstructure:"file"`
}

// FileAppenderOpt configures log rotation for the file appender.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig is console-only logging at info level.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   "info",
		Pattern: "%time [%level] %msg%n",
		Time:    "2006-01-02 15:04:05",
	}
}
