package config

type LogConfig interface {
	GetLogLevel() string
	GetLogFile() string
}

type Logging struct{}

var _ LogConfig = Logging{}

func (Logging) GetLogLevel() string {
	return GetEnv("LOG_LEVEL", "info")
}

// GetLogFile adds a rotating file sink next to stdout when set
func (Logging) GetLogFile() string {
	return GetEnv("LOG_FILE", "")
}
