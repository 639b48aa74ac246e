package models

// Config represents the service configuration
type Config struct {
	ListenPort             int    `json:"listenPort"`
	ListenHost             string `json:"listenHost"`
	CachePath              string `json:"cachePath"`
	CacheTTLSeconds        int    `json:"cacheTtlSeconds"`
	YtdlpPath              string `json:"ytdlpPath"`
	YtdlpAutoInstall       bool   `json:"ytdlpAutoInstall"`
	YtdlpAdditionalArgs    string `json:"ytdlpAdditionalArgs"`
	DownloadTimeoutSeconds int    `json:"downloadTimeoutSeconds"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ListenPort:             5000,
		ListenHost:             "0.0.0.0",
		CachePath:              "",
		CacheTTLSeconds:        3600,
		YtdlpPath:              "",
		YtdlpAutoInstall:       true,
		YtdlpAdditionalArgs:    "",
		DownloadTimeoutSeconds: 900,
	}
}
