package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type ClientConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetSignInURL() string
}

type mainConfig struct {
	EnvVars
	Client
}

func New() Config {
	return mainConfig{}
}
