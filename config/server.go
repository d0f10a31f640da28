package config

import (
	"sync"
)

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

type ServerConfig struct {
	Addr string
	// LexiconPath optionally points at a YAML file overriding the
	// built-in classifier term lists. Empty keeps the defaults.
	LexiconPath string
	// DirectoryPath points at the JSON patient directory snapshot
	// maintained by the external data-fetching layer.
	DirectoryPath string
}

func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		loadEnv()

		serverConfig = &ServerConfig{
			Addr:          getenv("SERVER_ADDR", ":8080"),
			LexiconPath:   getenv("CLASSIFIER_LEXICON_PATH", ""),
			DirectoryPath: getenv("PATIENT_DIRECTORY_PATH", ""),
		}
	})
	return serverConfig
}
