package config

// Default returns the configuration used when nothing is overridden: an
// in-memory catalog with audio kept on local disk.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              "127.0.0.1:3000",
			AllowedOrigins:    []string{"*"},
			RateLimit:         100,
			RateWindowSeconds: 15 * 60,
		},
		Storage: Storage{
			Driver:     StorageMemory,
			SQLitePath: "moodplayer.db",
		},
		Blob: Blob{
			Driver:   BlobLocal,
			LocalDir: "media",
		},
		Catalog: Catalog{
			FallbackPolicy: "fullCatalog",
		},
		Client: Client{
			APIURL:         "http://127.0.0.1:3000",
			TimeoutSeconds: 10,
			MinConfidence:  0.3,
			Concurrency:    4,
		},
		Playback: Playback{
			Player: "ffplay",
			Args:   []string{"-nodisp", "-autoexit", "-loglevel", "quiet"},
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}
