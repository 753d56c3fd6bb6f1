package params

type WebDaemonConfig struct {
	ListenerConfig
	DataDir string
	Enrich  *EnrichConfig

	// MaxUploadBytes bounds a ride upload body.
	MaxUploadBytes int64
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir:        DefaultDatadirRoot,
		ListenerConfig: DefaultWebListenerConfig(),
		Enrich:         DefaultEnrichConfig(),
		MaxUploadBytes: 64 << 20,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir: "",
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		Enrich:         DefaultTestEnrichConfig(),
		MaxUploadBytes: 1 << 20,
	}
}
