package config

const (
	defaultDataDir             = "~/.local/share/winnow"
	defaultLogDir              = "~/.local/share/winnow/logs"
	defaultAPIBind             = "127.0.0.1:7519"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultBackend             = "remote"
	defaultEndpoint            = "http://127.0.0.1:8000/classify"
	defaultProvider            = "openai"
	defaultModelName           = "gpt-4o-mini"
	defaultTimeoutSeconds      = 30
	defaultRuntimeURL          = "http://localhost:11434"
	defaultRuntimeModel        = "llama3.2:3b"
	defaultMaxConcurrency      = 8
	defaultDisplayAction       = "hide"
	defaultSensitivity         = 0.3
	defaultScanIntervalSeconds = 5
	defaultMutationDebounceMS  = 250
	defaultNavigationDelayMS   = 1000
	defaultSettingsPollSeconds = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Classifier: Classifier{
			Backend:        defaultBackend,
			Endpoint:       defaultEndpoint,
			Provider:       defaultProvider,
			ModelName:      defaultModelName,
			TimeoutSeconds: defaultTimeoutSeconds,
			RuntimeURL:     defaultRuntimeURL,
			RuntimeModel:   defaultRuntimeModel,
			MaxConcurrency: defaultMaxConcurrency,
		},
		Filter: Filter{
			DisplayAction:       defaultDisplayAction,
			Sensitivity:         defaultSensitivity,
			ScanIntervalSeconds: defaultScanIntervalSeconds,
			MutationDebounceMS:  defaultMutationDebounceMS,
			NavigationDelayMS:   defaultNavigationDelayMS,
			SettingsPollSeconds: defaultSettingsPollSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
