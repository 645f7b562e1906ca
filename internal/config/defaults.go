package config

const (
	defaultDataDir                   = "~/.local/share/burnish/data"
	defaultLogDir                    = "~/.local/share/burnish/logs"
	defaultLogRetentionDays          = 60
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultAPIBind                   = "127.0.0.1:7487"
	defaultLLMBaseURL                = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                  = "google/gemini-3-flash-preview"
	defaultLLMReferer                = "https://github.com/burnish-dev/burnish"
	defaultLLMTitle                  = "Burnish Transcript Correction"
	defaultLLMTimeoutSeconds         = 120
	defaultLLMRetryAttempts          = 2
	defaultMergeGapMS                = 500
	defaultWordGapMS                 = 800
	defaultLanguage                  = "zh"
	defaultScriptVariant             = "traditional"
	defaultCacheAddr                 = "localhost:6379"
	defaultCacheTTLHours             = 72
	defaultWorkflowWorkers           = 2
	defaultWorkflowPollInterval      = 5
	defaultWorkflowErrorRetry        = 10
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultNotifyRequestTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		Correction: Correction{
			MergeGapMS:    defaultMergeGapMS,
			Language:      defaultLanguage,
			ScriptVariant: defaultScriptVariant,
		},
		Ingest: Ingest{
			WordGapMS: defaultWordGapMS,
		},
		Cache: Cache{
			Addr:     defaultCacheAddr,
			TTLHours: defaultCacheTTLHours,
		},
		Workflow: Workflow{
			Workers:            defaultWorkflowWorkers,
			PollInterval:       defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetry,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Fallback:       true,
			Errors:         true,
		},
	}
}
