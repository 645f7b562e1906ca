package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLLM(); err != nil {
		return err
	}
	if err := c.normalizeCorrection(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeCache()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeLLM() error {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("BURNISH_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DEEPSEEK_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
	// One initial attempt plus at most one retry.
	if c.LLM.RetryAttempts > 2 {
		c.LLM.RetryAttempts = 2
	}
	return nil
}

func (c *Config) normalizeCorrection() error {
	if c.Correction.MergeGapMS < 0 {
		c.Correction.MergeGapMS = defaultMergeGapMS
	}
	c.Correction.Language = strings.ToLower(strings.TrimSpace(c.Correction.Language))
	if c.Correction.Language == "" {
		c.Correction.Language = defaultLanguage
	}
	tag, err := language.Parse(c.Correction.Language)
	if err != nil {
		return fmt.Errorf("correction.language: unrecognized tag %q", c.Correction.Language)
	}
	base, _ := tag.Base()
	c.Correction.Language = base.String()

	c.Correction.ScriptVariant = strings.ToLower(strings.TrimSpace(c.Correction.ScriptVariant))
	switch c.Correction.ScriptVariant {
	case "":
		c.Correction.ScriptVariant = defaultScriptVariant
	case "traditional", "simplified":
	default:
		return fmt.Errorf("correction.script_variant: must be \"traditional\" or \"simplified\", got %q", c.Correction.ScriptVariant)
	}

	if strings.TrimSpace(c.Correction.SynonymsPath) != "" {
		expanded, err := expandPath(c.Correction.SynonymsPath)
		if err != nil {
			return fmt.Errorf("correction.synonyms_path: %w", err)
		}
		c.Correction.SynonymsPath = expanded
	} else {
		c.Correction.SynonymsPath = ""
	}
	return nil
}

func (c *Config) normalizeIngest() {
	if c.Ingest.WordGapMS <= 0 {
		c.Ingest.WordGapMS = defaultWordGapMS
	}
}

func (c *Config) normalizeCache() {
	c.Cache.Addr = strings.TrimSpace(c.Cache.Addr)
	if c.Cache.Addr == "" {
		c.Cache.Addr = defaultCacheAddr
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
	if c.Cache.DB < 0 {
		c.Cache.DB = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
