package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeClassifier()
	c.normalizeFilter()
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
	return nil
}

func (c *Config) normalizeClassifier() {
	c.Classifier.Backend = strings.ToLower(strings.TrimSpace(c.Classifier.Backend))
	if c.Classifier.Backend == "" {
		c.Classifier.Backend = defaultBackend
	}
	c.Classifier.Endpoint = strings.TrimSpace(c.Classifier.Endpoint)
	c.Classifier.Provider = strings.TrimSpace(c.Classifier.Provider)
	c.Classifier.ModelName = strings.TrimSpace(c.Classifier.ModelName)
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.Classifier.RuntimeURL = strings.TrimRight(strings.TrimSpace(c.Classifier.RuntimeURL), "/")
	if c.Classifier.RuntimeURL == "" {
		c.Classifier.RuntimeURL = defaultRuntimeURL
	}
	c.Classifier.RuntimeModel = strings.TrimSpace(c.Classifier.RuntimeModel)
	if c.Classifier.MaxConcurrency <= 0 {
		c.Classifier.MaxConcurrency = defaultMaxConcurrency
	}
}

func (c *Config) normalizeFilter() {
	c.Filter.DisplayAction = strings.ToLower(strings.TrimSpace(c.Filter.DisplayAction))
	if c.Filter.DisplayAction == "" {
		c.Filter.DisplayAction = defaultDisplayAction
	}
	if c.Filter.ScanIntervalSeconds <= 0 {
		c.Filter.ScanIntervalSeconds = defaultScanIntervalSeconds
	}
	if c.Filter.MutationDebounceMS <= 0 {
		c.Filter.MutationDebounceMS = defaultMutationDebounceMS
	}
	if c.Filter.NavigationDelayMS <= 0 {
		c.Filter.NavigationDelayMS = defaultNavigationDelayMS
	}
	if c.Filter.SettingsPollSeconds <= 0 {
		c.Filter.SettingsPollSeconds = defaultSettingsPollSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
