package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Backend {
	case "remote":
		if c.Classifier.Endpoint == "" {
			return errors.New("classifier.endpoint must be set when classifier.backend is \"remote\"")
		}
	case "ondevice":
		if c.Classifier.RuntimeModel == "" {
			return errors.New("classifier.runtime_model must be set when classifier.backend is \"ondevice\"")
		}
	case "mock":
	default:
		return fmt.Errorf("classifier.backend must be one of remote, ondevice, mock (got %q)", c.Classifier.Backend)
	}
	if c.Classifier.MaxConcurrency > 64 {
		return errors.New("classifier.max_concurrency must be 64 or lower")
	}
	return nil
}

func (c *Config) validateFilter() error {
	switch c.Filter.DisplayAction {
	case "hide", "delete":
	default:
		return fmt.Errorf("filter.display_action must be \"hide\" or \"delete\" (got %q)", c.Filter.DisplayAction)
	}
	if c.Filter.Sensitivity < 0 || c.Filter.Sensitivity > 1 {
		return errors.New("filter.sensitivity must be between 0 and 1")
	}
	return nil
}
