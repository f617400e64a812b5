package model

import "time"

// ClassifyConfig represents configuration for classification runs
type ClassifyConfig struct {
	// Workers is the number of entities classified concurrently in batch runs
	Workers int `json:"workers"`

	// Tier1Timeout bounds a single model-tier call before falling through
	Tier1Timeout time.Duration `json:"tier1_timeout"`

	// AcceptanceThreshold is the minimum tier confidence to stop the cascade
	AcceptanceThreshold float64 `json:"acceptance_threshold"`

	// ContinueOnError keeps a batch running when single entities fail
	ContinueOnError bool `json:"continue_on_error"`
}

// DefaultClassifyConfig returns a sensible default configuration
func DefaultClassifyConfig() ClassifyConfig {
	return ClassifyConfig{
		Workers:             4,
		Tier1Timeout:        15 * time.Second,
		AcceptanceThreshold: 0.6,
		ContinueOnError:     true,
	}
}
