// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for calls to the Qualys API.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "qualys-vmdr/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds the settings needed to build a Qualys credentials handle.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// Platform is the Qualys platform identifier (qg1, qg2, eu1, ...).
	Platform string `json:"platform" yaml:"platform"`

	// BaseURL overrides the API host derived from Platform, for private
	// cloud platforms.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	Username string `json:"username" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// ArchiveConfig holds settings for the local snapshot database.
type ArchiveConfig struct {
	// DBPath is the SQLite database file (default "vmdr.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// ExportDir is where archive export writes its YAML and JSON files.
	ExportDir string `json:"export_dir" yaml:"export_dir"`
}
