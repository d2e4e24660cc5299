// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads Qualys credentials from a directory of plain-text
// files. The filename is the key and the trimmed contents are the value:
//
//	.secrets/qualys-username
//	.secrets/qualys-password
//	.secrets/qualys-platform
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Key files recognized by LoadCredentials.
const (
	KeyUsername = "qualys-username"
	KeyPassword = "qualys-password"
	KeyPlatform = "qualys-platform"
)

// Credentials are the values LoadCredentials found. Absent files leave
// fields empty.
type Credentials struct {
	Username string
	Password string
	Platform string
}

// Load returns every non-empty, non-hidden file in dir keyed by name. A
// missing directory yields an empty map. Unreadable files are logged and
// skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("skipping unreadable secret")
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			values[name] = v
		}
	}
	return values, nil
}

// LoadCredentials reads the Qualys key files from dir.
func LoadCredentials(dir string) (Credentials, error) {
	values, err := Load(dir)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Username: values[KeyUsername],
		Password: values[KeyPassword],
		Platform: values[KeyPlatform],
	}, nil
}
