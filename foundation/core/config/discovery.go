// File: discovery.go
// Title: Configuration File Discovery
// Description: Searches directories for the first existing configuration
//              file among a set of base names and extensions.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-03
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation
// - 2026-10-03 v0.2.0: Discovery returns paths; decoding is the caller's choice

package config

import (
	"os"
	"path/filepath"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
)

// DiscoveryOptions defines where to look for configuration files
type DiscoveryOptions struct {
	Paths      []string // Directories to search
	Filenames  []string // Base filenames without extension
	Extensions []string // Extensions to try, in order
}

// DefaultDiscoveryOptions returns the search order used by the CLI
func DefaultDiscoveryOptions() DiscoveryOptions {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "shcst"))
	}
	return DiscoveryOptions{
		Paths:      paths,
		Filenames:  []string{"shcst"},
		Extensions: []string{".toml", ".yaml", ".yml"},
	}
}

// ListPossibleConfigFiles returns every candidate path in search order
func ListPossibleConfigFiles(options DiscoveryOptions) []string {
	var paths []string
	for _, dir := range options.Paths {
		for _, name := range options.Filenames {
			for _, ext := range options.Extensions {
				paths = append(paths, filepath.Join(dir, name+ext))
			}
		}
	}
	return paths
}

// FindConfigFile returns the first candidate that exists as a regular file
func FindConfigFile(options DiscoveryOptions) (string, error) {
	candidates := ListPossibleConfigFiles(options)
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", mdwerror.New("configuration file not found").
		WithCode(mdwerror.CodeNotFound).
		WithOperation("config.FindConfigFile").
		WithDetail("searchPaths", candidates)
}
