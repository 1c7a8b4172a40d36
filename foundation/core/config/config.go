// File: config.go
// Title: Typed Configuration Decoding
// Description: Decodes configuration content into caller supplied structs
//              with format detection by file extension.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-03
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-03 v0.2.0: Decode into structs, strict unknown-key reporting

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
)

// Format represents the configuration file format
type Format int

const (
	// FormatTOML represents TOML format (default)
	FormatTOML Format = iota

	// FormatYAML represents YAML format
	FormatYAML

	// FormatAuto detects the format from the file extension
	FormatAuto
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// LoadOptions defines options for decoding a file
type LoadOptions struct {
	Format Format
	// Strict rejects keys that have no matching struct field
	Strict bool
}

// DetectFormat returns the format implied by the file extension
func DetectFormat(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// DecodeFile reads filePath and decodes it into v
func DecodeFile(filePath string, v interface{}, options LoadOptions) error {
	if strings.TrimSpace(filePath) == "" {
		return mdwerror.New("config file path cannot be empty").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("config.DecodeFile")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		code := mdwerror.CodeIOError
		if os.IsNotExist(err) {
			code = mdwerror.CodeMissingConfig
		}
		return mdwerror.Wrap(err, "failed to read config file").
			WithCode(code).
			WithOperation("config.DecodeFile").
			WithDetail("path", filePath)
	}

	format := options.Format
	if format == FormatAuto {
		format = DetectFormat(filePath)
	}
	if err := Decode(content, format, v, options.Strict); err != nil {
		return mdwerror.Wrap(err, "failed to decode config file").
			WithOperation("config.DecodeFile").
			WithDetail("path", filePath)
	}
	return nil
}

// Decode decodes content in the given format into v
func Decode(content []byte, format Format, v interface{}, strict bool) error {
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(content)).Decode(v)
		if err != nil {
			return mdwerror.Wrap(err, "TOML parse error").
				WithCode(mdwerror.CodeInvalidConfig).
				WithOperation("config.Decode")
		}
		if undecoded := md.Undecoded(); strict && len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return mdwerror.New(fmt.Sprintf("unknown config keys: %s", strings.Join(keys, ", "))).
				WithCode(mdwerror.CodeInvalidConfig).
				WithOperation("config.Decode").
				WithDetail("keys", keys)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(strict)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return mdwerror.Wrap(err, "YAML parse error").
				WithCode(mdwerror.CodeInvalidConfig).
				WithOperation("config.Decode")
		}
	default:
		return mdwerror.New(fmt.Sprintf("unsupported format: %s", format)).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("config.Decode").
			WithDetail("format", format.String())
	}
	return nil
}
