// Package config decodes TOML and YAML configuration files into structs.
//
// Package: config
// Title: shcst Configuration Loading
// Description: Format detection, file discovery over a list of search
//              directories, and typed decoding for TOML (BurntSushi/toml)
//              and YAML (gopkg.in/yaml.v3). The application level schema
//              lives in pkg/core/config; this package only knows formats.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-03
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-03 v0.2.0: Typed decoding replaces the dotted-key map, discovery kept
package config
