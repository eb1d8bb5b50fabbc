// Package nerdpaper provides embedded assets for the nerdpaper generator.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The nerdpaper command writes it out for --init.
package nerdpaper

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time. It is regenerated by go generate in internal/config.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
