// Package logger builds *slog.Logger instances for authcore services and
// keeps attribute naming consistent across packages.
//
// New accepts functional options for format, level, output, static
// attributes and context extractors. WithEnvironment applies per-environment
// presets and FromConfig maps the env-loaded Config onto them:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(logger.FromConfig(cfg)...)
//	logger.SetAsDefault(log)
//
// Attribute helpers (Error, UserID, Email, Provider, Component, ...) return
// slog.Attr values; Error returns an empty attribute for a nil error so it can
// be passed unconditionally.
//
// Library code defaults to Discard and accepts a logger through options.
package logger
