// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Every package in authcore
// exposes an env-tagged Config struct; the bootstrap code loads each of them
// with Load or MustLoad:
//
//	var sessCfg session.Config
//	config.MustLoad(&sessCfg)
//
// Parsed values are cached per type for the life of the process. Reset clears
// the cache, which tests use after changing the environment.
package config
