// Package config loads, normalizes, and validates stockist configuration.
//
// Configuration is read from a TOML file (default
// ~/.config/stockist/config.toml, or ./stockist.toml as a project-local
// fallback). Missing values are filled from repository defaults, paths are
// expanded to absolute form, and the result is validated before any part of
// the application runs. Catalog credentials may also be supplied through the
// STOCKIST_CONSUMER_KEY, STOCKIST_CONSUMER_SECRET, and STOCKIST_APP_PASSWORD
// environment variables.
package config
