// Package config loads the application configuration: built-in defaults,
// an optional JSON file, then BOOKGRAPH_* environment overrides, validated
// section by section. Store credentials are expected from the environment,
// not the file.
package config
