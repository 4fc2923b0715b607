// Package config defines the configuration for fedistats.
package config
