// Package config implements the configuration store for pidcal.
//
// Configuration is layered: baseline defaults (the values the calibrator has always
// shipped with), an optional YAML file, PIDCAL_* environment overrides and finally
// command-line flags. The merged result is validated once before anything is started.
package config
