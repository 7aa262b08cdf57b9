// Package config provides layered configuration for the ptree command.
//
// Settings come from four layers, lowest priority first:
//
//   - built-in defaults
//   - a TOML or YAML file chosen by extension
//   - PTREE_* environment variables
//   - command-line overrides set with SetOverride
//
// Values are addressed by dot-separated paths such as "logging.level".
// The section accessors Logging, Engine and Stress return typed snapshots
// of the merged result.
//
// # Usage
//
//	cfg := config.New(config.WithFile("ptree.toml"))
//	if err := cfg.Load(ctx); err != nil {
//		return err
//	}
//	lvl := cfg.Logging().Level
package config
