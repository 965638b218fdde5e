// Package config provides centralized configuration management for the
// metaorder batch. It loads configuration from multiple sources, validates
// it, and resolves every file system location into a Paths value that is
// threaded explicitly through the pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file (-config flag or METAORDER_CONFIG)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern METAORDER_<SECTION>_<FIELD>:
//
//	METAORDER_PROCESSING_METHODOLOGY=normalized
//	METAORDER_PROCESSING_WORKERS=4
//	METAORDER_PATHS_DATA_DIR=/srv/ticks
//	METAORDER_LOGGING_LEVEL=debug
//	METAORDER_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/metaorder.prom
//
// # Path Management
//
// Paths has no package-level state. Build it once from the loaded config:
//
//	paths, err := config.NewPaths(cfg.Paths)
//	buyerDir := paths.SideDir("buyer")
//
// # Usage
//
//	cfg, err := config.Load(*configFile)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
