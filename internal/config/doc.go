// Package config provides centralized configuration management for wxdata.
// It handles loading configuration from multiple sources, validation, and
// resolution of every directory the application touches.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables, including a .env file in the working directory
//	2. A YAML configuration file (--config, ./wxdata.yaml,
//	   ./configs/wxdata.yaml or $XDG_CONFIG_HOME/wxdata/config.yaml)
//	3. Default values
//
// # Environment Variables
//
// All environment variables follow the pattern WXDATA_* for namespacing:
//
//	WXDATA_ROOT_DIR=/srv/wxdata
//	WXDATA_PARALLEL_NUM=4
//	WXDATA_PATHS_PUBLISH_DIR=/mnt/share/wechat
//	WXDATA_LOGGING_LEVEL=debug
//	WXDATA_SCRAPER_HEADLESS=false
//
// # Paths
//
// Every relative directory is resolved against RootDir by ResolvePaths.
// Per-account datasets live in Paths.AccountDir(account).
package config
