// Package config loads satsrate settings.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/satsrate/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. SATSRATE_<FIELD> environment variables override file values
//
// The command loads a .env file before calling Load, so overrides can live
// there too.
//
// # TOML Format
//
//	quote_url = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=jpy%2Cusd%2Ceur&include_last_updated_at=true"
//	share_base_url = "https://lokuyow.github.io/sats-rate/"
//	min_refresh_interval = "2s"
//
//	listen = "127.0.0.1:8080"
//	asset_origin = "https://lokuyow.github.io/sats-rate/"
//	cache_version = "v1.36.2"
//	cache_prefix = "sats-rate-caches-"
//	assets = ["./index.html", "./main.js"]
//	auto_skip_waiting = true
//	cache_backend = "memory"        # or "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	log_level = "info"
//	log_format = "json"             # or "text"
//	log_file = "~/.local/state/satsrate/satsrate.log"
//
// Every field is optional. Tilde expansion is performed on log_file; the
// values "stdout" and "stderr" are passed through.
//
// Missing config files are NOT an error. Load returns errors for unreadable
// files, TOML syntax errors, bad durations and an unknown cache backend.
package config
