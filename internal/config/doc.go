// Package config loads panekit settings.
//
// Settings are resolved in layers, later layers overriding earlier ones:
//
//  1. built-in defaults (Default)
//  2. a TOML file, normally ~/.config/panekit/config.toml
//  3. PANEKIT_* environment variables
//
// A missing file is not an error. The child process environment is built
// separately by Config.Environment from the parent environment, an
// optional dotenv file and the [env] table.
//
// Example file:
//
//	shell = "/bin/zsh"
//	args = ["-l"]
//	env_file = ".env"
//	rows = 40
//	cols = 120
//	scrollback = 5000
//	clipboard = "osc52"
//
//	[env]
//	EDITOR = "vi"
//
//	[log]
//	level = "debug"
//	format = "json"
package config
