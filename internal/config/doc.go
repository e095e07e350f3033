// Package config loads the service configuration and defines the table of
// known search providers.
//
// Configuration lives in $XDG_CONFIG_HOME/gnome-search-providers-jetbrains/config.toml:
//
//	debounce = "5s"
//	retained_snapshots = 8
//	watch = true
//	disabled = ["jetbrains-studio.desktop"]
//
//	[log]
//	level = "debug"
//
//	[launch]
//	command = ["gio", "launch"]
//
// Every provider in Providers needs a matching declaration in providers/*.ini
// for GNOME Shell to query it.
package config
