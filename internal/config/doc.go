// Package config loads stoat's settings.
//
// Settings come from, in increasing precedence: built-in defaults, the
// user config file, the project config file (.stoat.toml or .stoat.yaml in
// the working directory), an explicit --config file, and STOAT_*
// environment variables. Files may be TOML or YAML; keys use camelCase:
//
//	[display]
//	tabWidth = 4
//	wrapWidth = 100
//	foldPlaceholder = "⋯"
//
//	[syntax]
//	lexer = "chroma:rust"
//	parser = "treesitter"
//
//	[diagnostics]
//	minSeverity = "warning"
//	sources = ["rustc"]
//	maxPerServer = 500
//	cacheDir = "~/.cache/stoat"
//
//	[log]
//	level = "debug"
//
// Unknown keys are errors, so typos surface at load time.
package config
