package cli

import (
	"time"
)

// Options contains the configuration shared by the run and serve commands.
type Options struct {
	GraphPath   string
	JobsPath    string
	StorePath   string
	RedisURL    string
	FeedURL     string
	SyncTimeout time.Duration
	Debug       bool
	Quiet       bool
	// Vars holds "identifier=value" seeds, e.g. "@gv_custom_x_value-==pi".
	Vars []string
}

// ServeOptions extends Options with the HTTP listener settings.
type ServeOptions struct {
	Options
	Addr string
}
