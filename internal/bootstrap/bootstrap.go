// Package bootstrap holds the settings the admin page's boot script is
// rendered from. The script waits for the externally loaded editor library
// at a fixed interval with no upper bound, then initialises it once.
package bootstrap

import "time"

// DefaultInterval is the pause between readiness checks.
const DefaultInterval = 50 * time.Millisecond

// DefaultConfigPath is the editor configuration document, relative to the
// site root.
const DefaultConfigPath = "/admin/config.yml"

// Options configures the bootstrap sequence.
type Options struct {
	// ManualInit must be set before the editor library loads; it stops the
	// library from starting (and running its own OAuth flow) on its own.
	// When false the library self-initialises and the boot script does nothing.
	ManualInit bool
	ConfigPath string
	Interval   time.Duration
}

// WithDefaults fills an unset config path and interval.
func (o Options) WithDefaults() Options {
	if o.ConfigPath == "" {
		o.ConfigPath = DefaultConfigPath
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}
