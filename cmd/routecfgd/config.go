package main

import (
	"github.com/spf13/pflag"

	"github.com/routecfg/routecfgd/daemon/config"
)

const defaultConfigFile = "/etc/routecfgd/daemon.json"

// installConfigFlags binds the daemon config to flags. Defaults stay zero
// here; values the user does not set are filled from the config file and
// the built-in defaults by Config.Load, so flag-set values always win.
func installConfigFlags(conf *config.Config, flags *pflag.FlagSet) {
	flags.StringVar(&conf.VtyshPath, "vtysh", "", "Path to the vtysh binary")
	flags.StringVar(&conf.FeedSocket, "feed-socket", "", "Unix socket to receive change records on")
	flags.StringVar(&conf.DebugAddr, "debug-addr", "", "Address to serve the debug/metrics endpoint on")
	flags.StringVarP(&conf.Pidfile, "pidfile", "p", "", "Path to use for the daemon PID file")
	flags.StringVar(&conf.LogLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	flags.DurationVar(&conf.WakeInterval, "wake-interval", 0, "Upper bound on event loop sleep between polls")
	flags.DurationVar(&conf.ProbeInterval, "ready-probe-interval", 0, "Interval between control plane readiness probes at startup")
	flags.DurationVar(&conf.ReadyTimeout, "ready-timeout", 0, "How long to wait for the control plane at startup")
}
