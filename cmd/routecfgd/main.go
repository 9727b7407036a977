package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/routecfg/routecfgd/daemon"
	"github.com/routecfg/routecfgd/daemon/config"
	"github.com/routecfg/routecfgd/daemon/frr"
)

// Exit statuses. Startup failure (the control plane never became
// reachable) is distinguished from runtime failure so supervisors can tell
// "FRR is not up yet" apart from a daemon bug.
const (
	exitInternal = 1
	exitStartup  = 2
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

type daemonOptions struct {
	version    bool
	configFile string
	conf       *config.Config
}

func newDaemonCommand() *cobra.Command {
	opts := daemonOptions{conf: config.New()}

	cmd := &cobra.Command{
		Use:           "routecfgd [OPTIONS]",
		Short:         "A reconciliation daemon translating state-store changes into FRR configuration.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				showVersion()
				return nil
			}
			return runDaemon(&opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.version, "version", "v", false, "Print version information and quit")
	flags.StringVar(&opts.configFile, "config-file", defaultConfigFile, "Daemon configuration file")
	installConfigFlags(opts.conf, flags)

	return cmd
}

func runDaemon(opts *daemonOptions) error {
	if err := opts.conf.Load(opts.configFile); err != nil {
		return err
	}
	if err := configureLogging(opts.conf); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(opts.conf, nil)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

func configureLogging(conf *config.Config) error {
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", conf.LogLevel)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func showVersion() {
	fmt.Printf("routecfgd version %s, build %s\n", version, gitCommit)
}

func main() {
	cmd := newDaemonCommand()
	if err := cmd.Execute(); err != nil {
		logrus.Error(err)
		if errors.Is(err, frr.ErrNotReady) {
			os.Exit(exitStartup)
		}
		os.Exit(exitInternal)
	}
}
