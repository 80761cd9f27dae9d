package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inaups/inaups/pkg/daemon"
	"github.com/inaups/inaups/pkg/version"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	opts := daemon.Options{}

	cmd := &cobra.Command{
		Use:         "daemon",
		Hidden:      true,
		Short:       "Run inaups daemon in the foreground",
		GroupID:     gAdvanced,
		Annotations: localCommand,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("inaups daemon starting")

			opts.ConfigPath = configPath
			opts.UnixSocketPath = unixSocketPath
			return daemon.Run(opts)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&opts.AllowNonRoot, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")
	f.Float64Var(&opts.MockVolts, "mock", 0,
		"Run against a simulated INA219 reporting this bus voltage, e.g. 3.9. The host is never powered off in this mode.")

	return cmd
}
