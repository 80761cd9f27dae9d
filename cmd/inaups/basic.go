package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inaups/inaups/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		Annotations: localCommand,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewThresholdCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "threshold [percentage]",
		Short:   "Set the shutdown threshold",
		GroupID: gBasic,
		Long: `Set the shutdown threshold.

This is a percentage from 0 to 100. Once the battery charge is at or below the
threshold for the whole confirmation window (delaySeconds in the config), the
host is shut down. 0 only shuts down on a completely empty battery.`,
		RunE: func(_ *cobra.Command, args []string) error {
			threshold, err := parseIntArg(args, "threshold")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetShutdownThreshold(threshold)
			if err != nil {
				return fmt.Errorf("failed to set shutdown threshold: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set shutdown threshold to %d%%", threshold)

			return nil
		},
	}
}
