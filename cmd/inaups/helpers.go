package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/inaups/inaups/pkg/version"
)

// annotationLocal marks commands that work without a running daemon.
const annotationLocal = "local"

var localCommand = map[string]string{annotationLocal: "true"}

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

func getVersion() (clientVersion, daemonVersion string, err error) {
	daemonVersion, err = apiClient.GetVersion()
	if err != nil {
		return version.Version, "", err
	}
	return version.Version, daemonVersion, nil
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

// percentColor colours a charge by how close it is to the threshold.
func percentColor(p float64, threshold int) string {
	s := fmt.Sprintf("%d%%", int(p))
	switch {
	case p <= float64(threshold):
		return color.New(color.Bold, color.FgRed).Sprint(s)
	case p <= float64(threshold)+15:
		return color.New(color.Bold, color.FgYellow).Sprint(s)
	default:
		return color.New(color.Bold, color.FgGreen).Sprint(s)
	}
}
