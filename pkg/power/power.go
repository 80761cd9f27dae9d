package power

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Shutdown methods accepted by New.
const (
	MethodLogind  = "logind"
	MethodCommand = "command"
	MethodNone    = "none"
)

// DefaultCommand is used by MethodCommand when no command is configured.
var DefaultCommand = []string{"shutdown", "-h", "now"}

// Shutdowner powers the host off.
type Shutdowner interface {
	Shutdown() error
}

// Func adapts a function to Shutdowner.
type Func func() error

func (f Func) Shutdown() error { return f() }

// Logind asks systemd-logind to power off over the system bus.
type Logind struct{}

const (
	logindDest   = "org.freedesktop.login1"
	logindPath   = "/org/freedesktop/login1"
	logindMethod = "org.freedesktop.login1.Manager.PowerOff"
)

func (Logind) Shutdown() error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to connect to system bus")
	}

	logrus.WithField("method", logindMethod).Info("requesting power off")

	// The argument disables polkit interaction; the daemon runs as root.
	call := conn.Object(logindDest, dbus.ObjectPath(logindPath)).Call(logindMethod, 0, false)
	if call.Err != nil {
		return pkgerrors.Wrap(call.Err, "logind refused to power off")
	}
	return nil
}

// Command runs an external program, e.g. shutdown(8).
type Command struct {
	Args []string
}

func (c Command) Shutdown() error {
	if len(c.Args) == 0 {
		return fmt.Errorf("empty shutdown command")
	}

	logrus.WithField("command", strings.Join(c.Args, " ")).Info("running shutdown command")

	out, err := exec.Command(c.Args[0], c.Args[1:]...).CombinedOutput()
	if err != nil {
		return pkgerrors.Wrapf(err, "shutdown command failed: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// noop only logs. Useful when the daemon runs against a mock device.
type noop struct{}

func (noop) Shutdown() error {
	logrus.Warn("shutdown method is \"none\", not powering off")
	return nil
}

// New returns the Shutdowner for method.
func New(method string, command []string) (Shutdowner, error) {
	switch method {
	case MethodLogind, "":
		return Logind{}, nil
	case MethodCommand:
		if len(command) == 0 {
			command = DefaultCommand
		}
		return Command{Args: command}, nil
	case MethodNone:
		return noop{}, nil
	default:
		return nil, fmt.Errorf("unknown shutdown method %q", method)
	}
}
