package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inaups/inaups/pkg/monitor"
	"github.com/inaups/inaups/pkg/types"
)

// Status lines repeat at Debug at most this often when nothing changed.
var statusPrintInterval = time.Minute

// tick runs one monitor tick. It is the scheduler task, so ticks never
// overlap and a confirmation window delays the next tick.
func tick(ctx context.Context) error {
	err := mon.Tick(ctx)
	if errors.Is(err, monitor.ErrShutdown) {
		return ErrStopSchedule
	}

	printStatus(mon.Status())

	if err != nil {
		return err
	}
	if mon.State() == monitor.StateShutdown {
		logrus.Info("host shutdown requested, no more ticks")
		return ErrStopSchedule
	}
	return nil
}

func onTickError(data any) {
	logrus.WithError(data.(error)).Error("tick failed")
}

var lastPrintTime time.Time

type loopStatus struct {
	state      string
	percentage int
	threshold  int
}

var lastStatus loopStatus

func printStatus(st types.BatteryStatus) {
	currentStatus := loopStatus{
		state:      st.State,
		percentage: int(st.Percentage),
		threshold:  st.ShutdownThreshold,
	}

	fields := logrus.Fields{
		"state":      st.State,
		"percentage": st.Percentage,
		"voltage":    st.VoltageVolts,
		"threshold":  st.ShutdownThreshold,
	}

	defer func() { lastPrintTime = time.Now() }()

	// Skip printing if the last print was recent and everything is the same.
	if time.Since(lastPrintTime) < statusPrintInterval && lastStatus == currentStatus {
		logrus.WithFields(fields).Trace("battery status")
		return
	}

	logrus.WithFields(fields).Debug("battery status")

	lastStatus = currentStatus
}
