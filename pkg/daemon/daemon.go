package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/inaups/inaups/pkg/config"
	"github.com/inaups/inaups/pkg/display"
	"github.com/inaups/inaups/pkg/events"
	"github.com/inaups/inaups/pkg/ina219"
	"github.com/inaups/inaups/pkg/monitor"
	"github.com/inaups/inaups/pkg/power"
)

var (
	device *ina219.INA219
	conf   config.Config
	board  *display.Board
	hub    *events.EventHub
	mon    *monitor.Monitor
	sched  *Scheduler
)

// Options for Run.
type Options struct {
	ConfigPath     string
	UnixSocketPath string
	AllowNonRoot   bool
	// MockVolts runs against an in-memory device reporting this bus
	// voltage and never powers the host off. Zero opens the real bus.
	MockVolts float64
}

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/telemetry", getTelemetry)
	router.GET("/battery", getBattery)
	router.GET("/display", getDisplay)
	router.GET("/history", getHistory)
	router.PUT("/shutdown-threshold", setShutdownThreshold)
	router.GET("/events", getEvents)
	router.GET("/version", getVersion)

	return router
}

// monitorConfig maps the file config onto the monitor settings.
func monitorConfig(c config.Config) (monitor.Config, error) {
	mode, err := monitor.ParseSampleMode(c.SampleMode())
	if err != nil {
		return monitor.Config{}, err
	}
	return monitor.Config{
		Threshold:    c.ShutdownThreshold(),
		Delay:        c.Delay(),
		Grace:        c.Grace(),
		SampleMode:   mode,
		UPSPosition:  c.UPSPosition(),
		VoltPosition: c.VoltPosition(),
	}, nil
}

func openDevice(opts Options) (*ina219.INA219, error) {
	if opts.MockVolts > 0 {
		d, mock := ina219.NewMock(nil)
		mock.SetBusVoltage(opts.MockVolts)
		logrus.WithField("volts", opts.MockVolts).Warn("using mock INA219, readings are simulated")
		return d, nil
	}

	d, err := ina219.Open(conf.Bus(), conf.Address())
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open INA219 at bus %s address 0x%02x", conf.Bus(), conf.Address())
	}
	return d, nil
}

func Run(opts Options) error {
	router := setupRoutes()

	fc, err := config.NewFile(opts.ConfigPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	if err := fc.Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid config")
	}
	conf = fc
	logrus.WithFields(fc.LogrusFields()).Infof("config loaded")

	device, err = openDevice(opts)
	if err != nil {
		return err
	}

	shutdowner, err := power.New(conf.ShutdownMethod(), conf.ShutdownCommand())
	if err != nil {
		return err
	}
	if opts.MockVolts > 0 {
		shutdowner, _ = power.New(power.MethodNone, nil)
	}

	mc, err := monitorConfig(conf)
	if err != nil {
		return err
	}

	hub = events.NewEventHub()
	board = display.NewBoard(hub)
	mon = monitor.New(device, board, shutdowner, mc, monitor.WithEventHub(hub))
	mon.Setup()

	sched = NewScheduler(tick, onTickError)
	if err := sched.Schedule(conf.PollInterval()); err != nil {
		return pkgerrors.Wrapf(err, "invalid poll interval %q", conf.PollInterval())
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			if err := reloadConfig(fc); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(fc.LogrusFields()).Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// A stale socket from an unclean exit would make Listen fail.
	if err := os.Remove(opts.UnixSocketPath); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, "failed to remove stale socket %s", opts.UnixSocketPath)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", opts.UnixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", opts.UnixSocketPath)
	}

	if conf.AllowNonRootAccess() || opts.AllowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", opts.UnixSocketPath)
		err = os.Chmod(opts.UnixSocketPath, 0777)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to chmod %s", opts.UnixSocketPath)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	logrus.Debugln("tick scheduler starts")
	sched.Start()
	// First reading right away instead of after one poll interval.
	sched.RunNow()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping tick scheduler")
	sched.Stop()
	select {
	case <-sched.Done():
	case <-time.After(10 * time.Second):
		logrus.Warn("tick did not finish in time")
	}

	logrus.Info("closing INA219 connection")
	err = device.Close()
	if err != nil {
		logrus.Errorf("failed to close INA219 connection: %v", err)
	}

	logrus.Info("exiting")
	return nil
}

// reloadConfig rereads the file and applies what can change at runtime.
// The bus and address need a restart.
func reloadConfig(fc config.Config) error {
	if err := fc.Reload(); err != nil {
		return err
	}

	mc, err := monitorConfig(fc)
	if err != nil {
		return err
	}
	mon.Reconfigure(mc)

	if err := sched.Schedule(fc.PollInterval()); err != nil {
		return err
	}

	if fc.Bus() != device.Bus() || fc.Address() != device.Address() {
		logrus.Warn("bus or address changed, restart the daemon to apply")
	}
	return nil
}
