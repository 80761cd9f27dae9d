package daemon

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inaups/inaups/pkg/config"
	"github.com/inaups/inaups/pkg/ina219"
	"github.com/inaups/inaups/pkg/version"
)

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getTelemetry(c *gin.Context) {
	t, err := mon.Telemetry()
	if err != nil {
		logrus.Errorf("getTelemetry failed: %v", err)
		code := http.StatusInternalServerError
		if errors.Is(err, ina219.ErrBus) {
			code = http.StatusServiceUnavailable
		}
		c.IndentedJSON(code, err.Error())
		_ = c.AbortWithError(code, err)
		return
	}

	c.IndentedJSON(http.StatusOK, t)
}

func getBattery(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, mon.Status())
}

func getDisplay(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, board.Snapshot())
}

func getHistory(c *gin.Context) {
	var last time.Duration
	if s := c.Query("last"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		last = d
	}

	c.IndentedJSON(http.StatusOK, mon.History(last))
}

func setShutdownThreshold(c *gin.Context) {
	var t int
	if err := c.BindJSON(&t); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if t < 0 || t > 100 {
		err := fmt.Errorf("shutdown threshold must be between 0 and 100, got %d", t)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	old := conf.ShutdownThreshold()
	conf.SetShutdownThreshold(t)
	if err := conf.Save(); err != nil {
		conf.SetShutdownThreshold(old)
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	mon.SetThreshold(t)

	logrus.Infof("set shutdown threshold to %d", t)

	msg := fmt.Sprintf("set shutdown threshold to %d%%", t)
	if st := mon.Status(); !st.LastTick.IsZero() {
		msg += fmt.Sprintf(", current charge: %d%%", int(st.Percentage))
		if st.Percentage <= float64(t) {
			msg += ". Current charge is at or below the threshold, the host will shut down if it stays there."
		}
	}

	c.IndentedJSON(http.StatusCreated, msg)
}

func getEvents(c *gin.Context) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	logrus.WithField("subscribers", hub.Subscribers()).Debug("event stream opened")

	// Send the current board first so new clients need no extra request.
	c.SSEvent("display.snapshot", board.Snapshot())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(e.Name, string(e.Data))
			return true
		}
	})

	logrus.Debug("event stream closed")
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
