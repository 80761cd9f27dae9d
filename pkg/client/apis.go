package client

import (
	"encoding/json"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/inaups/inaups/pkg/config"
	"github.com/inaups/inaups/pkg/display"
	"github.com/inaups/inaups/pkg/types"
)

func (c *Client) SetShutdownThreshold(t int) (string, error) {
	ret, err := c.Put("/shutdown-threshold", strconv.Itoa(t))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

func (c *Client) GetTelemetry() (*types.Telemetry, error) {
	ret, err := c.Get("/telemetry")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get telemetry")
	}

	var t types.Telemetry
	if err := json.Unmarshal([]byte(ret), &t); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal telemetry")
	}
	return &t, nil
}

func (c *Client) GetBattery() (*types.BatteryStatus, error) {
	ret, err := c.Get("/battery")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery status")
	}

	var st types.BatteryStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery status")
	}
	return &st, nil
}

func (c *Client) GetDisplay() (*display.Snapshot, error) {
	ret, err := c.Get("/display")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get display")
	}

	var snap display.Snapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal display")
	}
	return &snap, nil
}

// GetHistory returns the samples of the last duration. Zero returns all.
func (c *Client) GetHistory(last time.Duration) ([]types.Sample, error) {
	path := "/history"
	if last > 0 {
		path += "?last=" + last.String()
	}

	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get history")
	}

	var samples []types.Sample
	if err := json.Unmarshal([]byte(ret), &samples); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal history")
	}
	return samples, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}
