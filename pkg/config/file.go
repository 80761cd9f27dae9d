package config

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/inaups/inaups/pkg/display"
	"github.com/inaups/inaups/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		Bus:                ptr.To("1"),
		Address:            ptr.To(uint16(0x43)),
		ShutdownThreshold:  ptr.To(5),
		DelaySeconds:       ptr.To(5),
		GraceSeconds:       ptr.To(5),
		PollInterval:       ptr.To("@every 10s"),
		SampleMode:         ptr.To("live"),
		ShutdownMethod:     ptr.To("logind"),
		ShutdownCommand:    []string{"shutdown", "-h", "now"},
		AllowNonRootAccess: ptr.To(false),
		UPSX:               ptr.To(150),
		UPSY:               ptr.To(0),
		VolX:               ptr.To(150),
		VolY:               ptr.To(10),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk layout. The TOML and YAML keys follow the
// option names of the pwnagotchi plugin config.
type RawFileConfig struct {
	Bus                *string  `json:"bus,omitempty" yaml:"bus,omitempty" toml:"bus,omitempty"`
	Address            *uint16  `json:"address,omitempty" yaml:"address,omitempty" toml:"address,omitempty"`
	ShutdownThreshold  *int     `json:"shutdown,omitempty" yaml:"shutdown,omitempty" toml:"shutdown,omitempty"`
	DelaySeconds       *int     `json:"delaySeconds,omitempty" yaml:"delay_seconds,omitempty" toml:"delay_seconds,omitempty"`
	GraceSeconds       *int     `json:"graceSeconds,omitempty" yaml:"grace_seconds,omitempty" toml:"grace_seconds,omitempty"`
	PollInterval       *string  `json:"pollInterval,omitempty" yaml:"poll_interval,omitempty" toml:"poll_interval,omitempty"`
	SampleMode         *string  `json:"sampleMode,omitempty" yaml:"sample_mode,omitempty" toml:"sample_mode,omitempty"`
	ShutdownMethod     *string  `json:"shutdownMethod,omitempty" yaml:"shutdown_method,omitempty" toml:"shutdown_method,omitempty"`
	ShutdownCommand    []string `json:"shutdownCommand,omitempty" yaml:"shutdown_command,omitempty" toml:"shutdown_command,omitempty"`
	AllowNonRootAccess *bool    `json:"allowNonRootAccess,omitempty" yaml:"allow_non_root_access,omitempty" toml:"allow_non_root_access,omitempty"`
	UPSX               *int     `json:"upsX,omitempty" yaml:"ups_x_coord,omitempty" toml:"ups_x_coord,omitempty"`
	UPSY               *int     `json:"upsY,omitempty" yaml:"ups_y_coord,omitempty" toml:"ups_y_coord,omitempty"`
	VolX               *int     `json:"volX,omitempty" yaml:"vol_x_coord,omitempty" toml:"vol_x_coord,omitempty"`
	VolY               *int     `json:"volY,omitempty" yaml:"vol_y_coord,omitempty" toml:"vol_y_coord,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	ups := c.UPSPosition()
	vol := c.VoltPosition()

	rawConfig := &RawFileConfig{
		Bus:                ptr.To(c.Bus()),
		Address:            ptr.To(c.Address()),
		ShutdownThreshold:  ptr.To(c.ShutdownThreshold()),
		DelaySeconds:       ptr.To(int(c.Delay() / time.Second)),
		GraceSeconds:       ptr.To(int(c.Grace() / time.Second)),
		PollInterval:       ptr.To(c.PollInterval()),
		SampleMode:         ptr.To(c.SampleMode()),
		ShutdownMethod:     ptr.To(c.ShutdownMethod()),
		ShutdownCommand:    c.ShutdownCommand(),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
		UPSX:               ptr.To(ups.X),
		UPSY:               ptr.To(ups.Y),
		VolX:               ptr.To(vol.X),
		VolY:               ptr.To(vol.Y),
	}

	return rawConfig, nil
}

// Path returns the file the config is loaded from and saved to.
func (f *File) Path() string {
	return f.filepath
}

// read runs fn on the raw config under the read lock.
func (f *File) read(fn func(c *RawFileConfig)) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	fn(f.c)
}

func (f *File) Bus() string {
	var bus string
	f.read(func(c *RawFileConfig) {
		bus = ptr.Deref(c.Bus, *defaultFileConfig.Bus)
	})
	return bus
}

func (f *File) Address() uint16 {
	var addr uint16
	f.read(func(c *RawFileConfig) {
		addr = ptr.Deref(c.Address, *defaultFileConfig.Address)
	})
	return addr
}

func (f *File) ShutdownThreshold() int {
	var threshold int
	f.read(func(c *RawFileConfig) {
		threshold = ptr.Deref(c.ShutdownThreshold, *defaultFileConfig.ShutdownThreshold)
	})
	return threshold
}

func (f *File) Delay() time.Duration {
	var seconds int
	f.read(func(c *RawFileConfig) {
		seconds = ptr.Deref(c.DelaySeconds, *defaultFileConfig.DelaySeconds)
	})
	return time.Duration(seconds) * time.Second
}

func (f *File) Grace() time.Duration {
	var seconds int
	f.read(func(c *RawFileConfig) {
		seconds = ptr.Deref(c.GraceSeconds, *defaultFileConfig.GraceSeconds)
	})
	return time.Duration(seconds) * time.Second
}

func (f *File) PollInterval() string {
	var interval string
	f.read(func(c *RawFileConfig) {
		interval = ptr.Deref(c.PollInterval, *defaultFileConfig.PollInterval)
	})
	return interval
}

func (f *File) SampleMode() string {
	var mode string
	f.read(func(c *RawFileConfig) {
		mode = ptr.Deref(c.SampleMode, *defaultFileConfig.SampleMode)
	})
	return mode
}

func (f *File) ShutdownMethod() string {
	var method string
	f.read(func(c *RawFileConfig) {
		method = ptr.Deref(c.ShutdownMethod, *defaultFileConfig.ShutdownMethod)
	})
	return method
}

func (f *File) ShutdownCommand() []string {
	var command []string
	f.read(func(c *RawFileConfig) {
		command = c.ShutdownCommand
		if len(command) == 0 {
			command = defaultFileConfig.ShutdownCommand
		}
		command = append([]string(nil), command...)
	})
	return command
}

func (f *File) AllowNonRootAccess() bool {
	var allow bool
	f.read(func(c *RawFileConfig) {
		allow = ptr.Deref(c.AllowNonRootAccess, *defaultFileConfig.AllowNonRootAccess)
	})
	return allow
}

func (f *File) UPSPosition() display.Position {
	var pos display.Position
	f.read(func(c *RawFileConfig) {
		pos = display.Position{
			X: ptr.Deref(c.UPSX, *defaultFileConfig.UPSX),
			Y: ptr.Deref(c.UPSY, *defaultFileConfig.UPSY),
		}
	})
	return pos
}

func (f *File) VoltPosition() display.Position {
	var pos display.Position
	f.read(func(c *RawFileConfig) {
		pos = display.Position{
			X: ptr.Deref(c.VolX, *defaultFileConfig.VolX),
			Y: ptr.Deref(c.VolY, *defaultFileConfig.VolY),
		}
	})
	return pos
}

func (f *File) SetShutdownThreshold(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i < 0 || i > 100 {
		panic("shutdown threshold must be between 0 and 100")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ShutdownThreshold = &i
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) Load() error {
	c, err := f.parse()
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c = c

	return nil
}

// Reload reads the file again and swaps it in only if it validates. On error
// the current values stay in effect.
func (f *File) Reload() error {
	c, err := f.parse()
	if err != nil {
		return err
	}

	if err := NewFileFromConfig(c, f.filepath).Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c = c

	return nil
}

// parse reads the file without touching f.c. A missing or empty file yields
// an empty config.
func (f *File) parse() (*RawFileConfig, error) {
	codec, err := codecFor(f.filepath)
	if err != nil {
		return nil, err
	}

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RawFileConfig{}, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		return &RawFileConfig{}, nil
	}

	conf := RawFileConfig{}
	err = codec.unmarshal(b, &conf)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}

	return &conf, nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	codec, err := codecFor(f.filepath)
	if err != nil {
		return err
	}

	b, err := codec.marshal(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	err = os.WriteFile(f.filepath, b, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to write file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"bus":                f.Bus(),
		"address":            f.Address(),
		"shutdownThreshold":  f.ShutdownThreshold(),
		"delay":              f.Delay(),
		"grace":              f.Grace(),
		"pollInterval":       f.PollInterval(),
		"sampleMode":         f.SampleMode(),
		"shutdownMethod":     f.ShutdownMethod(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
		"upsPosition":        f.UPSPosition(),
		"voltPosition":       f.VoltPosition(),
	}
}
