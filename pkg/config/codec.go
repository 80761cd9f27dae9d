package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type codec struct {
	marshal   func(v any) ([]byte, error)
	unmarshal func(b []byte, v any) error
}

var codecs = map[string]codec{
	".json": {
		marshal: func(v any) ([]byte, error) {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return nil, err
			}
			return append(b, '\n'), nil
		},
		unmarshal: json.Unmarshal,
	},
	".yaml": {marshal: yaml.Marshal, unmarshal: yaml.Unmarshal},
	".yml":  {marshal: yaml.Marshal, unmarshal: yaml.Unmarshal},
	".toml": {
		marshal: func(v any) ([]byte, error) {
			buf := &bytes.Buffer{}
			enc := toml.NewEncoder(buf)
			enc.SetIndentTables(true)
			if err := enc.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		unmarshal: toml.Unmarshal,
	},
}

// codecFor picks the format by file extension.
func codecFor(path string) (codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := codecs[ext]
	if !ok {
		return codec{}, pkgerrors.Errorf("unsupported config format %q, use .json, .yaml or .toml", ext)
	}
	return c, nil
}
