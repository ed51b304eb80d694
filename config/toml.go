package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

//go:embed config.toml.tpl
var councilConfigTemplate string

var configTemplate = template.Must(template.New("council.toml").Funcs(template.FuncMap{
	"StringsJoin": strings.Join,
}).Parse(councilConfigTemplate))

// RenderConfig renders the node config, cometbft sections and the [app]
// section, as toml.
func RenderConfig(config *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, config); err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteConfigFile renders config and writes it to path, creating the
// config directory when missing.
func WriteConfigFile(path string, config *Config) error {
	dat, err := RenderConfig(config)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, dat, 0o644)
}
