package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	cmtos "github.com/cometbft/cometbft/libs/os"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

// Rendered once at init. The CometBFT sections come from config.toml.tpl,
// the [app] section from app.toml.tpl with *AppConfig as its root.
var (
	//go:embed config.toml.tpl
	cometConfigTemplate string
	//go:embed app.toml.tpl
	appConfigTemplate string

	cometTemplate *template.Template
	appTemplate   *template.Template
)

func init() {
	funcs := template.FuncMap{
		"StringsJoin": strings.Join,
		"duration":    func(d time.Duration) string { return d.String() },
	}
	cometTemplate = template.Must(template.New("cometConfig").Funcs(funcs).Parse(cometConfigTemplate))
	appTemplate = template.Must(template.New("appConfig").Funcs(funcs).Parse(appConfigTemplate))
}

// RenderConfig renders the full config.toml for config.
func RenderConfig(config *Config) ([]byte, error) {
	if config.App == nil {
		return nil, fmt.Errorf("%w: missing [app] section", ErrInvalidConfig)
	}
	var buffer bytes.Buffer
	if err := cometTemplate.Execute(&buffer, config); err != nil {
		return nil, fmt.Errorf("render comet config: %w", err)
	}
	if err := appTemplate.Execute(&buffer, config.App); err != nil {
		return nil, fmt.Errorf("render app config: %w", err)
	}
	return buffer.Bytes(), nil
}

// WriteConfigFile validates config, renders it and writes it to
// configFilePath, creating the directory when needed.
func WriteConfigFile(configFilePath string, config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	dat, err := RenderConfig(config)
	if err != nil {
		return err
	}
	if err = cmtos.EnsureDir(filepath.Dir(configFilePath), DefaultDirPerm); err != nil {
		return err
	}
	return cmtos.WriteFile(configFilePath, dat, 0o644)
}
