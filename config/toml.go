package config

import (
	"bytes"
	_ "embed"
	"os"
	"strings"
	"text/template"
)

const DefaultDirPerm = 0o700

// The template mirrors the mapstructure tags in config.go; keep the two in
// sync when adding settings.
//
//go:embed config.toml.tpl
var defaultConfigTemplate string

var configTemplate = template.Must(template.New("configFileTemplate").
	Funcs(template.FuncMap{"StringsJoin": strings.Join}).
	Parse(defaultConfigTemplate))

// WriteConfigFile renders the node configuration into a config.toml at path.
func WriteConfigFile(path string, config *Config) error {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, config); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
