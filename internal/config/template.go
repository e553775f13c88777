package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed templates/*.toml
var templates embed.FS

// templateFiles сопоставляет шаблон с именем локальной копии.
var templateFiles = []struct {
	template string
	target   string
}{
	{"templates/wifi_config.template.toml", WiFiFile},
	{"templates/mqtt_config.template.toml", MQTTFile},
}

// Template returns the embedded template that is copied to target.
func Template(target string) ([]byte, error) {
	for _, t := range templateFiles {
		if t.target == target {
			return templates.ReadFile(t.template)
		}
	}
	return nil, fmt.Errorf("no template for %s: %w", target, fs.ErrNotExist)
}

// Install copies the templates into dir under their untracked names and
// returns the paths it wrote. Existing copies are left alone unless force is set.
func Install(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("install templates: %w", err)
	}

	var written []string
	for _, t := range templateFiles {
		path := filepath.Join(dir, t.target)
		if !force {
			_, err := os.Stat(path)
			if err == nil {
				continue
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return written, fmt.Errorf("install templates: %w", err)
			}
		}

		data, err := templates.ReadFile(t.template)
		if err != nil {
			return written, fmt.Errorf("install templates: %w", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return written, fmt.Errorf("install templates: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Paths returns the locations of both local files inside dir.
func Paths(dir string) (wifiPath, mqttPath string) {
	return filepath.Join(dir, WiFiFile), filepath.Join(dir, MQTTFile)
}
