package photo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lewtec/camsave/internal/export"
	"github.com/lewtec/camsave/internal/naming"
)

type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	Naming   NamingConfig  `yaml:"naming"`
	Export   ExportConfig  `yaml:"export"`
	Database string        `yaml:"database"`
	Server   ServerConfig  `yaml:"server"`
}

type StorageConfig struct {
	// PicturesRoot is the public pictures directory, Subfolder the app's
	// directory inside it.
	PicturesRoot string `yaml:"pictures_root"`
	Subfolder    string `yaml:"subfolder"`
	TempDir      string `yaml:"temp_dir"`
	KeepCaptures bool   `yaml:"keep_captures"`
}

type NamingConfig struct {
	Prefix string `yaml:"prefix"`
}

type ExportConfig struct {
	DefaultQuality *int `yaml:"default_quality"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	Language string `yaml:"language"`
}

const DefaultSubfolder = "CamSave"

// Quality returns the configured slider default.
func (c *Config) Quality() export.Quality {
	if c.Export.DefaultQuality == nil {
		return export.DefaultQuality
	}
	return export.Quality(*c.Export.DefaultQuality)
}

// LoadConfig reads filename, fills defaults and resolves paths. Relative paths
// are taken relative to the directory holding the config file.
func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var ret Config
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("while parsing %s: %w", filename, err)
	}
	if err := ret.resolve(filepath.Dir(filename)); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &ret, nil
}

func (c *Config) resolve(base string) error {
	if c.Storage.Subfolder == "" {
		c.Storage.Subfolder = DefaultSubfolder
	}
	if c.Naming.Prefix == "" {
		c.Naming.Prefix = naming.DefaultPrefix
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Language == "" {
		c.Server.Language = "en"
	}
	if c.Storage.PicturesRoot == "" {
		c.Storage.PicturesRoot = "~/Pictures"
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = filepath.Join(os.TempDir(), "camsave")
	}
	if c.Database == "" {
		c.Database = "camsave.db"
	}

	for _, p := range []*string{&c.Storage.PicturesRoot, &c.Storage.TempDir, &c.Database} {
		resolved, err := resolvePath(base, *p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}

func (c *Config) Validate() error {
	if !c.Quality().Valid() {
		return fmt.Errorf("export.default_quality: %w", export.ErrInvalidQuality)
	}
	if filepath.IsAbs(c.Storage.Subfolder) || strings.Contains(c.Storage.Subfolder, "..") {
		return fmt.Errorf("storage.subfolder %q must stay inside the pictures root", c.Storage.Subfolder)
	}
	if strings.ContainsAny(c.Naming.Prefix, `/\`) {
		return fmt.Errorf("naming.prefix %q must not contain path separators", c.Naming.Prefix)
	}
	return nil
}

// PicturesDir is where saved pictures land.
func (c *Config) PicturesDir() string {
	return filepath.Join(c.Storage.PicturesRoot, c.Storage.Subfolder)
}

func resolvePath(base, p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("while expanding %q: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p), nil
}

// WriteSampleConfig creates a config whose data stays next to it, under the
// pictures, tmp and camsave.db entries of its directory.
func WriteSampleConfig(filename string) error {
	sampleConfig := `# camsave configuration file
# Relative paths are resolved from the directory holding this file.

storage:
  # Public pictures root; saved pictures go to <pictures_root>/<subfolder>.
  pictures_root: pictures
  subfolder: CamSave
  # Captures wait here until they are saved.
  temp_dir: tmp
  # Keep every capture on disk instead of only the latest one.
  # Use 'camsave history prune' to clean up.
  keep_captures: false

naming:
  prefix: JPEG_

export:
  # Initial position of the quality slider (0-100).
  default_quality: 50

database: camsave.db

server:
  addr: ":8080"
  # en or pt-BR; browsers can still ask for another one.
  language: en
`
	return os.WriteFile(filename, []byte(sampleConfig), 0o644)
}
