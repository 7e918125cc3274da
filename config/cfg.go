package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	PluginConfig struct {
		Include            []string `yaml:"include" validate:"dive,required"`
		Exclude            []string `yaml:"exclude" validate:"dive,required"`
		Output             string   `yaml:"output,omitempty"`
		Minify             bool     `yaml:"minify"`
		Modules            bool     `yaml:"modules"`
		Inject             bool     `yaml:"inject"`
		AlwaysOutput       bool     `yaml:"always_output"`
		PreserveImports    bool     `yaml:"preserve_imports"`
		CopyRelativeAssets bool     `yaml:"copy_relative_assets"`
		TransformCommand   []string `yaml:"transform_command,omitempty" validate:"omitempty,dive,required"`
	}

	BuildConfig struct {
		OutputDir           string `yaml:"output_dir" sanitize:"path_clean" validate:"required"`
		OutputFile          string `yaml:"output_file,omitempty"`
		PreserveModules     bool   `yaml:"preserve_modules"`
		PreserveModulesRoot string `yaml:"preserve_modules_root,omitempty"`
		AssetFileNames      string `yaml:"asset_file_names,omitempty"`
		Concurrency         int    `yaml:"concurrency" validate:"gte=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Plugin    PluginConfig   `yaml:"plugin"`
		Build     BuildConfig    `yaml:"build"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, value is a naming template
	// expanded by the build host for every emitted file
	AssetFileNamesFieldName TemplateFieldName = "asset_file_names"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(AssetFileNamesFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
