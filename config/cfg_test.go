package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Plugin.PreserveImports {
		t.Error("preserve_imports should default to true")
	}
	if cfg.Plugin.Minify || cfg.Plugin.Modules || cfg.Plugin.Inject || cfg.Plugin.AlwaysOutput || cfg.Plugin.CopyRelativeAssets {
		t.Errorf("unexpected plugin defaults: %+v", cfg.Plugin)
	}
	if len(cfg.Plugin.Include) != 0 || len(cfg.Plugin.Exclude) != 0 {
		t.Errorf("unexpected patterns: %v %v", cfg.Plugin.Include, cfg.Plugin.Exclude)
	}
	if cfg.Build.OutputDir != "dist" {
		t.Errorf("OutputDir = %q, want dist", cfg.Build.OutputDir)
	}
	// naming template must survive template expansion untouched
	if !strings.Contains(cfg.Build.AssetFileNames, "{{ .Name }}") {
		t.Errorf("AssetFileNames was expanded: %q", cfg.Build.AssetFileNames)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, `version: 1
plugin:
  include: ["src/**/*.css"]
  exclude: ["**/vendor/**"]
  minify: true
  modules: true
  preserve_imports: false
  copy_relative_assets: true
build:
  output_dir: out
  preserve_modules: true
  preserve_modules_root: src
  concurrency: 4
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.Join(tmpDir, "logs", "test.log")+`
    mode: append
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if !cfg.Plugin.Minify || !cfg.Plugin.Modules || cfg.Plugin.PreserveImports || !cfg.Plugin.CopyRelativeAssets {
		t.Errorf("plugin section not applied: %+v", cfg.Plugin)
	}
	if len(cfg.Plugin.Include) != 1 || cfg.Plugin.Include[0] != "src/**/*.css" {
		t.Errorf("Include = %v", cfg.Plugin.Include)
	}
	if cfg.Build.OutputDir != "out" || !cfg.Build.PreserveModules || cfg.Build.PreserveModulesRoot != "src" || cfg.Build.Concurrency != 4 {
		t.Errorf("build section not applied: %+v", cfg.Build)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("file log mode = %q", cfg.Logging.FileLogger.Mode)
	}
	// values absent from the file keep template defaults
	if cfg.Build.AssetFileNames == "" {
		t.Error("AssetFileNames lost default value")
	}
	// sanitizer creates directory for log file
	if _, err := os.Stat(filepath.Join(tmpDir, "logs")); err != nil {
		t.Errorf("log directory was not created: %v", err)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `version: 1
plugin:
  minify: true
  invalid indent
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	path := writeConfig(t, `version: 1
plugin:
  minfy: true
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected error for unknown fields")
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version: 2\n"},
		{"empty include pattern", "version: 1\nplugin:\n  include: [\"\"]\n"},
		{"negative concurrency", "version: 1\nbuild:\n  concurrency: -1\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Plugin.Output = "styles/app.css"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"version: 1", "output: styles/app.css", "preserve_imports: true", "output_dir: dist"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Dump() output does not contain %q:\n%s", want, data)
		}
	}

	// dumped configuration loads back
	back, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("dumped config is not valid: %v", err)
	}
	if back.Plugin.Output != cfg.Plugin.Output {
		t.Errorf("Output = %q after round trip", back.Plugin.Output)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 99\n"), &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got bare error: %v", err)
	}
}

func TestPluginConfig_Options(t *testing.T) {
	conf := PluginConfig{
		Include:            []string{"src/**/*.css"},
		Minify:             true,
		Inject:             true,
		PreserveImports:    false,
		CopyRelativeAssets: true,
	}
	opts, err := conf.Options("/proj")
	if err != nil {
		t.Fatal(err)
	}
	if opts.BaseDir != "/proj" || !opts.Minify || !opts.Inject || !opts.CopyRelativeAssets {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.PreserveImports == nil || *opts.PreserveImports {
		t.Error("PreserveImports should be explicitly false")
	}
	if opts.Transform != nil {
		t.Error("no transform command configured, Transform should be nil")
	}
}

func TestPluginConfig_OptionsBadCommand(t *testing.T) {
	conf := PluginConfig{TransformCommand: []string{"definitely-not-a-program-xyz"}}
	if _, err := conf.Options("/proj"); err == nil {
		t.Error("expected error for missing transform program")
	}
}

func TestBuildConfig_OutputOptions(t *testing.T) {
	conf := BuildConfig{OutputDir: "out", OutputFile: "app.js", PreserveModules: true, PreserveModulesRoot: "src", AssetFileNames: "x"}
	out := conf.OutputOptions()
	if out.Dir != "out" || out.File != "app.js" || !out.PreserveModules || out.PreserveModulesRoot != "src" || out.AssetFileNames != "x" {
		t.Errorf("unexpected output options %+v", out)
	}
}
