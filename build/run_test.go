package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"importcss/config"
	"importcss/state"
)

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	// predictable file names
	cfg.Build.AssetFileNames = ""
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:   "build",
		Action: Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Value: "."},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}},
			&cli.BoolFlag{Name: "minify", Aliases: []string{"m"}},
			&cli.BoolFlag{Name: "preserve-modules"},
			&cli.BoolFlag{Name: "clean"},
		},
	}
}

func sampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"src/main.js":      "import \"./a.css\";\nimport \"./nested/b.css\";\nconsole.log(1);\n",
		"src/a.css":        ".a {\n  color: red;\n}\n",
		"src/nested/b.css": ".b { margin: 0 auto; }",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRun_Merged(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := sampleProject(t)

	err := buildCommand().Run(ctx, []string{"build", "--root", dir, "--out", "dist", "--minify", filepath.Join(dir, "src", "main.js")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dist", "main.css"))
	if err != nil {
		t.Fatalf("merged stylesheet missing: %v", err)
	}
	if string(data) != ".a{color:red;}.b{margin:0 auto;}" {
		t.Errorf("main.css = %q", data)
	}
	js, err := os.ReadFile(filepath.Join(dir, "dist", "main.js"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(js), ".css") {
		t.Errorf("stylesheet imports left in main.js:\n%s", js)
	}
	if len(env.Entries) != 1 || env.BaseDir != dir {
		t.Errorf("environment not updated: %q %v", env.BaseDir, env.Entries)
	}
}

func TestRun_PreserveModules(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := sampleProject(t)
	out := filepath.Join(t.TempDir(), "out")

	err := buildCommand().Run(ctx, []string{"build", "--root", dir, "--out", out, "--preserve-modules", filepath.Join(dir, "src", "main.js")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, name := range []string{"a.css", "nested/b.css", "main.js"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(name))); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	js, _ := os.ReadFile(filepath.Join(out, "main.js"))
	if !strings.HasPrefix(string(js), "import \"./a.css\";\nimport \"./nested/b.css\";\n") {
		t.Errorf("main.js =\n%s", js)
	}
}

func TestRun_Clean(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := sampleProject(t)
	stale := filepath.Join(dir, "dist", "stale.txt")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := buildCommand().Run(ctx, []string{"build", "--root", dir, "--clean", filepath.Join(dir, "src", "main.js")}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived clean build")
	}

	// cleaning project root itself is refused
	if err := buildCommand().Run(ctx, []string{"build", "--root", dir, "--out", dir, "--clean", filepath.Join(dir, "src", "main.js")}); err == nil {
		t.Error("expected error when output directory contains project root")
	}
}

func TestRun_NoEntries(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	if err := buildCommand().Run(ctx, []string{"build"}); err == nil {
		t.Error("expected error without entries")
	}
}

func TestRun_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := sampleProject(t)

	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	env.Rpt = rpt

	if err := buildCommand().Run(ctx, []string{"build", "--root", dir, filepath.Join(dir, "src", "main.js")}); err != nil {
		t.Fatal(err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(rpt.Name()); err != nil || info.Size() == 0 {
		t.Errorf("report not written: %v", err)
	}
}

func TestMinify(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "in.css")
	dst := filepath.Join(dir, "out.css")
	if err := os.WriteFile(src, []byte("a  {  color : red ; }\n/* x */"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &cli.Command{Name: "minify", Action: Minify}
	if err := cmd.Run(ctx, []string{"minify", src, dst}); err != nil {
		t.Fatalf("Minify() error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a{color:red;}" {
		t.Errorf("minified = %q", data)
	}

	if err := cmd.Run(ctx, []string{"minify", filepath.Join(dir, "missing.css"), dst}); err == nil {
		t.Error("expected error for missing source")
	}
}
