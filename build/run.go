// Package build implements program subcommands working on stylesheets.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"importcss/host"
	"importcss/plugin"
	"importcss/state"
)

// Run builds module graph starting from entry scripts given as arguments and
// writes output directory.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	if cmd.Args().Len() == 0 {
		return errors.New("no entry modules have been specified")
	}
	if env.BaseDir, err = filepath.Abs(cmd.String("root")); err != nil {
		return err
	}
	env.Entries = env.Entries[:0]
	for _, arg := range cmd.Args().Slice() {
		entry, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		env.Entries = append(env.Entries, entry)
	}

	// command line overwrites configuration
	if cmd.IsSet("minify") {
		env.Cfg.Plugin.Minify = cmd.Bool("minify")
	}
	if cmd.IsSet("preserve-modules") {
		env.Cfg.Build.PreserveModules = cmd.Bool("preserve-modules")
	}
	if out := cmd.String("out"); len(out) > 0 {
		env.Cfg.Build.OutputDir = out
	}
	env.Clean = cmd.Bool("clean")

	outDir := env.Cfg.Build.OutputDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(env.BaseDir, outDir)
	}
	if env.Clean && contains(outDir, env.BaseDir) {
		return fmt.Errorf("refusing to clean output directory %s which contains project root", outDir)
	}

	opts, err := env.PluginOptions()
	if err != nil {
		return err
	}
	session, err := plugin.NewSession(opts, env.Log)
	if err != nil {
		return fmt.Errorf("unable to configure plugin: %w", err)
	}

	outOpts := env.Cfg.Build.OutputOptions()
	outOpts.Dir = outDir
	if outOpts.PreserveModulesRoot != "" && !filepath.IsAbs(outOpts.PreserveModulesRoot) {
		outOpts.PreserveModulesRoot = filepath.Join(env.BaseDir, outOpts.PreserveModulesRoot)
	}

	log.Debug("Building",
		zap.String("session", session.ID),
		zap.String("root", env.BaseDir),
		zap.Strings("entries", env.Entries),
		zap.String("output", outDir))

	output, graph, err := host.NewBuilder(session, outOpts, env.Cfg.Build.Concurrency, env.Log).Build(ctx, env.Entries)
	if err != nil {
		return err
	}

	if env.Clean {
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("unable to clean output directory: %w", err)
		}
	}
	if err := output.Write(outDir); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	names := output.Names()
	if env.Rpt != nil {
		for _, name := range names {
			data, _ := output.File(name)
			env.Rpt.StoreData("output/"+name, data)
		}
		env.Rpt.StoreData("graph.txt", []byte(describe(graph)))
	}

	log.Info("Build completed",
		zap.String("output", outDir),
		zap.Int("modules", len(graph.IDs())),
		zap.Int("stylesheets", session.Registry().Len()),
		zap.Int("files", len(names)),
		zap.Duration("elapsed", env.Uptime()))
	return nil
}

// contains reports whether dir is path or one of its parents.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func describe(g *host.Graph) string {
	var b strings.Builder
	for _, id := range g.IDs() {
		m := g.Module(id)
		kind := "script"
		switch {
		case m.Style:
			kind = "style"
		case m.External:
			kind = "external"
		}
		fmt.Fprintf(&b, "%s\t%s\n", kind, id)
		for _, e := range m.Imports {
			fmt.Fprintf(&b, "\t%q -> %s (bound: %t)\n", e.Decl.Source, e.ID, e.Decl.Bound)
		}
	}
	return b.String()
}
