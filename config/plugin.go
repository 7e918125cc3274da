package config

import (
	"fmt"

	"importcss/plugin"
)

// Options converts plugin section to plugin options. Relative include and
// exclude patterns as well as transform command working directory are based
// on baseDir.
func (conf *PluginConfig) Options(baseDir string) (plugin.Options, error) {
	opts := plugin.Options{
		Include:            conf.Include,
		Exclude:            conf.Exclude,
		BaseDir:            baseDir,
		Output:             conf.Output,
		Minify:             conf.Minify,
		Modules:            conf.Modules,
		Inject:             conf.Inject,
		AlwaysOutput:       conf.AlwaysOutput,
		PreserveImports:    plugin.Bool(conf.PreserveImports),
		CopyRelativeAssets: conf.CopyRelativeAssets,
	}
	if len(conf.TransformCommand) > 0 {
		tr, err := plugin.NewCommandTransformer(conf.TransformCommand[0], conf.TransformCommand[1:], baseDir)
		if err != nil {
			return plugin.Options{}, fmt.Errorf("bad transform command: %w", err)
		}
		opts.Transform = tr
	}
	return opts, nil
}

// OutputOptions converts build section to host output options.
func (conf *BuildConfig) OutputOptions() plugin.OutputOptions {
	return plugin.OutputOptions{
		Dir:                 conf.OutputDir,
		File:                conf.OutputFile,
		PreserveModules:     conf.PreserveModules,
		PreserveModulesRoot: conf.PreserveModulesRoot,
		AssetFileNames:      conf.AssetFileNames,
	}
}
