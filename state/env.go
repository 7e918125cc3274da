// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"importcss/config"
	"importcss/plugin"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by build subcommand
	BaseDir string   // project root, relative patterns and module ids are based here
	Entries []string // entry modules
	Clean   bool     // remove output directory before writing

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// PluginOptions converts loaded configuration to plugin options based on
// project root.
func (e *LocalEnv) PluginOptions() (plugin.Options, error) {
	return e.Cfg.Plugin.Options(e.BaseDir)
}
