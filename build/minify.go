package build

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"importcss/css"
	"importcss/state"
)

// Minify minifies single stylesheet, reading SOURCE (or STDIN) and writing
// DESTINATION (or STDOUT).
func Minify(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("minify")

	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	var (
		data []byte
		err  error
	)
	if len(src) == 0 || src == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}

	out := css.Minify(string(data))

	if len(dst) == 0 || dst == "-" {
		_, err = io.WriteString(os.Stdout, out)
	} else {
		err = os.WriteFile(dst, []byte(out), 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	log.Debug("Stylesheet minified", zap.Int("in", len(data)), zap.Int("out", len(out)))
	return nil
}
