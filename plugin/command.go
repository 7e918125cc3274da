package plugin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandTransformer pipes stylesheet text through external program (sass,
// postcss, etc.). Program reads source from stdin and writes result to
// stdout. Argument "{id}" is replaced with stylesheet path.
type CommandTransformer struct {
	Path string
	Args []string
	Dir  string
}

// NewCommandTransformer looks up program in PATH.
func NewCommandTransformer(program string, args []string, dir string) (*CommandTransformer, error) {
	p, err := exec.LookPath(program)
	if err != nil {
		return nil, fmt.Errorf("unable to find transform program: %w", err)
	}
	return &CommandTransformer{Path: p, Args: args, Dir: dir}, nil
}

func (c *CommandTransformer) Transform(ctx context.Context, id, code string) (string, error) {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{id}", id)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Dir = c.Dir
	cmd.Stdin = strings.NewReader(code)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %w: %s", c.Path, err, msg)
		}
		return "", fmt.Errorf("%s failed: %w", c.Path, err)
	}
	return stdout.String(), nil
}
