package editor

import (
	"context"
	"fmt"
	"os/exec"
)

// ShellRunner runs commands through a POSIX shell.
type ShellRunner struct {
	// Shell defaults to "sh".
	Shell string
}

// Run implements CommandRunner.
func (r ShellRunner) Run(ctx context.Context, dir, command string) (string, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("running %q: %w", command, err)
	}
	return string(out), nil
}
