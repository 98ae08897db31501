// Package shell adapts bounded command execution (run_command,
// run_python_snippet) into the Tool Registry's Definition contract.
package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"coco/internal/cocoerr"
	"coco/internal/sandbox"
	"coco/internal/tools"
)

// DefaultWhitelist is the set of command names run_command allows without
// further argument inspection beyond sandboxing of path-like arguments.
var DefaultWhitelist = []string{"git", "docker", "kubectl", "ls", "cd", "pwd", "mv", "cp", "rm", "grep", "find"}

// RunCommand returns the run_command Definition: a shell tool bounded to a
// fixed whitelist of command names, executed with a timeout and no shell
// interpolation (argv passed directly to exec, never through /bin/sh).
func RunCommand(workdir string, whitelist []string) tools.Definition {
	allowed := make(map[string]struct{}, len(whitelist))
	for _, w := range whitelist {
		allowed[w] = struct{}{}
	}

	return tools.Definition{
		Name:        "run_command",
		Category:    "shell",
		Description: "Run a bounded shell command from a fixed whitelist (git, docker, kubectl, ls, cd, pwd, mv, cp, rm, grep, find) in the locked working directory.",
		TimeoutMS:   15000,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "description": "Command name, e.g. git"},
				"args":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Arguments"},
			},
			"required": []string{"command"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Command string   `json:"command"`
				Args    []string `json:"args"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "parse run_command args", err)
			}
			name := strings.TrimSpace(args.Command)
			if _, ok := allowed[name]; !ok {
				return nil, cocoerr.New(cocoerr.ExternalFailure, "command not in whitelist: "+name)
			}
			for _, a := range args.Args {
				if _, err := sandbox.SanitizeArg(workdir, a); err != nil {
					return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "argument rejected", err)
				}
			}

			cmd := exec.CommandContext(ctx, name, args.Args...)
			cmd.Dir = workdir
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			log.Debug().Str("command", name).Strs("args", args.Args).Msg("run_command dispatch")
			if err := cmd.Run(); err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "exec "+name+": "+stderr.String(), err)
			}

			return map[string]any{
				"command": name,
				"stdout":  stdout.String(),
				"stderr":  stderr.String(),
			}, nil
		},
	}
}
