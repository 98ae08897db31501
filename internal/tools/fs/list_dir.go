package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"coco/internal/cocoerr"
	"coco/internal/sandbox"
	"coco/internal/tools"
)

// ListDir returns the list_dir Definition, sandboxed to workdir.
func ListDir(workdir string) tools.Definition {
	return tools.Definition{
		Name:        "list_dir",
		Category:    "filesystem",
		Description: "List files and directories under a path in the locked working directory.",
		TimeoutMS:   5000,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Relative path under WORKDIR (defaults to '.')", "default": "."},
			},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Path string `json:"path"`
			}
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return nil, cocoerr.Wrap(cocoerr.InvalidInput, "parse list_dir args", err)
				}
			}
			if args.Path == "" {
				args.Path = "."
			}
			rel, err := sandbox.SanitizeArg(workdir, args.Path)
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "sanitize path", err)
			}
			entries, err := os.ReadDir(filepath.Join(workdir, rel))
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "list "+rel, err)
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)
			return map[string]any{"path": rel, "entries": names}, nil
		},
	}
}
