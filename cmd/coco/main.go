// Command coco runs the terminal-native agentic assistant: it wires
// configuration, the Anthropic provider, every memory store, the tool
// registry, the Consciousness Engine and the Autonomous Scheduler together,
// then drives a read-eval-print loop over stdin/stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"coco/internal/config"
	"coco/internal/docs"
	"coco/internal/engine"
	"coco/internal/episodic"
	"coco/internal/extract"
	"coco/internal/facts"
	"coco/internal/identity"
	"coco/internal/llm/anthropic"
	"coco/internal/logging"
	"coco/internal/scheduler"
	"coco/internal/semantic"
	"coco/internal/storage"
	"coco/internal/summary"
	"coco/internal/tools"
	"coco/internal/tools/fs"
	"coco/internal/tools/shell"
	"coco/internal/tools/stubs"
	"coco/internal/tools/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "coco: config:", err)
		os.Exit(1)
	}

	workdir, once := parseArgs(os.Args[1:], cfg.Workdir)
	cfg.Workdir = workdir

	logging.Init(cfg.LogLevel, cfg.LogPretty)

	if err := os.MkdirAll(cfg.Workdir, 0o755); err != nil {
		log.Fatal().Err(err).Str("workdir", cfg.Workdir).Msg("create workspace")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, sched, db, err := bootstrap(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap")
	}
	defer db.Close()

	go sched.Run(ctx)

	if once != "" {
		runTurn(ctx, eng, once)
		return
	}

	repl(ctx, eng)
}

// parseArgs reads the two command-line switches argument parsing is
// limited to: an optional workspace path (positional or --workdir) and a
// --once smoke-test message. Flag/cobra-style parsing is out of scope, so this walks
// os.Args directly.
func parseArgs(args []string, defaultWorkdir string) (workdir, once string) {
	workdir = defaultWorkdir
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--once" && i+1 < len(args):
			once = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--once="):
			once = strings.TrimPrefix(args[i], "--once=")
		case args[i] == "--workdir" && i+1 < len(args):
			workdir = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--workdir="):
			workdir = strings.TrimPrefix(args[i], "--workdir=")
		case !strings.HasPrefix(args[i], "-"):
			workdir = args[i]
		}
	}
	return workdir, once
}

// bootstrap constructs every store, the tool registry, the Consciousness
// Engine and the Autonomous Scheduler from cfg, sharing one sqlite database
// and one tool registry between the foreground engine and the scheduler's
// background template runs.
func bootstrap(cfg config.Config) (*engine.Engine, *scheduler.Scheduler, *storage.DB, error) {
	db, err := storage.Open(cfg.Workdir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open storage: %w", err)
	}

	provider := anthropic.New(cfg.Anthropic, nil)

	reg := tools.NewRegistry()
	reg.Register(fs.ReadFile(cfg.Workdir))
	reg.Register(fs.WriteFile(cfg.Workdir))
	reg.Register(fs.ListDir(cfg.Workdir))
	reg.Register(fs.SearchCode(cfg.Workdir))
	reg.Register(shell.RunCommand(cfg.Workdir, shell.DefaultWhitelist))
	reg.Register(shell.RunPythonSnippet(cfg.Workdir))
	reg.Register(web.SearchWeb(os.Getenv("COCO_SEARXNG_URL")))
	for _, def := range stubs.All() {
		reg.Register(def)
	}

	docsDir := filepath.Join(cfg.Workdir, "documents")
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create documents dir: %w", err)
	}

	eng := engine.New(provider, cfg.Anthropic.Model, reg, cfg)
	eng.Identity = identity.New(cfg.Workdir)
	eng.Episodic = episodic.New(cfg.BufferRollingCheckpoint)
	eng.Exchanges = episodic.NewStore(db)
	eng.Summary = summary.New(provider, cfg.Anthropic.Model)
	eng.SummaryStore = summary.NewStore(db)
	eng.Facts = facts.NewStore(db)
	eng.Semantic = semantic.NewStore(db)
	eng.Docs = docs.New(docsDir)
	eng.Extract = extract.NewRegistry()
	eng.SessionID = sessionID()
	eng.MaxToolParallelism = 4

	if prior, err := eng.SummaryStore.LoadAll(); err != nil {
		log.Warn().Err(err).Msg("load persisted summaries")
	} else {
		for _, s := range prior {
			eng.Summary.Append(s)
		}
	}

	schedStore := scheduler.NewStore(db)
	quotas := map[string]int{"email": 20, "media": 5, "twitter": 10}
	limiter := scheduler.NewRateLimiter(quotas, 24*time.Hour)
	rt := eng.SchedulerRuntime(schedStore, limiter)

	tick := time.Duration(cfg.SchedulerTickSeconds) * time.Second
	defaultTimeout := time.Duration(cfg.TaskDefaultTimeoutSeconds) * time.Second
	hardTimeout := time.Duration(cfg.TaskHardTimeoutSeconds) * time.Second
	sched := scheduler.New(schedStore, rt, tick, defaultTimeout, hardTimeout)

	return eng, sched, db, nil
}

func sessionID() string {
	return "cli-" + time.Now().UTC().Format("20060102T150405")
}

func runTurn(ctx context.Context, eng *engine.Engine, userText string) {
	out, err := eng.Run(ctx, userText)
	if err != nil {
		fmt.Fprintln(os.Stderr, "coco:", err)
		return
	}
	fmt.Println(out)
}

// repl drives the interactive read-eval-print loop: one line of input, one
// engine turn, repeated until EOF, Ctrl-D, or /exit.
func repl(ctx context.Context, eng *engine.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("coco is listening. Type a message, /exit to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			break
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		runTurn(ctx, eng, line)
	}
}
