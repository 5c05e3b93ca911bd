package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joomcode/errorx"
	"github.com/kr/pretty"
	"github.com/krehermann/stackvm/api"
	"github.com/krehermann/stackvm/config"
	"github.com/krehermann/stackvm/core"
	"github.com/krehermann/stackvm/types"
	"github.com/krehermann/stackvm/vm"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	input      string
	tokens     string
	format     string
	trace      bool
	state      bool
	serve      string
	verbose    bool
}

func parseFlags(args []string) (*options, map[string]bool, error) {
	fs := flag.NewFlagSet("stackvm", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "optional TOML config file")
	fs.StringVar(&o.input, "in", config.DefaultInput, "program file")
	fs.StringVar(&o.tokens, "tokens", config.DefaultTokens, "decoded instruction dump, empty to disable")
	fs.StringVar(&o.format, "format", core.FormatText, "dump format: text, gob or cbor")
	fs.BoolVar(&o.trace, "trace", false, "trace every step to stderr")
	fs.BoolVar(&o.state, "state", false, "print the final machine state to stderr")
	fs.StringVar(&o.serve, "serve", "", "run the HTTP API on this address instead of a program")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(o *options, set map[string]bool) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		cfg, err = config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
	}

	if set["in"] {
		cfg.Program.Input = o.input
	}
	if set["tokens"] {
		cfg.Program.Tokens = o.tokens
	}
	if set["format"] {
		cfg.Program.Format = o.format
	}
	if set["trace"] {
		cfg.Run.Trace = o.trace
	}
	if set["serve"] {
		cfg.API.Listen = o.serve
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func main() {
	o, set, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	cfg, err := loadConfig(o, set)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	l, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	zap.ReplaceGlobals(l)
	defer l.Sync()

	if set["serve"] {
		if err := serve(cfg, l); err != nil {
			l.Fatal("api server", zap.Error(err))
		}
		return
	}

	err = runProgram(cfg, o.state, os.Stdout, os.Stderr, l)
	if vm.IsFault(err) {
		// the machine has no recovery path for a fault
		l.Error("program aborted", zap.Error(err))
		errorx.Panic(err)
	}
	if err != nil {
		l.Fatal("run", zap.Error(err))
	}
}

// runProgram reads the program, writes the instruction dump, then
// executes with stdout as the character sink.
func runProgram(cfg *config.Config, showState bool, stdout, stderr io.Writer, l *zap.Logger) error {
	src, err := os.ReadFile(cfg.Program.Input)
	if err != nil {
		return fmt.Errorf("read program: %w", err)
	}

	p := core.NewProgram(src)
	l.Debug("decoded",
		zap.String("input", cfg.Program.Input),
		zap.Int("bytes", len(src)),
		zap.Int("instructions", p.Len()))

	if cfg.Program.Tokens != "" {
		if err := writeTokens(cfg.Program.Tokens, cfg.Program.Format, p); err != nil {
			return err
		}
	}

	out := bufio.NewWriter(stdout)
	opts := []vm.VMOpt{
		vm.LoggerOpt(l),
		vm.OutputOpt(out),
		vm.MaxStepsOpt(cfg.Run.MaxSteps),
	}
	if cfg.Run.Trace {
		opts = append(opts, vm.TraceOpt(stderr))
	}
	machine := vm.NewVM(p.Instructions, opts...)

	runErr := machine.Run()
	// output printed before a fault is still delivered
	if err := out.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flush output: %w", err)
	}
	if showState {
		pretty.Fprintf(stderr, "%# v\n", machine.Snapshot())
	}
	return runErr
}

func writeTokens(path, format string, p *core.Program) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create token dump: %w", err)
	}
	defer f.Close()

	enc, err := core.NewInstructionEncoder(format, f)
	if err != nil {
		return err
	}
	if err := enc.Encode(p.Instructions); err != nil {
		return fmt.Errorf("write token dump %s: %w", path, err)
	}
	return f.Close()
}

func serve(cfg *config.Config, l *zap.Logger) error {
	store := core.NewGenericMemStore[types.Hash, *core.Program]()
	defer store.Close()

	srv, err := api.NewServer(api.ServerConfig{
		ListenerAddr:    cfg.API.Listen,
		Logger:          l,
		MaxSteps:        cfg.API.MaxSteps,
		MaxProgramBytes: cfg.API.MaxProgramBytes,
	}, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
