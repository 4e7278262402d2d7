// chatkit is an administration CLI for a Chatkit instance. Commands take
// the form "chatkit <resource> <verb> [flags]" and print the service
// response as JSON.
//
// Credentials come from the config file (--config, CHATKIT_CONFIG, or
// ./config.yaml) and the CHATKIT_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/hilthontt/chatkit"
	"github.com/hilthontt/chatkit/internal/configs"
	"github.com/hilthontt/chatkit/internal/logging"
	"github.com/hilthontt/chatkit/internal/tracing"
	"github.com/hilthontt/chatkit/option"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one command. extra options are applied after the ones
// derived from configuration.
func run(ctx context.Context, args []string, out io.Writer, extra ...option.RequestOption) error {
	var configPath string
	var debug bool

	flagSet := pflag.NewFlagSet("chatkit", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to config file")
	flagSet.BoolVar(&debug, "debug", false, "dump every request and response to the log")
	flagSet.Usage = func() { printUsage(flagSet.Output()) }
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) < 2 {
		printUsage(flagSet.Output())
		return fmt.Errorf("expected a resource and a verb")
	}
	name := rest[0] + " " + rest[1]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	cmdFlags := pflag.NewFlagSet("chatkit "+name, pflag.ContinueOnError)
	exec := cmd.flags(cmdFlags)
	if err := cmdFlags.Parse(rest[2:]); err != nil {
		return err
	}
	if cmdFlags.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", cmdFlags.Arg(0))
	}

	cfg, err := configs.Load(configs.DetermineConfigPath(configPath))
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Logger, "chatkit-cli")
	defer func() { _ = logger.Sync() }()

	tp, shutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	opts := append(cfg.ClientOptions(),
		option.WithLogger(logger.Zap()),
		option.WithTracerProvider(tp),
	)
	if debug {
		opts = append(opts, option.WithDebugLog(logger.Zap()))
	}
	client, err := chatkit.NewClient(append(opts, extra...)...)
	if err != nil {
		return err
	}

	logger.Debug(logging.Chatkit, logging.Command, "running command", map[logging.ExtraKey]any{logging.Path: name})

	result, err := exec(ctx, client)
	if err != nil {
		return err
	}
	return printResult(out, result)
}

func printResult(out io.Writer, result any) error {
	var doc any = result
	if res, ok := result.(*chatkit.Response); ok {
		if len(res.Body) == 0 {
			doc = map[string]int{"status": res.Status}
		} else {
			doc = res.Body
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: chatkit [--config path] [--debug] <resource> <verb> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-22s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run \"chatkit <resource> <verb> --help\" for command flags.")
}
