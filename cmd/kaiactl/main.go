// Command kaiactl drives the investment platform from a terminal: it logs in,
// keeps the session on disk and lists or edits remote resources.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/kaia-invest/kaia-core/internal/app"
	"github.com/kaia-invest/kaia-core/internal/cli"
	"github.com/kaia-invest/kaia-core/internal/config"
)

const prog = "kaiactl"

var errUsage = errors.New("usage")

// env is what every command runs against.
type env struct {
	app *app.Application
	out *cli.Printer
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":          {"Log in and store the session", cmdLogin},
	"signup":         {"Create an account", cmdSignup},
	"logout":         {"Forget the stored session", cmdLogout},
	"whoami":         {"Show the stored profile", cmdWhoami},
	"projects":       {"List projects", cmdProjects},
	"project-create": {"Create a project", cmdProjectCreate},
	"investments":    {"List investments", cmdInvestments},
	"investors":      {"List investors", cmdInvestors},
	"transactions":   {"List transactions", cmdTransactions},
	"pay":            {"Register a payment", cmdPay},
	"settings":       {"Show or change admin settings", cmdSettings},
	"stats":          {"Show dashboard statistics", cmdStats},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	out := cli.NewPrinter(stdout, stderr)

	global := flag.NewFlagSet(prog, flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "path to a YAML config file")
	envFile := global.String("env", "", "path to a .env file (default .env)")
	global.Usage = func() { usage(stderr, global) }
	if err := global.Parse(args); err != nil {
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}
	name, cmdArgs := rest[0], rest[1:]

	if name == "completion" {
		if len(cmdArgs) != 1 {
			out.Error("usage: %s completion bash|zsh|fish", prog)
			return 2
		}
		if err := cli.GenerateCompletion(stdout, cmdArgs[0], prog, completionCommands()); err != nil {
			out.Error("%v", err)
			return 1
		}
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		out.Error("unknown command %q", name)
		global.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		out.Error("%v", err)
		return 1
	}
	if cfg.Storage.Backend == config.StorageMemory {
		cfg.Storage.Backend = config.StorageFile
	}

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		out.Error("%v", err)
		return 1
	}
	defer func() {
		if err := a.Stop(ctx); err != nil {
			out.Warning("%v", err)
		}
	}()
	a.Start(ctx)

	if err := cmd.run(ctx, &env{app: a, out: out}, cmdArgs); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		out.Error("%v", err)
		return 1
	}
	return 0
}

func completionCommands() []cli.Command {
	out := make([]cli.Command, 0, len(commands)+1)
	for name, c := range commands {
		out = append(out, cli.Command{Name: name, Summary: c.summary})
	}
	out = append(out, cli.Command{Name: "completion", Summary: "Print a shell completion script"})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func usage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [-config file] [-env file] <command> [flags]\n\nCommands:\n", prog)
	for _, c := range completionCommands() {
		fmt.Fprintf(w, "  %-15s %s\n", c.Name, c.Summary)
	}
	fmt.Fprintln(w, "\nGlobal flags:")
	global.PrintDefaults()
}
