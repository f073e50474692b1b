// Command rustup is the argv0-dispatched entry point: installed under its
// own name and under every shim name in pkg/proxy.Shims, it either enters
// the CLI below or re-executes the resolved toolchain binary.
//
// The subcommand switch follows the teacher's internal/cli/command.go
// idiom — one flag.NewFlagSet per subcommand, switched on os.Args[1] —
// generalized from the teacher's single "start" command to rustup's
// handful of toolchain/override/default/show verbs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rustup-rs/rustup/internal/obs"
	"github.com/rustup-rs/rustup/pkg/dispatch"
	"github.com/rustup-rs/rustup/pkg/install"
	"github.com/rustup-rs/rustup/pkg/proxy"
	"github.com/rustup-rs/rustup/pkg/resolver"
	"github.com/rustup-rs/rustup/pkg/settings"
	"github.com/rustup-rs/rustup/pkg/toolchain"
)

func main() {
	logger, err := obs.Init(isTerminal())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(dispatch.ExitInternal))
	}
	defer logger.Sync()

	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	home := toolchain.Home()
	d := &proxy.Dispatcher{RustupHome: home, Installed: isInstalled(home)}

	plan, err := d.Plan(proxy.Request{
		Arg0:     os.Args[0],
		Args:     os.Args[1:],
		Cwd:      mustGetwd(),
		Env:      os.Getenv,
		SelfPath: exe,
	})
	if err != nil {
		obs.LogTerminalError("dispatch", err)
		os.Exit(int(obs.KindOf(err).ExitCode()))
	}

	if !plan.IsCLI {
		if err := proxy.Run(plan.Target, plan.Args, os.Environ()); err != nil {
			obs.LogTerminalError("proxy exec", err)
			os.Exit(int(dispatch.ExitInternal))
		}
		return
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rustup <toolchain|override|default|show> ...")
		os.Exit(int(dispatch.ExitUserErr))
	}

	if err := runCLI(context.Background(), home, logger, os.Args[1], os.Args[2:]); err != nil {
		obs.LogTerminalError("command", err)
		os.Exit(int(obs.KindOf(err).ExitCode()))
	}
}

func runCLI(ctx context.Context, home string, logger *zap.Logger, verb string, args []string) error {
	switch verb {
	case "toolchain":
		return runToolchain(ctx, home, logger, args)
	case "override":
		return runOverride(home, args)
	case "default":
		return runDefault(home, args)
	case "show":
		return runShow(home)
	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

func runToolchain(ctx context.Context, home string, logger *zap.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: rustup toolchain <install|uninstall> <name>")
	}
	sub, name := args[0], args[1]

	switch sub {
	case "install":
		fs := flag.NewFlagSet("toolchain install", flag.ContinueOnError)
		profile := fs.String("profile", "default", "install profile (minimal|default|complete)")
		force := fs.Bool("force", false, "force-install unavailable components")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}

		ins := &install.Installer{RustupHome: home, Logger: logger}
		tc, err := ins.Install(ctx, install.Request{
			Toolchain: name,
			Profile:   toolchain.Profile(*profile),
			Force:     *force,
		})
		if err != nil {
			return err
		}
		fmt.Printf("installed %s\n", tc.Name)
		return nil
	case "uninstall":
		dir := toolchain.Dir(home, name)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("uninstalling %s: %w", name, err)
		}
		fmt.Printf("uninstalled %s\n", name)
		return nil
	default:
		return fmt.Errorf("unknown toolchain subcommand %q", sub)
	}
}

func runOverride(home string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rustup override <set|unset> [toolchain]")
	}
	s, err := settings.Load(toolchain.SettingsPath(home))
	if err != nil {
		return err
	}
	cwd := mustGetwd()

	switch args[0] {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: rustup override set <toolchain>")
		}
		s.SetOverride(cwd, args[1])
	case "unset":
		if !s.UnsetOverride(cwd) {
			return fmt.Errorf("no override set for %s", cwd)
		}
	default:
		return fmt.Errorf("unknown override subcommand %q", args[0])
	}
	return s.Save()
}

func runDefault(home string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rustup default <toolchain>")
	}
	s, err := settings.Load(toolchain.SettingsPath(home))
	if err != nil {
		return err
	}
	s.DefaultToolchain = args[0]
	return s.Save()
}

func runShow(home string) error {
	s, err := settings.Load(toolchain.SettingsPath(home))
	if err != nil {
		return err
	}
	res, err := resolver.Resolve(resolver.Invocation{
		Cwd: mustGetwd(),
		Env: os.Getenv,
	}, s, isInstalled(home))
	if err != nil {
		return err
	}
	fmt.Printf("active toolchain: %s (%s)\n", res.Toolchain, res.Source)
	return nil
}

func isInstalled(home string) resolver.IsInstalled {
	return func(name string) bool {
		_, err := os.Stat(toolchain.Dir(home, name))
		return err == nil
	}
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

func isTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
