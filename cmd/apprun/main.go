package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acadia-aisp/apprun/internal/appid"
	"github.com/acadia-aisp/apprun/internal/box"
	"github.com/acadia-aisp/apprun/internal/bundle"
	"github.com/acadia-aisp/apprun/internal/config"
	"github.com/acadia-aisp/apprun/internal/desktop"
	"github.com/acadia-aisp/apprun/internal/launch"
	"github.com/acadia-aisp/apprun/internal/notify"
	"github.com/acadia-aisp/apprun/pkg/logging"
)

const version = "1.0.0"

// defaultConfigPath is consulted when --config is not given; a missing
// file falls back to stock settings.
const defaultConfigPath = "/etc/apprun/config.toml"

var (
	rootCmd     *cobra.Command
	configPath  string
	runOnceFlag bool
)

func init() {
	rootCmd = &cobra.Command{
		Use:           "apprun",
		Short:         "Launch and integrate application bundles",
		Long:          `Launch application bundles from directories, provisioning cached runtime environments and desktop integration on demand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	launchCmd := &cobra.Command{
		Use:   "launch <bundle-path> [args...]",
		Short: "Provision and run a bundle, forwarding its exit code",
		// Everything after the bundle path belongs to the child
		// process, including flags.
		DisableFlagParsing: true,
		Run:                runLaunch,
	}

	infoCmd := &cobra.Command{
		Use:   "info <bundle-path>",
		Short: "Show how a bundle would be launched",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	dropinCmd := &cobra.Command{
		Use:   "dropin",
		Short: "Run the desktop drop-in service",
		Long:  `Periodically scan configured bundle directories and keep .desktop launcher entries in sync with the bundles found there.`,
		RunE:  runDropin,
	}
	dropinCmd.Flags().BoolVar(&runOnceFlag, "once", false, "Run a single probe pass and exit")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml")

	rootCmd.AddCommand(launchCmd, infoCmd, dropinCmd)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(launch.ExitPanic)
		}
	}()

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("apprun %s\n", version)
		os.Exit(launch.ExitOK)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(launch.ExitUsage)
	}
}

// loadConfig resolves the effective configuration: the --config file
// when given, otherwise the system config file when present, otherwise
// stock defaults.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.Default(), nil
}

// splitLaunchArgs strips a leading --config flag from the raw launch
// arguments. Flag parsing is disabled on the launch command so child
// flags pass through untouched; only a --config appearing before the
// bundle path belongs to apprun itself.
func splitLaunchArgs(args []string) (cfg string, rest []string) {
	for len(args) > 0 {
		if args[0] == "--config" && len(args) > 1 {
			cfg = args[1]
			args = args[2:]
			continue
		}
		if v, ok := strings.CutPrefix(args[0], "--config="); ok {
			cfg = v
			args = args[1:]
			continue
		}
		break
	}
	return cfg, args
}

// cacheRoot prefers the configured override over the per-user default.
func cacheRoot(cfg config.Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	return box.CacheRoot()
}

func runLaunch(cmd *cobra.Command, args []string) {
	if cfg, rest := splitLaunchArgs(args); cfg != "" {
		configPath = cfg
		args = rest
	}
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		_ = cmd.Usage()
		os.Exit(launch.ExitUsage)
	}

	logger := logging.New("apprun", logging.Level(), os.Stderr)
	notifier := notify.NewDesktop(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Warn("⚠️ Ignoring unreadable config", "error", err)
		cfg = config.Default()
	}

	orch := launch.New(cacheRoot(cfg), notifier, logger)
	if g, err := desktop.NewUserIntegrator(cfg.LauncherCommand, logger); err == nil {
		orch.Boxes.Desktop = g
	}

	os.Exit(orch.Launch(args[0], args[1:]))
}

func runInfo(cmd *cobra.Command, args []string) error {
	b := bundle.New(args[0])
	kind := b.Probe()
	if kind == bundle.EntryInvalid {
		return fmt.Errorf("no recognized entry point in %s", b.Path)
	}

	id, err := appid.Resolve(b.Path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.Default()
	}
	paths := box.NewPaths(cacheRoot(cfg), id)

	fmt.Printf("Bundle:     %s\n", b.Path)
	fmt.Printf("AppID:      %s\n", id)
	fmt.Printf("Entry:      %s (%s)\n", b.EntryFile(kind), kind)
	fmt.Printf("Box:        %s\n", paths.Root())
	if name, ok := b.Prop("DesktopLink.Name"); ok {
		fmt.Printf("Name:       %s\n", name)
	}
	ctx := b.Context()
	if ctx.Elevate {
		fmt.Printf("Privileges: root (preserve env: %v)\n", ctx.InheritEnv)
	}
	if kind == bundle.EntryPython {
		fmt.Printf("Venv:       %v\n", paths.VenvExists())
		if sum := paths.ReadChecksum(); sum != "" {
			fmt.Printf("Deps:       installed (%s)\n", sum[:8])
		} else if _, ok := b.Manifest(); ok {
			fmt.Printf("Deps:       pending install\n")
		}
	}
	return nil
}

func runDropin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New("apprun-dropin", logging.Level(), os.Stderr)
	svc := desktop.NewService(cfg, logger)

	if runOnceFlag {
		svc.RunOnce()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := svc.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
