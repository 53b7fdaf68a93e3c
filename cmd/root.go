package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/config"
	"github.com/chrisuehlinger/vibedom/observability"
)

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":   "logger.level",
	"log-format":  "logger.format",
	"log-file":    "logger.log_file",
	"user-agent":  "network.user_agent",
	"timeout":     "network.timeout",
	"local-path":  "network.local_path",
	"data-path":   "runtime.data_path",
	"base-url":    "runtime.base_url",
	"run-timeout": "runtime.run_timeout",
}

// newRootCmd builds the command tree. The returned config is filled in by
// PersistentPreRunE before any subcommand runs.
func newRootCmd() (*cobra.Command, *config.Config) {
	var cfgFile string
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "vibedom",
		Short:         "Run web pages in a headless DOM and script runtime.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := config.New()
			if err := config.ReadFile(v, cfgFile); err != nil {
				return err
			}
			flags := cmd.Flags()
			for name, key := range flagKeys {
				if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
					return fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
			if noStorage, _ := flags.GetBool("no-storage"); noStorage {
				v.Set("runtime.storage", false)
			}
			loaded, err := config.FromViper(v)
			if err != nil {
				return err
			}
			*cfg = *loaded
			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("configuration loaded",
				zap.String("version", Version),
				zap.String("config_file", v.ConfigFileUsed()))
			return nil
		},
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./vibedom.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console or json)")
	pf.String("log-file", "", "also write JSON logs to this file")
	pf.String("user-agent", "", "User-Agent header for every request")
	pf.Duration("timeout", 0, "per-request timeout")
	pf.String("local-path", "", "serve URL paths from this directory before the network")
	pf.String("data-path", ".", "directory holding .localStorage")
	pf.String("base-url", "", "base URL for relative references")
	pf.Duration("run-timeout", 0, "how long to run the event loop before giving up")
	pf.Bool("no-storage", false, "disable localStorage")

	root.AddCommand(newRunCmd(cfg), newLoadCmd(cfg), newVersionCmd())
	return root, cfg
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, _ := newRootCmd()
	err := root.ExecuteContext(ctx)
	stop()
	_ = observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
