// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"

	rollcall "github.com/blinklabs-io/rollcall"
	"github.com/blinklabs-io/rollcall/internal/config"
	"github.com/blinklabs-io/rollcall/internal/version"
	"github.com/blinklabs-io/rollcall/mail"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const (
	programName = "rollcall"
)

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...),
		"component", programName,
	)
}

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func commonRun() *slog.Logger {
	// Configure logger
	logLevel := slog.LevelInfo
	addSource := false
	if globalFlags.debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	)
	slog.SetDefault(logger)
	// Configure max processes with our logger wrapper, toss undo func
	_, err := maxprocs.Set(maxprocs.Logger(slogPrintf))
	if err != nil {
		// If we hit this, something really wrong happened
		slog.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(
		"version: "+version.GetVersionString(),
		"component", programName,
	)
	return logger
}

// newService builds a Service from the loaded config
func newService(
	cfg *config.Config,
	logger *slog.Logger,
	extra ...rollcall.ConfigOptionFunc,
) (*rollcall.Service, error) {
	opts := []rollcall.ConfigOptionFunc{
		rollcall.WithLogger(logger),
		rollcall.WithDatabasePath(cfg.DatabasePath),
		rollcall.WithOwnerOrgCode(cfg.OwnerOrgCode),
		rollcall.WithMaskSalt(cfg.MaskSalt),
	}
	if cfg.ImmediateCeiling > 0 {
		opts = append(opts, rollcall.WithImmediateCeiling(cfg.ImmediateCeiling))
	}
	switch cfg.MailBackend {
	case config.MailBackendSendgrid:
		opts = append(opts, rollcall.WithMailSender(
			mail.NewSendGridSender(
				cfg.SendgridApiKey,
				cfg.MailFromName,
				cfg.MailFromAddress,
			),
		))
	case config.MailBackendConsole, "":
		opts = append(opts, rollcall.WithMailSender(
			mail.NewConsoleSender(logger),
		))
	default:
		return nil, fmt.Errorf("unknown mail backend: %s", cfg.MailBackend)
	}
	opts = append(opts, extra...)
	return rollcall.New(rollcall.NewConfig(opts...))
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", programName, version.GetVersionString())
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Condition-based membership reflection engine",
	}

	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	// Subcommands
	rootCmd.AddCommand(batchCommand())
	rootCmd.AddCommand(reflectCommand())
	rootCmd.AddCommand(sendmailCommand())
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(versionCommand())

	// Execute cobra command
	if err := rootCmd.Execute(); err != nil {
		// NOTE: we purposely don't display the error, since cobra will have already displayed it
		os.Exit(1)
	}
}
