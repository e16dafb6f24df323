// Package main provides the kardan CLI for migrating, seeding and editing
// reference data.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-kardan/config"
	"github.com/goliatone/go-kardan/pkg/di"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	// PersistentPostRunE is skipped when a command fails
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, formatError(err))
		return exitCode(err)
	}
	return exitSuccess
}

// app is the state shared by subcommands for one invocation.
type app struct {
	configFile string
	logLevel   string

	cfg       config.Config
	container *di.Container
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "kardan",
		Short: "Kardan manages shop floor reference data",
		Long: `Kardan stores the statuses, types and categories the rest of the
shop floor refers to by code. Reads are cached; every write evicts the
cache of the type it touched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./kardan.yaml or ~/.config/kardan/kardan.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newTypesCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newGetByCodeCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
	)
	return root
}

// load reads configuration and, unless the command opts out, builds the
// container.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	if cmd.Annotations[annotationNoContainer] == "true" {
		return nil
	}

	container, err := di.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	a.container = container
	return nil
}

func (a *app) close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}

const annotationNoContainer = "kardan/no-container"
