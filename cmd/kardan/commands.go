package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-kardan/basedata"
	"github.com/goliatone/go-kardan/catalog"
	"github.com/goliatone/go-kardan/internal/logging"
	"github.com/goliatone/go-kardan/internal/persistence"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Short:       "Apply database migrations",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(a.cfg.LoggingConfig())
			return persistence.Migrate(cmd.Context(), a.cfg.DatabaseConfig(), log)
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed reference data, roles and the admin account",
		Long: `Seed inserts every declared code that is missing, then ensures roles,
permissions and the admin account. Existing rows are never changed, so
seeding can run any number of times. Failures are reported, not fatal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.container.Context(cmd.Context())
			report := a.container.Seeder().Ready(ctx)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "types",
		Short:       "List known reference data types",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), catalog.Registry().ListKnownTypes())
		},
	}
}

func (a *app) store(name string) (basedata.Store, error) {
	return a.container.Factory().Create(name)
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <type>",
		Short: "List every row of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args[0])
			if err != nil {
				return err
			}
			rows, err := store.GetAll(a.container.Context(cmd.Context()))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Get a row by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			row, err := store.GetByID(a.container.Context(cmd.Context()), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), row)
		},
	}
}

func newGetByCodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-by-code <type> <code>",
		Short: "Get a row by code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args[0])
			if err != nil {
				return err
			}
			row, err := store.GetByCode(a.container.Context(cmd.Context()), args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), row)
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var payload basedata.Payload

	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Create a row",
		Example: `  kardan create MachineType --code CNC --name "CNC mill"
  kardan create StopReasonCategory --code TOOLING --name Tooling --description "Tool change"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args[0])
			if err != nil {
				return err
			}
			row, err := store.Create(a.container.Context(cmd.Context()), payload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), row)
		},
	}

	cmd.Flags().StringVar(&payload.Code, "code", "", "unique code, fixed after creation")
	cmd.Flags().StringVar(&payload.Name, "name", "", "display name")
	cmd.Flags().StringVar(&payload.Description, "description", "", "description")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var payload basedata.Payload

	cmd := &cobra.Command{
		Use:   "update <type> <id>",
		Short: "Replace the name and description of a row",
		Long: `Update replaces name and description. Flags left out are written as
empty. The code of a row never changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			row, err := store.Update(a.container.Context(cmd.Context()), id, payload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), row)
		},
	}

	cmd.Flags().StringVar(&payload.Name, "name", "", "display name")
	cmd.Flags().StringVar(&payload.Description, "description", "", "description")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete a row that nothing references",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := store.Delete(a.container.Context(cmd.Context()), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %d\n", store.Type(), id)
			return err
		},
	}
}
