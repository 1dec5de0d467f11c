package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// schemaCmd groups the schema maintenance commands.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the tables behind the registered entities",
}

// schemaMigrateCmd creates or updates the tables.
var schemaMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tables of every registered entity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		start := time.Now()
		if err := rt.factory.Migrate(ctx); err != nil {
			return err
		}
		rt.logger.Info("Schema migrated", zap.Duration("took", time.Since(start)))
		return nil
	},
}

// schemaVerifyCmd compares the tables with the registered entities.
var schemaVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report columns the registered entities expect but the database lacks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		jsonOutput, _ := cmd.Flags().GetBool("json")

		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		mismatches, err := rt.factory.Verify(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(mismatches)
		}
		if len(mismatches) == 0 {
			fmt.Println("Schema matches every registered entity.")
			return nil
		}
		for _, m := range mismatches {
			fmt.Printf("%s (%s): missing %s\n", m.Entity, m.Table, strings.Join(m.Missing, ", "))
		}
		return fmt.Errorf("%d entities do not match their table", len(mismatches))
	},
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	schemaCmd.AddCommand(schemaMigrateCmd)
	schemaCmd.AddCommand(schemaVerifyCmd)
	RootCmd.AddCommand(schemaCmd)
}
