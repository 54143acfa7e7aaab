// Command admin runs maintenance tasks against the platform database and
// services: migrations, account inspection and deletion, newsletter setup.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ukrch/platform/cmd/admin/ui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Platform maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd := &cobra.Command{Use: "migrate", Short: "Manage the database schema"}
	migrateCmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", Args: cobra.NoArgs, RunE: runMigrateUp},
		&cobra.Command{Use: "down", Short: "Roll back the latest migration", Args: cobra.NoArgs, RunE: runMigrateDown},
		&cobra.Command{Use: "version", Short: "Print the schema version", Args: cobra.NoArgs, RunE: runMigrateVersion},
	)

	accountCmd := &cobra.Command{Use: "account", Short: "Inspect and delete accounts"}
	stepCmd := &cobra.Command{
		Use:   "step <email|id>",
		Short: "Show the verification step of an account",
		Args:  cobra.ExactArgs(1),
		RunE:  runAccountStep,
	}
	deleteCmd := &cobra.Command{
		Use:   "delete <email|id>",
		Short: "Delete an account and its profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runAccountDelete,
	}
	deleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	accountCmd.AddCommand(stepCmd, deleteCmd)

	newsletterCmd := &cobra.Command{Use: "newsletter", Short: "Newsletter provider setup"}
	newsletterCmd.AddCommand(&cobra.Command{
		Use:   "ensure-audience",
		Short: "Create the configured audience if it does not exist",
		Args:  cobra.NoArgs,
		RunE:  runEnsureAudience,
	})

	tokensCmd := &cobra.Command{Use: "tokens", Short: "Refresh token maintenance"}
	tokensCmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired refresh tokens",
		Args:  cobra.NoArgs,
		RunE:  runTokensCleanup,
	})

	rootCmd.AddCommand(migrateCmd, accountCmd, newsletterCmd, tokensCmd)

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
