package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ugel-satipo/portal/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the ugel command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ugel",
		Short: "UGEL Satipo - portal institucional",
		Long: `Cliente del portal institucional de la UGEL Satipo.

Consulte comunicados, convocatorias y documentos, registre trámites en la
mesa de partes virtual y, con una sesión iniciada, gestione los trámites
desde la línea de comandos o el portal web local.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewVersionCmd(version))

	// Session
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewChangePasswordCmd())

	// Public portal
	rootCmd.AddCommand(commands.NewAnnouncementsCmd())
	rootCmd.AddCommand(commands.NewPostingsCmd())
	rootCmd.AddCommand(commands.NewDocumentsCmd())
	rootCmd.AddCommand(commands.NewDownloadCmd())
	rootCmd.AddCommand(commands.NewSubmitCmd())
	rootCmd.AddCommand(commands.NewTrackCmd())

	// Back-office
	rootCmd.AddCommand(commands.NewAdminCmd())
	rootCmd.AddCommand(commands.NewPortalCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
