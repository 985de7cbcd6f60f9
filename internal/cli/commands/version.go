package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command. It also reports the API's
// version so a mismatch is easy to spot.
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Mostrar la versión del cliente y del servidor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ugel version %s\n", version)

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			health, err := a.client.Health(ctx)
			if err != nil {
				fmt.Fprintf(out, "API %s: no disponible\n", a.client.BaseURL())
				return nil
			}
			fmt.Fprintf(out, "API %s: %s (versión %s)\n", a.client.BaseURL(), health.Status, health.Version)

			if version != "dev" && health.Version != "" && normalizeVersion(health.Version) != normalizeVersion(version) {
				fmt.Fprintln(out, "⚠ El cliente y el servidor usan versiones distintas")
			}
			return nil
		},
	}
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}
