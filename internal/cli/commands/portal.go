package commands

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ugel-satipo/portal/internal/cli/portal"
)

// NewPortalCmd creates the portal command
func NewPortalCmd() *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Servir el portal web localmente",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.PortalAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := portal.New(a.client, a.session(ctx), a.logger)
			if err != nil {
				return err
			}

			portalURL := "http://" + addr
			if strings.HasPrefix(addr, ":") {
				portalURL = "http://localhost" + addr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Portal disponible en %s (API: %s)\n", portalURL, a.client.BaseURL())

			if open {
				if err := openBrowser(portalURL); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "No se pudo abrir el navegador: %v\n", err)
				}
			}

			return p.Serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (por defecto portal_addr de la configuración)")
	cmd.Flags().BoolVar(&open, "abrir", false, "Abrir el portal en el navegador")

	return cmd
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

