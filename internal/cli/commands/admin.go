package commands

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/format"
)

// selectStatus asks for the next estado; replaced in tests
var selectStatus = promptStatus

// NewAdminCmd creates the admin command group. Every subcommand requires a
// verified session.
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Sistema administrativo (requiere sesión)",
	}

	cmd.AddCommand(newAdminSubmissionsCmd())
	cmd.AddCommand(newAdminStatusCmd())
	cmd.AddCommand(newAdminStatsCmd())
	cmd.AddCommand(newAdminAnnouncementsCmd())
	cmd.AddCommand(newAdminPostingsCmd())
	cmd.AddCommand(newAdminDocumentsCmd())
	cmd.AddCommand(newAdminUsersCmd())

	return cmd
}

func newAdminSubmissionsCmd() *cobra.Command {
	var status, kind, search string
	var page int

	cmd := &cobra.Command{
		Use:   "tramites",
		Short: "Listar trámites recibidos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := a.requireSession(ctx); err != nil {
				return err
			}

			result, err := a.client.AdminListSubmissions(ctx, client.ListOptions{
				Page:  page,
				Limit: listLimit,
				Filters: map[string]string{
					"estado":      strings.ToUpper(status),
					"tipoTramite": strings.ToUpper(kind),
					"busqueda":    search,
				},
			})
			if err != nil {
				return apiError(err)
			}

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No se encontraron trámites.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEXPEDIENTE\tFECHA\tSOLICITANTE\tTIPO\tESTADO")
			for _, item := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					item.ID,
					item.FileNumber,
					format.ShortDate(item.CreatedAt),
					format.Truncate(item.FirstName+" "+item.LastName, 30),
					format.Label(format.SubmissionTypeLabels, item.Type),
					format.Label(format.SubmissionStatusLabels, item.Status),
				)
			}
			w.Flush()
			printPagination(out, result.Pagination)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "estado", "", "Filtrar por estado (RECIBIDO, EN_PROCESO, ATENDIDO, RECHAZADO)")
	cmd.Flags().StringVar(&kind, "tipo", "", "Filtrar por tipo de trámite")
	cmd.Flags().StringVar(&search, "busqueda", "", "Buscar por expediente, DNI o nombre")
	cmd.Flags().IntVar(&page, "pagina", 1, "Página")

	return cmd
}

func newAdminStatusCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "estado <id> [estado]",
		Short: "Cambiar el estado de un trámite",
		Long: `Cambiar el estado de un trámite.

Si no se indica el estado se muestra una selección interactiva.

Ejemplos:
  $ ugel admin estado 01J8Z...                 # Selección interactiva
  $ ugel admin estado 01J8Z... ATENDIDO --observaciones "Resuelto"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := a.requireSession(ctx); err != nil {
				return err
			}

			id := args[0]
			var next string
			if len(args) == 2 {
				next = strings.ToUpper(args[1])
			} else {
				current, err := a.client.AdminGetSubmission(ctx, id)
				if err != nil {
					return apiError(err)
				}
				if next, err = selectStatus(current.Status); err != nil {
					return err
				}
			}

			updated, err := a.client.AdminChangeSubmissionStatus(ctx, id, next, notes)
			if err != nil {
				return apiError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Expediente %s: %s\n", updated.FileNumber, format.Label(format.SubmissionStatusLabels, updated.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "observaciones", "", "Observaciones para el solicitante")

	return cmd
}

// promptStatus lets the user pick any estado other than current
func promptStatus(current string) (string, error) {
	options := slices.DeleteFunc(slices.Clone(format.SubmissionStatusOrder), func(s string) bool {
		return s == current
	})

	labels := make([]string, len(options))
	for i, s := range options {
		labels[i] = format.Label(format.SubmissionStatusLabels, s)
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf("Nuevo estado (actual: %s)", format.Label(format.SubmissionStatusLabels, current)),
		Items: labels,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
		Size: len(labels),
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selección cancelada: %w", err)
	}
	return options[index], nil
}

func newAdminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estadisticas",
		Short: "Resumen de trámites por estado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := a.requireSession(ctx); err != nil {
				return err
			}

			stats, err := a.client.AdminSubmissionStats(ctx)
			if err != nil {
				return apiError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ESTADO\tTRÁMITES")
			for _, s := range format.SubmissionStatusOrder {
				fmt.Fprintf(w, "%s\t%d\n", format.Label(format.SubmissionStatusLabels, s), stats[s])
			}
			fmt.Fprintf(w, "Total\t%d\n", stats["total"])
			return w.Flush()
		},
	}
}
