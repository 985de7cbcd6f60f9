package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/format"
)

const listLimit = 10

// NewAnnouncementsCmd creates the comunicados command
func NewAnnouncementsCmd() *cobra.Command {
	var category string
	var page int

	cmd := &cobra.Command{
		Use:   "comunicados [id]",
		Short: "Listar comunicados publicados o ver uno",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				item, err := a.client.GetAnnouncement(ctx, args[0])
				if err != nil {
					return apiError(err)
				}
				fmt.Fprintln(out, item.Title)
				fmt.Fprintf(out, "%s · %s\n\n", format.Label(format.AnnouncementCategoryLabels, item.Category), format.DatePtr(item.PublishedAt))
				if item.Summary != "" {
					fmt.Fprintf(out, "%s\n\n", item.Summary)
				}
				fmt.Fprintln(out, item.Content)
				return nil
			}

			result, err := a.client.ListAnnouncements(ctx, client.ListOptions{
				Page:    page,
				Limit:   listLimit,
				Filters: map[string]string{"categoria": strings.ToUpper(category)},
			})
			if err != nil {
				return apiError(err)
			}
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No se encontraron comunicados.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFECHA\tCATEGORÍA\tTÍTULO")
			for _, item := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					item.ID,
					shortDatePtr(item.PublishedAt),
					format.Label(format.AnnouncementCategoryLabels, item.Category),
					format.Truncate(item.Title, 60),
				)
			}
			w.Flush()
			printPagination(out, result.Pagination)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "categoria", "", "Filtrar por categoría (GENERAL, ACADEMICO, ADMINISTRATIVO, URGENTE)")
	cmd.Flags().IntVar(&page, "pagina", 1, "Página")

	return cmd
}

// NewPostingsCmd creates the convocatorias command
func NewPostingsCmd() *cobra.Command {
	var status, kind string
	var page int

	cmd := &cobra.Command{
		Use:   "convocatorias [id]",
		Short: "Listar convocatorias o ver una",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				item, err := a.client.GetPosting(ctx, args[0])
				if err != nil {
					return apiError(err)
				}
				fmt.Fprintf(out, "%s %s\n", item.Code, item.Title)
				fmt.Fprintf(out, "%s · %s · %d plaza(s)\n", format.Label(format.PostingTypeLabels, item.Type), format.Label(format.PostingStatusLabels, item.Status), item.Openings)
				fmt.Fprintf(out, "Del %s al %s\n\n", format.Date(item.StartsAt), format.Date(item.EndsAt))
				fmt.Fprintln(out, item.Description)
				if item.Requirements != "" {
					fmt.Fprintf(out, "\nRequisitos:\n%s\n", item.Requirements)
				}
				return nil
			}

			result, err := a.client.ListPostings(ctx, client.ListOptions{
				Page:  page,
				Limit: listLimit,
				Filters: map[string]string{
					"estado": strings.ToUpper(status),
					"tipo":   strings.ToUpper(kind),
				},
			})
			if err != nil {
				return apiError(err)
			}
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No se encontraron convocatorias.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCÓDIGO\tTIPO\tESTADO\tCIERRE\tTÍTULO")
			for _, item := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					item.ID,
					item.Code,
					format.Label(format.PostingTypeLabels, item.Type),
					format.Label(format.PostingStatusLabels, item.Status),
					format.ShortDate(item.EndsAt),
					format.Truncate(item.Title, 50),
				)
			}
			w.Flush()
			printPagination(out, result.Pagination)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "estado", "", "Filtrar por estado (PROXIMA, ABIERTA, CERRADA, DESIERTA, CONCLUIDA)")
	cmd.Flags().StringVar(&kind, "tipo", "", "Filtrar por tipo (DOCENTE, ADMINISTRATIVO, CAS, DIRECTIVO, AUXILIAR, OTRO)")
	cmd.Flags().IntVar(&page, "pagina", 1, "Página")

	return cmd
}

// NewDocumentsCmd creates the documentos command
func NewDocumentsCmd() *cobra.Command {
	var category, search string
	var page int

	cmd := &cobra.Command{
		Use:   "documentos",
		Short: "Listar documentos descargables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			result, err := a.client.ListDocuments(cmd.Context(), client.ListOptions{
				Page:  page,
				Limit: listLimit,
				Filters: map[string]string{
					"categoria": strings.ToUpper(category),
					"busqueda":  search,
				},
			})
			if err != nil {
				return apiError(err)
			}
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No se encontraron documentos.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORÍA\tTAMAÑO\tDESCARGAS\tTÍTULO")
			for _, item := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					item.ID,
					format.Label(format.DocumentCategoryLabels, item.Category),
					format.FileSize(item.FileSize),
					item.Downloads,
					format.Truncate(item.Title, 60),
				)
			}
			w.Flush()
			printPagination(out, result.Pagination)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "categoria", "", "Filtrar por categoría")
	cmd.Flags().StringVar(&search, "busqueda", "", "Buscar por título o descripción")
	cmd.Flags().IntVar(&page, "pagina", 1, "Página")

	return cmd
}

// NewDownloadCmd creates the descargar command
func NewDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "descargar <id>",
		Short: "Descargar un documento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			name, err := a.client.DownloadDocument(cmd.Context(), args[0], &buf)
			if err != nil {
				return apiError(err)
			}

			path := output
			if path == "" {
				path = filepath.Base(name)
			} else if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, filepath.Base(name))
			}

			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Descargado %s (%s)\n", path, format.FileSize(int64(buf.Len())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Archivo o directorio de destino")

	return cmd
}

// NewSubmitCmd creates the mesa-de-partes command
func NewSubmitCmd() *cobra.Command {
	var in api.SubmissionInput
	var filePath string

	cmd := &cobra.Command{
		Use:   "mesa-de-partes",
		Short: "Registrar un trámite en la mesa de partes virtual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			in.Type = strings.ToUpper(in.Type)

			upload, done, err := openUpload(filePath)
			if err != nil {
				return err
			}
			defer done()

			submission, err := a.client.RegisterSubmission(cmd.Context(), in, upload)
			if err != nil {
				return apiError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Trámite registrado")
			fmt.Fprintf(out, "  Expediente: %s\n", submission.FileNumber)
			fmt.Fprintf(out, "  Consulte su estado con: ugel consultar %s\n", submission.FileNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.FirstName, "nombre", "", "Nombres del solicitante")
	cmd.Flags().StringVar(&in.LastName, "apellido", "", "Apellidos del solicitante")
	cmd.Flags().StringVar(&in.DNI, "dni", "", "DNI (8 dígitos)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Correo electrónico")
	cmd.Flags().StringVar(&in.Phone, "telefono", "", "Teléfono")
	cmd.Flags().StringVar(&in.Type, "tipo", "", "Tipo de trámite (LICENCIA, PERMISO, ...)")
	cmd.Flags().StringVar(&in.Subject, "asunto", "", "Asunto")
	cmd.Flags().StringVar(&in.Description, "descripcion", "", "Descripción")
	cmd.Flags().StringVar(&filePath, "archivo", "", "PDF adjunto (máx. 10 MB)")

	for _, name := range []string{"nombre", "apellido", "dni", "email", "tipo", "asunto"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// NewTrackCmd creates the consultar command
func NewTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consultar <expediente>",
		Short: "Consultar el estado de un trámite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			code := strings.ToUpper(strings.TrimSpace(args[0]))
			tracking, err := a.client.TrackSubmission(cmd.Context(), code)
			if err != nil {
				return apiError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Expediente:\t%s\n", tracking.FileNumber)
			fmt.Fprintf(w, "Solicitante:\t%s %s\n", tracking.FirstName, tracking.LastName)
			fmt.Fprintf(w, "Tipo:\t%s\n", format.Label(format.SubmissionTypeLabels, tracking.Type))
			fmt.Fprintf(w, "Asunto:\t%s\n", tracking.Subject)
			fmt.Fprintf(w, "Estado:\t%s\n", format.Label(format.SubmissionStatusLabels, tracking.Status))
			if tracking.Notes != "" {
				fmt.Fprintf(w, "Observaciones:\t%s\n", tracking.Notes)
			}
			fmt.Fprintf(w, "Registrado:\t%s\n", format.Date(tracking.CreatedAt))
			fmt.Fprintf(w, "Actualizado:\t%s\n", format.Date(tracking.UpdatedAt))
			return w.Flush()
		},
	}
}

func shortDatePtr(t *time.Time) string {
	if t == nil {
		return format.Placeholder
	}
	return format.ShortDate(*t)
}

func printPagination(out io.Writer, p api.Pagination) {
	if p.TotalPages > 1 {
		fmt.Fprintf(out, "\nPágina %d de %d (%d registros)\n", p.Page, p.TotalPages, p.Total)
	}
}
