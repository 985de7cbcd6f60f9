package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/format"
	"github.com/ugel-satipo/portal/internal/cli/session"
)

const dateFlagLayout = "2006-01-02"

// confirmDelete asks before removing a record; replaced in tests
var confirmDelete = promptConfirm

// adminRunE wraps a back-office command: it builds the app and runs the
// session guard before fn
func adminRunE(fn adminHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		sess, err := a.requireSession(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, a, sess, args)
	}
}

// applyChanged runs the setter of every flag the user set explicitly
func applyChanged(cmd *cobra.Command, setters map[string]func()) {
	for name, set := range setters {
		if cmd.Flags().Changed(name) {
			set()
		}
	}
}

// openUpload opens path for a multipart upload. An empty path means no
// file; done is always safe to call.
func openUpload(path string) (upload *api.Upload, done func(), err error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &api.Upload{Name: filepath.Base(path), Reader: f}, func() { f.Close() }, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	t, err := time.Parse(dateFlagLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: fecha inválida %q (use AAAA-MM-DD)", name, value)
	}
	return t, nil
}

func promptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmación cancelada: %w", err)
	}
	return true, nil
}

type adminHandler func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error

// newDeleteCmd builds an "eliminar <id>" subcommand asking for confirmation
// unless --si is given. wrap is adminRunE or a stricter variant.
func newDeleteCmd(what string, wrap func(adminHandler) func(*cobra.Command, []string) error, remove func(cmd *cobra.Command, a *app, sess *session.Manager, id string) error) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "eliminar <id>",
		Short: "Eliminar " + what,
		Args:  cobra.ExactArgs(1),
		RunE: wrap(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			if !yes {
				ok, err := confirmDelete(fmt.Sprintf("¿Eliminar %s %s", what, args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Operación cancelada")
					return nil
				}
			}
			if err := remove(cmd, a, sess, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Eliminado: %s\n", args[0])
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "si", "y", false, "No pedir confirmación")

	return cmd
}

// comunicados

type announcementFlags struct {
	in       api.AnnouncementInput
	filePath string
}

func (f *announcementFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.Title, "titulo", "", "Título")
	cmd.Flags().StringVar(&f.in.Summary, "resumen", "", "Resumen")
	cmd.Flags().StringVar(&f.in.Content, "contenido", "", "Contenido")
	cmd.Flags().StringVar(&f.in.Category, "categoria", "", "Categoría (GENERAL, ACADEMICO, ADMINISTRATIVO, URGENTE)")
	cmd.Flags().StringVar(&f.in.Status, "estado", "", "Estado (PUBLICADO, BORRADOR, ARCHIVADO)")
	cmd.Flags().BoolVar(&f.in.Featured, "destacado", false, "Mostrar como destacado")
	cmd.Flags().StringVar(&f.filePath, "archivo", "", "Imagen o PDF adjunto")
}

func (f *announcementFlags) normalize() {
	f.in.Category = strings.ToUpper(f.in.Category)
	f.in.Status = strings.ToUpper(f.in.Status)
}

// edit overlays the flags the user set on the stored comunicado
func (f *announcementFlags) edit(cmd *cobra.Command, current *api.Announcement) api.AnnouncementInput {
	in := api.AnnouncementInput{
		Title:    current.Title,
		Summary:  current.Summary,
		Content:  current.Content,
		Category: current.Category,
		Status:   current.Status,
		Featured: current.Featured,
	}
	applyChanged(cmd, map[string]func(){
		"titulo":    func() { in.Title = f.in.Title },
		"resumen":   func() { in.Summary = f.in.Summary },
		"contenido": func() { in.Content = f.in.Content },
		"categoria": func() { in.Category = f.in.Category },
		"estado":    func() { in.Status = f.in.Status },
		"destacado": func() { in.Featured = f.in.Featured },
	})
	return in
}

func newAdminAnnouncementsCmd() *cobra.Command {
	var status, category, search string
	var page int

	cmd := &cobra.Command{
		Use:   "comunicados",
		Short: "Gestionar comunicados (todos los estados)",
		Args:  cobra.NoArgs,
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			result, err := a.client.AdminListAnnouncements(cmd.Context(), client.ListOptions{
				Page:  page,
				Limit: listLimit,
				Filters: map[string]string{
					"estado":    strings.ToUpper(status),
					"categoria": strings.ToUpper(category),
					"busqueda":  search,
				},
			})
			if err != nil {
				return apiError(err)
			}

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No se encontraron comunicados.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFECHA\tCATEGORÍA\tESTADO\tTÍTULO")
			for _, item := range result.Items {
				title := format.Truncate(item.Title, 50)
				if item.Featured {
					title = "★ " + title
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					item.ID,
					format.ShortDate(item.CreatedAt),
					format.Label(format.AnnouncementCategoryLabels, item.Category),
					strings.ToLower(item.Status),
					title,
				)
			}
			w.Flush()
			printPagination(out, result.Pagination)
			return nil
		}),
	}

	cmd.Flags().StringVar(&status, "estado", "", "Filtrar por estado (PUBLICADO, BORRADOR, ARCHIVADO)")
	cmd.Flags().StringVar(&category, "categoria", "", "Filtrar por categoría")
	cmd.Flags().StringVar(&search, "busqueda", "", "Buscar por título")
	cmd.Flags().IntVar(&page, "pagina", 1, "Página")

	cmd.AddCommand(newAnnouncementCreateCmd())
	cmd.AddCommand(newAnnouncementEditCmd())
	cmd.AddCommand(newDeleteCmd("el comunicado", adminRunE, func(cmd *cobra.Command, a *app, _ *session.Manager, id string) error {
		return apiError(a.client.AdminDeleteAnnouncement(cmd.Context(), id))
	}))

	return cmd
}

func newAnnouncementCreateCmd() *cobra.Command {
	var f announcementFlags

	cmd := &cobra.Command{
		Use:   "crear",
		Short: "Crear un comunicado (borrador salvo que se indique --estado)",
		Args:  cobra.NoArgs,
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			f.normalize()
			upload, done, err := openUpload(f.filePath)
			if err != nil {
				return err
			}
			defer done()

			item, err := a.client.AdminCreateAnnouncement(cmd.Context(), f.in, upload)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Comunicado creado: %s (%s)\n", item.ID, strings.ToLower(item.Status))
			return nil
		}),
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("titulo")
	_ = cmd.MarkFlagRequired("contenido")

	return cmd
}

func newAnnouncementEditCmd() *cobra.Command {
	var f announcementFlags

	cmd := &cobra.Command{
		Use:   "editar <id>",
		Short: "Editar un comunicado; solo cambian los campos indicados",
		Args:  cobra.ExactArgs(1),
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			ctx := cmd.Context()
			current, err := a.client.AdminGetAnnouncement(ctx, args[0])
			if err != nil {
				return apiError(err)
			}

			f.normalize()
			upload, done, err := openUpload(f.filePath)
			if err != nil {
				return err
			}
			defer done()

			item, err := a.client.AdminUpdateAnnouncement(ctx, current.ID, f.edit(cmd, current), upload)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Comunicado actualizado: %s\n", item.Title)
			return nil
		}),
	}

	f.register(cmd)

	return cmd
}

// convocatorias

type postingFlags struct {
	in                         api.PostingInput
	startsAt, endsAt, resultAt string
	filePath                   string
}

func (f *postingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.Code, "codigo", "", "Código (p. ej. CAS-001-2025)")
	cmd.Flags().StringVar(&f.in.Title, "titulo", "", "Título")
	cmd.Flags().StringVar(&f.in.Description, "descripcion", "", "Descripción")
	cmd.Flags().StringVar(&f.in.Requirements, "requisitos", "", "Requisitos")
	cmd.Flags().StringVar(&f.in.Benefits, "beneficios", "", "Beneficios")
	cmd.Flags().StringVar(&f.in.Type, "tipo", "", "Tipo (DOCENTE, ADMINISTRATIVO, CAS, DIRECTIVO, AUXILIAR, OTRO)")
	cmd.Flags().StringVar(&f.in.Status, "estado", "", "Estado (PROXIMA, ABIERTA, CERRADA, DESIERTA, CONCLUIDA)")
	cmd.Flags().IntVar(&f.in.Openings, "plazas", 0, "Número de plazas")
	cmd.Flags().StringVar(&f.startsAt, "inicio", "", "Fecha de inicio (AAAA-MM-DD)")
	cmd.Flags().StringVar(&f.endsAt, "fin", "", "Fecha de cierre (AAAA-MM-DD)")
	cmd.Flags().StringVar(&f.resultAt, "resultados", "", "Fecha de resultados (AAAA-MM-DD)")
	cmd.Flags().StringVar(&f.filePath, "archivo", "", "Bases en PDF")
}

// parse validates the date flags the user set and upper-cases the enums
func (f *postingFlags) parse(cmd *cobra.Command) error {
	f.in.Type = strings.ToUpper(f.in.Type)
	f.in.Status = strings.ToUpper(f.in.Status)

	var err error
	if cmd.Flags().Changed("inicio") {
		if f.in.StartsAt, err = parseDateFlag("inicio", f.startsAt); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("fin") {
		if f.in.EndsAt, err = parseDateFlag("fin", f.endsAt); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("resultados") {
		at, err := parseDateFlag("resultados", f.resultAt)
		if err != nil {
			return err
		}
		f.in.ResultsAt = &at
	}
	return nil
}

func (f *postingFlags) edit(cmd *cobra.Command, current *api.Posting) api.PostingInput {
	in := api.PostingInput{
		Code:         current.Code,
		Title:        current.Title,
		Description:  current.Description,
		Requirements: current.Requirements,
		Benefits:     current.Benefits,
		Type:         current.Type,
		Status:       current.Status,
		Openings:     current.Openings,
		StartsAt:     current.StartsAt,
		EndsAt:       current.EndsAt,
		ResultsAt:    current.ResultsAt,
	}
	applyChanged(cmd, map[string]func(){
		"codigo":      func() { in.Code = f.in.Code },
		"titulo":      func() { in.Title = f.in.Title },
		"descripcion": func() { in.Description = f.in.Description },
		"requisitos":  func() { in.Requirements = f.in.Requirements },
		"beneficios":  func() { in.Benefits = f.in.Benefits },
		"tipo":        func() { in.Type = f.in.Type },
		"estado":      func() { in.Status = f.in.Status },
		"plazas":      func() { in.Openings = f.in.Openings },
		"inicio":      func() { in.StartsAt = f.in.StartsAt },
		"fin":         func() { in.EndsAt = f.in.EndsAt },
		"resultados":  func() { in.ResultsAt = f.in.ResultsAt },
	})
	return in
}

func newAdminPostingsCmd() *cobra.Command {
	var status, kind string
	var page int

	cmd := &cobra.Command{
		Use:   "convocatorias",
		Short: "Gestionar convocatorias",
		Args:  cobra.NoArgs,
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			result, err := a.client.AdminListPostings(cmd.Context(), client.ListOptions{
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

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No se encontraron convocatorias.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCÓDIGO\tTIPO\tESTADO\tPLAZAS\tINICIO\tFIN")
			for _, item := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					item.ID,
					item.Code,
					format.Label(format.PostingTypeLabels, item.Type),
					format.Label(format.PostingStatusLabels, item.Status),
					item.Openings,
					format.ShortDate(item.StartsAt),
					format.ShortDate(item.EndsAt),
				)
			}
			w.Flush()
			printPagination(out, result.Pagination)
			return nil
		}),
	}

	cmd.Flags().StringVar(&status, "estado", "", "Filtrar por estado")
	cmd.Flags().StringVar(&kind, "tipo", "", "Filtrar por tipo")
	cmd.Flags().IntVar(&page, "pagina", 1, "Página")

	cmd.AddCommand(newPostingCreateCmd())
	cmd.AddCommand(newPostingEditCmd())
	cmd.AddCommand(newDeleteCmd("la convocatoria", adminRunE, func(cmd *cobra.Command, a *app, _ *session.Manager, id string) error {
		return apiError(a.client.AdminDeletePosting(cmd.Context(), id))
	}))

	return cmd
}

func newPostingCreateCmd() *cobra.Command {
	var f postingFlags

	cmd := &cobra.Command{
		Use:   "crear",
		Short: "Crear una convocatoria",
		Args:  cobra.NoArgs,
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			if err := f.parse(cmd); err != nil {
				return err
			}
			upload, done, err := openUpload(f.filePath)
			if err != nil {
				return err
			}
			defer done()

			item, err := a.client.AdminCreatePosting(cmd.Context(), f.in, upload)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Convocatoria creada: %s %s (%s)\n",
				item.ID, item.Code, format.Label(format.PostingStatusLabels, item.Status))
			return nil
		}),
	}

	f.register(cmd)
	for _, name := range []string{"codigo", "titulo", "tipo", "inicio", "fin"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newPostingEditCmd() *cobra.Command {
	var f postingFlags

	cmd := &cobra.Command{
		Use:   "editar <id>",
		Short: "Editar una convocatoria; solo cambian los campos indicados",
		Args:  cobra.ExactArgs(1),
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			if err := f.parse(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			current, err := a.client.AdminGetPosting(ctx, args[0])
			if err != nil {
				return apiError(err)
			}

			upload, done, err := openUpload(f.filePath)
			if err != nil {
				return err
			}
			defer done()

			item, err := a.client.AdminUpdatePosting(ctx, current.ID, f.edit(cmd, current), upload)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Convocatoria actualizada: %s (%s)\n",
				item.Code, format.Label(format.PostingStatusLabels, item.Status))
			return nil
		}),
	}

	f.register(cmd)

	return cmd
}

// documentos

type documentFlags struct {
	in       api.DocumentInput
	filePath string
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.Title, "titulo", "", "Título")
	cmd.Flags().StringVar(&f.in.Description, "descripcion", "", "Descripción")
	cmd.Flags().StringVar(&f.in.Category, "categoria", "", "Categoría (DIRECTIVA, RESOLUCION, OFICIO, MEMORANDO, INFORME, FORMATO, OTRO)")
	cmd.Flags().StringVar(&f.filePath, "archivo", "", "Archivo del documento")
}

func newAdminDocumentsCmd() *cobra.Command {
	var category, search string
	var page int

	cmd := &cobra.Command{
		Use:   "documentos",
		Short: "Gestionar documentos",
		Args:  cobra.NoArgs,
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			result, err := a.client.AdminListDocuments(cmd.Context(), client.ListOptions{
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

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No se encontraron documentos.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORÍA\tTÍTULO\tARCHIVO\tTAMAÑO\tDESCARGAS")
			for _, item := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					item.ID,
					format.Label(format.DocumentCategoryLabels, item.Category),
					format.Truncate(item.Title, 40),
					item.FileName,
					format.FileSize(item.FileSize),
					item.Downloads,
				)
			}
			w.Flush()
			printPagination(out, result.Pagination)
			return nil
		}),
	}

	cmd.Flags().StringVar(&category, "categoria", "", "Filtrar por categoría")
	cmd.Flags().StringVar(&search, "busqueda", "", "Buscar por título")
	cmd.Flags().IntVar(&page, "pagina", 1, "Página")

	cmd.AddCommand(newDocumentCreateCmd())
	cmd.AddCommand(newDocumentEditCmd())
	cmd.AddCommand(newDeleteCmd("el documento", adminRunE, func(cmd *cobra.Command, a *app, _ *session.Manager, id string) error {
		return apiError(a.client.AdminDeleteDocument(cmd.Context(), id))
	}))

	return cmd
}

func newDocumentCreateCmd() *cobra.Command {
	var f documentFlags

	cmd := &cobra.Command{
		Use:   "crear",
		Short: "Publicar un documento",
		Args:  cobra.NoArgs,
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			f.in.Category = strings.ToUpper(f.in.Category)
			upload, done, err := openUpload(f.filePath)
			if err != nil {
				return err
			}
			defer done()

			item, err := a.client.AdminCreateDocument(cmd.Context(), f.in, upload)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Documento publicado: %s (%s)\n", item.ID, item.FileName)
			return nil
		}),
	}

	f.register(cmd)
	for _, name := range []string{"titulo", "categoria", "archivo"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newDocumentEditCmd() *cobra.Command {
	var f documentFlags

	cmd := &cobra.Command{
		Use:   "editar <id>",
		Short: "Editar un documento; solo cambian los campos indicados",
		Args:  cobra.ExactArgs(1),
		RunE: adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			ctx := cmd.Context()
			current, err := a.client.AdminGetDocument(ctx, args[0])
			if err != nil {
				return apiError(err)
			}

			in := api.DocumentInput{Title: current.Title, Description: current.Description, Category: current.Category}
			applyChanged(cmd, map[string]func(){
				"titulo":      func() { in.Title = f.in.Title },
				"descripcion": func() { in.Description = f.in.Description },
				"categoria":   func() { in.Category = strings.ToUpper(f.in.Category) },
			})

			upload, done, err := openUpload(f.filePath)
			if err != nil {
				return err
			}
			defer done()

			item, err := a.client.AdminUpdateDocument(ctx, current.ID, in, upload)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Documento actualizado: %s\n", item.Title)
			return nil
		}),
	}

	f.register(cmd)

	return cmd
}
