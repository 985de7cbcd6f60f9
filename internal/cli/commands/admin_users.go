package commands

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ugel-satipo/portal/internal/auth"
	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/format"
	"github.com/ugel-satipo/portal/internal/cli/session"
)

// ErrAdminRequired is returned by commands reserved to administrators
var ErrAdminRequired = errors.New("se requiere rol de administrador")

// selectRole asks for the role of a new account; replaced in tests
var selectRole = promptRole

var assignableRoles = []auth.Role{auth.RoleOperator, auth.RoleAdmin}

// adminOnlyRunE is adminRunE plus the administrator check every user
// management command needs
func adminOnlyRunE(fn adminHandler) func(*cobra.Command, []string) error {
	return adminRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
		if !sess.IsAdmin() {
			return ErrAdminRequired
		}
		return fn(cmd, a, sess, args)
	})
}

func promptRole() (auth.Role, error) {
	labels := make([]string, len(assignableRoles))
	for i, r := range assignableRoles {
		labels[i] = format.Label(format.RoleLabels, string(r))
	}

	prompt := promptui.Select{
		Label: "Rol",
		Items: labels,
		Size:  len(labels),
	}
	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selección cancelada: %w", err)
	}
	return assignableRoles[index], nil
}

func parseRoleFlag(value string) (auth.Role, error) {
	role := auth.ParseRole(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("rol inválido %q (use ADMIN u OPERADOR)", value)
	}
	return role, nil
}

func newAdminUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usuarios",
		Short: "Gestionar usuarios del sistema (solo administradores)",
		Args:  cobra.NoArgs,
		RunE: adminOnlyRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			users, err := a.client.AdminListUsers(cmd.Context())
			if err != nil {
				return apiError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNOMBRE\tCORREO\tROL\tACTIVO\tÚLTIMO ACCESO")
			for _, u := range users {
				active := "No"
				if u.Active {
					active = "Sí"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					u.ID,
					u.FullName(),
					u.Email,
					format.Label(format.RoleLabels, string(u.Role)),
					active,
					shortDatePtr(u.LastAccessAt),
				)
			}
			return w.Flush()
		}),
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserEditCmd())
	cmd.AddCommand(newDeleteCmd("el usuario", adminOnlyRunE, func(cmd *cobra.Command, a *app, sess *session.Manager, id string) error {
		if user := sess.User(); user != nil && user.ID == id {
			return errors.New("no puede eliminar su propia cuenta")
		}
		return apiError(a.client.AdminDeleteUser(cmd.Context(), id))
	}))

	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var in api.UserInput
	var role string

	cmd := &cobra.Command{
		Use:   "crear",
		Short: "Crear una cuenta del sistema administrativo",
		Args:  cobra.NoArgs,
		RunE: adminOnlyRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			var err error
			if role == "" {
				in.Role, err = selectRole()
			} else {
				in.Role, err = parseRoleFlag(role)
			}
			if err != nil {
				return err
			}

			if in.Password == "" {
				if in.Password, err = readSecret(cmd, "Contraseña", "--password"); err != nil {
					return err
				}
			}
			if len(in.Password) < minPasswordLength {
				return fmt.Errorf("la contraseña debe tener al menos %d caracteres", minPasswordLength)
			}

			user, err := a.client.AdminCreateUser(cmd.Context(), in)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Usuario creado: %s <%s> (%s)\n",
				user.FullName(), user.Email, format.Label(format.RoleLabels, string(user.Role)))
			return nil
		}),
	}

	cmd.Flags().StringVar(&in.FirstName, "nombre", "", "Nombres")
	cmd.Flags().StringVar(&in.LastName, "apellido", "", "Apellidos")
	cmd.Flags().StringVar(&in.Email, "email", "", "Correo electrónico")
	cmd.Flags().StringVar(&in.Password, "password", "", "Contraseña inicial (se solicita si falta)")
	cmd.Flags().StringVar(&in.DNI, "dni", "", "DNI")
	cmd.Flags().StringVar(&in.Phone, "telefono", "", "Teléfono")
	cmd.Flags().StringVar(&role, "rol", "", "Rol (ADMIN u OPERADOR; se solicita si falta)")
	for _, name := range []string{"nombre", "apellido", "email"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newUserEditCmd() *cobra.Command {
	var edits api.UserInput
	var role string
	var active bool

	cmd := &cobra.Command{
		Use:   "editar <id>",
		Short: "Editar una cuenta; solo cambian los campos indicados",
		Args:  cobra.ExactArgs(1),
		RunE: adminOnlyRunE(func(cmd *cobra.Command, a *app, sess *session.Manager, args []string) error {
			ctx := cmd.Context()
			users, err := a.client.AdminListUsers(ctx)
			if err != nil {
				return apiError(err)
			}
			var current *api.User
			for i := range users {
				if users[i].ID == args[0] {
					current = &users[i]
					break
				}
			}
			if current == nil {
				return fmt.Errorf("usuario no encontrado: %s", args[0])
			}

			isActive := current.Active
			in := api.UserInput{
				FirstName: current.FirstName,
				LastName:  current.LastName,
				Email:     current.Email,
				DNI:       current.DNI,
				Phone:     current.Phone,
				Role:      current.Role,
				Active:    &isActive,
			}
			var roleErr error
			applyChanged(cmd, map[string]func(){
				"nombre":   func() { in.FirstName = edits.FirstName },
				"apellido": func() { in.LastName = edits.LastName },
				"email":    func() { in.Email = edits.Email },
				"password": func() { in.Password = edits.Password },
				"dni":      func() { in.DNI = edits.DNI },
				"telefono": func() { in.Phone = edits.Phone },
				"rol":      func() { in.Role, roleErr = parseRoleFlag(role) },
				"activo":   func() { isActive = active },
			})
			if roleErr != nil {
				return roleErr
			}
			if in.Password != "" && len(in.Password) < minPasswordLength {
				return fmt.Errorf("la contraseña debe tener al menos %d caracteres", minPasswordLength)
			}

			user, err := a.client.AdminUpdateUser(ctx, current.ID, in)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Usuario actualizado: %s <%s>\n", user.FullName(), user.Email)
			return nil
		}),
	}

	cmd.Flags().StringVar(&edits.FirstName, "nombre", "", "Nombres")
	cmd.Flags().StringVar(&edits.LastName, "apellido", "", "Apellidos")
	cmd.Flags().StringVar(&edits.Email, "email", "", "Correo electrónico")
	cmd.Flags().StringVar(&edits.Password, "password", "", "Nueva contraseña")
	cmd.Flags().StringVar(&edits.DNI, "dni", "", "DNI")
	cmd.Flags().StringVar(&edits.Phone, "telefono", "", "Teléfono")
	cmd.Flags().StringVar(&role, "rol", "", "Rol (ADMIN u OPERADOR)")
	cmd.Flags().BoolVar(&active, "activo", true, "Cuenta activa (use --activo=false para desactivar)")

	return cmd
}
