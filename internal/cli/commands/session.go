package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ugel-satipo/portal/internal/cli/format"
)

// minPasswordLength matches the API's rule for new passwords
const minPasswordLength = 8

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión en el sistema administrativo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Correo electrónico (o UGEL_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Contraseña (o UGEL_PASSWORD; se solicita si falta)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string) error {
	// Environment variables are useful for scripts
	if email == "" {
		email = os.Getenv("UGEL_EMAIL")
	}
	if password == "" {
		password = os.Getenv("UGEL_PASSWORD")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("el correo es obligatorio (use --email o UGEL_EMAIL)")
	}

	if password == "" {
		var err error
		if password, err = readSecret(cmd, "Contraseña", "--password o UGEL_PASSWORD"); err != nil {
			return err
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess := a.session(ctx)
	if err := sess.Wait(ctx); err != nil {
		return err
	}

	user, err := sess.Login(ctx, email, password)
	if err != nil {
		return apiError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Sesión iniciada")
	fmt.Fprintf(out, "  Usuario: %s (%s)\n", user.FullName(), user.Email)
	fmt.Fprintf(out, "  Rol: %s\n", format.Label(format.RoleLabels, string(user.Role)))
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cerrar la sesión actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess := a.session(ctx)
			if err := sess.Wait(ctx); err != nil {
				return err
			}
			sess.Logout()

			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar el usuario de la sesión actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			sess, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}

			user := sess.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", user.FullName(), user.Email)
			fmt.Fprintf(out, "Rol: %s\n", format.Label(format.RoleLabels, string(user.Role)))
			if user.LastAccessAt != nil {
				fmt.Fprintf(out, "Último acceso: %s\n", format.DatePtr(user.LastAccessAt))
			}
			fmt.Fprintf(out, "Servidor: %s\n", a.client.BaseURL())
			return nil
		},
	}
}

// readSecret prompts for a value on the terminal without echoing it. hint
// names the flag to use when stdin is not a terminal.
func readSecret(cmd *cobra.Command, label, hint string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("la %s es obligatoria en modo no interactivo (use %s)", strings.ToLower(label), hint)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

// NewChangePasswordCmd changes the password of the logged-in user
func NewChangePasswordCmd() *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "cambiar-password",
		Short: "Cambiar la contraseña de la sesión actual",
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

			if current == "" {
				if current, err = readSecret(cmd, "Contraseña actual", "--actual"); err != nil {
					return err
				}
			}
			if next == "" {
				if next, err = readSecret(cmd, "Nueva contraseña", "--nueva"); err != nil {
					return err
				}
				repeated, err := readSecret(cmd, "Repita la nueva contraseña", "--nueva")
				if err != nil {
					return err
				}
				if repeated != next {
					return errors.New("las contraseñas no coinciden")
				}
			}
			if len(next) < minPasswordLength {
				return fmt.Errorf("la nueva contraseña debe tener al menos %d caracteres", minPasswordLength)
			}

			if err := a.client.ChangePassword(ctx, current, next); err != nil {
				return apiError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Contraseña actualizada")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "actual", "", "Contraseña actual (se solicita si falta)")
	cmd.Flags().StringVar(&next, "nueva", "", "Nueva contraseña, mínimo 8 caracteres (se solicita si falta)")

	return cmd
}
