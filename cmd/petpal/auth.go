package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"petpal/internal/api"
	"petpal/internal/output"
)

func (c *cli) loginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			resp, err := client.SignIn(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			return c.startSession(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) signupCmd() *cobra.Command {
	var req api.SignUpRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			if req.Password, err = readPassword(cmd); err != nil {
				return err
			}

			resp, err := client.SignUp(ctx, req)
			if err != nil {
				return fmt.Errorf("sign up: %w", err)
			}
			return c.startSession(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Account email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) startSession(cmd *cobra.Command, resp *api.AuthResponse) error {
	sess, err := c.app.sessions.Login(cmd.Context(), resp.Token)
	if err != nil {
		return fmt.Errorf("backend returned an unusable token: %w", err)
	}
	name := sess.SubjectID
	if resp.User != nil && resp.User.Name != "" {
		name = resp.User.Name
	}
	return c.app.printer.Message("Logged in as %s (%s)", name, sess.SubjectID)
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.sessions.Logout(cmd.Context())
			return c.app.printer.Message("Logged out")
		},
	}
}

type whoami struct {
	UserID    string     `json:"user_id"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.gate.Require(); err != nil {
				return errors.New("not logged in")
			}
			sess, _ := c.app.sessions.CurrentSession()

			out := whoami{UserID: sess.SubjectID, Roles: sess.Roles}
			if sess.ExpiresAtEpochSeconds > 0 {
				exp := sess.ExpiresAt()
				out.ExpiresAt = &exp
			}

			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			me, err := client.Me(ctx)
			if err != nil {
				if api.IsUnauthorized(err) {
					return errors.New("session rejected by the server, please log in again")
				}
				return err
			}
			out.Name, out.Email = me.Name, me.Email

			return c.app.printer.Print(out, func() output.Table {
				expires := "never"
				if out.ExpiresAt != nil {
					expires = out.ExpiresAt.Local().Format(time.RFC1123)
				}
				return output.Table{
					Header: []string{"USER", "NAME", "EMAIL", "EXPIRES"},
					Rows:   [][]string{{out.UserID, out.Name, out.Email, expires}},
				}
			})
		},
	}
}

// readPassword prompts without echo on a terminal and reads one line otherwise
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}
