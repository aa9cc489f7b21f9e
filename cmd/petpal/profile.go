package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"petpal/internal/api"
	"petpal/internal/output"
	"petpal/internal/session"
	"petpal/internal/views"
)

func (c *cli) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show your profile, listings and favorites, or another member's public profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return c.showUser(cmd, client, args[0])
			}

			hub := views.NewProfileHub(c.app.gate, client, c.app.notifier, c.app.log)
			p, err := hub.Load(ctx)
			if errors.Is(err, session.ErrSignInRequired) {
				return errors.New("not logged in")
			}
			if err != nil {
				return err
			}

			if c.app.printer.Format() != output.FormatTable {
				return c.app.printer.Print(p, nil)
			}

			me := c.subject()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s <%s>\n\nListings\n", p.User.Name, p.User.Email)
			if err := c.app.printer.Print(nil, func() output.Table { return petTable(petRows(p.Listings, me)) }); err != nil {
				return err
			}
			fmt.Fprintln(w, "\nFavorites")
			return c.app.printer.Print(nil, func() output.Table { return petTable(petRows(p.Favorites, me)) })
		},
	}
}

func (c *cli) showUser(cmd *cobra.Command, client *api.Client, id string) error {
	u, err := client.GetUser(cmd.Context(), strings.TrimSpace(id))
	if api.IsNotFound(err) {
		return fmt.Errorf("user %s not found", id)
	}
	if err != nil {
		return err
	}
	return c.app.printer.Print(u, func() output.Table {
		return output.Table{
			Header: []string{"ID", "NAME", "BIO"},
			Rows:   [][]string{{u.ID, u.Name, u.Bio}},
		}
	})
}
