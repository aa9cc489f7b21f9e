package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"petpal/internal/api"
	"petpal/internal/optimistic"
	"petpal/internal/output"
	"petpal/internal/views"
)

func (c *cli) petsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pets",
		Short: "Browse and manage adoption listings",
	}
	cmd.AddCommand(c.petsListCmd(), c.petsShowCmd(), c.petsLoveCmd(), c.petsCreateCmd())
	return cmd
}

type petRow struct {
	api.Pet
	Loved bool `json:"loved"`
}

func petTable(rows []petRow) output.Table {
	t := output.Table{Header: []string{"ID", "NAME", "SPECIES", "BREED", "LOCATION", "LOVES"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.ID, r.Name, r.Species, r.Breed, r.Location, heart(r.Loved, len(r.Loves))})
	}
	return t
}

func petRows(pets []api.Pet, userID string) []petRow {
	rows := make([]petRow, 0, len(pets))
	for _, p := range pets {
		rows = append(rows, petRow{Pet: p, Loved: optimistic.Reconcile(p.Loves, userID).Active})
	}
	return rows
}

func heart(active bool, count int) string {
	if active {
		return "♥ " + strconv.Itoa(count)
	}
	return "♡ " + strconv.Itoa(count)
}

func (c *cli) petsListCmd() *cobra.Command {
	var f api.PetFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List adoption listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}

			board := views.NewPetBoard(client, f, c.app.boardDeps())
			if err := board.Mount(ctx); err != nil {
				return err
			}
			defer board.Unmount()

			rows := make([]petRow, 0)
			for _, it := range board.Items() {
				rows = append(rows, petRow{Pet: it.Entity, Loved: it.Display.Active})
			}
			return c.app.printer.Print(rows, func() output.Table { return petTable(rows) })
		},
	}

	cmd.Flags().StringVar(&f.Species, "species", "", "Only this species")
	cmd.Flags().StringVar(&f.OwnerID, "owner", "", "Only listings of this owner")
	cmd.Flags().IntVar(&f.Page, "page", 0, "Page number (1-based)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Page size")
	return cmd
}

func (c *cli) petsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <pet-id>",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			pet, err := client.GetPet(ctx, args[0])
			if err != nil {
				return err
			}

			row := petRow{Pet: *pet, Loved: optimistic.Reconcile(pet.Loves, c.subject()).Active}
			return c.app.printer.Print(row, func() output.Table {
				return output.Table{Rows: [][]string{
					{"ID", pet.ID},
					{"Name", pet.Name},
					{"Species", pet.Species},
					{"Breed", pet.Breed},
					{"Age", ageString(pet.AgeMonths)},
					{"Location", pet.Location},
					{"Status", pet.Status},
					{"Owner", pet.OwnerID},
					{"Loves", heart(row.Loved, len(pet.Loves))},
					{"Photos", strings.Join(pet.Photos, ", ")},
					{"About", pet.Description},
				}}
			})
		},
	}
}

func ageString(months int) string {
	switch {
	case months <= 0:
		return ""
	case months < 12:
		return fmt.Sprintf("%d months", months)
	case months%12 == 0:
		return fmt.Sprintf("%d years", months/12)
	default:
		return fmt.Sprintf("%d years %d months", months/12, months%12)
	}
}

func (c *cli) subject() string {
	if sess, ok := c.app.sessions.CurrentSession(); ok {
		return sess.SubjectID
	}
	return ""
}

func (c *cli) petsLoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "love <pet-id>",
		Short: "Toggle a pet in your favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			pet, err := client.GetPet(ctx, args[0])
			if err != nil {
				return err
			}
			return c.toggle(ctx, pet.ID, pet.Loves, "favorite this pet", client.TogglePetLove)
		},
	}
}

// toggle runs one optimistic toggle and prints the settled state
func (c *cli) toggle(ctx context.Context, id string, members []string, action string, confirm optimistic.ConfirmFunc) error {
	out := c.app.toggler.Toggle(ctx, optimistic.Request{
		EntityID: id,
		Current:  optimistic.Reconcile(members, c.subject()),
		Action:   action,
		Apply:    func(optimistic.Display) {},
		Confirm:  confirm,
	})
	switch out.Result {
	case optimistic.Confirmed:
	case optimistic.SignInRequired:
		return fmt.Errorf("log in to %s", action)
	default:
		return fmt.Errorf("could not %s: %w", action, out.Err)
	}

	return c.app.printer.Print(out.Display, func() output.Table {
		return output.Table{
			Header: []string{"ID", "ACTIVE", "COUNT"},
			Rows:   [][]string{{id, strconv.FormatBool(out.Display.Active), strconv.Itoa(out.Display.Count)}},
		}
	})
}

func (c *cli) petsCreateCmd() *cobra.Command {
	var p api.NewPet

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new adoption listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.gate.Require(); err != nil {
				return fmt.Errorf("log in to publish a listing")
			}
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}

			for i, photo := range p.Photos {
				if p.Photos[i], err = c.resolveImage(cmd, client, photo); err != nil {
					return err
				}
			}

			pet, err := client.CreatePet(ctx, p)
			if err != nil {
				return err
			}
			row := []petRow{{Pet: *pet}}
			return c.app.printer.Print(pet, func() output.Table { return petTable(row) })
		},
	}

	cmd.Flags().StringVar(&p.Name, "name", "", "Pet name")
	cmd.Flags().StringVar(&p.Species, "species", "", "Species, e.g. dog or cat")
	cmd.Flags().StringVar(&p.Breed, "breed", "", "Breed")
	cmd.Flags().IntVar(&p.AgeMonths, "age-months", 0, "Age in months")
	cmd.Flags().StringVar(&p.Description, "description", "", "About the pet")
	cmd.Flags().StringVar(&p.Location, "location", "", "Where the pet is")
	cmd.Flags().StringSliceVar(&p.Photos, "photo", nil, "Photo file or URL (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("species")
	return cmd
}
