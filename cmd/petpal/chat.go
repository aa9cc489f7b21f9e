package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"petpal/internal/chat"
	"petpal/internal/output"
	"petpal/internal/session"
)

func (c *cli) chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Message other members",
	}
	cmd.AddCommand(c.chatTokenCmd(), c.chatSendCmd(), c.chatWatchCmd())
	return cmd
}

// chatService connects to chat as the signed-in user
func (c *cli) chatService(cmd *cobra.Command) (*chat.Service, error) {
	if err := c.app.cfg.ValidateChat(); err != nil {
		return nil, err
	}
	client, err := c.app.API(cmd.Context())
	if err != nil {
		return nil, err
	}

	svc := chat.NewService(c.app.sessions, client, chat.NewNATSClient(c.app.cfg.ChatURL, c.app.log), c.app.cfg.ChatAPIKey, c.app.log)
	if err := svc.Connect(cmd.Context()); err != nil {
		if errors.Is(err, session.ErrSignInRequired) {
			return nil, errors.New("log in to use chat")
		}
		return nil, err
	}
	return svc, nil
}

func (c *cli) chatTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a chat token for the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.gate.Require(); err != nil {
				return errors.New("log in to use chat")
			}
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			tok, err := client.ChatToken(ctx)
			if err != nil {
				return err
			}
			return c.app.printer.Print(tok, func() output.Table {
				return output.Table{
					Header: []string{"USER", "TOKEN"},
					Rows:   [][]string{{tok.UserID, tok.Token}},
				}
			})
		},
	}
}

func (c *cli) chatSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <user-id> <text...>",
		Short: "Send a direct message, e.g. to a pet's owner",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.chatService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.SendDirect(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			return c.app.printer.Message("Sent to %s", args[0])
		},
	}
}

func (c *cli) chatWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <user-id>",
		Short: "Follow a direct conversation until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.chatService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx := cmd.Context()
			msgs := make(chan chat.Message, 16)
			sub, err := svc.WatchDirect(ctx, args[0], func(m chat.Message) {
				select {
				case msgs <- m:
				case <-ctx.Done():
				}
			})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching conversation with %s, press Ctrl+C to stop\n", args[0])
			for {
				select {
				case <-ctx.Done():
					return nil
				case m := <-msgs:
					if err := c.app.printer.Print(m, func() output.Table {
						return output.Table{Rows: [][]string{{m.SentAt.Local().Format(time.TimeOnly), m.SenderID, m.Text}}}
					}); err != nil {
						return err
					}
				}
			}
		},
	}
}
