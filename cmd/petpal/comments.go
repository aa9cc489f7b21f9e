package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"petpal/internal/api"
	"petpal/internal/output"
	"petpal/internal/views"
)

func (c *cli) commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Read and write comments on posts",
	}
	cmd.AddCommand(c.commentsListCmd(), c.commentsAddCmd(), c.commentsDeleteCmd())
	return cmd
}

func commentTable(list []api.Comment) output.Table {
	t := output.Table{Header: []string{"ID", "AUTHOR", "WHEN", "COMMENT"}}
	for _, cm := range list {
		author := cm.AuthorName
		if author == "" {
			author = cm.AuthorID
		}
		t.Rows = append(t.Rows, []string{cm.ID, author, cm.CreatedAt.Local().Format(time.DateTime), cm.Body})
	}
	return t
}

func (c *cli) thread(cmd *cobra.Command, postID string) (*views.Thread, error) {
	client, err := c.app.API(cmd.Context())
	if err != nil {
		return nil, err
	}
	return views.NewThread(postID, client, c.app.sessions, c.app.notifier, c.app.log), nil
}

func (c *cli) commentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <post-id>",
		Short: "List a post's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := c.thread(cmd, args[0])
			if err != nil {
				return err
			}
			if err := th.Mount(cmd.Context()); err != nil {
				return err
			}
			defer th.Unmount()

			list := th.Comments()
			return c.app.printer.Print(list, func() output.Table { return commentTable(list) })
		},
	}
}

func (c *cli) commentsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <post-id> <text...>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := c.thread(cmd, args[0])
			if err != nil {
				return err
			}
			cm, err := th.Add(cmd.Context(), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return c.app.printer.Print(cm, func() output.Table { return commentTable([]api.Comment{*cm}) })
		},
	}
}

func (c *cli) commentsDeleteCmd() *cobra.Command {
	var postID string

	cmd := &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := c.thread(cmd, postID)
			if err != nil {
				return err
			}
			if err := th.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.app.printer.Message("Deleted comment %s", args[0])
		},
	}

	cmd.Flags().StringVar(&postID, "post", "", "Post the comment belongs to")
	return cmd
}
