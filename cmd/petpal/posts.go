package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"petpal/internal/api"
	"petpal/internal/output"
	"petpal/internal/views"
)

func (c *cli) postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse and share community posts",
	}
	cmd.AddCommand(c.postsListCmd(), c.postsLikeCmd(), c.postsCreateCmd())
	return cmd
}

type postRow struct {
	api.Post
	Liked bool `json:"liked"`
}

func postTable(rows []postRow) output.Table {
	t := output.Table{Header: []string{"ID", "AUTHOR", "CAPTION", "LIKES", "COMMENTS"}}
	for _, r := range rows {
		author := r.AuthorName
		if author == "" {
			author = r.AuthorID
		}
		t.Rows = append(t.Rows, []string{r.ID, author, truncate(r.Caption, 48), heart(r.Liked, len(r.Likes)), strconv.Itoa(r.CommentCount)})
	}
	return t
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (c *cli) postsListCmd() *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the community feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}

			feed := views.NewPostFeed(client, page, limit, c.app.boardDeps())
			if err := feed.Mount(ctx); err != nil {
				return err
			}
			defer feed.Unmount()

			rows := make([]postRow, 0)
			for _, it := range feed.Items() {
				rows = append(rows, postRow{Post: it.Entity, Liked: it.Display.Active})
			}
			return c.app.printer.Print(rows, func() output.Table { return postTable(rows) })
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	return cmd
}

func (c *cli) postsLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}
			post, err := client.GetPost(ctx, args[0])
			if err != nil {
				return err
			}
			return c.toggle(ctx, post.ID, post.Likes, "like this post", client.TogglePostLike)
		},
	}
}

func (c *cli) postsCreateCmd() *cobra.Command {
	var p api.NewPost

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Share a photo post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.gate.Require(); err != nil {
				return fmt.Errorf("log in to share a post")
			}
			ctx := cmd.Context()
			client, err := c.app.API(ctx)
			if err != nil {
				return err
			}

			if p.ImageURL, err = c.resolveImage(cmd, client, p.ImageURL); err != nil {
				return err
			}
			post, err := client.CreatePost(ctx, p)
			if err != nil {
				return err
			}
			rows := []postRow{{Post: *post}}
			return c.app.printer.Print(post, func() output.Table { return postTable(rows) })
		},
	}

	cmd.Flags().StringVar(&p.Caption, "caption", "", "Caption")
	cmd.Flags().StringVar(&p.ImageURL, "image", "", "Image file to upload, or an image URL")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

// resolveImage uploads a local file and returns its key; URLs pass through
func (c *cli) resolveImage(cmd *cobra.Command, client *api.Client, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}

	f, err := os.Open(ref)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	name := filepath.Base(ref)
	contentType := api.ContentTypeFor(name)
	if contentType == "" {
		return "", fmt.Errorf("%s: unsupported image type", name)
	}
	key, err := client.UploadImage(cmd.Context(), name, contentType, f)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return key, nil
}
