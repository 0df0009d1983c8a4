package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"autopost/internal/model"
	"autopost/internal/preview"

	"github.com/spf13/cobra"
)

var publishSet string

var publishCmd = &cobra.Command{
	Use:   "publish <preview_path>",
	Short: "Publish a reviewed preview file to WordPress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		path := args[0]
		doc, err := preview.ParseFile(path)
		if err != nil {
			return fmt.Errorf("read preview: %w", err)
		}
		draft, err := doc.Draft()
		if err != nil {
			return err
		}
		name := publishSet
		if name == "" {
			name = doc.Frontmatter.Account
		}
		set, ok := cfg.AccountSet(name)
		if !ok {
			return fmt.Errorf("unknown account set %q; pass --set", name)
		}
		timeout, err := duration("wordpress.timeout", cfg.WordPress.Timeout)
		if err != nil {
			return err
		}
		pub := newPublisher(cfg, set, location(cfg), timeout)
		if pub == nil {
			return fmt.Errorf("wordpress not configured for %s: set wordpress.site_id and a token", set.Name)
		}

		var cover []byte
		if doc.Frontmatter.Cover != "" {
			cover, err = os.ReadFile(filepath.Join(filepath.Dir(path), doc.Frontmatter.Cover))
			if err != nil {
				slog.Warn("publish: cover not readable, posting without it", "cover", doc.Frontmatter.Cover, "error", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
		defer cancel()
		post, err := pub.Publish(ctx, draft, cover, doc.Frontmatter.Cover)
		if err != nil {
			return err
		}
		if doc.Frontmatter.TopicID != "" {
			store, rdb := openStore(cfg)
			defer rdb.Close()
			topic := model.Topic{ID: doc.Frontmatter.TopicID}
			if err := store.MarkPublished(ctx, topic, set.Name, post.Link); err != nil {
				slog.Warn("publish: could not record publication", "topic_id", topic.ID, "error", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s as post %d (%s)\n", path, post.ID, post.Link)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishSet, "set", "", "account set to publish for (default: the preview's account)")
	rootCmd.AddCommand(publishCmd)
}
