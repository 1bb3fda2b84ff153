package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gourmet/src/db"
)

var (
	shopsRef     string
	reviewsRef   string
	shopsIndex   string
	reviewsIndex string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Bulk load the shop and review feeds into Elasticsearch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return loadIndices(cmd.Context())
	},
}

func init() {
	indexCmd.Flags().StringVar(&shopsRef, "shops", "", "shop feed (file or URL); defaults to the configured feed")
	indexCmd.Flags().StringVar(&reviewsRef, "reviews", "", "review feed (file or URL); defaults to the configured feed")
	indexCmd.Flags().StringVar(&shopsIndex, "shops-index", "shops", "target index for shops")
	indexCmd.Flags().StringVar(&reviewsIndex, "reviews-index", "reviews", "target index for reviews")
}

func loadIndices(ctx context.Context) error {
	if shopsRef == "" {
		shopsRef = cfg.Shops
	}
	if reviewsRef == "" {
		reviewsRef = cfg.Reviews
	}
	opener := &db.Opener{ElasticURL: cfg.ElasticURL, Logger: logger}
	client, err := opener.Elastic()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	feeds := []struct{ ref, index string }{
		{shopsRef, shopsIndex},
		{reviewsRef, reviewsIndex},
	}
	for _, f := range feeds {
		ref, name := f.ref, f.index
		g.Go(func() error {
			src, err := opener.Open(ref)
			if err != nil {
				return err
			}
			records, err := src.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("read %s: %w", ref, err)
			}
			store := db.NewElasticStore(client, name, logger)
			if err := store.CreateIndex(ctx); err != nil {
				return err
			}
			if err := store.BulkLoad(ctx, records); err != nil {
				return err
			}
			logger.Info("index loaded", zap.String("index", name), zap.Int("records", len(records)))
			return nil
		})
	}
	return g.Wait()
}
