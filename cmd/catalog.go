package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var catalogIndexCmd = &cobra.Command{
	Use:   "catalog:index",
	Short: "Rebuild the Elasticsearch product index from the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := bootstrap()
		if err != nil {
			return err
		}
		if svc.Search == nil {
			return errors.New("ELASTICSEARCH_HOST is not set")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		start := time.Now()
		n, err := svc.Catalog.IndexCatalog(ctx, svc.Search)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d products into %s in %s\n", n, svc.Config.ElasticsearchIndex, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	Register(catalogIndexCmd)
}
