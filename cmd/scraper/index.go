package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shanehull/regscraper/internal/cache"
	"github.com/shanehull/regscraper/internal/config"
	"github.com/shanehull/regscraper/internal/index"
	"github.com/shanehull/regscraper/internal/logger"
)

func newIndexCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the search index from the cached records",
		Long: `index aggregates every cached daily record into search-data.json,
file-manifest.json and metadata.json for the static search page.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.New(cmd.ErrOrStderr(), v.GetBool(config.KeyVerbose))
			defer func() { _ = log.Sync() }()

			store := cache.NewFileStore(v.GetString(config.KeyCacheDir))
			meta, err := index.NewBuilder(store, v.GetString(config.KeyPublicDir), log).Build(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d announcements (checksum %s)\n", meta.TotalAnnouncements, meta.Checksum)
			return nil
		},
	}

	cmd.Flags().String("public-dir", "public", "output directory of the index files")
	bindFlags(v, cmd.Flags(), []flagBinding{{config.KeyPublicDir, "public-dir"}})

	return cmd
}
