package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"go-buildmart/logger"
	"go-buildmart/repository"
	"go-buildmart/utils"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the unique and TTL indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		client, err := utils.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background()) //nolint:errcheck
		if err := repository.EnsureIndexes(ctx, client.Database(cfg.MongoDatabase)); err != nil {
			return err
		}
		logger.L.Info("indexes ensured", "database", cfg.MongoDatabase)
		return nil
	},
}
