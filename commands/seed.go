package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"go-buildmart/logger"
	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/services"
	"go-buildmart/utils"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample catalog, delivery zones and an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		client, err := utils.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background()) //nolint:errcheck
		if err := utils.PingDB(ctx, client); err != nil {
			return err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := repository.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		return seed(ctx, repository.NewMongoStore(client, db), seedAdminEmail, seedAdminPassword)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@buildmart.local", "email of the admin account to create")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "admin123", "password of the admin account")
}

// seed inserts sample data, skipping anything that already exists.
func seed(ctx context.Context, store *repository.Store, adminEmail, adminPassword string) error {
	log := logger.FromContext(ctx)
	var dup *repository.DuplicateKeyError

	products := 0
	for _, p := range services.SampleCatalog() {
		err := store.Products.Create(ctx, &p)
		if errors.As(err, &dup) {
			continue
		}
		if err != nil {
			return err
		}
		products++
	}

	zones := 0
	for _, z := range services.SampleZones() {
		err := store.Zones.Create(ctx, &z)
		if errors.As(err, &dup) {
			continue
		}
		if err != nil {
			return err
		}
		zones++
	}

	if adminEmail != "" {
		if _, err := store.Users.FindByEmail(ctx, adminEmail); errors.Is(err, repository.ErrNotFound) {
			hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			admin := &models.User{
				Name:      "Administrator",
				Email:     adminEmail,
				Password:  string(hash),
				Role:      models.RoleAdmin,
				Addresses: []models.Address{},
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := store.Users.Create(ctx, admin); err != nil {
				return err
			}
			log.Info("admin account created", "email", adminEmail)
		} else if err != nil {
			return err
		}
	}

	log.Info("seed complete", "products", products, "zones", zones)
	return nil
}
