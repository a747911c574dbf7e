package cmd

import (
	"context"
	"fmt"

	"github.com/hostelhub/roomcast/internal/config"
	"github.com/hostelhub/roomcast/internal/database"
	"github.com/hostelhub/roomcast/internal/hostel"
)

// openStore loads config, opens and migrates the database, and returns a
// student store. The caller must run the returned close func.
func openStore(ctx context.Context) (*config.Config, *hostel.Store, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return cfg, hostel.NewStore(db), func() { _ = db.Close() }, nil
}
