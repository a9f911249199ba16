package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/azad-pos/api/internal/auth"
	"github.com/azad-pos/api/internal/config"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/enum"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed menu.json
var menuJSON []byte

const defaultPassword = "12345678"

type seedMenu struct {
	Modifiers []database.UpsertModifierParams `json:"modifiers"`
	Items     []seedItem                      `json:"items"`
}

type seedItem struct {
	database.UpsertMenuItemParams
	ModifierIDs []int64 `json:"modifier_ids"`
}

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	password := flag.String("password", "", "Shared secret for every staff role")
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *password == "" {
		*password = defaultPassword
		logger.Warnf("using default staff password %q, change it immediately in production", defaultPassword)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("unable to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatalw("unable to ping database", "error", err)
	}

	var menu seedMenu
	if err := json.Unmarshal(menuJSON, &menu); err != nil {
		logger.Fatalw("invalid embedded menu", "error", err)
	}

	// Menu and credentials land together or not at all.
	tx, err := pool.Begin(ctx)
	if err != nil {
		logger.Fatalw("failed to begin transaction", "error", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)
	if err := seedCatalog(ctx, q, menu); err != nil {
		logger.Fatalw("failed to seed menu", "error", err)
	}
	if err := seedCredentials(ctx, q, *password); err != nil {
		logger.Fatalw("failed to seed staff credentials", "error", err)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Fatalw("failed to commit", "error", err)
	}

	logger.Infow("seed complete",
		"modifiers", len(menu.Modifiers),
		"menu_items", len(menu.Items),
		"roles", []string{enum.RoleManager, enum.RoleCashier, enum.RoleKitchen},
	)
}

func seedCatalog(ctx context.Context, q *database.Queries, menu seedMenu) error {
	for _, m := range menu.Modifiers {
		if err := q.UpsertModifier(ctx, m); err != nil {
			return fmt.Errorf("modifier %d: %w", m.ID, err)
		}
	}
	for _, it := range menu.Items {
		if err := q.UpsertMenuItem(ctx, it.UpsertMenuItemParams); err != nil {
			return fmt.Errorf("menu item %d: %w", it.ID, err)
		}
		for _, modID := range it.ModifierIDs {
			if err := q.AttachModifier(ctx, database.AttachModifierParams{
				MenuItemID: it.ID,
				ModifierID: modID,
			}); err != nil {
				return fmt.Errorf("attach modifier %d to item %d: %w", modID, it.ID, err)
			}
		}
	}
	return nil
}

func seedCredentials(ctx context.Context, q *database.Queries, password string) error {
	for _, role := range []string{enum.RoleManager, enum.RoleCashier, enum.RoleKitchen} {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash %s password: %w", role, err)
		}
		if _, err := q.UpsertStaffCredential(ctx, database.UpsertStaffCredentialParams{
			Role:         role,
			PasswordHash: hash,
		}); err != nil {
			return fmt.Errorf("upsert %s credential: %w", role, err)
		}
	}
	return nil
}
