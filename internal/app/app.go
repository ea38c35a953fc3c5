// Package app wires the stores, caches and services shared by the server and
// the worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"tripmate/internal/cascade"
	"tripmate/internal/config"
	"tripmate/internal/services"
	"tripmate/internal/store"
)

type App struct {
	Config   config.Config
	Firebase *services.Firebase // nil when credentials are unavailable
	DB       *gorm.DB           // nil without DATABASE_URL
	Cache    *services.RedisCache
	Store    store.TripStore
	Journal  cascade.Journal
	Trips    *services.TripService
}

// New connects everything cfg points at. Firestore mode needs Firebase;
// Postgres and Redis are optional and fall back to in-process versions.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg}

	fb, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID)
	switch {
	case err == nil:
		a.Firebase = fb
	case cfg.Store == config.StoreFirestore:
		return nil, fmt.Errorf("firebase init: %w", err)
	default:
		slog.Warn("Firebase initialization failed, auth features will not work", "error", err)
	}

	switch cfg.Store {
	case config.StoreFirestore:
		a.Store = store.NewFirestoreStore(a.Firebase.Firestore)
	case config.StoreMemory:
		slog.Warn("Using in-memory trip store, data is lost on restart")
		a.Store = store.NewMemoryStore()
	default:
		a.Close()
		return nil, fmt.Errorf("unknown TRIPMATE_STORE %q", cfg.Store)
	}

	if cfg.DatabaseURL != "" {
		db, err := services.InitDB(cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := services.AutoMigrate(db); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.DB = db
		a.Journal = cascade.NewGormJournal(db)
	} else {
		slog.Warn("DATABASE_URL not set, cascade journal kept in memory")
		a.Journal = cascade.NewMemoryJournal()
	}

	if cfg.RedisURL != "" {
		cache, err := services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			slog.Warn("Redis unavailable, profile cache is in-process only", "error", err)
		} else {
			a.Cache = cache
		}
	}

	profiles := services.NewProfileDirectory(a.Store, a.Cache, cfg.ProfileCacheSize, cfg.ProfileCacheTTL)
	a.Trips = services.NewTripService(a.Store, profiles, a.Journal)
	return a, nil
}

// Close releases every connection New opened
func (a *App) Close() error {
	var errs []error
	if a.Firebase != nil {
		errs = append(errs, a.Firebase.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
