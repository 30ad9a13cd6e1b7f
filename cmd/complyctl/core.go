package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/complyhub/complyd/pkg/config"
	"github.com/complyhub/complyd/pkg/db"
	"github.com/complyhub/complyd/pkg/distribute"
	"github.com/complyhub/complyd/pkg/provision"
	"github.com/complyhub/complyd/pkg/secrets"
	"github.com/complyhub/complyd/pkg/tenant"
)

// core bundles the services the admin commands share. Each command opens
// its own connection and exits, so nothing here is long-lived.
type core struct {
	cfg         *config.Config
	registry    *tenant.Registry
	store       *provision.GormStore
	provisioner *provision.Provisioner
	engine      *distribute.Engine
}

func openCore() (*core, error) {
	dataKeyB64, ok := os.LookupEnv(secrets.DataKeyEnvVar)
	if !ok {
		return nil, fmt.Errorf("%s environment variable is required", secrets.DataKeyEnvVar)
	}
	dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", secrets.DataKeyEnvVar, err)
	}
	cipher, err := secrets.NewCipher(dataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	database, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}

	registry := tenant.NewRegistry(nil)
	if err := registry.LoadActive(database, cipher); err != nil {
		return nil, fmt.Errorf("failed to load tenant partitions: %w", err)
	}
	router := tenant.NewRouter(database, registry)

	store := provision.NewGormStore(database)
	provisioner := provision.New(
		store,
		provision.NewGormPartitionAdmin(database),
		registry,
		cipher,
		nil,
		provision.Options{
			PartitionHost: cfg.PartitionHost,
			PartitionPort: cfg.PartitionPort,
			DatabaseName:  databaseName(cfg.DatabaseURL),
			CreateTimeout: cfg.PartitionCreateTimeout(),
			InitTimeout:   cfg.SchemaInitTimeout(),
		},
	)

	engine := distribute.NewEngine(distribute.NewGormSystemStore(database), router, nil)

	return &core{
		cfg:         cfg,
		registry:    registry,
		store:       store,
		provisioner: provisioner,
		engine:      engine,
	}, nil
}
