package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complyhub/complyd/pkg/audit"
	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/config"
	"github.com/complyhub/complyd/pkg/db"
	"github.com/complyhub/complyd/pkg/distribute"
	"github.com/complyhub/complyd/pkg/logging"
	"github.com/complyhub/complyd/pkg/provision"
	"github.com/complyhub/complyd/pkg/secrets"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/server/endpoints"
	"github.com/complyhub/complyd/pkg/server/middleware"
	"github.com/complyhub/complyd/pkg/tenant"
)

func defaultBindAddress() string {
	if addr := os.Getenv("COMPLYD_BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8080
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the complyd application server",
	Long: `Run the complyd application server.

Requires the COMPLYD_DATA_KEY and DATABASE_URL environment variables.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Fail fast on missing required environment.
		dataKeyB64, ok := os.LookupEnv(secrets.DataKeyEnvVar)
		if !ok {
			fmt.Fprintln(os.Stderr, secrets.DataKeyEnvVar+" environment variable is required")
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
			os.Exit(1)
		}
		if cfg.DatabaseURL == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "complyd")
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to initialize logging:", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()

		dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Bad "+secrets.DataKeyEnvVar+":", err)
			os.Exit(1)
		}
		cipher, err := secrets.NewCipher(dataKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to initiate cipher:", err)
			os.Exit(1)
		}

		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		registry := tenant.NewRegistry(nil)
		if err := registry.LoadActive(database, cipher); err != nil {
			fmt.Fprintln(os.Stderr, "Unable to load tenant partitions:", err)
			os.Exit(1)
		}
		router := tenant.NewRouter(database, registry)

		bundle, err := authz.LoadBundle(cfg.RolesFile, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to load role bundle:", err)
			os.Exit(1)
		}
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			if err := bundle.Watch(stop); err != nil {
				logger.Warn("role bundle watch unavailable", zap.Error(err))
			}
		}()

		auditor := audit.NewAuditor(audit.NewLogger(), audit.NewStore(database))

		store := provision.NewGormStore(database)
		provisioner := provision.New(
			store,
			provision.NewGormPartitionAdmin(database),
			registry,
			cipher,
			logger,
			provision.Options{
				PartitionHost: cfg.PartitionHost,
				PartitionPort: cfg.PartitionPort,
				DatabaseName:  databaseName(cfg.DatabaseURL),
				CreateTimeout: cfg.PartitionCreateTimeout(),
				InitTimeout:   cfg.SchemaInitTimeout(),
			},
		)
		provisioner.SetAuditor(auditor)

		engine := distribute.NewEngine(distribute.NewGormSystemStore(database), router, logger)
		engine.SetAuditor(auditor)

		resolver := authz.NewResolver(authz.NewGormMembershipStore(database), bundle)

		binder := middleware.NewTenantBinder(store, logger)
		if cfg.RedisAddr != "" {
			cache := tenant.NewCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
			provisioner.SetCache(cache)
			binder.SetCache(cache)
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(database, router, provisioner, engine, resolver, logger, host, port)
		s.Auditor = auditor
		s.Admins = authz.NewPlatformAdmins(cfg.AdminSubjects)

		identity := middleware.NewIdentity([]byte(cfg.TokenSigningKey))
		s.Use(identity.OptionalMiddleware)
		s.Use(binder.Middleware)

		endpoints.RegisterAll(s, store)

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

// databaseName extracts the database name from the system partition URL.
// Tenant schemas live in the same database.
func databaseName(databaseURL string) string {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "complyd"
	}
	name := strings.TrimPrefix(parsed.Path, "/")
	if name == "" {
		return "complyd"
	}
	return name
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
