package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/db"
	"portfolio/internal/handlers"
	"portfolio/internal/media"
	"portfolio/internal/ratelimit"
	"portfolio/internal/telemetry"
	"portfolio/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "Portfolio website API service",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newUserCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.UsingDevSecret() {
		log.Warn().Msg("JWT_SECRET is not set; using the insecure development signing secret")
	}

	shutdownTracing, traceMW, err := telemetry.Init(ctx, version.Name, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	if err := db.Migrate(ctx, database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	signer := auth.NewSigner([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	authSvc := auth.NewService(database, signer, log.Logger)

	limiter := ratelimit.New()
	limiter.SetBucket(ratelimit.BucketDefault, ratelimit.Config{Limit: cfg.RateLimitDefault, Window: time.Minute})
	limiter.SetBucket(ratelimit.BucketAuth, ratelimit.Config{Limit: cfg.RateLimitAuth, Window: time.Minute})
	go limiter.Run(ctx)

	var uploads *media.Store
	s3opts := media.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
	}
	if s3opts.Configured() {
		uploads, err = media.NewStore(ctx, s3opts)
		if err != nil {
			return fmt.Errorf("init media store: %w", err)
		}
	} else {
		log.Info().Msg("media storage not configured; uploads disabled")
	}

	srv := handlers.New(handlers.Options{
		DB:      database,
		Auth:    authSvc,
		Limiter: limiter,
		Uploads: uploads,
		Cookies: auth.CookieOptions{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure(),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log.Logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           traceMW(srv.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("env", cfg.Env).Msg("starting portfolio-api")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func newSeedCommand() *cobra.Command {
	var fixtures string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin user and optional content fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.SeedAdminPassword == "" {
				return fmt.Errorf("SEED_ADMIN_PASSWORD must be set")
			}

			database, err := db.Connect(ctx, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer func() { _ = db.Close(database) }()

			if err := db.Migrate(ctx, database); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			if err := db.SeedAdmin(ctx, database, cfg.SeedAdminEmail, cfg.SeedAdminName, cfg.SeedAdminPassword); err != nil {
				return err
			}
			log.Info().Str("email", cfg.SeedAdminEmail).Msg("admin user ensured")

			if fixtures != "" {
				if err := db.SeedFixtures(ctx, database, fixtures); err != nil {
					return err
				}
				log.Info().Str("file", fixtures).Msg("fixtures loaded")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixtures, "fixtures", "", "Optional YAML file with content fixtures")
	return cmd
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newUserCreateCommand())
	cmd.AddCommand(newUserHashCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var (
		email    string
		name     string
		password string
		admin    bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user directly in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			database, err := db.Connect(ctx, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer func() { _ = db.Close(database) }()

			if admin {
				err = db.SeedAdmin(ctx, database, email, name, password)
			} else {
				err = db.CreateUser(ctx, database, email, name, password)
			}
			if err != nil {
				return err
			}
			log.Info().Str("email", email).Bool("admin", admin).Msg("user created")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [password]",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
