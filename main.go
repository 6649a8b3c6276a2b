package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/internal/database"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/server"
	"github.com/hoadesk/inbox/services"
)

func main() {
	app := &cli.App{
		Name:  "hoa-inbox",
		Usage: "Gmail intake and reply workflow for HOA managers",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: migrate,
			},
			{
				Name:   "server",
				Usage:  "Start the HTTP server and the poll scheduler",
				Action: runServer,
			},
			{
				Name:   "poll",
				Usage:  "Poll every connected Gmail account once and print the summary",
				Action: pollOnce,
			},
			{
				Name:  "create-user",
				Usage: "Create a manager account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"NEW_USER_PASSWORD"}},
				},
				Action: createUser,
			},
		},
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config initialization failed: %w", err)
	}

	db, err := database.InitDatabase(&database.DatabaseConfig{
		URL:             cfg.DatabaseConfig.URL,
		MaxConn:         cfg.DatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.DatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.DatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.DatabaseConfig.LogLevel,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// cliServices wires the services without the HTTP layer for one-shot commands.
func cliServices(cfg *config.Config, db *gorm.DB) (*services.Services, func(), error) {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	closer, err := tracing.InitTracer(cfg.Tracing, appLogger)
	if err != nil {
		return nil, nil, err
	}

	svcs, err := services.InitServices(cfg, appLogger, repository.InitRepositories(db))
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = closer.Close()
		_ = appLogger.Sync()
	}
	return svcs, cleanup, nil
}

func migrate(_ *cli.Context) error {
	_, db, err := setup()
	if err != nil {
		return err
	}
	if err := repository.MigrateDB(db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("Database migration completed successfully")
	return nil
}

func runServer(_ *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}

	log.Println("HOA inbox starting up...")
	srv, err := server.NewServer(cfg, db)
	if err != nil {
		return fmt.Errorf("server setup failed: %w", err)
	}
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	log.Println("Shutdown complete")
	return nil
}

func pollOnce(c *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	svcs, cleanup, err := cliServices(cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := svcs.PollerService.PollAll(c.Context)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func createUser(c *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	svcs, cleanup, err := cliServices(cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := svcs.AuthService.CreateUser(c.Context, c.String("email"), c.String("name"), c.String("password"))
	if err != nil {
		return err
	}
	fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
	return nil
}
