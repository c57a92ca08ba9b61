package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	appRepos "github.com/yigit/classroom/internal/app/repositories"
	appServices "github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/bootstrap"
	"github.com/yigit/classroom/internal/config"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "lmsctl",
		Usage: "classroom administration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   bootstrap.DefaultConfigPath,
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			createUserCommand(),
			cleanupTokensCommand(),
		},
	}
}

// withDatabase loads configuration, connects and hands the pool to fn.
func withDatabase(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) error) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}
	pool, err := bootstrap.ConnectDatabase(cfg, lgr)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(c.Context, cfg, pool, lgr)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending SQL migrations",
		Action: func(c *cli.Context) error {
			return withDatabase(c, bootstrap.RunMigrations)
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create the configured default administrator",
		Action: func(c *cli.Context) error {
			return withDatabase(c, func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) error {
				created, err := bootstrap.SeedAdmin(ctx, cfg, pool, lgr)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(c.App.Writer, "created administrator %s\n", cfg.Seed.AdminEmail)
				} else {
					fmt.Fprintln(c.App.Writer, "nothing to do")
				}
				return nil
			})
		},
	}
}

func createUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-user",
		Usage: "create an admin, teacher or student account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"LMSCTL_PASSWORD"}},
			&cli.StringFlag{Name: "name", Required: true, Usage: "full name"},
			&cli.StringFlag{Name: "role", Value: string(models.RoleTeacher), Usage: "admin, teacher or student"},
			&cli.StringFlag{Name: "department", Usage: "teacher department"},
			&cli.StringFlag{Name: "student-number"},
		},
		Action: func(c *cli.Context) error {
			req := &dto.CreateUserRequest{
				Email:    c.String("email"),
				Password: c.String("password"),
				FullName: c.String("name"),
				Role:     models.Role(strings.ToLower(c.String("role"))),
			}
			if !req.Role.Valid() {
				return fmt.Errorf("unknown role %q", c.String("role"))
			}
			if len(req.Password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}
			if v := c.String("department"); v != "" {
				req.Department = &v
			}
			if v := c.String("student-number"); v != "" {
				req.StudentNumber = &v
			}

			return withDatabase(c, func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) error {
				users := appServices.NewUserService(appRepos.NewUserRepository(pool), lgr)
				user, err := users.CreateUser(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "created %s %s (%s)\n", user.Role, user.Email, user.ID)
				return nil
			})
		},
	}
}

func cleanupTokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup-tokens",
		Usage: "delete expired refresh tokens and old revoked ones",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "retention", Value: 7 * 24 * time.Hour, Usage: "keep revoked tokens this long"},
		},
		Action: func(c *cli.Context) error {
			return withDatabase(c, func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool, _ zerolog.Logger) error {
				n, err := appRepos.NewTokenRepository(pool).CleanupExpiredTokens(ctx, c.Duration("retention"))
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "deleted %d tokens\n", n)
				return nil
			})
		},
	}
}
