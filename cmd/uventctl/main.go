// Command uventctl is the Uvent admin CLI.
//
// Usage:
//
//	uventctl migrate
//	uventctl events pending
//	uventctl events approve 42
//	uventctl events reject 42
//	uventctl adduser --name Admin --email admin@uvent.id --password secret --admin
//	uventctl sweep
//	uventctl cleanup
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RevinPahlevi/Uvent-Backend/internal/config"
	"github.com/RevinPahlevi/Uvent-Backend/internal/db"
	"github.com/RevinPahlevi/Uvent-Backend/internal/event"
	"github.com/RevinPahlevi/Uvent-Backend/internal/maintenance"
	"github.com/RevinPahlevi/Uvent-Backend/internal/notifications"
	"github.com/RevinPahlevi/Uvent-Backend/internal/scheduler"
	"github.com/RevinPahlevi/Uvent-Backend/internal/user"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "uventctl",
		Short: "Uvent backend admin CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(addUserCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(cleanupCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := db.Migrate(ctx, pool); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				logger.Info("Schema is up to date")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// events
// --------------------------------------------------------------------------

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and moderate events",
	}
	cmd.AddCommand(eventsPendingCmd())
	cmd.AddCommand(eventsDecideCmd("approve", event.StatusApproved))
	cmd.AddCommand(eventsDecideCmd("reject", event.StatusRejected))
	return cmd
}

func eventsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List events awaiting approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				events, err := event.NewStore(pool.Pool).Pending(ctx)
				if err != nil {
					return fmt.Errorf("list pending events: %w", err)
				}
				if len(events) == 0 {
					fmt.Println("no pending events")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tDATE\tSTART\tEND\tPLATFORM")
				for _, e := range events {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						e.ID, e.Title, e.Date, e.TimeStart, e.TimeEnd, e.PlatformType)
				}
				return w.Flush()
			})
		},
	}
}

func eventsDecideCmd(use, status string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <event-id>",
		Short: fmt.Sprintf("Mark an event %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid event id %q", args[0])
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := event.NewStore(pool.Pool)
				if _, err := store.ByID(ctx, id); err != nil {
					return fmt.Errorf("load event %d: %w", id, err)
				}
				if err := store.SetStatus(ctx, id, status); err != nil {
					return fmt.Errorf("set status: %w", err)
				}
				logger.Info("Event status updated", "event_id", id, "status", status)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// adduser
// --------------------------------------------------------------------------

func addUserCmd() *cobra.Command {
	var name, email, password, phone string
	var admin bool
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" || password == "" {
				return fmt.Errorf("--name, --email, and --password are required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				svc := user.NewService(pool.Pool, cfg.JWTSecret, cfg.JWTExpiration)
				u, err := svc.Register(ctx, name, email, password, phone, admin)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				logger.Info("User created", "id", u.ID, "email", u.Email, "admin", u.IsAdmin)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin role")
	return cmd
}

// --------------------------------------------------------------------------
// sweep
// --------------------------------------------------------------------------

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one backup-sweep pass over both event transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				events := event.NewStore(pool.Pool)
				ledger := notifications.NewLedgerStore(pool.Pool)

				fcmSender, err := notifications.NewFCMSender(ctx, cfg.FCMCredentialsFile, logger)
				if err != nil {
					return fmt.Errorf("initialize FCM: %w", err)
				}
				var pusher notifications.Pusher
				if fcmSender != nil {
					pusher = fcmSender
				}
				gateway := notifications.NewGateway(ledger, ledger, pusher, logger)

				sched := scheduler.New(events, ledger, gateway, scheduler.Config{
					Horizon: cfg.SchedulerHorizon,
				}, logger)
				sched.SweepOnce(ctx)
				logger.Info("Backup sweep finished")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// cleanup
// --------------------------------------------------------------------------

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run one retention pass (purge read notifications, retire stale tokens)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				mcfg := maintenance.DefaultConfig()
				mcfg.NotificationTTL = cfg.NotificationTTL
				mcfg.StaleTokenAfter = cfg.StaleTokenAfter
				maintenance.RunOnce(ctx, pool.Pool, mcfg, logger)
				logger.Info("Retention pass finished")
				return nil
			})
		},
	}
}

func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
