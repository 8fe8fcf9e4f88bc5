package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/config"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/modules/report"
	"lodging/internal/pkg/logger"
	"lodging/internal/seed"
)

type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func setup(cmd *cobra.Command, withDB bool) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	lg, err := logger.New(cfg.Logging.Level, "console", "lodgingctl")
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: lg}
	if !withDB {
		return e, nil
	}
	if e.db, err = database.Connect(cfg.Database.URL, lg); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return e, nil
}

func (e *env) close() {
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = e.log.Sync()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.close()
			if err := database.Migrate(cmd.Context(), e.db); err != nil {
				return err
			}
			e.log.Info("migrations applied")
			return nil
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the latest migrations (PostgreSQL only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.close()
			if err := database.Rollback(cmd.Context(), e.db, steps); err != nil {
				return err
			}
			e.log.Info("migrations reverted", zap.Int("steps", steps))
			return nil
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to revert")
	cmd.AddCommand(down)
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo room types, rooms and rates for a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, _ := cmd.Flags().GetInt64("tenant")
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.close()
			if err := database.Migrate(cmd.Context(), e.db); err != nil {
				return err
			}
			res, err := seed.Demo(cmd.Context(), e.db, tenantID, time.Now().UTC())
			if err != nil {
				return err
			}
			e.log.Info("seed completed",
				zap.Int64("tenant_id", tenantID),
				zap.Int("room_types", res.RoomTypes),
				zap.Int("rooms", res.Rooms),
				zap.Int("rate_plans", res.RatePlans),
				zap.Int("seasonal_rates", res.SeasonalRates),
			)
			return nil
		},
	}
	cmd.Flags().Int64("tenant", 1, "tenant id")
	return cmd
}

func exportCashUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-cashup",
		Short: "Write a day's cash-up report to an XLSX file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, _ := cmd.Flags().GetInt64("tenant")
			rawDate, _ := cmd.Flags().GetString("date")
			out, _ := cmd.Flags().GetString("out")

			day := domain.DateOf(time.Now().UTC())
			if rawDate != "" {
				var err error
				if day, err = domain.ParseDate(rawDate); err != nil {
					return err
				}
			}
			if out == "" {
				out = fmt.Sprintf("cashup-%d-%s.xlsx", tenantID, day.Format(domain.DateLayout))
			}

			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.close()
			cashUp, err := report.NewService(e.db).DailyCashUp(cmd.Context(), tenantID, day)
			if err != nil {
				return err
			}
			data, err := report.ExportCashUpXLSX(cashUp)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			e.log.Info("cash-up exported", zap.String("file", out), zap.String("total", cashUp.Total.Net.StringFixed(2)))
			return nil
		},
	}
	cmd.Flags().Int64("tenant", 1, "tenant id")
	cmd.Flags().String("date", "", "business day, YYYY-MM-DD (default today)")
	cmd.Flags().String("out", "", "output file")
	return cmd
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Maintain the audit outbox",
	}

	flush := &cobra.Command{
		Use:   "flush",
		Short: "Publish pending audit events once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.close()
			pub, closePub, err := audit.OpenPublisher(cmd.Context(), e.cfg, e.log)
			if err != nil {
				return err
			}
			defer func() { _ = closePub() }()

			relay := audit.NewRelay(e.db, pub, 0, e.cfg.Audit.RelayBatch, e.log, nil)
			total := 0
			for {
				n, err := relay.Flush(cmd.Context())
				total += n
				if err != nil {
					return err
				}
				if n == 0 {
					break
				}
			}
			e.log.Info("audit outbox flushed", zap.Int("published", total), zap.String("sink", pub.Name()))
			return nil
		},
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete audit events published longer ago than the retention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			retention, _ := cmd.Flags().GetDuration("retention")
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.close()
			n, err := audit.Prune(cmd.Context(), e.db, retention, time.Now().UTC())
			if err != nil {
				return err
			}
			e.log.Info("audit outbox pruned", zap.Int64("deleted", n))
			return nil
		},
	}
	prune.Flags().Duration("retention", 30*24*time.Hour, "keep published events this long")

	cmd.AddCommand(flush, prune)
	return cmd
}
