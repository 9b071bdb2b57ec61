// Command audit re-checks every active booking against the admission rules and
// repairs the ones that drifted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdg-garage/workshop-booking-api/internal/audit"
	"github.com/gdg-garage/workshop-booking-api/internal/config"
	"github.com/gdg-garage/workshop-booking-api/internal/database"
	"github.com/gdg-garage/workshop-booking-api/internal/notifier"
	"github.com/gdg-garage/workshop-booking-api/internal/telemetry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	flags := pflag.NewFlagSet("audit", pflag.ExitOnError)
	flags.Bool("dry-run", false, "compute the changes without writing them")
	flags.String("report", "", "write the text report to this file")
	flags.String("database-path", "", "sqlite database file (overrides DATABASE_PATH)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	v := viper.New()
	v.BindPFlag("DRY_RUN", flags.Lookup("dry-run"))
	v.BindPFlag("REPORT_PATH", flags.Lookup("report"))
	if flags.Changed("database-path") {
		v.BindPFlag("DATABASE_PATH", flags.Lookup("database-path"))
	}
	cfg := config.Load(v)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "workshop-booking-audit", cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("Tracing not initialized: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracing(flushCtx)
	}()

	db := database.Connect(cfg)
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	defer sqlDB.Close()

	dryRun := v.GetBool("DRY_RUN")
	report, err := audit.New(db, audit.WithDryRun(dryRun)).Run(ctx)
	if err != nil {
		log.Fatalf("Audit failed: %v", err)
	}
	os.Stdout.WriteString(report.String())

	if path := v.GetString("REPORT_PATH"); path != "" {
		if err := os.WriteFile(path, []byte(report.String()), 0o644); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		log.Printf("Report written to %s", path)
	}

	if dryRun {
		return
	}
	notifiers, closeNotifiers := notifier.FromConfig(cfg)
	defer closeNotifiers()
	if err := notifiers.NotifyAudit(ctx, report.RunID, report.Changes); err != nil {
		log.Printf("Failed to send audit notification: %v", err)
	}
}
