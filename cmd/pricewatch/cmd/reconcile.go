package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecwatch/pricewatch/internal/config"
	"github.com/ecwatch/pricewatch/internal/store"
	"github.com/ecwatch/pricewatch/internal/tracking"
	"github.com/ecwatch/pricewatch/pkg/logger"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Audit and repair product tracking counts",
	Long: "Recomputes each product's tracking_count from the tracking rows and " +
		"repairs any drift, then exits. The serve command runs the same audit " +
		"on a schedule.",
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	repaired, err := tracking.NewReconciler(st, log).Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciling tracking counts: %w", err)
	}

	log.Info("reconciliation complete", "repaired", repaired)
	return nil
}
