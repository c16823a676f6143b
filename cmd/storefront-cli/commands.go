package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

const commandTimeout = time.Minute

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "manages the database schema",
	}

	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "applies all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrateUp,
	}

	migrateDownCmd = &cobra.Command{
		Use:   "down [steps]",
		Short: "rolls back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMigrateDown,
	}

	seedCmd = &cobra.Command{
		Use:   "seed-products",
		Short: "inserts the seed catalog into an empty store",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}

	simulatePaymentCmd = &cobra.Command{
		Use:   "simulate-payment <gateway-payment-id> <status>",
		Short: "publishes a payment.updated event, as the gateway notification bridge would",
		Args:  cobra.ExactArgs(2),
		RunE:  runSimulatePayment,
	}
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	simulatePaymentCmd.Flags().String("order-id", "", "order id to fall back on when the payment id is unknown")
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger("migrate")

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	db, err := repository.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return repository.Migrate(db, logger)
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	steps := 1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		steps = n
	}

	logger := logging.NewLogger("migrate")

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	db, err := repository.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return repository.Rollback(db, steps, logger)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if cfg.Store.Driver == "memory" {
		return fmt.Errorf("seed-products needs a persistent store, STORE_DRIVER is %q", cfg.Store.Driver)
	}

	logger := logging.NewLogger("seed")

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	db, err := repository.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := service.NewCatalogService(repository.NewPostgresStore(db, logger)).Seed(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}

func runSimulatePayment(cmd *cobra.Command, args []string) error {
	if _, ok := models.TransactionStatusFromGateway(args[1]); !ok {
		return fmt.Errorf("unknown gateway status %q", args[1])
	}

	orderID, err := cmd.Flags().GetString("order-id")
	if err != nil {
		return err
	}

	publisher := events.NewKafkaPublisher(cfg.Kafka, logging.NewLogger("simulate-payment"))
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	if err := publisher.PublishPaymentUpdated(ctx, events.PaymentUpdatedData{
		PaymentID: args[0],
		OrderID:   orderID,
		Status:    args[1],
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "published payment.updated for %s (%s)\n", args[0], args[1])
	return nil
}
