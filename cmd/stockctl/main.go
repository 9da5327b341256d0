package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backhouse/internal/backoffice"
	"github.com/angelmondragon/backhouse/internal/compensation"
	"github.com/angelmondragon/backhouse/pkg/config"
	"github.com/angelmondragon/backhouse/pkg/db"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
	"github.com/angelmondragon/backhouse/pkg/logger"
	"github.com/angelmondragon/backhouse/pkg/migrate"
	"github.com/angelmondragon/backhouse/pkg/redis"
)

const usage = `usage: stockctl <command> [flags]

commands:
  restock     -ingredient ID -qty N [-reason R]
  adjust      -ingredient ID -qty N [-reason R]
  waste       -ingredient ID -qty N [-reason R]
  deduct      -ingredient ID -qty N [-reason R]
  history     -ingredient ID
  low-stock
  max         -product ID [-variant ID]
  process     -order ID
  refundable  -order ID
  cancel      -order ID -actor ID -pin PIN [-reason R]
  refund      -order ID -actor ID -pin PIN [-reason R]
  add-staff   -name NAME -pin PIN
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "stockctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		errCtx := logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		logg.Error(logg.WithField(errCtx, "command", os.Args[1]), "command failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, command string, args []string, out io.Writer) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	params := backoffice.BuildParams{DB: dbClient, Config: *cfg, Logger: logg}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		params.Counters = redisClient
	}
	svc, _, err := backoffice.Build(params)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	ingredient := fs.String("ingredient", "", "ingredient id")
	product := fs.String("product", "", "product id")
	variant := fs.String("variant", "", "variant id")
	order := fs.String("order", "", "order id")
	actor := fs.String("actor", "", "staff member id")
	qty := fs.String("qty", "", "quantity in the ingredient unit")
	reason := fs.String("reason", "", "reason recorded with the movement")
	pin := fs.String("pin", "", "staff PIN")
	name := fs.String("name", "", "staff display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var result any
	switch command {
	case "restock", "adjust", "waste", "deduct":
		id, err := parseID("ingredient", *ingredient)
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(*qty)
		if err != nil {
			return fmt.Errorf("invalid -qty %q: %w", *qty, err)
		}
		switch command {
		case "restock":
			result, err = svc.Restock(ctx, id, amount, orDefault(*reason, "manual restock"))
		case "adjust":
			result, err = svc.AdjustStock(ctx, id, amount, orDefault(*reason, "manual count"))
		case "waste":
			result, err = svc.RecordWaste(ctx, id, amount, orDefault(*reason, "waste"))
		default:
			result, err = svc.DecreaseStock(ctx, id, amount, orDefault(*reason, "manual deduction"), nil)
		}
		if err != nil {
			return err
		}
	case "history":
		id, err := parseID("ingredient", *ingredient)
		if err != nil {
			return err
		}
		if result, err = svc.StockHistory(ctx, id); err != nil {
			return err
		}
	case "low-stock":
		if result, err = svc.LowStock(ctx); err != nil {
			return err
		}
	case "max":
		productID, err := parseID("product", *product)
		if err != nil {
			return err
		}
		var variantID *uuid.UUID
		if *variant != "" {
			v, err := parseID("variant", *variant)
			if err != nil {
				return err
			}
			variantID = &v
		}
		limit, err := svc.MaxProducibleQuantity(ctx, productID, variantID)
		if err != nil {
			return err
		}
		result = map[string]any{"product_id": productID, "max_quantity": limit}
	case "process":
		id, err := parseID("order", *order)
		if err != nil {
			return err
		}
		if result, err = svc.ProcessOrder(ctx, id); err != nil {
			return err
		}
	case "refundable":
		id, err := parseID("order", *order)
		if err != nil {
			return err
		}
		if result, err = svc.GetRefundableItems(ctx, id); err != nil {
			return err
		}
	case "cancel", "refund":
		orderID, err := parseID("order", *order)
		if err != nil {
			return err
		}
		actorID, err := parseID("actor", *actor)
		if err != nil {
			return err
		}
		if command == "cancel" {
			result, err = svc.ProcessCancellation(ctx, compensation.CancellationInput{OrderID: orderID, ActorID: actorID, PIN: *pin, Reason: *reason})
		} else {
			result, err = svc.ProcessRefund(ctx, compensation.RefundInput{OrderID: orderID, ActorID: actorID, PIN: *pin, Reason: *reason})
		}
		if err != nil {
			return err
		}
	case "add-staff":
		if result, err = svc.RegisterStaff(ctx, strings.TrimSpace(*name), *pin); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func parseID(flagName, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -%s %q: %w", flagName, value, err)
	}
	return id, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
