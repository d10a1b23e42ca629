package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"cabins/internal/reconciliation/service"
	"cabins/internal/store"
	"cabins/pkg/config"
	"cabins/pkg/days"
	"cabins/pkg/model"
)

const JobName = "calendar-reconcile"

func main() {
	roomsFlag := flag.String("rooms", "", "comma separated room ids, empty for all rooms")
	fromFlag := flag.String("from", "", "first day (YYYY-MM-DD), defaults to today")
	toFlag := flag.String("to", "", "day after the last day (YYYY-MM-DD), defaults to the configured horizon")
	flag.Parse()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	roomIDs, err := parseRooms(*roomsFlag)
	if err != nil {
		cfg.Log.Fatal("Invalid rooms flag", "error", err)
	}
	horizon, err := parseHorizon(cfg, *fromFlag, *toFlag)
	if err != nil {
		cfg.Log.Fatal("Invalid horizon", "error", err)
	}

	stores := store.Open(cfg)
	reconciler := service.NewReconciler(
		stores.Tx,
		stores.Rooms,
		stores.Reservations,
		stores.Calendar,
		stores.Blocks,
		cfg,
	)

	cfg.Log.Info("Starting calendar reconciliation",
		"rooms", len(roomIDs),
		"range", horizon.String(),
	)
	report, err := reconciler.Reconcile(context.Background(), roomIDs, horizon.From, horizon.To)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			cfg.Log.Error("Failed to write report", "error", encErr)
		}
	}
	if err != nil {
		cfg.Log.Fatal("Reconciliation finished with failures", "error", err)
	}
}

func parseRooms(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !model.IsRoomID(id) {
			return nil, fmt.Errorf("invalid room id %q", id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseHorizon(cfg *config.Config, fromRaw, toRaw string) (days.Range, error) {
	horizon := service.Horizon(cfg, days.Today())
	if fromRaw != "" {
		from, err := days.Parse(fromRaw)
		if err != nil {
			return days.Range{}, fmt.Errorf("from: %w", err)
		}
		horizon = days.NewRange(from, from.AddDays(cfg.ReconcileHorizonDays))
	}
	if toRaw != "" {
		to, err := days.Parse(toRaw)
		if err != nil {
			return days.Range{}, fmt.Errorf("to: %w", err)
		}
		horizon.To = to
	}
	if !horizon.Valid() {
		return days.Range{}, fmt.Errorf("empty range %s", horizon.String())
	}
	return horizon, nil
}
