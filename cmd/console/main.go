package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/aegis-response/aegis_console/internal/collection"
	"github.com/aegis-response/aegis_console/internal/config"
	"github.com/aegis-response/aegis_console/internal/gateway"
	"github.com/aegis-response/aegis_console/internal/logging"
	"github.com/aegis-response/aegis_console/internal/subscriber"
	"github.com/aegis-response/aegis_console/internal/view"
)

// The console client authenticates an operator, loads the subscriber
// collection, and prints the projected table. Query and sort knobs come from
// the environment, same as the server configuration.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	apiURL := os.Getenv("CONSOLE_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost" + cfg.Address()
	}

	client := gateway.NewClient(apiURL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := os.Getenv("CONSOLE_EMAIL")
	password := os.Getenv("CONSOLE_PASSWORD")
	if email != "" {
		if err := client.Login(ctx, email, password); err != nil {
			logger.Error("login failed", "error", err)
			os.Exit(1)
		}
	}

	manager := collection.New(client, logger)
	manager.SetMutationTimeout(cfg.MutationTimeout)

	if err := manager.LoadAll(ctx); err != nil {
		logger.Error("load records failed", "error", err)
		if !cfg.IsDev() {
			os.Exit(1)
		}
		manager.Seed(seedRecords())
		logger.Warn("using seed data", "records", manager.Len())
	}

	sortState := view.Sort{}
	if key := os.Getenv("CONSOLE_SORT_KEY"); key != "" {
		sortState = sortState.Toggle(key)
		if os.Getenv("CONSOLE_SORT_DIR") == string(view.Descending) {
			sortState = sortState.Toggle(key)
		}
	}

	rows := view.Project(manager.Snapshot(), os.Getenv("CONSOLE_QUERY"), sortState, view.NewSelection())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tSUBSCRIPTION\tSAFE")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			row.ID, row.Name, row.Email, row.Phone, row.Subscription, triState(row.IsSafe))
	}
	w.Flush()
}

func triState(v *bool) string {
	if v == nil {
		return "unknown"
	}
	return strconv.FormatBool(*v)
}

func seedRecords() []subscriber.Record {
	now := time.Now().UTC()
	return []subscriber.Record{
		{
			ID:            "seed-1",
			Name:          "Ada Okafor",
			Email:         "ada@example.com",
			Phone:         5550000001,
			HomeAddress:   "12 Harbor Road",
			AcceptedTerms: true,
			Subscription:  "premium",
			CreatedAt:     &now,
		},
		{
			ID:           "seed-2",
			Name:         "Ben Carter",
			Email:        "ben@example.com",
			Phone:        5550000002,
			Subscription: "free",
			CreatedAt:    &now,
		},
	}
}
