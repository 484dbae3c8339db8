package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/flexprice/billingcore/internal/clickhouse"
	"github.com/flexprice/billingcore/internal/config"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
)

//go:embed migrations
var migrations embed.FS

func main() {
	// Parse command line flags
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	target := flag.String("target", "all", "Store to migrate: postgres, clickhouse or all")
	flag.Parse()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	runPostgres := *target == "all" || *target == "postgres"
	runClickHouse := *target == "all" || *target == "clickhouse"
	if !runPostgres && !runClickHouse {
		logger.Fatalw("Unknown migration target", "target", *target)
	}

	if runPostgres {
		statements, err := loadStatements("migrations/postgres")
		if err != nil {
			logger.Fatalw("Failed to load postgres migrations", "error", err)
		}

		if *dryRun {
			printStatements("postgres", statements)
		} else {
			logger.Infow("Connecting to postgres", "host", cfg.Postgres.Host)
			db, err := postgres.NewDB(cfg, logger)
			if err != nil {
				logger.Fatalw("Failed to connect to postgres", "error", err)
			}
			defer db.Close()

			for _, stmt := range statements {
				if _, err := db.ExecContext(ctx, stmt); err != nil {
					logger.Fatalw("Failed to apply postgres migration", "error", err, "statement", stmt)
				}
			}
			logger.Infow("Postgres migration completed", "statements", len(statements))
		}
	}

	if runClickHouse {
		statements, err := loadStatements("migrations/clickhouse")
		if err != nil {
			logger.Fatalw("Failed to load clickhouse migrations", "error", err)
		}

		if *dryRun {
			printStatements("clickhouse", statements)
		} else {
			logger.Infow("Connecting to clickhouse", "address", cfg.ClickHouse.Address)
			store, err := clickhouse.NewClickHouseStore(cfg, nil)
			if err != nil {
				logger.Fatalw("Failed to connect to clickhouse", "error", err)
			}
			defer store.Close()

			for _, stmt := range statements {
				if err := store.Exec(ctx, stmt); err != nil {
					logger.Fatalw("Failed to apply clickhouse migration", "error", err, "statement", stmt)
				}
			}
			logger.Infow("ClickHouse migration completed", "statements", len(statements))
		}
	}

	fmt.Println("Migration process completed")
}

// loadStatements reads every .sql file under dir in name order and splits it
// into single statements, since neither driver accepts multi-statement exec.
func loadStatements(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var statements []string
	for _, name := range names {
		content, err := fs.ReadFile(migrations, dir+"/"+name)
		if err != nil {
			return nil, err
		}
		for _, stmt := range strings.Split(string(content), ";") {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
	}
	return statements, nil
}

func printStatements(store string, statements []string) {
	fmt.Printf("-- %s\n", store)
	for _, stmt := range statements {
		fmt.Printf("%s;\n\n", stmt)
	}
}
