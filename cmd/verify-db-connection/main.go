package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"fundrouter/internal/config"

	_ "github.com/lib/pq"
)

// ledgerColumns are the balance columns that must be numeric(78,0) so a
// full uint256 amount survives the round trip through Postgres.
var ledgerColumns = []struct {
	table  string
	column string
}{
	{"deposit_balances", "amount"},
	{"fee_balances", "amount"},
	{"withdrawal_receipts", "amount"},
	{"withdrawal_receipts", "profit"},
	{"withdrawal_receipts", "fee"},
	{"withdrawal_receipts", "payout"},
}

func main() {
	if err := config.LoadConfig(os.Getenv("CONFIG_PATH")); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sqlDB, err := sql.Open("postgres", config.AppConfig.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	var dbName string
	if err := sqlDB.QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}
	fmt.Printf("Connected to database: %s\n", dbName)

	ok := true
	for _, col := range ledgerColumns {
		var precision, scale sql.NullInt64
		err := sqlDB.QueryRow(`
			SELECT numeric_precision, numeric_scale
			FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		`, col.table, col.column).Scan(&precision, &scale)
		if err == sql.ErrNoRows {
			fmt.Printf("MISSING  %s.%s\n", col.table, col.column)
			ok = false
			continue
		}
		if err != nil {
			log.Fatalf("Failed to query column %s.%s: %v", col.table, col.column, err)
		}

		if !precision.Valid || precision.Int64 < 78 || scale.Int64 != 0 {
			fmt.Printf("BAD      %s.%s is numeric(%d,%d), want numeric(78,0)\n",
				col.table, col.column, precision.Int64, scale.Int64)
			ok = false
			continue
		}
		fmt.Printf("OK       %s.%s numeric(%d,%d)\n", col.table, col.column, precision.Int64, scale.Int64)
	}

	var configRows int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM global_configs").Scan(&configRows); err != nil {
		fmt.Printf("MISSING  global_configs table (%v)\n", err)
		ok = false
	} else {
		fmt.Printf("OK       global_configs (%d rows)\n", configRows)
	}

	if !ok {
		fmt.Println("\nSchema verification failed. Run the server once to apply migrations.")
		os.Exit(1)
	}
	fmt.Println("\nSchema verification passed.")
}
