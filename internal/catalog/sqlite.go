package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vendors (
	name                  TEXT PRIMARY KEY,
	wifi_ap_cost          REAL NOT NULL,
	p5g_cell_cost         REAL NOT NULL,
	core_cost             REAL NOT NULL,
	wifi_maintenance_rate REAL NOT NULL,
	p5g_maintenance_rate  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS stack_pricing (
	id                    INTEGER PRIMARY KEY CHECK (id = 1),
	variant               TEXT NOT NULL DEFAULT 'simplified',
	ap_cost               REAL NOT NULL DEFAULT 0,
	switch_cost           REAL NOT NULL DEFAULT 0,
	controller_cost       REAL NOT NULL DEFAULT 0,
	cell_cost             REAL NOT NULL DEFAULT 0,
	core_cost             REAL NOT NULL DEFAULT 0,
	edge_cost             REAL NOT NULL DEFAULT 0,
	backhaul_cost         REAL NOT NULL DEFAULT 0,
	install_rate          REAL NOT NULL DEFAULT 0,
	wifi_maintenance_rate REAL NOT NULL DEFAULT 0,
	p5g_maintenance_rate  REAL NOT NULL DEFAULT 0
);
`

const selectPricing = `SELECT variant, ap_cost, switch_cost, controller_cost, cell_cost, core_cost,
	edge_cost, backhaul_cost, install_rate, wifi_maintenance_rate, p5g_maintenance_rate
	FROM stack_pricing WHERE id = 1`

// LoadSQLite reads a catalog database in query-only mode. A missing
// stack_pricing row keeps the built-in default sheet.
func LoadSQLite(dbPath string) (*Catalog, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("catalog db: %w", err)
	}
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	var vendors []tco.VendorProfile
	if err := db.Select(&vendors, `SELECT name, wifi_ap_cost, p5g_cell_cost, core_cost,
		wifi_maintenance_rate, p5g_maintenance_rate FROM vendors ORDER BY name`); err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}

	var pricing *tco.StackPricing
	var row tco.StackPricing
	switch err := db.Get(&row, selectPricing); {
	case err == nil:
		pricing = &row
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("load stack pricing: %w", err)
	}
	return build("sqlite:"+dbPath, vendors, pricing)
}

// SeedSQLite creates the catalog schema at dbPath and writes c into it,
// replacing rows with the same vendor name. It is a provisioning helper; the
// service only ever reads the database.
func SeedSQLite(dbPath string, c *Catalog) error {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, v := range c.Vendors() {
		if _, err := tx.NamedExec(`INSERT OR REPLACE INTO vendors
			(name, wifi_ap_cost, p5g_cell_cost, core_cost, wifi_maintenance_rate, p5g_maintenance_rate)
			VALUES (:name, :wifi_ap_cost, :p5g_cell_cost, :core_cost, :wifi_maintenance_rate, :p5g_maintenance_rate)`, v); err != nil {
			return fmt.Errorf("insert vendor %s: %w", v.Name, err)
		}
	}
	if _, err := tx.NamedExec(`INSERT OR REPLACE INTO stack_pricing
		(id, variant, ap_cost, switch_cost, controller_cost, cell_cost, core_cost, edge_cost,
		 backhaul_cost, install_rate, wifi_maintenance_rate, p5g_maintenance_rate)
		VALUES (1, :variant, :ap_cost, :switch_cost, :controller_cost, :cell_cost, :core_cost, :edge_cost,
		 :backhaul_cost, :install_rate, :wifi_maintenance_rate, :p5g_maintenance_rate)`, c.DefaultPricing()); err != nil {
		return fmt.Errorf("insert stack pricing: %w", err)
	}
	return tx.Commit()
}
