// internal/database/schema.go
//
// Catalog DDL per dialect.
//
// Context
// -------
// The three catalog tables are created on startup when missing.  Both
// foreign keys on hosting_category cascade, so deleting a hosting or a
// category removes only the join rows.
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schemas = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS category (
    category_id   SERIAL PRIMARY KEY,
    category_name VARCHAR(100) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS hosting (
    hosting_id           SERIAL PRIMARY KEY,
    hosting_name         VARCHAR(500) NOT NULL,
    url                  VARCHAR(1000),
    status               VARCHAR(500),
    risk                 INTEGER,
    advantages           TEXT,
    disadvantages        TEXT,
    hosting_location     VARCHAR(500),
    servers_location     VARCHAR(500),
    min_price_in_dollars DOUBLE PRECISION,
    favorite             BOOLEAN NOT NULL DEFAULT FALSE,
    CONSTRAINT unique_hosting_name UNIQUE (hosting_name)
)`,
		`CREATE TABLE IF NOT EXISTS hosting_category (
    hosting_id  INTEGER NOT NULL REFERENCES hosting(hosting_id) ON DELETE CASCADE,
    category_id INTEGER NOT NULL REFERENCES category(category_id) ON DELETE CASCADE,
    PRIMARY KEY (hosting_id, category_id)
)`,
	},
	"mysql": {
		`CREATE TABLE IF NOT EXISTS category (
    category_id   INT AUTO_INCREMENT PRIMARY KEY,
    category_name VARCHAR(100) NOT NULL UNIQUE
) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS hosting (
    hosting_id           INT AUTO_INCREMENT PRIMARY KEY,
    hosting_name         VARCHAR(500) NOT NULL,
    url                  VARCHAR(1000),
    status               VARCHAR(500),
    risk                 INT,
    advantages           TEXT,
    disadvantages        TEXT,
    hosting_location     VARCHAR(500),
    servers_location     VARCHAR(500),
    min_price_in_dollars DOUBLE,
    favorite             BOOLEAN NOT NULL DEFAULT FALSE,
    CONSTRAINT unique_hosting_name UNIQUE (hosting_name)
) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`,
		`CREATE TABLE IF NOT EXISTS hosting_category (
    hosting_id  INT NOT NULL,
    category_id INT NOT NULL,
    PRIMARY KEY (hosting_id, category_id),
    FOREIGN KEY (hosting_id) REFERENCES hosting(hosting_id) ON DELETE CASCADE,
    FOREIGN KEY (category_id) REFERENCES category(category_id) ON DELETE CASCADE
)`,
	},
}

// Migrate creates any missing catalog tables for db's driver.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
