package migrate

import (
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for the embedded driver. Numeric
// columns are TEXT so decimals round-trip without float conversion.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		customer_name TEXT,
		customer_email TEXT,
		customer_phone TEXT,
		contact_email TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		installation_date DATE,
		evidence_pack_key TEXT,
		evidence_pack_generated_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		calc_type TEXT NOT NULL,
		inputs TEXT NOT NULL DEFAULT '{}',
		outputs TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS material_items (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		cable_type TEXT,
		cable_size TEXT,
		total_length TEXT NOT NULL DEFAULT '0',
		unit TEXT NOT NULL DEFAULT 'metres',
		quantity INTEGER NOT NULL DEFAULT 1,
		list_price TEXT,
		nett_price TEXT,
		manually_added BOOLEAN NOT NULL DEFAULT 0,
		source_calc_ids TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_material_items_auto_key
		ON material_items (project_id, cable_type, cable_size)
		WHERE manually_added = 0`,
	`CREATE TABLE IF NOT EXISTS customer_quotes (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		owner_id TEXT NOT NULL,
		quote_number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		markup_percent TEXT NOT NULL DEFAULT '0',
		contingency_percent TEXT NOT NULL DEFAULT '0',
		vat_percent TEXT NOT NULL DEFAULT '20',
		materials_total TEXT NOT NULL DEFAULT '0',
		labour_total TEXT NOT NULL DEFAULT '0',
		subtotal TEXT NOT NULL DEFAULT '0',
		markup_amount TEXT NOT NULL DEFAULT '0',
		contingency_amount TEXT NOT NULL DEFAULT '0',
		net_total TEXT NOT NULL DEFAULT '0',
		vat_amount TEXT NOT NULL DEFAULT '0',
		grand_total TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		valid_until DATE,
		sent_at DATETIME,
		converted_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CONSTRAINT ux_customer_quotes_owner_number UNIQUE (owner_id, quote_number)
	)`,
	`CREATE TABLE IF NOT EXISTS labour_items (
		id TEXT PRIMARY KEY,
		quote_id TEXT NOT NULL REFERENCES customer_quotes (id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		days TEXT NOT NULL DEFAULT '0',
		day_rate TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wholesaler_quotes (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		token TEXT NOT NULL,
		wholesaler_name TEXT NOT NULL,
		wholesaler_email TEXT NOT NULL,
		account_number TEXT,
		status TEXT NOT NULL DEFAULT 'sent',
		discount_percent TEXT,
		notes TEXT,
		sent_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		priced_at DATETIME,
		applied_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CONSTRAINT ux_wholesaler_quotes_token UNIQUE (token)
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		owner_id TEXT NOT NULL,
		quote_id TEXT REFERENCES customer_quotes (id) ON DELETE SET NULL,
		invoice_number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		payment_terms INTEGER NOT NULL,
		issue_date DATE NOT NULL,
		due_date DATE NOT NULL,
		markup_percent TEXT NOT NULL,
		contingency_percent TEXT NOT NULL,
		vat_percent TEXT NOT NULL,
		materials_total TEXT NOT NULL,
		labour_total TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		markup_amount TEXT NOT NULL,
		contingency_amount TEXT NOT NULL,
		net_total TEXT NOT NULL,
		vat_amount TEXT NOT NULL,
		grand_total TEXT NOT NULL,
		notes TEXT,
		paid_at DATETIME,
		payment_method TEXT,
		payment_reference TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CONSTRAINT ux_invoices_number UNIQUE (invoice_number)
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		total TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
}

// ApplySQLiteSchema creates every table on an embedded sqlite connection.
// Goose migrations stay Postgres-only.
func ApplySQLiteSchema(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
