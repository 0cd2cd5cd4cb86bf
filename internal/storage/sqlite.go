package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// SQLiteStore persists orders, indices, and email records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and runs migrations.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// IsHealthy verifies the database connection is usable.
func (s *SQLiteStore) IsHealthy() error {
	return s.db.Ping()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS purchase_orders (
		order_key TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		merchant_domain TEXT NOT NULL,
		merchant_name TEXT NOT NULL DEFAULT '',
		order_id TEXT NOT NULL DEFAULT '',
		tracking_number TEXT NOT NULL DEFAULT '',
		purchase_date DATETIME,
		ship_date DATETIME,
		delivery_date DATETIME,
		estimated_delivery DATETIME,
		return_window_days INTEGER,
		explicit_return_by DATETIME,
		return_by_date DATETIME,
		deadline_confidence TEXT NOT NULL DEFAULT 'unknown',
		item_summary TEXT NOT NULL DEFAULT '',
		amount TEXT,
		currency TEXT NOT NULL DEFAULT '',
		return_portal_link TEXT NOT NULL DEFAULT '',
		source_email_ids TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS order_id_index (
		order_id TEXT PRIMARY KEY,
		order_key TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tracking_index (
		tracking_number TEXT PRIMARY KEY,
		order_key TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS order_emails (
		email_id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		received_at DATETIME NOT NULL,
		merchant_domain TEXT NOT NULL DEFAULT '',
		email_type TEXT NOT NULL DEFAULT 'other',
		blocked BOOLEAN NOT NULL DEFAULT FALSE,
		block_reason TEXT NOT NULL DEFAULT '',
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		extracted TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS order_email_links (
		email_id TEXT NOT NULL,
		order_key TEXT NOT NULL,
		PRIMARY KEY (email_id, order_key)
	);

	CREATE TABLE IF NOT EXISTS processed_email_ids (
		email_id TEXT PRIMARY KEY,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status ON purchase_orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_merchant ON purchase_orders(merchant_domain);
	CREATE INDEX IF NOT EXISTS idx_order_emails_thread ON order_emails(thread_id);
	CREATE INDEX IF NOT EXISTS idx_links_order ON order_email_links(order_key);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const orderColumns = `order_key, user_id, merchant_domain, merchant_name, order_id,
	tracking_number, purchase_date, ship_date, delivery_date, estimated_delivery,
	return_window_days, explicit_return_by, return_by_date, deadline_confidence,
	item_summary, amount, currency, return_portal_link, source_email_ids, status,
	created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*orders.Order, error) {
	var o orders.Order
	var confidence, status, sourceIDs string
	var amount sql.NullString

	err := row.Scan(&o.OrderKey, &o.UserID, &o.MerchantDomain, &o.MerchantName,
		&o.OrderID, &o.TrackingNumber, &o.PurchaseDate, &o.ShipDate,
		&o.DeliveryDate, &o.EstimatedDelivery, &o.ReturnWindowDays,
		&o.ExplicitReturnBy, &o.ReturnByDate, &confidence, &o.ItemSummary,
		&amount, &o.Currency, &o.ReturnPortalLink, &sourceIDs, &status,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.DeadlineConfidence = orders.DeadlineConfidence(confidence)
	o.Status = orders.OrderStatus(status)
	if amount.Valid && amount.String != "" {
		amt, err := decimal.NewFromString(amount.String)
		if err == nil {
			o.Amount = &amt
		}
	}
	if err := json.Unmarshal([]byte(sourceIDs), &o.SourceEmailIDs); err != nil {
		return nil, fmt.Errorf("failed to decode source email ids: %w", err)
	}
	return &o, nil
}

func (s *SQLiteStore) GetOrder(key string) (*orders.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE order_key = ?`
	o, err := scanOrder(s.db.QueryRow(query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (s *SQLiteStore) UpsertOrder(o *orders.Order) error {
	sourceIDs, err := json.Marshal(o.SourceEmailIDs)
	if err != nil {
		return fmt.Errorf("failed to encode source email ids: %w", err)
	}
	var amount any
	if o.Amount != nil {
		amount = o.Amount.String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Ignored once Commit succeeds

	query := `INSERT INTO purchase_orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_key) DO UPDATE SET
			user_id = excluded.user_id,
			merchant_domain = excluded.merchant_domain,
			merchant_name = excluded.merchant_name,
			order_id = excluded.order_id,
			tracking_number = excluded.tracking_number,
			purchase_date = excluded.purchase_date,
			ship_date = excluded.ship_date,
			delivery_date = excluded.delivery_date,
			estimated_delivery = excluded.estimated_delivery,
			return_window_days = excluded.return_window_days,
			explicit_return_by = excluded.explicit_return_by,
			return_by_date = excluded.return_by_date,
			deadline_confidence = excluded.deadline_confidence,
			item_summary = excluded.item_summary,
			amount = excluded.amount,
			currency = excluded.currency,
			return_portal_link = excluded.return_portal_link,
			source_email_ids = excluded.source_email_ids,
			status = excluded.status,
			updated_at = excluded.updated_at`

	_, err = tx.Exec(query, o.OrderKey, o.UserID, o.MerchantDomain, o.MerchantName,
		o.OrderID, o.TrackingNumber, o.PurchaseDate, o.ShipDate, o.DeliveryDate,
		o.EstimatedDelivery, o.ReturnWindowDays, o.ExplicitReturnBy, o.ReturnByDate,
		string(o.DeadlineConfidence), o.ItemSummary, amount, o.Currency,
		o.ReturnPortalLink, string(sourceIDs), string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}

	// Keep email links in sync with the provenance set so thread lookups
	// can join through them.
	for _, emailID := range o.SourceEmailIDs {
		_, err = tx.Exec(`INSERT OR IGNORE INTO order_email_links (email_id, order_key) VALUES (?, ?)`,
			emailID, o.OrderKey)
		if err != nil {
			return fmt.Errorf("failed to link email: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeleteOrder(key string) error {
	if _, err := s.db.Exec(`DELETE FROM purchase_orders WHERE order_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM order_email_links WHERE order_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete order links: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAllOrders() ([]*orders.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders ORDER BY order_key`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, o)
	}
	return all, rows.Err()
}

func (s *SQLiteStore) findByIndex(table, column, value string) (*orders.Order, error) {
	var key string
	err := s.db.QueryRow(`SELECT order_key FROM `+table+` WHERE `+column+` = ?`, value).Scan(&key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetOrder(key)
}

func (s *SQLiteStore) FindOrderByOrderID(orderID string) (*orders.Order, error) {
	if orderID == "" {
		return nil, nil
	}
	return s.findByIndex("order_id_index", "order_id", orderID)
}

func (s *SQLiteStore) FindOrderByTracking(trackingNumber string) (*orders.Order, error) {
	if trackingNumber == "" {
		return nil, nil
	}
	return s.findByIndex("tracking_index", "tracking_number", trackingNumber)
}

func (s *SQLiteStore) FindOrdersByThread(threadID, merchantDomain string) ([]*orders.Order, error) {
	if threadID == "" {
		return nil, nil
	}
	query := `SELECT DISTINCT ` + prefixColumns("po.", orderColumns) + `
		FROM purchase_orders po
		JOIN order_email_links l ON l.order_key = po.order_key
		JOIN order_emails e ON e.email_id = l.email_id
		WHERE e.thread_id = ? AND po.merchant_domain = ?
		ORDER BY po.order_key`

	rows, err := s.db.Query(query, threadID, merchantDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		matched = append(matched, o)
	}
	return matched, rows.Err()
}

func (s *SQLiteStore) PointOrderIDIndex(orderID, orderKey string) error {
	_, err := s.db.Exec(`INSERT INTO order_id_index (order_id, order_key) VALUES (?, ?)
		ON CONFLICT(order_id) DO UPDATE SET order_key = excluded.order_key`, orderID, orderKey)
	if err != nil {
		return fmt.Errorf("failed to point order-id index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PointTrackingIndex(trackingNumber, orderKey string) error {
	_, err := s.db.Exec(`INSERT INTO tracking_index (tracking_number, order_key) VALUES (?, ?)
		ON CONFLICT(tracking_number) DO UPDATE SET order_key = excluded.order_key`, trackingNumber, orderKey)
	if err != nil {
		return fmt.Errorf("failed to point tracking index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkEmailProcessed(emailID string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO processed_email_ids (email_id) VALUES (?)`, emailID)
	if err != nil {
		return fmt.Errorf("failed to mark email processed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsEmailProcessed(emailID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_email_ids WHERE email_id = ?`, emailID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) StoreOrderEmail(e *orders.OrderEmail) error {
	var extracted any
	if e.Extracted != nil {
		data, err := json.Marshal(e.Extracted)
		if err != nil {
			return fmt.Errorf("failed to encode extracted fields: %w", err)
		}
		extracted = string(data)
	}

	query := `INSERT INTO order_emails (email_id, thread_id, user_id, received_at,
		merchant_domain, email_type, blocked, block_reason, processed, extracted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email_id) DO UPDATE SET
			processed = excluded.processed,
			extracted = excluded.extracted`

	_, err := s.db.Exec(query, e.EmailID, e.ThreadID, e.UserID, e.ReceivedAt,
		e.MerchantDomain, string(e.EmailType), e.Blocked, e.BlockReason,
		e.Processed, extracted)
	if err != nil {
		return fmt.Errorf("failed to store order email: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetOrderEmail(emailID string) (*orders.OrderEmail, error) {
	query := `SELECT email_id, thread_id, user_id, received_at, merchant_domain,
		email_type, blocked, block_reason, processed, extracted
		FROM order_emails WHERE email_id = ?`
	e, err := scanOrderEmail(s.db.QueryRow(query, emailID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s *SQLiteStore) ListOrderEmails(limit int) ([]*orders.OrderEmail, error) {
	query := `SELECT email_id, thread_id, user_id, received_at, merchant_domain,
		email_type, blocked, block_reason, processed, extracted
		FROM order_emails ORDER BY received_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*orders.OrderEmail
	for rows.Next() {
		e, err := scanOrderEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanOrderEmail(row interface{ Scan(...any) error }) (*orders.OrderEmail, error) {
	var e orders.OrderEmail
	var emailType string
	var extracted sql.NullString

	err := row.Scan(&e.EmailID, &e.ThreadID, &e.UserID, &e.ReceivedAt,
		&e.MerchantDomain, &emailType, &e.Blocked, &e.BlockReason,
		&e.Processed, &extracted)
	if err != nil {
		return nil, err
	}

	e.EmailType = orders.EmailType(emailType)
	if extracted.Valid && extracted.String != "" {
		var fields orders.ExtractedFields
		if err := json.Unmarshal([]byte(extracted.String), &fields); err != nil {
			return nil, fmt.Errorf("failed to decode extracted fields: %w", err)
		}
		e.Extracted = &fields
	}
	return &e, nil
}

// prefixColumns prepends a table alias to every column in a comma list.
func prefixColumns(prefix, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = prefix + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
