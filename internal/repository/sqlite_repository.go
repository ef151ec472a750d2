package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-tracker/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// timeLayout is fixed width so lexical order in SQLite matches time order.
const timeLayout = "2006-01-02 15:04:05.000000000"

const schema = `
CREATE TABLE IF NOT EXISTS inventory (
	item_id INTEGER PRIMARY KEY AUTOINCREMENT,
	item_name TEXT UNIQUE NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0,
	cost TEXT NOT NULL DEFAULT '0',
	last_update TEXT NOT NULL,
	CHECK(quantity >= 0)
);

CREATE TABLE IF NOT EXISTS sales (
	sale_id INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id INTEGER NOT NULL,
	quantity_sold INTEGER NOT NULL,
	sale_date TEXT NOT NULL,
	FOREIGN KEY (item_id) REFERENCES inventory(item_id),
	CHECK(quantity_sold > 0)
);

CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales(sale_date);
CREATE INDEX IF NOT EXISTS idx_sales_item_id ON sales(item_id);
`

// SQLiteStore implements Store on a single SQLite writer connection.
// Transactions start with BEGIN IMMEDIATE (_txlock=immediate), so a
// read-check-write sequence inside WithinTx cannot interleave with another writer.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	queries
}

// NewSQLiteStore opens the database file at path.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		logger:  logger,
		queries: queries{ext: db},
	}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}

func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("Failed to roll back transaction", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(ctx, queries{ext: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListItems lists all items ordered by name
func (s *SQLiteStore) ListItems(ctx context.Context) ([]domain.Item, error) {
	var rows []itemRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT item_id, item_name, quantity, cost, last_update
		FROM inventory
		ORDER BY item_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]domain.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toDomain())
	}
	return items, nil
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM inventory WHERE item_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return expectRow(result)
}

func (s *SQLiteStore) InsertItem(ctx context.Context, name string, quantity int, cost decimal.Decimal, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (item_name, quantity, cost, last_update)
		VALUES (?, ?, ?, ?)
	`, name, quantity, cost.String(), formatTime(at))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateName
		}
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}
	return result.LastInsertId()
}

// ListSales returns the sales history. The join is inner: history rows for
// deleted items are dropped.
func (s *SQLiteStore) ListSales(ctx context.Context) ([]domain.SaleRecord, error) {
	var rows []saleRecordRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT s.sale_id, i.item_name, s.quantity_sold, s.sale_date
		FROM sales s
		JOIN inventory i ON s.item_id = i.item_id
		ORDER BY s.sale_date DESC, s.sale_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	records := make([]domain.SaleRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, domain.SaleRecord{
			SaleID:       r.SaleID,
			ItemName:     r.ItemName,
			QuantitySold: r.QuantitySold,
			SaleDate:     parseTime(r.SaleDate),
		})
	}
	return records, nil
}

// queries holds the statements shared by the store and its transactions.
type queries struct {
	ext sqlx.ExtContext
}

func (q queries) FetchItem(ctx context.Context, id int64) (*domain.Item, error) {
	var row itemRow
	err := sqlx.GetContext(ctx, q.ext, &row, `
		SELECT item_id, item_name, quantity, cost, last_update
		FROM inventory
		WHERE item_id = ?
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}
	item := row.toDomain()
	return &item, nil
}

func (q queries) UpdateItemQuantity(ctx context.Context, id int64, quantity int, at time.Time) error {
	result, err := q.ext.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = ?, last_update = ?
		WHERE item_id = ?
	`, quantity, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	return expectRow(result)
}

func (q queries) InsertSale(ctx context.Context, itemID int64, quantitySold int, at time.Time) (int64, error) {
	result, err := q.ext.ExecContext(ctx, `
		INSERT INTO sales (item_id, quantity_sold, sale_date)
		VALUES (?, ?, ?)
	`, itemID, quantitySold, formatTime(at))
	if err != nil {
		return 0, fmt.Errorf("failed to insert sale: %w", err)
	}
	return result.LastInsertId()
}

type itemRow struct {
	ID         int64           `db:"item_id"`
	Name       string          `db:"item_name"`
	Quantity   int             `db:"quantity"`
	Cost       decimal.Decimal `db:"cost"`
	LastUpdate string          `db:"last_update"`
}

func (r itemRow) toDomain() domain.Item {
	return domain.Item{
		ID:         r.ID,
		Name:       r.Name,
		Quantity:   r.Quantity,
		Cost:       r.Cost,
		LastUpdate: parseTime(r.LastUpdate),
	}
}

type saleRecordRow struct {
	SaleID       int64  `db:"sale_id"`
	ItemName     string `db:"item_name"`
	QuantitySold int    `db:"quantity_sold"`
	SaleDate     string `db:"sale_date"`
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
