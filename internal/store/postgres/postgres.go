package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"giribazar/backend/internal/domain"
	"giribazar/backend/internal/store"
	"giribazar/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0, 16)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) error {
	if name == "" {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name) VALUES ($1)
	`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, category string, product string) error {
	if category == "" || product == "" {
		return store.ErrInvalidInput
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1)
	`, category).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (category, name) VALUES ($1, $2)
	`, category, product)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, name, price_per_kg
		FROM products
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		var price sql.NullString
		if err := rows.Scan(&p.Category, &p.Name, &price); err != nil {
			return nil, err
		}
		if price.Valid {
			parsed, err := decimal.NewFromString(price.String)
			if err == nil {
				p.PricePerKg = &parsed
			}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) SetProductPrice(ctx context.Context, category string, product string, price decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET price_per_kg = $3 WHERE category = $1 AND name = $2
	`, category, product, price)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RecordIntake(ctx context.Context, rec domain.IntakeRecord, day string) (*domain.StockEntry, error) {
	if rec.Category == "" || rec.Product == "" || day == "" {
		return nil, store.ErrInvalidInput
	}
	if !rec.Quantity.IsPositive() || rec.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if rec.ID == "" {
		rec.ID = xid.New("intake")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// The upsert takes a row lock, so it serializes with SettleSale's
	// FOR UPDATE on the same pair.
	entry := domain.StockEntry{Category: rec.Category, Product: rec.Product}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO stock_entries (category, product, purchase_date, quantity, price, price_per_unit)
		VALUES ($1, $2, $3, $4, $5,
			CASE WHEN $4::numeric > 0 THEN $5::numeric / $4::numeric ELSE 0 END)
		ON CONFLICT (category, product, purchase_date) DO UPDATE
		SET quantity = stock_entries.quantity + EXCLUDED.quantity,
		    price = stock_entries.price + EXCLUDED.price,
		    price_per_unit = CASE
		        WHEN stock_entries.quantity + EXCLUDED.quantity > 0
		        THEN (stock_entries.price + EXCLUDED.price) / (stock_entries.quantity + EXCLUDED.quantity)
		        ELSE 0 END
		RETURNING purchase_date::text, quantity, price, price_per_unit
	`, rec.Category, rec.Product, day, rec.Quantity, rec.Price).
		Scan(&entry.Day, &entry.Quantity, &entry.Cost, &entry.UnitCost)
	if err != nil {
		return nil, mapLockError(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO intake_history (id, category, product, quantity, price, price_per_unit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.Category, rec.Product, rec.Quantity, rec.Price, rec.UnitPrice, rec.CreatedAt)
	if err != nil {
		return nil, mapLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapLockError(err)
	}
	return &entry, nil
}

func (s *Store) GetStockEntry(ctx context.Context, category string, product string, day string) (*domain.StockEntry, error) {
	var entry domain.StockEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT category, product, purchase_date::text, quantity, price, price_per_unit
		FROM stock_entries
		WHERE category = $1 AND product = $2 AND purchase_date = $3
	`, category, product, day).
		Scan(&entry.Category, &entry.Product, &entry.Day, &entry.Quantity, &entry.Cost, &entry.UnitCost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Store) ListStockEntries(ctx context.Context, day string) ([]domain.StockEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, product, purchase_date::text, quantity, price, price_per_unit
		FROM stock_entries
		WHERE purchase_date = $1
		ORDER BY category, product
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.StockEntry, 0, 32)
	for rows.Next() {
		var entry domain.StockEntry
		if err := rows.Scan(&entry.Category, &entry.Product, &entry.Day, &entry.Quantity, &entry.Cost, &entry.UnitCost); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) ListIntakeHistory(ctx context.Context) ([]domain.IntakeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, product, quantity, price, price_per_unit, created_at
		FROM intake_history
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.IntakeRecord, 0, 64)
	for rows.Next() {
		var rec domain.IntakeRecord
		if err := rows.Scan(&rec.ID, &rec.Category, &rec.Product, &rec.Quantity, &rec.Price, &rec.UnitPrice, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

// SettleSale runs the debit and the sale insert in one serializable
// transaction with the ledger row locked FOR UPDATE. The entry lookup
// ignores the purchase day; the newest entry for the pair is debited.
func (s *Store) SettleSale(ctx context.Context, sale domain.SaleRecord) (*domain.Settlement, error) {
	if sale.Category == "" || sale.Product == "" || !sale.Quantity.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	entry := domain.StockEntry{Category: sale.Category, Product: sale.Product}
	err = tx.QueryRowContext(ctx, `
		SELECT purchase_date::text, quantity, price, price_per_unit
		FROM stock_entries
		WHERE category = $1 AND product = $2
		ORDER BY purchase_date DESC
		LIMIT 1
		FOR UPDATE
	`, sale.Category, sale.Product).
		Scan(&entry.Day, &entry.Quantity, &entry.Cost, &entry.UnitCost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, mapLockError(err)
	}

	if sale.Quantity.GreaterThan(entry.Quantity) {
		return nil, store.ErrInsufficientStock
	}

	preQuantity := entry.Quantity
	proceeds := sale.Quantity.Mul(entry.UnitCost)

	entry.Quantity = entry.Quantity.Sub(sale.Quantity)
	entry.Cost = entry.Cost.Sub(proceeds)
	entry.Recompute()

	_, err = tx.ExecContext(ctx, `
		UPDATE stock_entries
		SET quantity = $4, price = $5, price_per_unit = $6
		WHERE category = $1 AND product = $2 AND purchase_date = $3
	`, entry.Category, entry.Product, entry.Day, entry.Quantity, entry.Cost, entry.UnitCost)
	if err != nil {
		return nil, mapLockError(err)
	}

	sale.TotalPrice = proceeds
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, category, product, quantity, total_price, sold_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sale.ID, sale.Category, sale.Product, sale.Quantity, sale.TotalPrice, sale.SoldAt)
	if err != nil {
		return nil, mapLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapLockError(err)
	}

	return &domain.Settlement{
		Sale:        sale,
		Entry:       entry,
		PreQuantity: preQuantity,
	}, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, product, quantity, total_price, sold_at
		FROM sales
		ORDER BY sold_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleRecord, 0, 64)
	for rows.Next() {
		var sale domain.SaleRecord
		if err := rows.Scan(&sale.ID, &sale.Category, &sale.Product, &sale.Quantity, &sale.TotalPrice, &sale.SoldAt); err != nil {
			return nil, err
		}
		sale.SoldAt = sale.SoldAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) SalesReport(ctx context.Context, from time.Time, to time.Time) ([]domain.SalesReportRow, error) {
	// Inclusive date range: [from, to+1d).
	end := to.AddDate(0, 0, 1)

	rows, err := s.db.QueryContext(ctx, `
		SELECT product, category, SUM(quantity) AS quantity, SUM(total_price) AS total_price
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		GROUP BY category, product
		HAVING SUM(quantity) IS NOT NULL AND SUM(total_price) IS NOT NULL
		ORDER BY category, product
	`, from, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := make([]domain.SalesReportRow, 0, 32)
	for rows.Next() {
		var row domain.SalesReportRow
		if err := rows.Scan(&row.Product, &row.Category, &row.Quantity, &row.TotalPrice); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Store) ProfitLossForDay(ctx context.Context, day string) (*domain.ProfitLossSnapshot, error) {
	var snapshot domain.ProfitLossSnapshot

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_price), 0) FROM sales WHERE sold_at::date = $1
	`, day).Scan(&snapshot.TotalSale)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(price), 0) FROM intake_history WHERE created_at::date = $1
	`, day).Scan(&snapshot.LoadedStock)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(price), 0) FROM stock_entries WHERE purchase_date = $1
	`, day).Scan(&snapshot.RemainingStock)
	if err != nil {
		return nil, err
	}

	return &snapshot, nil
}

func (s *Store) SaveProfitLoss(ctx context.Context, entry domain.ProfitLossEntry) error {
	if entry.Date == "" {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profit_loss (date, total_sale, loaded_stock, remaining_stock, daily_expense, profit_or_loss)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.Date, entry.TotalSale, entry.LoadedStock, entry.RemainingStock, entry.DailyExpense, entry.ProfitOrLoss)
	return err
}

func (s *Store) CreateSellerAccount(ctx context.Context, account domain.SellerAccount) (*domain.SellerAccount, error) {
	if account.SellerName == "" || account.PhoneNumber == "" {
		return nil, store.ErrInvalidInput
	}
	if account.ID == "" {
		account.ID = xid.New("seller")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seller_accounts (id, seller_name, phone_number, vehicle_id, driver_name)
		VALUES ($1, $2, $3, $4, $5)
	`, account.ID, account.SellerName, account.PhoneNumber, account.VehicleID, account.DriverName)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := account
	return &created, nil
}

func (s *Store) ListSellerAccounts(ctx context.Context) ([]domain.SellerAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seller_name, phone_number, vehicle_id, driver_name
		FROM seller_accounts
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.SellerAccount, 0, 16)
	for rows.Next() {
		var account domain.SellerAccount
		if err := rows.Scan(&account.ID, &account.SellerName, &account.PhoneNumber, &account.VehicleID, &account.DriverName); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) CreateFleetEntry(ctx context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error) {
	capacity, wages, err := parseFleetNumbers(entry)
	if err != nil {
		return nil, err
	}
	if entry.ID == "" {
		entry.ID = xid.New("fleet")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fleet_entries (id, vehicle_id, vehicle_name, vehicle_capacity, driver_name, driver_phone, driver_license, daily_wages)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.Vehicle.VehicleID, entry.Vehicle.VehicleName, capacity,
		entry.Driver.DriverName, entry.Driver.DriverPhone, entry.Driver.DriverLicense, wages)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := entry
	return &created, nil
}

func (s *Store) ListFleetEntries(ctx context.Context) ([]domain.FleetEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vehicle_id, vehicle_name, vehicle_capacity::text, driver_name, driver_phone, driver_license, daily_wages::text
		FROM fleet_entries
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.FleetEntry, 0, 16)
	for rows.Next() {
		var entry domain.FleetEntry
		var capacity, wages string
		if err := rows.Scan(&entry.ID, &entry.Vehicle.VehicleID, &entry.Vehicle.VehicleName, &capacity,
			&entry.Driver.DriverName, &entry.Driver.DriverPhone, &entry.Driver.DriverLicense, &wages); err != nil {
			return nil, err
		}
		entry.Vehicle.VehicleCapacity = jsonNumber(capacity)
		entry.Driver.DailyWages = jsonNumber(wages)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) UpdateFleetEntry(ctx context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error) {
	if entry.ID == "" {
		return nil, store.ErrInvalidInput
	}
	capacity, wages, err := parseFleetNumbers(entry)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE fleet_entries
		SET vehicle_id = $2, vehicle_name = $3, vehicle_capacity = $4,
		    driver_name = $5, driver_phone = $6, driver_license = $7, daily_wages = $8
		WHERE id = $1
	`, entry.ID, entry.Vehicle.VehicleID, entry.Vehicle.VehicleName, capacity,
		entry.Driver.DriverName, entry.Driver.DriverPhone, entry.Driver.DriverLicense, wages)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := entry
	return &updated, nil
}

func (s *Store) DeleteFleetEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM fleet_entries WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, created_at FROM users WHERE username = $1
	`, username).Scan(&user.Username, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func parseFleetNumbers(entry domain.FleetEntry) (int, decimal.Decimal, error) {
	capacity, err := strconv.Atoi(string(entry.Vehicle.VehicleCapacity))
	if err != nil {
		return 0, decimal.Zero, store.ErrInvalidInput
	}
	wages, err := decimal.NewFromString(string(entry.Driver.DailyWages))
	if err != nil {
		return 0, decimal.Zero, store.ErrInvalidInput
	}
	return capacity, wages, nil
}

func jsonNumber(raw string) json.Number {
	if raw == "" {
		return "0"
	}
	return json.Number(raw)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// mapLockError converts serialization failures, deadlocks, and lock
// timeouts into the retryable ErrBusy.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return store.ErrBusy
		}
	}
	return err
}
