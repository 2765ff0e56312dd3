package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"giribazar/backend/internal/domain"
	"giribazar/backend/internal/store"
	"giribazar/backend/internal/xid"
)

type Store struct {
	mu             sync.RWMutex
	categories     []string
	products       map[string]domain.Product
	stockEntries   map[string]domain.StockEntry
	intakeHistory  []domain.IntakeRecord
	sales          []domain.SaleRecord
	profitLoss     []domain.ProfitLossEntry
	sellerAccounts map[string]domain.SellerAccount
	fleetEntries   map[string]domain.FleetEntry
	users          map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:       make(map[string]domain.Product),
		stockEntries:   make(map[string]domain.StockEntry),
		intakeHistory:  make([]domain.IntakeRecord, 0, 128),
		sales:          make([]domain.SaleRecord, 0, 128),
		sellerAccounts: make(map[string]domain.SellerAccount),
		fleetEntries:   make(map[string]domain.FleetEntry),
		users:          make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store pre-loaded with a small commodity catalog and
// a dev login. The seed password comes from SEED_ADMIN_PASSWORD; the
// hardcoded fallback is for dev/demo mode only (production deployments
// set DATABASE_URL and use the postgres store).
func NewSeeded() *Store {
	s := New()

	catalog := map[string][]string{
		"Grains":     {"Wheat", "Rice", "Maize"},
		"Pulses":     {"Toor Dal", "Chana Dal"},
		"Vegetables": {"Onion", "Potato", "Tomato"},
	}
	for category, names := range catalog {
		s.categories = append(s.categories, category)
		for _, name := range names {
			s.products[productKey(category, name)] = domain.Product{Category: category, Name: name}
		}
	}
	slices.Sort(s.categories)

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err == nil {
		s.users["admin"] = domain.UserAccount{
			Username:  "admin",
			Password:  string(hash),
			CreatedAt: time.Now().UTC(),
		}
	}

	return s
}

func productKey(category string, name string) string {
	return category + "\x00" + name
}

func entryKey(category string, product string, day string) string {
	return category + "\x00" + product + "\x00" + day
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]string, len(s.categories))
	copy(categories, s.categories)
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.categories, name) {
		return store.ErrDuplicate
	}
	s.categories = append(s.categories, name)
	slices.Sort(s.categories)
	return nil
}

func (s *Store) CreateProduct(_ context.Context, category string, product string) error {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(product) == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.categories, category) {
		return store.ErrNotFound
	}
	key := productKey(category, product)
	if _, exists := s.products[key]; exists {
		return store.ErrDuplicate
	}
	s.products[key] = domain.Product{Category: category, Name: product}
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) SetProductPrice(_ context.Context, category string, product string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.categories, category) {
		return store.ErrNotFound
	}
	key := productKey(category, product)
	p, exists := s.products[key]
	if !exists {
		return store.ErrNotFound
	}
	p.PricePerKg = &price
	s.products[key] = p
	return nil
}

func (s *Store) RecordIntake(_ context.Context, rec domain.IntakeRecord, day string) (*domain.StockEntry, error) {
	if rec.Category == "" || rec.Product == "" || day == "" {
		return nil, store.ErrInvalidInput
	}
	if !rec.Quantity.IsPositive() || rec.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey(rec.Category, rec.Product, day)
	entry, exists := s.stockEntries[key]
	if !exists {
		entry = domain.StockEntry{
			Category: rec.Category,
			Product:  rec.Product,
			Day:      day,
			Quantity: rec.Quantity,
			Cost:     rec.Price,
		}
	} else {
		entry.Quantity = entry.Quantity.Add(rec.Quantity)
		entry.Cost = entry.Cost.Add(rec.Price)
	}
	entry.Recompute()
	s.stockEntries[key] = entry

	if rec.ID == "" {
		rec.ID = xid.New("intake")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.intakeHistory = append(s.intakeHistory, rec)

	saved := entry
	return &saved, nil
}

func (s *Store) GetStockEntry(_ context.Context, category string, product string, day string) (*domain.StockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.stockEntries[entryKey(category, product, day)]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := entry
	return &found, nil
}

func (s *Store) ListStockEntries(_ context.Context, day string) ([]domain.StockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.StockEntry, 0, 16)
	for _, entry := range s.stockEntries {
		if entry.Day == day {
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b domain.StockEntry) int {
		if a.Category == b.Category {
			return strings.Compare(a.Product, b.Product)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return entries, nil
}

func (s *Store) ListIntakeHistory(_ context.Context) ([]domain.IntakeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]domain.IntakeRecord, len(s.intakeHistory))
	copy(history, s.intakeHistory)
	slices.SortFunc(history, func(a, b domain.IntakeRecord) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return history, nil
}

// SettleSale performs the whole read-modify-write under the store lock:
// concurrent settlements or intakes on the same pair cannot interleave.
// The entry lookup ignores the purchase day; when several days carry a
// balance the newest one is debited.
func (s *Store) SettleSale(_ context.Context, sale domain.SaleRecord) (*domain.Settlement, error) {
	if sale.Category == "" || sale.Product == "" || !sale.Quantity.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var key string
	var entry domain.StockEntry
	found := false
	for k, e := range s.stockEntries {
		if e.Category != sale.Category || e.Product != sale.Product {
			continue
		}
		if !found || e.Day > entry.Day {
			key, entry, found = k, e, true
		}
	}
	if !found {
		return nil, store.ErrNotFound
	}

	if sale.Quantity.GreaterThan(entry.Quantity) {
		return nil, store.ErrInsufficientStock
	}

	preQuantity := entry.Quantity
	proceeds := sale.Quantity.Mul(entry.UnitCost)

	entry.Quantity = entry.Quantity.Sub(sale.Quantity)
	entry.Cost = entry.Cost.Sub(proceeds)
	entry.Recompute()
	s.stockEntries[key] = entry

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now().UTC()
	}
	sale.TotalPrice = proceeds
	s.sales = append(s.sales, sale)

	return &domain.Settlement{
		Sale:        sale,
		Entry:       entry,
		PreQuantity: preQuantity,
	}, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.SaleRecord, len(s.sales))
	copy(sales, s.sales)
	slices.SortFunc(sales, func(a, b domain.SaleRecord) int {
		if a.SoldAt.Equal(b.SoldAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.SoldAt.After(b.SoldAt) {
			return -1
		}
		return 1
	})
	return sales, nil
}

func (s *Store) SalesReport(_ context.Context, from time.Time, to time.Time) ([]domain.SalesReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Inclusive date range: [from, to+1d).
	end := to.AddDate(0, 0, 1)

	type agg struct {
		quantity decimal.Decimal
		total    decimal.Decimal
	}
	totals := make(map[string]agg)
	for _, sale := range s.sales {
		if sale.SoldAt.Before(from) || !sale.SoldAt.Before(end) {
			continue
		}
		key := productKey(sale.Category, sale.Product)
		a := totals[key]
		a.quantity = a.quantity.Add(sale.Quantity)
		a.total = a.total.Add(sale.TotalPrice)
		totals[key] = a
	}

	rows := make([]domain.SalesReportRow, 0, len(totals))
	for key, a := range totals {
		category, product, _ := strings.Cut(key, "\x00")
		rows = append(rows, domain.SalesReportRow{
			Product:    product,
			Category:   category,
			Quantity:   a.quantity,
			TotalPrice: a.total,
		})
	}
	slices.SortFunc(rows, func(a, b domain.SalesReportRow) int {
		if a.Category == b.Category {
			return strings.Compare(a.Product, b.Product)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return rows, nil
}

func (s *Store) ProfitLossForDay(_ context.Context, day string) (*domain.ProfitLossSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := domain.ProfitLossSnapshot{
		TotalSale:      decimal.Zero,
		LoadedStock:    decimal.Zero,
		RemainingStock: decimal.Zero,
	}
	for _, sale := range s.sales {
		if sale.SoldAt.UTC().Format(domain.DayFormat) == day {
			snapshot.TotalSale = snapshot.TotalSale.Add(sale.TotalPrice)
		}
	}
	for _, rec := range s.intakeHistory {
		if rec.CreatedAt.UTC().Format(domain.DayFormat) == day {
			snapshot.LoadedStock = snapshot.LoadedStock.Add(rec.Price)
		}
	}
	for _, entry := range s.stockEntries {
		if entry.Day == day {
			snapshot.RemainingStock = snapshot.RemainingStock.Add(entry.Cost)
		}
	}
	return &snapshot, nil
}

func (s *Store) SaveProfitLoss(_ context.Context, entry domain.ProfitLossEntry) error {
	if entry.Date == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profitLoss = append(s.profitLoss, entry)
	return nil
}

func (s *Store) CreateSellerAccount(_ context.Context, account domain.SellerAccount) (*domain.SellerAccount, error) {
	if account.SellerName == "" || account.PhoneNumber == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == "" {
		account.ID = xid.New("seller")
	}
	s.sellerAccounts[account.ID] = account
	created := account
	return &created, nil
}

func (s *Store) ListSellerAccounts(_ context.Context) ([]domain.SellerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.SellerAccount, 0, len(s.sellerAccounts))
	for _, account := range s.sellerAccounts {
		accounts = append(accounts, account)
	}
	slices.SortFunc(accounts, func(a, b domain.SellerAccount) int {
		return strings.Compare(a.ID, b.ID)
	})
	return accounts, nil
}

func (s *Store) CreateFleetEntry(_ context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("fleet")
	}
	s.fleetEntries[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) ListFleetEntries(_ context.Context) ([]domain.FleetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.FleetEntry, 0, len(s.fleetEntries))
	for _, entry := range s.fleetEntries {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b domain.FleetEntry) int {
		return strings.Compare(a.ID, b.ID)
	})
	return entries, nil
}

func (s *Store) UpdateFleetEntry(_ context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error) {
	if entry.ID == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fleetEntries[entry.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.fleetEntries[entry.ID] = entry
	updated := entry
	return &updated, nil
}

func (s *Store) DeleteFleetEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fleetEntries[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.fleetEntries, id)
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := user
	return &found, nil
}

// PutUser exists for tests and dev seeding.
func (s *Store) PutUser(user domain.UserAccount) error {
	if user.Username == "" {
		return fmt.Errorf("username required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.Username] = user
	return nil
}
