package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"giribazar/backend/internal/cache"
	"giribazar/backend/internal/domain"
	"giribazar/backend/internal/store"
	"giribazar/backend/internal/xid"
)

// Service holds the stock ledger and sale engine business rules; plain
// catalog and roster operations delegate to the repository.
type Service struct {
	repo          store.Repository
	reports       cache.ReportCache
	reportTTL     time.Duration
	lowStockRatio decimal.Decimal
	log           *zap.Logger
}

func New(repo store.Repository, reports cache.ReportCache, reportTTL time.Duration, lowStockRatio float64, log *zap.Logger) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportTTL <= 0 {
		reportTTL = 15 * time.Second
	}
	if lowStockRatio <= 0 || lowStockRatio >= 1 {
		lowStockRatio = 0.2
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		repo:          repo,
		reports:       reports,
		reportTTL:     reportTTL,
		lowStockRatio: decimal.NewFromFloat(lowStockRatio),
		log:           log,
	}
}

// RecordIntake applies one stock load to today's ledger row for the pair
// and appends the immutable history record carrying this call's own
// price-per-unit. The ledger row blends unit cost across the day; the
// history row keeps the transaction-local one.
func (s *Service) RecordIntake(ctx context.Context, req domain.IntakeRequest) (*domain.StockEntry, error) {
	category := strings.TrimSpace(req.Category)
	product := strings.TrimSpace(req.Product)
	if category == "" || product == "" || req.Quantity == "" || req.Price == "" {
		return nil, fmt.Errorf("%w: missing fields", store.ErrInvalidInput)
	}

	quantity, err := decimal.NewFromString(req.Quantity.String())
	if err != nil || !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: invalid quantity", store.ErrInvalidInput)
	}
	price, err := decimal.NewFromString(req.Price.String())
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("%w: invalid price", store.ErrInvalidInput)
	}

	now := time.Now().UTC()
	rec := domain.IntakeRecord{
		ID:        xid.New("intake"),
		Category:  category,
		Product:   product,
		Quantity:  quantity,
		Price:     price,
		UnitPrice: price.Div(quantity),
		CreatedAt: now,
	}

	entry, err := s.repo.RecordIntake(ctx, rec, now.Format(domain.DayFormat))
	if err != nil {
		return nil, err
	}

	s.log.Info("intake recorded",
		zap.String("category", category),
		zap.String("product", product),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()))

	return entry, nil
}

// CurrentBalance returns today's ledger row for the pair, or ErrNotFound
// when nothing has been loaded today.
func (s *Service) CurrentBalance(ctx context.Context, category string, product string) (*domain.StockEntry, error) {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(product) == "" {
		return nil, fmt.Errorf("%w: missing fields", store.ErrInvalidInput)
	}
	day := time.Now().UTC().Format(domain.DayFormat)
	return s.repo.GetStockEntry(ctx, category, product, day)
}

// Inventory lists today's ledger rows.
func (s *Service) Inventory(ctx context.Context) ([]domain.StockEntry, error) {
	return s.InventoryForDay(ctx, time.Now().UTC().Format(domain.DayFormat))
}

// InventoryForDay lists the ledger rows for an explicit day.
func (s *Service) InventoryForDay(ctx context.Context, day string) ([]domain.StockEntry, error) {
	if _, err := time.Parse(domain.DayFormat, day); err != nil {
		return nil, fmt.Errorf("%w: invalid date", store.ErrInvalidInput)
	}
	return s.repo.ListStockEntries(ctx, day)
}

func (s *Service) IntakeHistory(ctx context.Context) ([]domain.IntakeRecord, error) {
	return s.repo.ListIntakeHistory(ctx)
}

// Sell validates and settles a sale against the ledger. Checks run in
// order: missing fields, quantity parse, entry lookup (by pair, ignoring
// the purchase day, matching the legacy behavior), then stock
// sufficiency. The debit and the sale record are one atomic settlement.
func (s *Service) Sell(ctx context.Context, req domain.SellRequest) (*domain.SaleResult, error) {
	category := strings.TrimSpace(req.Category)
	product := strings.TrimSpace(req.Product)
	if category == "" || product == "" || req.Quantity == "" {
		return nil, fmt.Errorf("%w: missing fields", store.ErrInvalidInput)
	}

	quantity, err := decimal.NewFromString(req.Quantity.String())
	if err != nil || !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: invalid quantity", store.ErrInvalidInput)
	}

	settlement, err := s.repo.SettleSale(ctx, domain.SaleRecord{
		ID:       xid.New("sale"),
		Category: category,
		Product:  product,
		Quantity: quantity,
		SoldAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	remaining := settlement.Entry.Quantity

	// The low-stock baseline is the pre-sale quantity, reconstructed by
	// adding the sold amount back onto the remaining balance.
	baseline := remaining.Add(quantity)
	threshold := s.lowStockRatio.Mul(baseline)
	stockAlert := remaining.LessThanOrEqual(threshold)

	s.log.Info("sale settled",
		zap.String("category", category),
		zap.String("product", product),
		zap.String("quantity", quantity.String()),
		zap.String("proceeds", settlement.Sale.TotalPrice.String()),
		zap.Bool("stock_alert", stockAlert))

	return &domain.SaleResult{
		Message:           "Product sold successfully",
		TotalPrice:        settlement.Sale.TotalPrice,
		StockAlert:        stockAlert,
		RemainingQuantity: remaining,
	}, nil
}

func (s *Service) SaleHistory(ctx context.Context) ([]domain.SaleHistoryItem, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.SaleHistoryItem, 0, len(sales))
	for _, sale := range sales {
		items = append(items, domain.SaleHistoryItem{
			Name:      sale.Product,
			Category:  sale.Category,
			Quantity:  sale.Quantity,
			Price:     sale.TotalPrice,
			CreatedAt: sale.SoldAt.Format(domain.SaleTimeFormat),
		})
	}
	return items, nil
}

// SalesReport aggregates sales per (category, product) over an inclusive
// date range.
func (s *Service) SalesReport(ctx context.Context, fromDate string, toDate string) ([]domain.SalesReportRow, error) {
	from, err := time.Parse(domain.DayFormat, fromDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid from_date", store.ErrInvalidInput)
	}
	to, err := time.Parse(domain.DayFormat, toDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid to_date", store.ErrInvalidInput)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to_date before from_date", store.ErrInvalidInput)
	}
	return s.repo.SalesReport(ctx, from, to)
}

// ProfitLossToday computes the daily snapshot, fronted by a short-TTL
// cache; slightly stale totals are acceptable for this view.
func (s *Service) ProfitLossToday(ctx context.Context) (*domain.ProfitLossSnapshot, error) {
	day := time.Now().UTC().Format(domain.DayFormat)
	key := "profitloss:" + day

	if cached, ok, err := s.reports.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.log.Warn("profit/loss cache read failed", zap.Error(err))
	}

	snapshot, err := s.repo.ProfitLossForDay(ctx, day)
	if err != nil {
		return nil, err
	}

	if err := s.reports.Set(ctx, key, snapshot, s.reportTTL); err != nil {
		s.log.Warn("profit/loss cache write failed", zap.Error(err))
	}
	return snapshot, nil
}

func (s *Service) SaveProfitLoss(ctx context.Context, entry domain.ProfitLossEntry) error {
	if _, err := time.Parse(domain.DayFormat, entry.Date); err != nil {
		return fmt.Errorf("%w: invalid date", store.ErrInvalidInput)
	}
	return s.repo.SaveProfitLoss(ctx, entry)
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category is required", store.ErrInvalidInput)
	}
	return s.repo.CreateCategory(ctx, name)
}

func (s *Service) AddProduct(ctx context.Context, category string, product string) error {
	category = strings.TrimSpace(category)
	product = strings.TrimSpace(product)
	if category == "" || product == "" {
		return fmt.Errorf("%w: both category and product are required", store.ErrInvalidInput)
	}
	return s.repo.CreateProduct(ctx, category, product)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) SetPrice(ctx context.Context, req domain.SetPriceRequest) error {
	category := strings.TrimSpace(req.Category)
	product := strings.TrimSpace(req.Product)
	if category == "" || product == "" || req.Price == "" {
		return fmt.Errorf("%w: category, product, and price are required", store.ErrInvalidInput)
	}
	price, err := decimal.NewFromString(req.Price.String())
	if err != nil || price.IsNegative() {
		return fmt.Errorf("%w: invalid price format", store.ErrInvalidInput)
	}
	return s.repo.SetProductPrice(ctx, category, product, price)
}

func (s *Service) CreateSellerAccount(ctx context.Context, account domain.SellerAccount) (*domain.SellerAccount, error) {
	if strings.TrimSpace(account.SellerName) == "" || strings.TrimSpace(account.PhoneNumber) == "" {
		return nil, fmt.Errorf("%w: seller name and phone number are required", store.ErrInvalidInput)
	}
	return s.repo.CreateSellerAccount(ctx, account)
}

func (s *Service) ListSellerAccounts(ctx context.Context) ([]domain.SellerAccount, error) {
	return s.repo.ListSellerAccounts(ctx)
}

func (s *Service) CreateFleetEntry(ctx context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error) {
	if err := validateFleetEntry(entry); err != nil {
		return nil, err
	}
	return s.repo.CreateFleetEntry(ctx, entry)
}

func (s *Service) ListFleetEntries(ctx context.Context) ([]domain.FleetEntry, error) {
	return s.repo.ListFleetEntries(ctx)
}

func (s *Service) UpdateFleetEntry(ctx context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error) {
	if entry.ID == "" {
		return nil, fmt.Errorf("%w: entry id is required", store.ErrInvalidInput)
	}
	if err := validateFleetEntry(entry); err != nil {
		return nil, err
	}
	return s.repo.UpdateFleetEntry(ctx, entry)
}

func (s *Service) DeleteFleetEntry(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: entry id is required", store.ErrInvalidInput)
	}
	return s.repo.DeleteFleetEntry(ctx, id)
}

func validateFleetEntry(entry domain.FleetEntry) error {
	if strings.TrimSpace(entry.Vehicle.VehicleID) == "" || strings.TrimSpace(entry.Driver.DriverName) == "" {
		return fmt.Errorf("%w: vehicle id and driver name are required", store.ErrInvalidInput)
	}
	if !isTenDigitPhone(entry.Driver.DriverPhone) {
		return fmt.Errorf("%w: invalid phone number, must be exactly 10 digits", store.ErrInvalidInput)
	}
	if _, err := entry.Vehicle.VehicleCapacity.Int64(); err != nil {
		return fmt.Errorf("%w: invalid vehicle capacity", store.ErrInvalidInput)
	}
	if _, err := decimal.NewFromString(entry.Driver.DailyWages.String()); err != nil {
		return fmt.Errorf("%w: invalid daily wages", store.ErrInvalidInput)
	}
	return nil
}

func isTenDigitPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}
