package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"giribazar/backend/internal/domain"
	"giribazar/backend/internal/store"
	"giribazar/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	svc := New(repo, nil, 5*time.Second, 0.2, nil)
	return svc, repo
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", raw, err)
	}
	return d
}

func TestIntakeCreatesLedgerRow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	entry, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("100"),
		Price:    json.Number("5000"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}
	if !entry.Quantity.Equal(mustDecimal(t, "100")) {
		t.Fatalf("expected quantity 100, got %s", entry.Quantity)
	}
	if !entry.Cost.Equal(mustDecimal(t, "5000")) {
		t.Fatalf("expected cost 5000, got %s", entry.Cost)
	}
	if !entry.UnitCost.Equal(mustDecimal(t, "50")) {
		t.Fatalf("expected unit cost 50, got %s", entry.UnitCost)
	}
}

func TestIntakeAggregatesSameDay(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Rice",
		Quantity: json.Number("50"),
		Price:    json.Number("1000"),
	})
	if err != nil {
		t.Fatalf("first intake failed: %v", err)
	}

	entry, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Rice",
		Quantity: json.Number("50"),
		Price:    json.Number("1200"),
	})
	if err != nil {
		t.Fatalf("second intake failed: %v", err)
	}

	if !entry.Quantity.Equal(mustDecimal(t, "100")) {
		t.Fatalf("expected aggregated quantity 100, got %s", entry.Quantity)
	}
	if !entry.Cost.Equal(mustDecimal(t, "2200")) {
		t.Fatalf("expected aggregated cost 2200, got %s", entry.Cost)
	}
	if !entry.UnitCost.Equal(mustDecimal(t, "22")) {
		t.Fatalf("expected blended unit cost 22, got %s", entry.UnitCost)
	}

	history, err := svc.IntakeHistory(ctx)
	if err != nil {
		t.Fatalf("intake history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}
	// History keeps the per-load unit price, not the blended ledger one.
	if !history[0].UnitPrice.Equal(mustDecimal(t, "24")) {
		t.Fatalf("expected newest history unit price 24, got %s", history[0].UnitPrice)
	}
}

func TestIntakeValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []domain.IntakeRequest{
		{Product: "Wheat", Quantity: json.Number("10"), Price: json.Number("100")},
		{Category: "Grains", Quantity: json.Number("10"), Price: json.Number("100")},
		{Category: "Grains", Product: "Wheat", Price: json.Number("100")},
		{Category: "Grains", Product: "Wheat", Quantity: json.Number("0"), Price: json.Number("100")},
		{Category: "Grains", Product: "Wheat", Quantity: json.Number("-5"), Price: json.Number("100")},
		{Category: "Grains", Product: "Wheat", Quantity: json.Number("10"), Price: json.Number("-1")},
	}
	for i, req := range cases {
		if _, err := svc.RecordIntake(ctx, req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestSellSettlesAtLedgerUnitCost(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("100"),
		Price:    json.Number("5000"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	result, err := svc.Sell(ctx, domain.SellRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("30"),
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if !result.TotalPrice.Equal(mustDecimal(t, "1500")) {
		t.Fatalf("expected proceeds 1500, got %s", result.TotalPrice)
	}
	if !result.RemainingQuantity.Equal(mustDecimal(t, "70")) {
		t.Fatalf("expected remaining 70, got %s", result.RemainingQuantity)
	}
	// 70 remaining against a 0.2 * 100 = 20 threshold: no alert.
	if result.StockAlert {
		t.Fatalf("did not expect stock alert at 70 remaining")
	}

	balance, err := svc.CurrentBalance(ctx, "Grains", "Wheat")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if !balance.Cost.Equal(mustDecimal(t, "3500")) {
		t.Fatalf("expected ledger cost 3500 after sale, got %s", balance.Cost)
	}
	if !balance.UnitCost.Equal(mustDecimal(t, "50")) {
		t.Fatalf("expected unit cost unchanged at 50, got %s", balance.UnitCost)
	}
}

func TestSellRaisesLowStockAlert(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("70"),
		Price:    json.Number("3500"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	// 70 on hand, sell 60: remaining 10 <= 0.2 * 70 = 14.
	result, err := svc.Sell(ctx, domain.SellRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("60"),
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if !result.StockAlert {
		t.Fatalf("expected stock alert at remaining %s", result.RemainingQuantity)
	}
}

func TestSellValidationOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Missing fields beat everything else, even for unknown products.
	_, err := svc.Sell(ctx, domain.SellRequest{Category: "Grains"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing fields, got %v", err)
	}

	_, err = svc.Sell(ctx, domain.SellRequest{
		Category: "Grains",
		Product:  "Nonexistent",
		Quantity: json.Number("-3"),
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad quantity, got %v", err)
	}

	_, err = svc.Sell(ctx, domain.SellRequest{
		Category: "Grains",
		Product:  "Nonexistent",
		Quantity: json.Number("3"),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestOversellLeavesLedgerUntouched(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Vegetables",
		Product:  "Onion",
		Quantity: json.Number("10"),
		Price:    json.Number("500"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	_, err = svc.Sell(ctx, domain.SellRequest{
		Category: "Vegetables",
		Product:  "Onion",
		Quantity: json.Number("50"),
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	balance, err := svc.CurrentBalance(ctx, "Vegetables", "Onion")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if !balance.Quantity.Equal(mustDecimal(t, "10")) {
		t.Fatalf("expected quantity untouched at 10, got %s", balance.Quantity)
	}
	if !balance.Cost.Equal(mustDecimal(t, "500")) {
		t.Fatalf("expected cost untouched at 500, got %s", balance.Cost)
	}

	sales, err := svc.SaleHistory(ctx)
	if err != nil {
		t.Fatalf("sale history failed: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no sale recorded on failure, got %d", len(sales))
	}
}

func TestSellToZeroResetsUnitCost(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Vegetables",
		Product:  "Potato",
		Quantity: json.Number("10"),
		Price:    json.Number("500"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	result, err := svc.Sell(ctx, domain.SellRequest{
		Category: "Vegetables",
		Product:  "Potato",
		Quantity: json.Number("10"),
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if !result.RemainingQuantity.IsZero() {
		t.Fatalf("expected remaining 0, got %s", result.RemainingQuantity)
	}
	if !result.StockAlert {
		t.Fatalf("expected stock alert at zero remaining")
	}

	balance, err := svc.CurrentBalance(ctx, "Vegetables", "Potato")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if !balance.UnitCost.IsZero() {
		t.Fatalf("expected unit cost reset to 0 on empty row, got %s", balance.UnitCost)
	}

	_, err = svc.Sell(ctx, domain.SellRequest{
		Category: "Vegetables",
		Product:  "Potato",
		Quantity: json.Number("1"),
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock on empty row, got %v", err)
	}
}

// A sale finds the pair's ledger row regardless of purchase day; when
// several days hold a balance the newest one is debited.
func TestSellDebitsNewestLedgerDay(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(domain.DayFormat)
	_, err := repo.RecordIntake(ctx, domain.IntakeRecord{
		Category:  "Grains",
		Product:   "Maize",
		Quantity:  mustDecimal(t, "40"),
		Price:     mustDecimal(t, "800"),
		UnitPrice: mustDecimal(t, "20"),
		CreatedAt: time.Now().UTC().AddDate(0, 0, -1),
	}, yesterday)
	if err != nil {
		t.Fatalf("seed intake failed: %v", err)
	}

	today, err := svc.Inventory(ctx)
	if err != nil {
		t.Fatalf("inventory failed: %v", err)
	}
	for _, entry := range today {
		if entry.Product == "Maize" {
			t.Fatalf("did not expect Maize in today's inventory")
		}
	}

	result, err := svc.Sell(ctx, domain.SellRequest{
		Category: "Grains",
		Product:  "Maize",
		Quantity: json.Number("15"),
	})
	if err != nil {
		t.Fatalf("sale against older ledger day failed: %v", err)
	}
	if !result.TotalPrice.Equal(mustDecimal(t, "300")) {
		t.Fatalf("expected proceeds 300, got %s", result.TotalPrice)
	}

	older, err := svc.InventoryForDay(ctx, yesterday)
	if err != nil {
		t.Fatalf("inventory for day failed: %v", err)
	}
	if len(older) != 1 || !older[0].Quantity.Equal(mustDecimal(t, "25")) {
		t.Fatalf("expected yesterday's Maize row debited to 25, got %+v", older)
	}
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("10"),
		Price:    json.Number("500"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Sell(ctx, domain.SellRequest{
				Category: "Grains",
				Product:  "Wheat",
				Quantity: json.Number("1"),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, store.ErrInsufficientStock) {
			t.Fatalf("unexpected sale error: %v", err)
		}
	}
	if succeeded != 10 {
		t.Fatalf("expected exactly 10 sales to settle, got %d", succeeded)
	}

	balance, err := svc.CurrentBalance(ctx, "Grains", "Wheat")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if !balance.Quantity.IsZero() {
		t.Fatalf("expected quantity 0 after 10 unit sales, got %s", balance.Quantity)
	}
}

func TestSaleHistoryShape(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Pulses",
		Product:  "Toor Dal",
		Quantity: json.Number("20"),
		Price:    json.Number("2000"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}
	if _, err := svc.Sell(ctx, domain.SellRequest{
		Category: "Pulses",
		Product:  "Toor Dal",
		Quantity: json.Number("5"),
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	history, err := svc.SaleHistory(ctx)
	if err != nil {
		t.Fatalf("sale history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(history))
	}
	if history[0].Name != "Toor Dal" || history[0].Category != "Pulses" {
		t.Fatalf("unexpected sale row: %+v", history[0])
	}
	if _, err := time.Parse(domain.SaleTimeFormat, history[0].CreatedAt); err != nil {
		t.Fatalf("sale timestamp %q not in wire format: %v", history[0].CreatedAt, err)
	}
}

func TestSalesReportAggregatesRange(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("100"),
		Price:    json.Number("5000"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Sell(ctx, domain.SellRequest{
			Category: "Grains",
			Product:  "Wheat",
			Quantity: json.Number("10"),
		}); err != nil {
			t.Fatalf("sale #%d failed: %v", i, err)
		}
	}

	today := time.Now().UTC().Format(domain.DayFormat)
	rows, err := svc.SalesReport(ctx, today, today)
	if err != nil {
		t.Fatalf("sales report failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 report row, got %d", len(rows))
	}
	if !rows[0].Quantity.Equal(mustDecimal(t, "20")) {
		t.Fatalf("expected aggregated quantity 20, got %s", rows[0].Quantity)
	}
	if !rows[0].TotalPrice.Equal(mustDecimal(t, "1000")) {
		t.Fatalf("expected aggregated proceeds 1000, got %s", rows[0].TotalPrice)
	}

	if _, err := svc.SalesReport(ctx, today, "2020-01-01"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
}

func TestProfitLossToday(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordIntake(ctx, domain.IntakeRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("100"),
		Price:    json.Number("5000"),
	})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}
	if _, err := svc.Sell(ctx, domain.SellRequest{
		Category: "Grains",
		Product:  "Wheat",
		Quantity: json.Number("40"),
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	snapshot, err := svc.ProfitLossToday(ctx)
	if err != nil {
		t.Fatalf("profit/loss failed: %v", err)
	}
	if !snapshot.TotalSale.Equal(mustDecimal(t, "2000")) {
		t.Fatalf("expected total sale 2000, got %s", snapshot.TotalSale)
	}
	if !snapshot.LoadedStock.Equal(mustDecimal(t, "5000")) {
		t.Fatalf("expected loaded stock 5000, got %s", snapshot.LoadedStock)
	}
	if !snapshot.RemainingStock.Equal(mustDecimal(t, "3000")) {
		t.Fatalf("expected remaining stock 3000, got %s", snapshot.RemainingStock)
	}
}

// countingCache verifies that repeat snapshot reads inside the TTL come
// from the cache, not the repository-derived path.
type countingCache struct {
	mu     sync.Mutex
	stored map[string]*domain.ProfitLossSnapshot
	gets   int
	sets   int
}

func (c *countingCache) Get(_ context.Context, key string) (*domain.ProfitLossSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	snapshot, ok := c.stored[key]
	return snapshot, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, value *domain.ProfitLossSnapshot, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.stored == nil {
		c.stored = make(map[string]*domain.ProfitLossSnapshot)
	}
	c.stored[key] = value
	return nil
}

func TestProfitLossTodayServedFromCache(t *testing.T) {
	repo := memory.NewSeeded()
	reports := &countingCache{}
	svc := New(repo, reports, 5*time.Second, 0.2, nil)
	ctx := context.Background()

	if _, err := svc.ProfitLossToday(ctx); err != nil {
		t.Fatalf("first snapshot failed: %v", err)
	}
	if _, err := svc.ProfitLossToday(ctx); err != nil {
		t.Fatalf("second snapshot failed: %v", err)
	}

	if reports.sets != 1 {
		t.Fatalf("expected exactly 1 cache fill, got %d", reports.sets)
	}
	if reports.gets != 2 {
		t.Fatalf("expected 2 cache lookups, got %d", reports.gets)
	}
}

func TestSaveProfitLossValidatesDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	err := svc.SaveProfitLoss(ctx, domain.ProfitLossEntry{Date: "31-12-2025"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}

	err = svc.SaveProfitLoss(ctx, domain.ProfitLossEntry{
		Date:         time.Now().UTC().Format(domain.DayFormat),
		TotalSale:    mustDecimal(t, "2000"),
		LoadedStock:  mustDecimal(t, "5000"),
		DailyExpense: mustDecimal(t, "300"),
		ProfitOrLoss: mustDecimal(t, "-3300"),
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func TestCatalogLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.AddCategory(ctx, "Spices"); err != nil {
		t.Fatalf("add category failed: %v", err)
	}
	if err := svc.AddCategory(ctx, "Spices"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := svc.AddProduct(ctx, "Spices", "Turmeric"); err != nil {
		t.Fatalf("add product failed: %v", err)
	}
	if err := svc.AddProduct(ctx, "Unknown", "Turmeric"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown category, got %v", err)
	}

	if err := svc.SetPrice(ctx, domain.SetPriceRequest{
		Category: "Spices",
		Product:  "Turmeric",
		Price:    json.Number("180.50"),
	}); err != nil {
		t.Fatalf("set price failed: %v", err)
	}

	products, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	found := false
	for _, p := range products {
		if p.Category == "Spices" && p.Name == "Turmeric" {
			found = true
			if p.PricePerKg == nil || !p.PricePerKg.Equal(mustDecimal(t, "180.50")) {
				t.Fatalf("expected price 180.50, got %v", p.PricePerKg)
			}
		}
	}
	if !found {
		t.Fatalf("expected Turmeric to be listed")
	}
}

func TestFleetEntryValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	valid := domain.FleetEntry{
		Vehicle: domain.Vehicle{
			VehicleID:       "KA-09-1234",
			VehicleName:     "Tata Ace",
			VehicleCapacity: json.Number("750"),
		},
		Driver: domain.Driver{
			DriverName:    "Ravi",
			DriverPhone:   "9876543210",
			DriverLicense: "DL-443322",
			DailyWages:    json.Number("800.50"),
		},
	}

	created, err := svc.CreateFleetEntry(ctx, valid)
	if err != nil {
		t.Fatalf("create fleet entry failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated entry id")
	}

	badPhone := valid
	badPhone.Driver.DriverPhone = "12345"
	if _, err := svc.CreateFleetEntry(ctx, badPhone); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short phone, got %v", err)
	}

	badCapacity := valid
	badCapacity.Vehicle.VehicleCapacity = json.Number("lots")
	if _, err := svc.CreateFleetEntry(ctx, badCapacity); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad capacity, got %v", err)
	}

	created.Driver.DailyWages = json.Number("900")
	updated, err := svc.UpdateFleetEntry(ctx, *created)
	if err != nil {
		t.Fatalf("update fleet entry failed: %v", err)
	}
	if updated.Driver.DailyWages != json.Number("900") {
		t.Fatalf("expected wages updated to 900, got %s", updated.Driver.DailyWages)
	}

	if err := svc.DeleteFleetEntry(ctx, created.ID); err != nil {
		t.Fatalf("delete fleet entry failed: %v", err)
	}
	if err := svc.DeleteFleetEntry(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestSellerAccountRequiresNameAndPhone(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateSellerAccount(ctx, domain.SellerAccount{SellerName: "Lakshmi"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing phone, got %v", err)
	}

	created, err := svc.CreateSellerAccount(ctx, domain.SellerAccount{
		SellerName:  "Lakshmi",
		PhoneNumber: "9123456780",
		VehicleID:   "KA-09-1234",
		DriverName:  "Ravi",
	})
	if err != nil {
		t.Fatalf("create seller account failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated account id")
	}

	accounts, err := svc.ListSellerAccounts(ctx)
	if err != nil {
		t.Fatalf("list seller accounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
}
