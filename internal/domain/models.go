package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money and quantity fields go over the wire as plain JSON numbers,
	// matching the existing mobile client.
	decimal.MarshalJSONWithoutQuotes = true
}

// SaleTimeFormat is the wire format for sale timestamps.
const SaleTimeFormat = "2006-01-02 15:04:05"

// DayFormat is the wire format for purchase and report dates.
const DayFormat = "2006-01-02"

// StockEntry is the running per-day balance for one (category, product)
// pair. UnitCost is always derived from Cost and Quantity, never stored
// independently of them.
type StockEntry struct {
	Category string          `json:"category"`
	Product  string          `json:"product"`
	Day      string          `json:"purchase_date"`
	Quantity decimal.Decimal `json:"quantity"`
	Cost     decimal.Decimal `json:"price"`
	UnitCost decimal.Decimal `json:"price_per_unit"`
}

// Recompute refreshes UnitCost from Cost and Quantity. A zero quantity
// yields a zero unit cost.
func (e *StockEntry) Recompute() {
	if e.Quantity.IsPositive() {
		e.UnitCost = e.Cost.Div(e.Quantity)
	} else {
		e.UnitCost = decimal.Zero
	}
}

// IntakeRecord is the immutable history row written once per intake call.
// UnitPrice is the transaction-local price/quantity, distinct from the
// ledger's blended UnitCost.
type IntakeRecord struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Product   string          `json:"product"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	UnitPrice decimal.Decimal `json:"price_per_unit"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaleRecord is the immutable fact written once per successful sale.
type SaleRecord struct {
	ID         string          `json:"id"`
	Category   string          `json:"category"`
	Product    string          `json:"product"`
	Quantity   decimal.Decimal `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	SoldAt     time.Time       `json:"sold_at"`
}

// Settlement is the atomic outcome of debiting the ledger for one sale.
type Settlement struct {
	Sale        SaleRecord
	Entry       StockEntry      // post-sale balance
	PreQuantity decimal.Decimal // balance before this sale
}

type IntakeRequest struct {
	Category string      `json:"category"`
	Product  string      `json:"product"`
	Quantity json.Number `json:"quantity"`
	Price    json.Number `json:"price"`
}

type IntakeResponse struct {
	Message string     `json:"message"`
	Entry   StockEntry `json:"entry"`
}

type SellRequest struct {
	Category string      `json:"category"`
	Product  string      `json:"product"`
	Quantity json.Number `json:"quantity"`
}

// SaleResult is the single atomic outcome returned by the sale engine.
type SaleResult struct {
	Message           string          `json:"message"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	StockAlert        bool            `json:"stock_alert"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
}

// SaleHistoryItem matches the legacy sale-history wire shape.
type SaleHistoryItem struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt string          `json:"created_at"`
}

// SalesReportRow is one aggregated (category, product) line of the
// date-range sales report.
type SalesReportRow struct {
	Product    string          `json:"product"`
	Category   string          `json:"category"`
	Quantity   decimal.Decimal `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// ProfitLossSnapshot is the derived daily view: proceeds booked today,
// cost of stock loaded today, and value still sitting in today's ledger.
type ProfitLossSnapshot struct {
	TotalSale      decimal.Decimal `json:"total_sale"`
	LoadedStock    decimal.Decimal `json:"loaded_stock"`
	RemainingStock decimal.Decimal `json:"remaining_stock"`
}

type ProfitLossEntry struct {
	Date           string          `json:"date"`
	TotalSale      decimal.Decimal `json:"total_sale"`
	LoadedStock    decimal.Decimal `json:"loaded_stock"`
	RemainingStock decimal.Decimal `json:"remaining_stock"`
	DailyExpense   decimal.Decimal `json:"daily_expense"`
	ProfitOrLoss   decimal.Decimal `json:"profit_or_loss"`
}

type Product struct {
	Category   string           `json:"category"`
	Name       string           `json:"name"`
	PricePerKg *decimal.Decimal `json:"price_per_kg,omitempty"`
}

type CategoryCreateRequest struct {
	Category string `json:"category"`
}

type ProductCreateRequest struct {
	Category string `json:"category"`
	Product  string `json:"product"`
}

type SetPriceRequest struct {
	Category string      `json:"category"`
	Product  string      `json:"product"`
	Price    json.Number `json:"price"`
}

type SellerAccount struct {
	ID          string `json:"id"`
	SellerName  string `json:"sellerName"`
	PhoneNumber string `json:"phoneNumber"`
	VehicleID   string `json:"vehicleId"`
	DriverName  string `json:"driverName"`
}

type Vehicle struct {
	VehicleID       string      `json:"vehicleID"`
	VehicleName     string      `json:"vehicleName"`
	VehicleCapacity json.Number `json:"vehicleCapacity"`
}

type Driver struct {
	DriverName    string      `json:"driverName"`
	DriverPhone   string      `json:"driverPhone"`
	DriverLicense string      `json:"driverLicense"`
	DailyWages    json.Number `json:"dailyWages"`
}

// FleetEntry pairs one vehicle with its driver. The legacy API shipped
// these as free-form nested dicts; they are structured types here.
type FleetEntry struct {
	ID      string  `json:"id"`
	Vehicle Vehicle `json:"vehicle"`
	Driver  Driver  `json:"driver"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	CreatedAt time.Time
}
