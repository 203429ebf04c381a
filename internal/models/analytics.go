package models

import "time"

type MonthlyTrend struct {
	MonthISO   string  `json:"month_iso"`
	MonthLabel string  `json:"month_label"`
	Revenue    float64 `json:"revenue"`
	Orders     int64   `json:"orders"`
	TS         int64   `json:"ts"`

	// BaseLabel is the label before any year suffix was appended.
	BaseLabel string `json:"-"`
}

// Time returns the UTC month start the record was resolved to.
func (m MonthlyTrend) Time() time.Time {
	return time.UnixMilli(m.TS).UTC()
}

func (m MonthlyTrend) Year() int {
	return m.Time().Year()
}

type YearlyRollup struct {
	Year  string  `json:"year"`
	Q1    float64 `json:"q1"`
	Q2    float64 `json:"q2"`
	Q3    float64 `json:"q3"`
	Q4    float64 `json:"q4"`
	Total float64 `json:"total"`
}

type CategoryPerformance struct {
	Category     string  `json:"product_category_name"`
	TotalRevenue float64 `json:"total_revenue"`
	ItemsSold    int64   `json:"items_sold"`
	AvgPrice     float64 `json:"avg_price"`
}

type PaymentMethodCount struct {
	PaymentType string `json:"payment_type"`
	Count       int64  `json:"count"`
}

type CustomerState struct {
	State     string  `json:"state"`
	Customers int64   `json:"customers"`
	Revenue   float64 `json:"revenue"`
	Sellers   int64   `json:"sellers"`
}

type ProductSummary struct {
	ProductID   string  `json:"product_id"`
	Category    string  `json:"product_category_name"`
	DisplayName string  `json:"product_display_name"`
	Revenue     float64 `json:"revenue"`
	UnitsSold   int64   `json:"units_sold"`
	AvgPrice    float64 `json:"avg_price"`
	SellerCount int64   `json:"seller_count"`
}

type ProductRef struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Revenue     float64 `json:"revenue"`
	Units       int64   `json:"units"`
}

type StateAnalysis struct {
	State          string       `json:"state"`
	TotalRevenue   float64      `json:"total_revenue"`
	TotalCustomers int64        `json:"total_customers"`
	TotalSellers   int64        `json:"total_sellers"`
	TopProduct     *ProductRef  `json:"top_product"`
	AllProducts    []ProductRef `json:"all_products"`
}

type SellerPerformance struct {
	SellerID       string  `json:"seller_id"`
	City           string  `json:"seller_city"`
	State          string  `json:"seller_state"`
	TotalOrders    int64   `json:"total_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
	UniqueProducts int64   `json:"unique_products"`
	AvgItemPrice   float64 `json:"avg_item_price"`
}

// SellerStateSummary groups sellers by the state they ship from.
type SellerStateSummary struct {
	State   string  `json:"state"`
	Sellers int     `json:"sellers"`
	Revenue float64 `json:"revenue"`
}

type OverallSummary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalOrders    int64   `json:"total_orders"`
	TotalCustomers int64   `json:"total_customers"`
	AvgOrderValue  float64 `json:"avg_order_value"`
}

// ViewModel is everything the presentation layer reads. It is rebuilt
// wholesale on every load and every year selection; collections are never nil.
type ViewModel struct {
	Overall             OverallSummary        `json:"overall"`
	MonthlyTrends       []MonthlyTrend        `json:"monthly_trends"`
	YearlyRollups       []YearlyRollup        `json:"yearly_rollups"`
	AvailableYears      []int                 `json:"available_years"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
	PaymentMethods      []PaymentMethodCount  `json:"payment_methods"`
	CustomersByState    []CustomerState       `json:"customers_by_state"`
	TopProducts         []ProductSummary      `json:"top_products"`
	StateAnalysis       []StateAnalysis       `json:"state_analysis"`
	SellerPerformance   []SellerPerformance   `json:"seller_performance"`
	SellerStates        []SellerStateSummary  `json:"seller_states"`
}

func EmptyViewModel() ViewModel {
	return ViewModel{
		MonthlyTrends:       []MonthlyTrend{},
		YearlyRollups:       []YearlyRollup{},
		AvailableYears:      []int{},
		CategoryPerformance: []CategoryPerformance{},
		PaymentMethods:      []PaymentMethodCount{},
		CustomersByState:    []CustomerState{},
		TopProducts:         []ProductSummary{},
		StateAnalysis:       []StateAnalysis{},
		SellerPerformance:   []SellerPerformance{},
		SellerStates:        []SellerStateSummary{},
	}
}
