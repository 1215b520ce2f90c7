package models

import "time"

// PriceQuery holds the filter criteria for one kg-price calculation.
// Material and Supplier are substrings; Supplier may be empty.
type PriceQuery struct {
	Material         string
	Supplier         string
	StartDate        string
	EndDate          string
	MaterialGroupMin int
	MaterialGroupMax int
}

// PriceRecord is one historical purchase transaction.
type PriceRecord struct {
	OrderNo       string    `json:"order_no"`
	ArticleNo     string    `json:"article_no"`
	Description   string    `json:"description"`
	MaterialGroup int       `json:"material_group"`
	SizeClass     string    `json:"size_class"`
	Weight        float64   `json:"weight"`
	Quantity      float64   `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	SupplierNo    string    `json:"supplier_no"`
	OrderDate     time.Time `json:"order_date"`
}

// KgPrice is the unit price divided by the article weight.
func (r PriceRecord) KgPrice() float64 {
	return r.UnitPrice / r.Weight
}

type Match struct {
	ArticleNo string `json:"article_no"`
	SizeClass string `json:"size_class"`
}

// AggregationResult is the outcome of averaging kg-prices.
// AverageKgPrice is nil when Count is zero.
type AggregationResult struct {
	AverageKgPrice *float64 `json:"average_kg_price"`
	Count          int      `json:"count"`
	Matches        []Match  `json:"matches"`
}

// ArticleNumbers returns the matched article numbers in result order.
func (r AggregationResult) ArticleNumbers() []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.ArticleNo
	}
	return out
}

// SizeClasses returns the matched size classes in result order.
func (r AggregationResult) SizeClasses() []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.SizeClass
	}
	return out
}
