package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope selects which orders an identity sees.
type Scope string

const (
	ScopeCustomer Scope = "customer"
	ScopeOwner    Scope = "owner"
)

// User is the identity behind a session.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified int    `json:"is_verified"`
}

// Verified reports whether the account finished OTP verification.
func (u User) Verified() bool {
	return u.IsVerified == 1
}

// IsOwner reports whether the user manages shops. Students and teachers are
// customers; every other role owns shops.
func (u User) IsOwner() bool {
	return u.Role != "student" && u.Role != "teacher"
}

// Scope returns the order scope of the user.
func (u User) Scope() Scope {
	if u.IsOwner() {
		return ScopeOwner
	}
	return ScopeCustomer
}

// ShopDashboard is the revenue report of one shop.
type ShopDashboard struct {
	ShopDetails      ShopSummary      `json:"shopDetails"`
	Revenue          decimal.Decimal  `json:"revenue"`
	TopSellingItems  []ItemSales      `json:"topSellingItems"`
	RecentOrders     []Order          `json:"recentOrders"`
	RevenueOverTime  []RevenuePoint   `json:"revenueOverTime"`
	CustomerInsights CustomerInsights `json:"customerInsights"`
}

// ShopSummary holds headline counters of a shop.
type ShopSummary struct {
	Name              string          `json:"name"`
	TotalOrders       int             `json:"total_orders"`
	TotalMenuItems    int             `json:"total_menu_items"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// ItemSales is a top-selling item entry.
type ItemSales struct {
	Name         string          `json:"name"`
	TotalSold    int             `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// RevenuePoint is one bucket of the revenue series.
type RevenuePoint struct {
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// CustomerInsights summarises the customer base of a shop.
type CustomerInsights struct {
	TotalCustomers    int `json:"total_customers"`
	RepeatCustomers   int `json:"repeat_customers"`
	NewCustomersMonth int `json:"new_customers_this_month"`
}
