// Package analytics summarizes a branch's sales for managers.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

// Service handles analytics operations
type Service struct {
	db *DB
}

func NewService(db *DB) *Service {
	return &Service{db: db}
}

// BranchSales is the sales summary of one branch over a period. Revenue
// counts served and completed orders by creation date.
type BranchSales struct {
	BranchID       string                     `json:"branch_id"`
	From           time.Time                  `json:"from"`
	To             time.Time                  `json:"to"`
	OrdersByStatus map[models.OrderStatus]int `json:"orders_by_status"`
	Revenue        decimal.Decimal            `json:"revenue"`
	BySource       map[string]decimal.Decimal `json:"revenue_by_source"`
	DailySales     []DailySalesMetrics        `json:"daily_sales"`
	TopItems       []ItemSales                `json:"top_items"`
	KitchenTimes   []KitchenTiming            `json:"kitchen_times"`
}

// DailySalesMetrics contains metrics for a single day
type DailySalesMetrics struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ItemSales struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// KitchenTiming is the average preparing→prepared time of one screen.
type KitchenTiming struct {
	ScreenID       string  `json:"screen_id"`
	Prepared       int     `json:"prepared"`
	AvgPrepSeconds float64 `json:"avg_prep_seconds"`
}

const maxTopItems = 10

func (s *Service) BranchSales(ctx context.Context, p *rbac.Principal, branchID string, from, to time.Time) (*BranchSales, error) {
	if err := rbac.Require(p, rbac.PermReportsView); err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, branchID); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, utils.NewValidationError("to", "to must be after from")
	}

	counts, err := s.db.CountByStatus(ctx, branchID, from, to)
	if err != nil {
		return nil, err
	}
	orders, err := s.db.SoldOrders(ctx, branchID, from, to)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.db.ItemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.PreparedStatuses(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &BranchSales{
		BranchID:       branchID,
		From:           from,
		To:             to,
		OrdersByStatus: counts,
		Revenue:        decimal.Zero,
		BySource:       make(map[string]decimal.Decimal),
		DailySales:     dailySales(orders),
		TopItems:       topItems(items, maxTopItems),
		KitchenTimes:   kitchenTimes(rows),
	}
	for _, o := range orders {
		out.Revenue = out.Revenue.Add(o.TotalAmount)
		src := string(o.SourceChannel)
		out.BySource[src] = out.BySource[src].Add(o.TotalAmount)
	}
	return out, nil
}

func dailySales(orders []models.Order) []DailySalesMetrics {
	byDay := make(map[string]*DailySalesMetrics)
	var days []string
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format("2006-01-02")
		m, ok := byDay[day]
		if !ok {
			m = &DailySalesMetrics{Date: day, Revenue: decimal.Zero}
			byDay[day] = m
			days = append(days, day)
		}
		m.Orders++
		m.Revenue = m.Revenue.Add(o.TotalAmount)
	}
	sort.Strings(days)
	out := make([]DailySalesMetrics, len(days))
	for i, d := range days {
		out[i] = *byDay[d]
	}
	return out
}

func topItems(items []models.OrderItem, limit int) []ItemSales {
	byItem := make(map[string]*ItemSales)
	for _, it := range items {
		m, ok := byItem[it.MenuItemID]
		if !ok {
			m = &ItemSales{MenuItemID: it.MenuItemID, Name: it.Name, Revenue: decimal.Zero}
			byItem[it.MenuItemID] = m
		}
		m.Quantity += it.Quantity
		m.Revenue = m.Revenue.Add(it.LineTotal())
	}
	out := make([]ItemSales, 0, len(byItem))
	for _, m := range byItem {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].MenuItemID < out[j].MenuItemID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func kitchenTimes(rows []models.OrderScreenStatus) []KitchenTiming {
	total := make(map[string]time.Duration)
	count := make(map[string]int)
	for _, r := range rows {
		d := r.PreparedAt.Sub(*r.PreparingStartedAt)
		if d < 0 {
			continue
		}
		total[r.BranchScreenID] += d
		count[r.BranchScreenID]++
	}
	out := make([]KitchenTiming, 0, len(count))
	for id, n := range count {
		out = append(out, KitchenTiming{
			ScreenID:       id,
			Prepared:       n,
			AvgPrepSeconds: (total[id] / time.Duration(n)).Seconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScreenID < out[j].ScreenID })
	return out
}
