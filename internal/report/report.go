// Package report aggregates sales figures from order snapshots. Only the
// prices frozen on each order are used.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"sweet-heaven/internal/model"

	"github.com/shopspring/decimal"
)

// Period selects the reporting window of TopProducts.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// DefaultTopLimit is the number of rows TopProducts returns for limit <= 0.
const DefaultTopLimit = 5

// ParsePeriod parses a period name. An empty name means week.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodWeek, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q: must be day, week or month", s)
	}
}

// Start returns the first instant of the period containing now, in now's
// location. Weeks start on Monday.
func (p Period) Start(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodDay:
		return midnight
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return midnight.AddDate(0, 0, 1-weekday)
	}
}

// TopProducts ranks products by units sold in orders created since the
// start of period. Ties are broken by product ID.
func TopProducts(orders []model.Order, period Period, limit int, now time.Time) []model.TopProduct {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	start := period.Start(now)

	type tally struct {
		row     model.TopProduct
		revenue decimal.Decimal
	}
	byProduct := map[int64]*tally{}
	for _, o := range orders {
		if o.CreatedAt.Before(start) {
			continue
		}
		for _, item := range o.Items {
			t, ok := byProduct[item.ProductID]
			if !ok {
				t = &tally{row: model.TopProduct{ProductID: item.ProductID, Name: item.Name}}
				byProduct[item.ProductID] = t
			}
			t.row.Quantity += item.Quantity
			t.revenue = t.revenue.Add(itemRevenue(item))
		}
	}

	rows := make([]model.TopProduct, 0, len(byProduct))
	for _, t := range byProduct {
		t.row.Revenue = t.revenue.InexactFloat64()
		rows = append(rows, t.row)
	}
	slices.SortFunc(rows, func(a, b model.TopProduct) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// SalesByHour buckets the orders created on day into 24 rows, 00:00 to
// 23:00. Hours without orders are present with zero totals.
func SalesByHour(orders []model.Order, day time.Time) []model.HourlySales {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var totals [24]decimal.Decimal
	var counts [24]int
	for _, o := range orders {
		created := o.CreatedAt.In(day.Location())
		if created.Before(start) || !created.Before(end) {
			continue
		}
		h := created.Hour()
		totals[h] = totals[h].Add(decimal.NewFromFloat(o.Total))
		counts[h]++
	}

	rows := make([]model.HourlySales, 24)
	for h := range rows {
		rows[h] = model.HourlySales{
			Hour:   fmt.Sprintf("%02d:00", h),
			Total:  totals[h].InexactFloat64(),
			Orders: counts[h],
		}
	}
	return rows
}

// SalesByDay aggregates orders per calendar day between from and to,
// both inclusive. Days without orders are omitted.
func SalesByDay(orders []model.Order, from, to time.Time) []model.DailySales {
	loc := from.Location()
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	type tally struct {
		total  decimal.Decimal
		orders int
	}
	byDay := map[string]*tally{}
	for _, o := range orders {
		created := o.CreatedAt.In(loc)
		if created.Before(start) || !created.Before(end) {
			continue
		}
		key := created.Format(time.DateOnly)
		t, ok := byDay[key]
		if !ok {
			t = &tally{}
			byDay[key] = t
		}
		t.total = t.total.Add(decimal.NewFromFloat(o.Total))
		t.orders++
	}

	rows := make([]model.DailySales, 0, len(byDay))
	for date, t := range byDay {
		rows = append(rows, model.DailySales{Date: date, Total: t.total.InexactFloat64(), Orders: t.orders})
	}
	slices.SortFunc(rows, func(a, b model.DailySales) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return rows
}

// Summary counts orders and revenue overall and per status.
func Summary(orders []model.Order) model.SalesSummary {
	summary := model.SalesSummary{ByStatus: map[model.OrderStatus]int{}}
	revenue := decimal.Zero
	for _, o := range orders {
		summary.Orders++
		summary.ByStatus[o.Status]++
		revenue = revenue.Add(decimal.NewFromFloat(o.Total))
	}
	summary.Revenue = revenue.InexactFloat64()
	return summary
}

func itemRevenue(item model.OrderItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}
