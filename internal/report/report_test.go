package report

import (
	"testing"
	"time"

	"sweet-heaven/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var now = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func at(d, h int) time.Time {
	return time.Date(2025, 1, d, h, 0, 0, 0, time.UTC)
}

func sampleOrders() []model.Order {
	return []model.Order{
		{ID: "1", Status: model.StatusDelivered, Total: 245, CreatedAt: at(15, 9), Items: []model.OrderItem{
			{ProductID: 1, Name: "Croissant", Price: 100, Quantity: 2},
			{ProductID: 2, Name: "Eclair", Price: 45, Quantity: 1},
		}},
		{ID: "2", Status: model.StatusPending, Total: 135, CreatedAt: at(15, 9), Items: []model.OrderItem{
			{ProductID: 2, Name: "Eclair", Price: 45, Quantity: 3},
		}},
		{ID: "3", Status: model.StatusShipping, Total: 35, CreatedAt: at(13, 23), Items: []model.OrderItem{
			{ProductID: 3, Name: "Baguette", Price: 35, Quantity: 1},
		}},
		{ID: "4", Status: model.StatusConfirmed, Total: 70, CreatedAt: at(2, 8), Items: []model.OrderItem{
			{ProductID: 3, Name: "Baguette", Price: 35, Quantity: 2},
		}},
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodWeek, false},
		{"day", PeriodDay, false},
		{"week", PeriodWeek, false},
		{"month", PeriodMonth, false},
		{"year", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriod_Start(t *testing.T) {
	sunday := time.Date(2025, 1, 19, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), PeriodDay.Start(now))
	assert.Equal(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), PeriodWeek.Start(now))
	assert.Equal(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), PeriodWeek.Start(sunday))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), PeriodMonth.Start(now))
}

func TestTopProducts(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		limit  int
		want   []model.TopProduct
	}{
		{"Day", PeriodDay, 5, []model.TopProduct{
			{ProductID: 2, Name: "Eclair", Quantity: 4, Revenue: 180},
			{ProductID: 1, Name: "Croissant", Quantity: 2, Revenue: 200},
		}},
		{"Week", PeriodWeek, 5, []model.TopProduct{
			{ProductID: 2, Name: "Eclair", Quantity: 4, Revenue: 180},
			{ProductID: 1, Name: "Croissant", Quantity: 2, Revenue: 200},
			{ProductID: 3, Name: "Baguette", Quantity: 1, Revenue: 35},
		}},
		{"Month ties by ID", PeriodMonth, 5, []model.TopProduct{
			{ProductID: 2, Name: "Eclair", Quantity: 4, Revenue: 180},
			{ProductID: 3, Name: "Baguette", Quantity: 3, Revenue: 105},
			{ProductID: 1, Name: "Croissant", Quantity: 2, Revenue: 200},
		}},
		{"Limit", PeriodMonth, 1, []model.TopProduct{
			{ProductID: 2, Name: "Eclair", Quantity: 4, Revenue: 180},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopProducts(sampleOrders(), tt.period, tt.limit, now))
		})
	}
}

func TestTopProducts_DefaultLimit(t *testing.T) {
	var orders []model.Order
	for i := range 8 {
		orders = append(orders, model.Order{CreatedAt: now, Items: []model.OrderItem{{ProductID: int64(i + 1), Quantity: 1}}})
	}

	assert.Len(t, TopProducts(orders, PeriodDay, 0, now), DefaultTopLimit)
	assert.Empty(t, TopProducts(nil, PeriodDay, 0, now))
}

func TestSalesByHour(t *testing.T) {
	rows := SalesByHour(sampleOrders(), now)

	require.Len(t, rows, 24)
	assert.Equal(t, "00:00", rows[0].Hour)
	assert.Equal(t, "23:00", rows[23].Hour)
	assert.Equal(t, model.HourlySales{Hour: "09:00", Total: 380, Orders: 2}, rows[9])
	assert.Equal(t, 0, rows[23].Orders)
}

func TestSalesByHour_UsesDayLocation(t *testing.T) {
	ict := time.FixedZone("ICT", 7*3600)
	day := time.Date(2025, 1, 14, 0, 0, 0, 0, ict)

	rows := SalesByHour(sampleOrders(), day)

	// 2025-01-13 23:00 UTC is 06:00 on the 14th in ICT.
	assert.Equal(t, 1, rows[6].Orders)
	assert.Equal(t, 35.0, rows[6].Total)
}

func TestSalesByDay(t *testing.T) {
	rows := SalesByDay(sampleOrders(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, []model.DailySales{
		{Date: "2025-01-02", Total: 70, Orders: 1},
		{Date: "2025-01-13", Total: 35, Orders: 1},
		{Date: "2025-01-15", Total: 380, Orders: 2},
	}, rows)
}

func TestSummary(t *testing.T) {
	summary := Summary(sampleOrders())

	assert.Equal(t, 4, summary.Orders)
	assert.Equal(t, 485.0, summary.Revenue)
	assert.Equal(t, 1, summary.ByStatus[model.StatusPending])
	assert.Equal(t, 1, summary.ByStatus[model.StatusDelivered])
	assert.Equal(t, 0, summary.ByStatus[model.OrderStatus("cancelled")])
}
