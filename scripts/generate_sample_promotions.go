package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"sweet-heaven/internal/model"
	"sweet-heaven/internal/promotion"
)

// generateSamplePromotions writes an offline promotion snapshot.
// Run with: go run scripts/generate_sample_promotions.go [path]
//
// The snapshot holds one running promotion per window shape so the
// storefront can be exercised without the backend:
//   - current week, active
//   - current month, active, deeper discount
//   - next month (not yet started)
//   - current week but switched off
func main() {
	path := filepath.Join("data", "promotions", "promotions.jsonl.gz")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	now := time.Now()
	weekStart := model.StartOfDay(now.AddDate(0, 0, -int((now.Weekday()+6)%7)))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	promotions := []model.Promotion{
		{
			ID:          1,
			ProductID:   1,
			Name:        "Croissant week",
			Description: "15% off butter croissants all week",
			Discount:    15,
			StartDate:   weekStart,
			EndDate:     model.EndOfDay(weekStart.AddDate(0, 0, 6)),
			IsActive:    true,
		},
		{
			ID:          2,
			ProductID:   2,
			Name:        "Eclair month",
			Description: "25% off chocolate eclairs this month",
			Discount:    25,
			StartDate:   monthStart,
			EndDate:     model.EndOfDay(monthStart.AddDate(0, 1, -1)),
			IsActive:    true,
		},
		{
			ID:          3,
			ProductID:   3,
			Name:        "Cheesecake preview",
			Description: "Cheesecake launch offer",
			Discount:    30,
			StartDate:   monthStart.AddDate(0, 1, 0),
			EndDate:     model.EndOfDay(monthStart.AddDate(0, 2, -1)),
			IsActive:    true,
		},
		{
			ID:          4,
			ProductID:   4,
			Name:        "Paused tart deal",
			Description: "10% off fruit tarts",
			Discount:    10,
			StartDate:   weekStart,
			EndDate:     model.EndOfDay(weekStart.AddDate(0, 0, 6)),
			IsActive:    false,
		},
	}

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()

	if err := promotion.WriteSnapshot(file, promotions); err != nil {
		log.Fatalf("Failed to write snapshot: %v", err)
	}

	fmt.Printf("Created %s with %d promotions\n", path, len(promotions))
	for _, p := range promotions {
		fmt.Printf("  - #%d product %d, %d%% off, %s to %s, active=%t\n",
			p.ID, p.ProductID, p.Discount,
			p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly), p.IsActive)
	}
}
