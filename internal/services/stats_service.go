// Package services – StatsService
//
// Aggregates for the admin and owner dashboards. Thin: each method composes
// one or two repo queries against the clock; no state beyond the DB handle.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/repo"
)

// StatsService serves dashboard aggregates.
type StatsService struct {
	DB *gorm.DB

	// Now anchors "today"; overridable in tests.
	Now func() time.Time
}

// NewStatsService constructs a StatsService with the real clock.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db, Now: time.Now}
}

// DailyReport is the admin dashboard's daily summary.
type DailyReport struct {
	Date        string             `json:"date"`
	Totals      *repo.DailyStats   `json:"totals"`
	ByStatus    []repo.StatusCount `json:"by_status"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Daily builds today's summary with the per-status breakdown.
func (s *StatsService) Daily(ctx context.Context) (*DailyReport, error) {
	now := s.Now().UTC()
	totals, err := repo.DailyOrderStats(ctx, s.DB, now)
	if err != nil {
		return nil, err
	}
	byStatus, err := repo.StatusCounts(ctx, s.DB, now)
	if err != nil {
		return nil, err
	}
	return &DailyReport{
		Date:        now.Format("2006-01-02"),
		Totals:      totals,
		ByStatus:    byStatus,
		GeneratedAt: now,
	}, nil
}

// AllTime returns the lifetime summary for the owner dashboard.
func (s *StatsService) AllTime(ctx context.Context) (*repo.AllTimeStats, error) {
	return repo.AllTimeOrderStats(ctx, s.DB)
}

// PickupReport is the admin dashboard's pickup view: today's aggregates plus
// the latest pickup orders awaiting hand-off.
type PickupReport struct {
	Date    string            `json:"date"`
	Totals  *repo.PickupStats `json:"totals"`
	Recent  []OrderView       `json:"recent"`
	RecentN int               `json:"recent_count"`
}

// Pickup builds today's pickup summary with the most recent pickup orders.
func (s *StatsService) Pickup(ctx context.Context, recentLimit int) (*PickupReport, error) {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	now := s.Now().UTC()
	totals, err := repo.PickupOrderStats(ctx, s.DB, now)
	if err != nil {
		return nil, err
	}
	recent, err := repo.ListRecentPickups(ctx, s.DB, recentLimit)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(recent))
	for _, o := range recent {
		views = append(views, NewOrderView(o))
	}
	return &PickupReport{
		Date:    now.Format("2006-01-02"),
		Totals:  totals,
		Recent:  views,
		RecentN: len(views),
	}, nil
}
