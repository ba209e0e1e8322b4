package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// SummaryCounts holds the dashboard's headline numbers.
type SummaryCounts struct {
	Classes  int `json:"total_classes"`
	Subjects int `json:"total_subjects"`
	Exams    int `json:"total_exams"`
	Results  int `json:"total_results"`
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (SummaryCounts, error) {
	var c SummaryCounts
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM classes),
			(SELECT COUNT(*) FROM subjects),
			(SELECT COUNT(*) FROM exams),
			(SELECT COUNT(*) FROM results)`,
	).Scan(&c.Classes, &c.Subjects, &c.Exams, &c.Results)
	return c, err
}
