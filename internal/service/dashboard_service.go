package service

import (
	"context"

	"github.com/stemsi/exstem-results/internal/model"
	"github.com/stemsi/exstem-results/internal/repository"
	"golang.org/x/sync/errgroup"
)

// RecentResultsLimit is how many results the dashboard's activity feed shows.
const RecentResultsLimit = 5

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	repository.SummaryCounts
	RecentResults []model.ResultRow `json:"recent_results"`
}

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo    *repository.DashboardRepository
	results *ResultService
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository, results *ResultService) *DashboardService {
	return &DashboardService{repo: repo, results: results}
}

// GetDashboardData fetches the counts and the recent activity concurrently.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	data := &DashboardData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.GetSummaryCounts(gctx)
		data.SummaryCounts = counts
		return err
	})
	g.Go(func() error {
		recent, err := s.results.Recent(gctx, RecentResultsLimit)
		data.RecentResults = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
