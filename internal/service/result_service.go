package service

import (
	"context"

	"quiz-monitor-service/internal/models"
	"quiz-monitor-service/internal/repository"
)

// ResultService backs the pull-style API: everything the poller stored stays
// retrievable on demand, whether or not the student was connected when the
// result was detected.
type ResultService struct {
	Repo *repository.ResultRepository
}

func NewResultService(repo *repository.ResultRepository) *ResultService {
	return &ResultService{Repo: repo}
}

func (s *ResultService) GetStudentResults(ctx context.Context, studentID, courseID string) ([]models.QuizResult, error) {
	return s.Repo.FindByStudent(ctx, studentID, courseID)
}

func (s *ResultService) GetLatestResult(ctx context.Context, studentID string) (*models.QuizResult, error) {
	return s.Repo.FindLatestByStudent(ctx, studentID)
}

func (s *ResultService) GetStudentStats(ctx context.Context, studentID string) (*models.StudentStats, error) {
	results, err := s.Repo.FindByStudent(ctx, studentID, "")
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(results)
	return &stats, nil
}

// ComputeStats aggregates stored results into per-student totals. The
// average is over total points, not a mean of percentages, so a 10-point
// quiz does not weigh as much as a 100-point one.
func ComputeStats(results []models.QuizResult) models.StudentStats {
	stats := models.StudentStats{Completed: len(results)}
	for _, r := range results {
		stats.TotalPoints += r.Score
		stats.TotalPossible += r.PossiblePoints
	}
	stats.AveragePercentage = models.Percentage(stats.TotalPoints, stats.TotalPossible)
	return stats
}
