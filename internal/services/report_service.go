package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

const performanceSheet = "Performance Report"

// PerformanceRow is one user's task throughput
type PerformanceRow struct {
	UserID             uint64      `json:"user_id"`
	Name               string      `json:"name"`
	Role               models.Role `json:"role"`
	TotalTasks         int         `json:"total_tasks"`
	CompletedTasks     int         `json:"completed_tasks"`
	CompletionRate     float64     `json:"completion_rate"`
	AverageTimeMinutes float64     `json:"average_time_minutes"`
}

// ReportService builds performance reports for admins and leaders.
type ReportService struct {
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	taskRepo       repository.TaskRepository
}

// NewReportService creates a new ReportService
func NewReportService(
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	taskRepo repository.TaskRepository,
) *ReportService {
	return &ReportService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		taskRepo:       taskRepo,
	}
}

// Performance reports every leader and employee for admins, and the
// leader plus their team for leaders.
func (s *ReportService) Performance(actor *models.User) ([]PerformanceRow, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin, models.RoleLeader); err != nil {
		return nil, err
	}

	users, err := s.reportUsers(actor)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListForReport()
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	type tally struct {
		total, completed, timed int
		minutes                 float64
	}
	tallies := make(map[uint64]*tally, len(users))
	for _, u := range users {
		tallies[u.ID] = &tally{}
	}
	for _, task := range tasks {
		for _, userID := range task.AssigneeIDs() {
			t, ok := tallies[userID]
			if !ok {
				continue
			}
			t.total++
			if task.Status != models.TaskStatusCompleted {
				continue
			}
			t.completed++
			if task.CompletedAt != nil {
				t.timed++
				t.minutes += task.CompletedAt.Sub(task.CreatedAt).Minutes()
			}
		}
	}

	rows := make([]PerformanceRow, 0, len(users))
	for _, u := range users {
		t := tallies[u.ID]
		row := PerformanceRow{
			UserID:         u.ID,
			Name:           u.Name,
			Role:           u.Role,
			TotalTasks:     t.total,
			CompletedTasks: t.completed,
		}
		if t.total > 0 {
			row.CompletionRate = round2(float64(t.completed) / float64(t.total) * 100)
		}
		if t.timed > 0 {
			row.AverageTimeMinutes = round2(t.minutes / float64(t.timed))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PerformanceWorkbook renders the performance report as an xlsx file
func (s *ReportService) PerformanceWorkbook(actor *models.User) (*bytes.Buffer, error) {
	rows, err := s.Performance(actor)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", performanceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Name", "Role", "Total Tasks", "Completed Tasks", "Completion Rate", "Average Time (Minutes)"}
	if err := f.SetSheetRow(performanceSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.Name,
			string(row.Role),
			row.TotalTasks,
			row.CompletedTasks,
			fmt.Sprintf("%.2f%%", row.CompletionRate),
			fmt.Sprintf("%.2f", row.AverageTimeMinutes),
		}
		if err := f.SetSheetRow(performanceSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

func (s *ReportService) reportUsers(actor *models.User) ([]models.User, error) {
	if actor.Role == models.RoleLeader {
		memberships, err := s.membershipRepo.ListByLeader(actor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list team: %w", err)
		}
		users := []models.User{*actor}
		for _, m := range memberships {
			users = append(users, m.User)
		}
		return users, nil
	}

	all, err := s.userRepo.List(repository.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]models.User, 0, len(all))
	for _, u := range all {
		if u.Role == models.RoleLeader || u.Role == models.RoleEmployee {
			users = append(users, u)
		}
	}
	return users, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
