package services

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/teamtask-api/internal/metrics"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

// Issue kinds found by Reconcile
const (
	IssueInvalidMember     = "invalid_member"
	IssueDomainMismatch    = "domain_mismatch"
	IssueAssigneeNotOnTeam = "assignee_not_on_team"
)

// ReconcileIssue describes one inconsistency between teams and tasks
type ReconcileIssue struct {
	Kind      string `json:"kind"`
	UserID    uint64 `json:"user_id"`
	ProjectID uint64 `json:"project_id"`
	TaskID    uint64 `json:"task_id,omitempty"`
	Detail    string `json:"detail"`
	Fixed     bool   `json:"fixed"`
}

// ReconcileService audits memberships and assignments for operators.
type ReconcileService struct {
	membershipRepo repository.MembershipRepository
	taskRepo       repository.TaskRepository
	logger         *slog.Logger
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(membershipRepo repository.MembershipRepository, taskRepo repository.TaskRepository, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		membershipRepo: membershipRepo,
		taskRepo:       taskRepo,
		logger:         logger,
	}
}

// Reconcile lists memberships held by anything other than an active
// employee, memberships whose employee works in a different domain, and
// assignments on leader-created tasks to users outside the project team.
// With fix set, invalid memberships are removed with their task cascade and
// stray assignees are pulled from their tasks. Domain mismatches are only reported.
func (s *ReconcileService) Reconcile(fix bool) ([]ReconcileIssue, error) {
	memberships, err := s.membershipRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	issues := make([]ReconcileIssue, 0)
	for _, m := range memberships {
		switch {
		case m.User.ID == 0 || m.User.Role != models.RoleEmployee || !m.User.IsActive:
			issue := ReconcileIssue{
				Kind:      IssueInvalidMember,
				UserID:    m.UserID,
				ProjectID: m.ProjectID,
				Detail:    "member is not an active employee",
			}
			if fix {
				_, err := s.membershipRepo.RemoveWithCascade(m.ProjectID, m.UserID)
				metrics.ObserveCascade("reconcile_member", err)
				if err != nil {
					return issues, fmt.Errorf("failed to remove member %d: %w", m.UserID, err)
				}
				issue.Fixed = true
			}
			issues = append(issues, issue)
		case m.User.DomainValue() != m.Project.Domain:
			issues = append(issues, ReconcileIssue{
				Kind:      IssueDomainMismatch,
				UserID:    m.UserID,
				ProjectID: m.ProjectID,
				Detail:    fmt.Sprintf("employee domain %q differs from project domain %q", m.User.DomainValue(), m.Project.Domain),
			})
		}
	}

	stray, err := s.taskRepo.ListAssignmentsOutsideTeam()
	if err != nil {
		return issues, fmt.Errorf("failed to list assignments: %w", err)
	}
	for _, a := range stray {
		issue := ReconcileIssue{
			Kind:      IssueAssigneeNotOnTeam,
			UserID:    a.UserID,
			ProjectID: a.Task.ProjectID,
			TaskID:    a.TaskID,
			Detail:    "assignee is not on the project team",
		}
		if fix {
			if err := s.pullAssignee(a.TaskID, a.UserID); err != nil {
				return issues, err
			}
			issue.Fixed = true
		}
		issues = append(issues, issue)
	}

	s.logger.Info("reconcile finished", slog.Int("issues", len(issues)), slog.Bool("fix", fix))
	return issues, nil
}

// pullAssignee removes userID from a task, deleting the task if nobody is left
func (s *ReconcileService) pullAssignee(taskID, userID uint64) error {
	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		return fmt.Errorf("failed to find task %d: %w", taskID, err)
	}

	remaining := make([]uint64, 0, len(task.Assignments))
	for _, id := range task.AssigneeIDs() {
		if id != userID {
			remaining = append(remaining, id)
		}
	}

	if len(remaining) == 0 {
		if err := s.taskRepo.Delete(taskID); err != nil {
			return fmt.Errorf("failed to delete task %d: %w", taskID, err)
		}
		return nil
	}

	task.Assignments = nil
	if _, err := s.taskRepo.Update(repository.TaskUpdate{Task: task, AssigneeIDs: remaining}); err != nil {
		return fmt.Errorf("failed to update task %d: %w", taskID, err)
	}
	return nil
}
