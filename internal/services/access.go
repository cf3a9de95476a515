package services

import (
	"fmt"

	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

// AuthorizeRole returns ErrForbidden unless the user holds one of the allowed roles.
func AuthorizeRole(user *models.User, allowed ...models.Role) error {
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// CanManageProject allows admins and the project's own leader.
func CanManageProject(user *models.User, project *models.Project) error {
	if user.Role == models.RoleAdmin {
		return nil
	}
	if user.Role == models.RoleLeader && project.LeaderID == user.ID {
		return nil
	}
	return ErrForbidden
}

// CanViewProject extends CanManageProject to team members. Members must be preloaded.
func CanViewProject(user *models.User, project *models.Project) error {
	if CanManageProject(user, project) == nil {
		return nil
	}
	if user.Role == models.RoleEmployee && project.HasMember(user.ID) {
		return nil
	}
	return ErrForbidden
}

// CanEditTask allows admins and the user who assigned the task.
func CanEditTask(user *models.User, task *models.Task) error {
	if user.Role == models.RoleAdmin || task.AssignedByID == user.ID {
		return nil
	}
	return ErrForbidden
}

// CanViewTask allows admins, the assigner and every assignee. Assignments must be preloaded.
func CanViewTask(user *models.User, task *models.Task) error {
	if CanEditTask(user, task) == nil || task.IsAssignedTo(user.ID) {
		return nil
	}
	return ErrForbidden
}

// CanUpdateTaskStatus follows the read rule: assignees may move their own tasks.
func CanUpdateTaskStatus(user *models.User, task *models.Task) error {
	return CanViewTask(user, task)
}

// AccessPolicy answers capability questions that need stored state.
type AccessPolicy struct {
	memberships repository.MembershipRepository
}

// NewAccessPolicy creates a new AccessPolicy
func NewAccessPolicy(memberships repository.MembershipRepository) *AccessPolicy {
	return &AccessPolicy{memberships: memberships}
}

// CanAssignTask lets admins assign anyone; a leader may only assign users on
// the teams of projects they lead.
func (p *AccessPolicy) CanAssignTask(actor *models.User, assigneeIDs []uint64) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleLeader:
		ids := uniqueUint64(assigneeIDs)
		if len(ids) == 0 {
			return nil
		}
		count, err := p.memberships.CountReportingTo(actor.ID, ids)
		if err != nil {
			return fmt.Errorf("failed to load team: %w", err)
		}
		if int(count) != len(ids) {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
