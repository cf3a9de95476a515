package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/utils"
)

var (
	// ErrMembershipExists is returned when the employee already belongs to a team.
	ErrMembershipExists = errors.New("membership repository: employee already on a team")
	// ErrEmailTaken is returned when a user row violates the unique email index.
	ErrEmailTaken = errors.New("user repository: email already registered")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by lowercased email
	FindByEmail(email string) (*models.User, error)

	// FindByEmailAndDomain finds a user by exact email and domain
	FindByEmailAndDomain(email string, domain models.Domain) (*models.User, error)

	// FindByResetTokenHash finds a user holding an unexpired reset token
	FindByResetTokenHash(hash string, now time.Time) (*models.User, error)

	// Update saves all user fields
	Update(user *models.User) error

	// List lists users matching the filter
	List(filter UserFilter) ([]models.User, error)

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ids []uint64) (int64, error)

	// DeleteWithCascade removes the user's team membership and task
	// assignments, deletes tasks left without assignees, and soft deletes the user.
	DeleteWithCascade(id uint64) (*UserDeleteResult, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Role     *models.Role
	Domain   *models.Domain
	IsActive *bool
	IDs      []uint64
}

// UserDeleteResult summarizes a user deletion cascade
type UserDeleteResult struct {
	DeletedTasks     int64
	RemovedFromTasks int64
	LeftProjectID    *uint64
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// List lists projects, optionally restricted to a leader
	List(filter ProjectFilter) ([]models.Project, error)

	// Update saves project fields
	Update(project *models.Project) error

	// DeleteWithCascade deletes the project's tasks and memberships, then the project
	DeleteWithCascade(id uint64) (*ProjectDeleteResult, error)

	// TaskProgress returns total and completed task counts per project
	TaskProgress(projectIDs []uint64) (map[uint64]TaskCounts, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	LeaderID *uint64
	IDs      []uint64
	Status   *models.ProjectStatus
}

// ProjectDeleteResult summarizes a project deletion cascade
type ProjectDeleteResult struct {
	DeletedTasks   int64
	ClearedMembers int64
	MemberIDs      []uint64
}

// TaskCounts holds total and completed task counts
type TaskCounts struct {
	Total     int64
	Completed int64
}

// MembershipRepository defines the interface for team membership data access
type MembershipRepository interface {
	// Add inserts a membership; ErrMembershipExists if the employee is already on a team
	Add(membership *models.TeamMembership) error

	// FindByUserID finds the employee's membership with its project
	FindByUserID(userID uint64) (*models.TeamMembership, error)

	// FindInLedProjects finds the membership of userID in any project led by leaderID
	FindInLedProjects(leaderID, userID uint64) (*models.TeamMembership, error)

	// ListByProject lists the members of a project
	ListByProject(projectID uint64) ([]models.TeamMembership, error)

	// ListByLeader lists the members of every project led by leaderID
	ListByLeader(leaderID uint64) ([]models.TeamMembership, error)

	// CountReportingTo counts how many of userIDs report to leaderID
	CountReportingTo(leaderID uint64, userIDs []uint64) (int64, error)

	// RemoveWithCascade deletes the member's tasks in the project and the membership
	RemoveWithCascade(projectID, userID uint64) (*MemberRemovalResult, error)

	// ListAll lists every membership with user and project
	ListAll() ([]models.TeamMembership, error)

	// Delete removes a membership row without touching tasks
	Delete(userID uint64) error
}

// MemberRemovalResult summarizes a member removal cascade
type MemberRemovalResult struct {
	DeletedTasks []models.Task
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a task and its assignments
	Create(task *models.Task, assigneeIDs []uint64) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update saves a task, optionally replacing assignees and recomputing project status
	Update(update TaskUpdate) (*ProjectStatusChange, error)

	// Delete deletes a task with its assignments, comments and attachments
	Delete(id uint64) error

	// AddComment appends a comment
	AddComment(comment *models.TaskComment) error

	// ListComments returns a task's comments oldest first
	ListComments(taskID uint64) ([]models.TaskComment, error)

	// AddAttachment records attachment metadata
	AddAttachment(attachment *models.TaskAttachment) error

	// CountAssignedBy returns total and completed counts of tasks created by userID
	CountAssignedBy(userID uint64) (TaskCounts, error)

	// ListForReport returns tasks with assignments for performance reporting
	ListForReport() ([]models.Task, error)

	// ListAssignmentsOutsideTeam lists assignments on leader-created tasks whose
	// user is not a member of the task's project
	ListAssignmentsOutsideTeam() ([]models.TaskAssignment, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID      *uint64
	AssignedByID   *uint64
	AssignedUserID *uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	// Pagination limits the page when non-nil; Offset is applied as given
	Pagination *utils.PaginationParams
}

// TaskUpdate describes a task write
type TaskUpdate struct {
	Task *models.Task
	// AssigneeIDs replaces the assignee set when non-nil
	AssigneeIDs []uint64
	// RecomputeProject re-derives the owning project's status in the same transaction
	RecomputeProject bool
}

// ProjectStatusChange reports a project status derived during a task write
type ProjectStatusChange struct {
	ProjectID uint64
	Previous  models.ProjectStatus
	Current   models.ProjectStatus
}

// Changed reports whether the derived status differs from the stored one
func (c *ProjectStatusChange) Changed() bool {
	return c != nil && c.Previous != c.Current
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	Create(notification *models.Notification) error
	List(filter NotificationFilter) ([]models.Notification, int64, error)
	CountUnread(userID uint64) (int64, error)
	MarkRead(id, userID uint64) (*models.Notification, error)
	MarkAllRead(userID uint64) (int64, error)
	Delete(id, userID uint64) (int64, error)
	DeleteRead(userID uint64) (int64, error)
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

// NotificationFilter holds filtering options for listing notifications
type NotificationFilter struct {
	UserID uint64
	Read   *bool
	Offset int
	Limit  int
}
