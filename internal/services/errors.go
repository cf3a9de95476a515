package services

import "errors"

// Authentication
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidAccessKey   = errors.New("invalid access key")
	ErrInvalidResetToken  = errors.New("reset token is invalid or has expired")
)

// Authorization
var (
	ErrForbidden = errors.New("you do not have permission to perform this action")
)

// Validation
var (
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidEmail         = errors.New("please provide a valid email address")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrInvalidRole          = errors.New("invalid role")
	ErrDomainRequired       = errors.New("domain is required for leaders and employees")
	ErrInvalidDomain        = errors.New("invalid domain")
	ErrAccessKeyRequired    = errors.New("access key is required for admins and leaders")
	ErrInvalidLeader        = errors.New("invalid leader selected")
	ErrLeaderDomain         = errors.New("leader's domain does not match project domain")
	ErrDeadlineRequired     = errors.New("deadline is required")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidDepartment    = errors.New("invalid department")
	ErrTitleRequired        = errors.New("title is required")
	ErrDescriptionRequired  = errors.New("description is required")
	ErrDueDateRequired      = errors.New("due date is required")
	ErrNoAssignees          = errors.New("at least one assignee is required")
	ErrInvalidAssignee      = errors.New("one or more assigned users do not exist")
	ErrCommentRequired      = errors.New("comment text is required")
	ErrAttachmentRequired   = errors.New("file name and url are required")
	ErrCannotDeleteSelf     = errors.New("you cannot delete your own account")
	ErrCannotDeactivateSelf = errors.New("you cannot deactivate your own account")
)

// Not found
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrLeaderNotFound       = errors.New("leader not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrMemberNotFound       = errors.New("team member not found in any of your projects")
	ErrNoSuchEmployee       = errors.New("no employee found with that email and domain")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Conflict
var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrAlreadyAssigned   = errors.New("employee is already assigned to another project")
	ErrAlreadyMember     = errors.New("employee is already a member of this project")
	ErrSelfAssignment    = errors.New("you cannot add yourself as a team member")
	ErrUserLeadsProjects = errors.New("user still leads projects; reassign or delete them first")
)

// AI drafts
var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAITextRequired         = errors.New("text is required")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)
