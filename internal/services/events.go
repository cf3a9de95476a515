package services

import (
	"context"

	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/realtime"
)

// Realtime actions
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
	ActionDeleted       = "deleted"
	ActionCommented     = "commented"
	ActionMemberAdded   = "member_added"
	ActionMemberRemoved = "member_removed"
)

// taskRooms addresses a task event to admins, the assigner and every assignee.
func taskRooms(task *models.Task, extraUsers ...uint64) []string {
	rooms := []string{realtime.AdminRoom, realtime.UserRoom(task.AssignedByID)}
	for _, id := range task.AssigneeIDs() {
		rooms = append(rooms, realtime.UserRoom(id))
	}
	for _, id := range extraUsers {
		rooms = append(rooms, realtime.UserRoom(id))
	}
	return rooms
}

func projectRooms(projectID, leaderID uint64, memberIDs ...uint64) []string {
	rooms := []string{realtime.AdminRoom, realtime.ProjectRoom(projectID), realtime.UserRoom(leaderID)}
	for _, id := range memberIDs {
		rooms = append(rooms, realtime.UserRoom(id))
	}
	return rooms
}

func publish(ctx context.Context, publisher realtime.Publisher, rooms []string, event realtime.Event) {
	if publisher == nil {
		return
	}
	publisher.Publish(ctx, rooms, event)
}
