package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/email"
	"github.com/yukikurage/teamtask-api/internal/realtime"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/testutil"
	"gorm.io/gorm"
)

const (
	testAdminKey  = "admin-key"
	testLeaderKey = "leader-key"
)

type published struct {
	Rooms []string
	Event realtime.Event
}

// recordingPublisher captures every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, rooms []string, event realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Rooms: rooms, Event: event})
}

func (p *recordingPublisher) byType(eventType string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db            *gorm.DB
	publisher     *recordingPublisher
	users         repository.UserRepository
	projects      repository.ProjectRepository
	memberships   repository.MembershipRepository
	tasks         repository.TaskRepository
	notifications repository.NotificationRepository

	auth          *AuthService
	notifier      *NotificationService
	projectSvc    *ProjectService
	membershipSvc *MembershipService
	taskSvc       *TaskService
	userSvc       *UserService
	reportSvc     *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	env := &testEnv{
		db:            db,
		publisher:     &recordingPublisher{},
		users:         repository.NewUserRepository(db),
		projects:      repository.NewProjectRepository(db),
		memberships:   repository.NewMembershipRepository(db),
		tasks:         repository.NewTaskRepository(db),
		notifications: repository.NewNotificationRepository(db),
	}

	renderer, err := email.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	env.auth = NewAuthService(env.users, auth.NewTokenManager("test-secret", time.Hour),
		email.NewLogMailer(nil), renderer, AuthSettings{
			AdminAccessKey:  testAdminKey,
			LeaderAccessKey: testLeaderKey,
			FrontendURL:     "http://localhost:5173",
		}, nil)
	env.notifier = NewNotificationService(env.notifications, env.publisher, nil)
	env.projectSvc = NewProjectService(env.projects, env.users, env.memberships, env.publisher)
	env.membershipSvc = NewMembershipService(env.projects, env.users, env.memberships, env.notifier, env.publisher)
	env.taskSvc = NewTaskService(env.tasks, env.projects, env.users, NewAccessPolicy(env.memberships),
		env.notifier, env.publisher, nil, nil)
	env.userSvc = NewUserService(env.users, env.projects, env.memberships, env.tasks)
	env.reportSvc = NewReportService(env.users, env.memberships, env.tasks)
	return env
}
