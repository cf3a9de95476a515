package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type indexSpec struct {
	table   string
	name    string
	columns string
}

// secondaryIndexes are composite indexes that struct tags do not express.
var secondaryIndexes = []indexSpec{
	// Role-filtered task listings
	{"tasks", "idx_tasks_project_status", "project_id, status"},
	{"tasks", "idx_tasks_assigned_by_status", "assigned_by_id, status"},

	// Leader dashboards
	{"projects", "idx_projects_leader_status", "leader_id, status"},

	// Comment log ordering
	{"task_comments", "idx_task_comments_task_created", "task_id, created_at"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range secondaryIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			slog.Debug("index already exists, skipping", slog.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", slog.String("index", idx.name), slog.String("table", idx.table))
	}

	return nil
}

// MigrateDatabase runs post-AutoMigrate schema steps
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
