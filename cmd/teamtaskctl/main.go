package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/config"
	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/email"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/services"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	fixIssues bool
	olderThan time.Duration

	adminName     string
	adminEmail    string
	adminPassword string
)

func init() {
	reconcileCmd.Flags().BoolVar(&fixIssues, "fix", false, "Repair the issues that can be fixed automatically")
	purgeCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Delete notifications older than this (defaults to NOTIFICATION_RETENTION)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "Admin display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(createAdminCmd)
}

var rootCmd = &cobra.Command{
	Use:           "teamtaskctl",
	Short:         "teamtaskctl is the operator CLI for the TeamTask API",
	Long:          `teamtaskctl runs migrations, audits team and task consistency and performs maintenance on the TeamTask database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logger = cfg.NewLogger()
		slog.SetDefault(logger)
		return database.Connect(cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema migrated successfully")
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Report (and optionally fix) inconsistent team memberships and task assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := database.GetDB()
		reconciler := services.NewReconcileService(
			repository.NewMembershipRepository(db),
			repository.NewTaskRepository(db),
			logger,
		)

		issues, err := reconciler.Reconcile(fixIssues)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(issues); err != nil {
			return err
		}

		fixed := 0
		for _, issue := range issues {
			if issue.Fixed {
				fixed++
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d issue(s) found, %d fixed\n", len(issues), fixed)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge-notifications",
	Short: "Delete notifications past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := olderThan
		if retention <= 0 {
			retention = cfg.NotificationRetention
		}

		notifications := services.NewNotificationService(repository.NewNotificationRepository(database.GetDB()), nil, logger)
		count, err := notifications.Purge(retention)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d notification(s) older than %s\n", count, retention)
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Bootstrap an admin account",
	Long:  `Create an admin account using ADMIN_ACCESS_KEY as its access key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.AdminAccessKey == "" {
			return errors.New("ADMIN_ACCESS_KEY must be set")
		}

		authService := services.NewAuthService(
			repository.NewUserRepository(database.GetDB()),
			auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry),
			email.NewLogMailer(logger),
			nil,
			services.AuthSettings{AdminAccessKey: cfg.AdminAccessKey},
			logger,
		)

		user, _, err := authService.Register(services.RegisterInput{
			Name:      adminName,
			Email:     adminEmail,
			Password:  adminPassword,
			Role:      models.RoleAdmin,
			AccessKey: cfg.AdminAccessKey,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", user.Email, user.ID)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
