//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hward/taskboard/internal/auth"
	"github.com/hward/taskboard/internal/database"
	"github.com/hward/taskboard/internal/database/models"
	"github.com/hward/taskboard/pkg/config"
	"github.com/hward/taskboard/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	verifier := auth.NewHSIdentityVerifier(cfg.Identity.Secret, cfg.Identity.Issuer)
	authService := auth.NewService(db, jwtService, verifier, logger)

	ctx := context.Background()

	// The first user lands in an empty system and becomes SuperAdmin;
	// the rest come in as standard users.
	identities := []auth.Identity{
		{UID: "seed-admin", Email: "admin@example.com", Name: "Site Admin"},
		{UID: "seed-alice", Email: "alice@example.com", Name: "Alice Carter"},
		{UID: "seed-bob", Email: "bob@example.com", Name: "Bob Reyes"},
	}

	var users []*models.User
	for _, ident := range identities {
		user, err := authService.GetOrCreateUser(ctx, ident)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", ident.Email, err)
		}
		users = append(users, user)
		fmt.Printf("User: %s (%s)\n", user.Email, user.Role.DisplayName())
	}

	// Demo tasks spread across owners and statuses
	seedTasks := []struct {
		owner  int
		title  string
		status models.TaskStatus
	}{
		{1, "Draft onboarding checklist", models.TaskStatusOpen},
		{1, "Review Q3 roadmap", models.TaskStatusInProgress},
		{1, "Archive stale boards", models.TaskStatusCompleted},
		{2, "Set up staging environment", models.TaskStatusOpen},
		{2, "Migrate legacy exports", models.TaskStatusOnHold},
	}

	for _, st := range seedTasks {
		task := &models.Task{
			Title:   st.title,
			OwnerID: users[st.owner].ID,
		}
		task.SetStatus(st.status)

		var count int64
		db.Model(&models.Task{}).
			Where("title = ? AND owner_id = ?", st.title, task.OwnerID).
			Count(&count)
		if count > 0 {
			continue
		}

		if err := db.Create(task).Error; err != nil {
			log.Fatalf("failed to seed task %q: %v", st.title, err)
		}
		fmt.Printf("Task: %s [%s]\n", task.Title, task.Status.DisplayName())
	}

	fmt.Println("Seed complete.")
}
