package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/taskpilot/taskpilot-be/internal/models"
	"github.com/taskpilot/taskpilot-be/internal/storage"
)

// TestStoreIntegration exercises the Postgres store against a live database.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION") != "true" {
		t.Skip("set RUN_DB_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	suffix := time.Now().UnixNano()
	emailA := fmt.Sprintf("itest_a_%d@example.com", suffix)
	emailB := fmt.Sprintf("itest_b_%d@example.com", suffix)

	userA, err := store.CreateUser(ctx, models.User{Email: emailA, Name: "A", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user A: %v", err)
	}
	userB, err := store.CreateUser(ctx, models.User{Email: emailB, Name: "B", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user B: %v", err)
	}

	if _, err := store.CreateUser(ctx, models.User{Email: emailA, Name: "dup", PasswordHash: "x"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate email: want ErrAlreadyExists, got %v", err)
	}

	found, err := store.FindByEmail(ctx, emailA)
	if err != nil || found.ID != userA.ID {
		t.Fatalf("find by email: got %+v, %v", found, err)
	}

	task, err := store.CreateTask(ctx, models.Task{
		Title:    "integration task",
		Status:   models.StatusPending,
		AuthorID: userA.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Author == nil || task.Author.Email != emailA {
		t.Fatalf("create task: missing author projection: %+v", task.Author)
	}

	// Ownership scoping: B cannot see, update, or delete A's task.
	if _, err := store.GetTask(ctx, task.ID, userB.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-tenant get: want ErrNotFound, got %v", err)
	}
	title := "hijack"
	if _, err := store.UpdateTask(ctx, task.ID, userB.ID, storage.TaskUpdate{Title: &title}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-tenant update: want ErrNotFound, got %v", err)
	}
	if err := store.DeleteTask(ctx, task.ID, userB.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-tenant delete: want ErrNotFound, got %v", err)
	}

	status := models.StatusCompleted
	updated, err := store.UpdateTask(ctx, task.ID, userA.ID, storage.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Status != models.StatusCompleted || updated.Title != "integration task" {
		t.Fatalf("partial update mismatch: %+v", updated)
	}

	second, err := store.CreateTask(ctx, models.Task{Title: "newer", Status: models.StatusPending, AuthorID: userA.ID})
	if err != nil {
		t.Fatalf("create second task: %v", err)
	}

	list, err := store.ListTasks(ctx, userA.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(list) < 2 || list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Fatalf("list not newest-first: %+v", list)
	}

	if err := store.DeleteTask(ctx, task.ID, userA.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := store.DeleteTask(ctx, second.ID, userA.ID); err != nil {
		t.Fatalf("delete second task: %v", err)
	}
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
