package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
)

func TestTaskDocumentUsesOriginalFieldNames(t *testing.T) {
	due := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(taskDocument{UserID: "u1", Task: "buy milk", DueDate: due, Status: "to do"})
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "buy milk", fields["task"])
	assert.Equal(t, "to do", fields["status"])
	assert.Contains(t, fields, "due_date")
	assert.NotContains(t, fields, "_id", "empty ids are left for the server to assign")
}

func TestTaskDocumentToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	task := taskDocument{ID: oid, UserID: "u1", Task: "buy milk", Status: "doing"}.toDomain()
	assert.Equal(t, oid.Hex(), task.ID)
	assert.Equal(t, "buy milk", task.Text)
	assert.Equal(t, domain.TaskStatusDoing, task.Status)
}

// TestRepositoryAgainstServer runs when MONGO_TEST_URI points at a disposable server.
func TestRepositoryAgainstServer(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" || testing.Short() {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "taskhive_test_" + primitive.NewObjectID().Hex()
	repo, err := Connect(ctx, uri, dbName)
	require.NoError(t, err)
	defer func() {
		_ = repo.client.Database(dbName).Drop(context.Background())
		_ = repo.Close(context.Background())
	}()
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.EnsureIndexes(ctx))

	bob := &domain.User{Username: "bob", Password: "pw1", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateUser(ctx, bob))
	assert.ErrorIs(t, repo.CreateUser(ctx, &domain.User{Username: "bob", Password: "pw2"}), repository.ErrDuplicate)

	stored, err := repo.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "pw1", stored.Password)

	task := &domain.Task{UserID: bob.ID, Text: "buy milk", DueDate: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), Status: domain.TaskStatusToDo}
	require.NoError(t, repo.CreateTask(ctx, task))
	require.NoError(t, repo.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusDoing))

	tasks, err := repo.ListTasksByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskStatusDoing, tasks[0].Status)

	require.NoError(t, repo.DeleteTask(ctx, task.ID))
	_, err = repo.GetTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetTaskByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
