package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/repository/memory"
	"github.com/taskhive/taskhive/pkg/config"
	"github.com/taskhive/taskhive/pkg/logger"
)

// nopCloseStore keeps the shared memory repo usable across commands.
type nopCloseStore struct {
	*memory.Repository
}

func (nopCloseStore) Close(context.Context) error { return nil }

func testEnv(repo *memory.Repository, answers ...string) (*cliEnv, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &cliEnv{
		cfg: config.AppConfig{StoreDriver: config.DriverMemory, PasswordScheme: "plaintext"},
		log: logger.Discard(),
		out: out,
		openStore: func(context.Context, config.AppConfig, *slog.Logger) (repository.Store, error) {
			return nopCloseStore{repo}, nil
		},
		readPassword: func(string) (string, error) {
			answer := answers[0]
			answers = answers[1:]
			return answer, nil
		},
	}, out
}

func runCLI(env *cliEnv, args ...string) error {
	root := newRootCmd(env)
	root.SetArgs(args)
	return root.Execute()
}

func TestUserAddCreatesAccount(t *testing.T) {
	repo := memory.New()
	env, out := testEnv(repo, "pw1", "pw1")

	require.NoError(t, runCLI(env, "user", "add", "alice"))
	assert.Contains(t, out.String(), "created user alice")

	user, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "pw1", user.Password)
}

func TestUserAddRejectsMismatch(t *testing.T) {
	repo := memory.New()
	env, _ := testEnv(repo, "pw1", "pw2")

	err := runCLI(env, "user", "add", "alice")
	assert.EqualError(t, err, "passwords do not match")
	_, err = repo.GetUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserAddRejectsDuplicate(t *testing.T) {
	repo := memory.New()
	env, _ := testEnv(repo, "pw1", "pw1")
	require.NoError(t, runCLI(env, "user", "add", "bob"))

	env, _ = testEnv(repo, "pw2", "pw2")
	err := runCLI(env, "user", "add", "bob")
	assert.EqualError(t, err, `username "bob" already exists`)

	user, err := repo.GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "pw1", user.Password)
}

func TestUserAddRequiresUsernameArg(t *testing.T) {
	env, _ := testEnv(memory.New())
	assert.Error(t, runCLI(env, "user", "add"))
}
