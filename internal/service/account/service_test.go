package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/repository/memory"
	"github.com/taskhive/taskhive/pkg/crypto"
	"github.com/taskhive/taskhive/pkg/logger"
)

func newService(t *testing.T, repo repository.UserRepository, scheme string) Service {
	t.Helper()
	passwords, err := crypto.NewPasswords(scheme)
	require.NoError(t, err)
	return New(repo, passwords, logger.Discard())
}

func TestSignupMismatchNeverCreatesUser(t *testing.T) {
	repo := memory.New()
	svc := newService(t, repo, "")

	_, err := svc.Signup(context.Background(), "alice", "pw1", "pw2")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = repo.GetUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSignupRequiresUsername(t *testing.T) {
	svc := newService(t, memory.New(), "")
	_, err := svc.Signup(context.Background(), "  ", "pw1", "pw1")
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestSignupDuplicateKeepsOriginalPassword(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.New(), "")

	_, err := svc.Signup(ctx, "bob", "pw1", "pw1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "bob", "pw2", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	user, err := svc.Login(ctx, "bob", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	_, err = svc.Login(ctx, "bob", "pw2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// raceRepo reports no existing user but rejects the insert, as a unique index
// does when two sign-ups race.
type raceRepo struct {
	repository.UserRepository
}

func (raceRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (raceRepo) CreateUser(ctx context.Context, user *domain.User) error {
	return repository.ErrDuplicate
}

func TestSignupMapsStoreDuplicateToConflict(t *testing.T) {
	svc := newService(t, raceRepo{}, "")
	_, err := svc.Signup(context.Background(), "bob", "pw1", "pw1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

type failingRepo struct {
	repository.UserRepository
}

func (failingRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailuresAreNotReportedAsAuthErrors(t *testing.T) {
	svc := newService(t, failingRepo{}, "")

	_, err := svc.Login(context.Background(), "alice", "pw1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Signup(context.Background(), "alice", "pw1", "pw1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newService(t, memory.New(), "")
	_, err := svc.Login(context.Background(), "ghost", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPlaintextSchemeStoresPasswordAsTyped(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	svc := newService(t, repo, crypto.SchemePlaintext)

	_, err := svc.Signup(ctx, "alice", "pw1", "pw1")
	require.NoError(t, err)

	stored, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "pw1", stored.Password)
}

func TestBcryptSchemeHashesAndVerifies(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	svc := newService(t, repo, crypto.SchemeBcrypt)

	created, err := svc.Signup(ctx, "alice", "pw1", "pw1")
	require.NoError(t, err)

	stored, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.Password)

	user, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	resolved, err := svc.User(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", resolved.Username)
}
