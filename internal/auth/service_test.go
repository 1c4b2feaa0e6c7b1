package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot-be/internal/apperr"
	"github.com/taskpilot/taskpilot-be/internal/models"
	"github.com/taskpilot/taskpilot-be/internal/storage"
)

// fakeUserStore is an in-memory UserStore keyed by email.
type fakeUserStore struct {
	users  map[string]models.User
	nextID int64

	createErr error
	findErr   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]models.User{}, nextID: 1}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	if f.createErr != nil {
		return models.User{}, f.createErr
	}
	if _, exists := f.users[user.Email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	if f.findErr != nil {
		return models.User{}, f.findErr
	}
	user, ok := f.users[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id int64) (models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func newTestService(store storage.UserStore) *Service {
	return NewService(store, newTestManager(), 4)
}

func TestRegisterSuccess(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	session, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", session.User.Email)
	assert.Equal(t, "A", session.User.Name)
	assert.NotZero(t, session.User.ID)
	assert.NotEmpty(t, session.Token)

	stored := store.users["a@x.com"]
	assert.NotEqual(t, "secret1", stored.PasswordHash, "password must be stored hashed")
	assert.True(t, CheckPassword(stored.PasswordHash, "secret1"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	session, err := svc.Register(context.Background(), "a@x.com", "other-pass", "B")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
	assert.Empty(t, session.Token, "no token may be issued on conflict")
}

func TestRegisterStoreRaceStillConflicts(t *testing.T) {
	// The lookup misses but the unique index fires on insert.
	store := newFakeUserStore()
	store.createErr = storage.ErrAlreadyExists
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
}

func TestRegisterStoreFailurePropagates(t *testing.T) {
	store := newFakeUserStore()
	dbErr := errors.New("connection refused")
	store.createErr = dbErr
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestLoginSuccess(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	registered, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, session.User.ID)
	assert.NotEmpty(t, session.Token)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	_, unknownEmailErr := svc.Login(context.Background(), "nobody@x.com", "secret1")
	_, wrongPasswordErr := svc.Login(context.Background(), "a@x.com", "wrong-pass")

	require.Error(t, unknownEmailErr)
	require.Error(t, wrongPasswordErr)
	assert.Equal(t, unknownEmailErr.Error(), wrongPasswordErr.Error(),
		"missing user and bad password must be observably identical")
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(unknownEmailErr))
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(wrongPasswordErr))
}

func TestSessionNeverSerializesPasswordHash(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	session, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	raw, err := json.Marshal(session.User)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "password_hash")
}

func TestValidateUser(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	session, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	projection, err := svc.ValidateUser(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, session.User, projection)

	_, err = svc.ValidateUser(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
