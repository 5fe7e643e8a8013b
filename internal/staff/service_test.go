package staff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

type userRow struct {
	name string
	role string
	hash string
}

type memoryStore struct {
	staff  map[int64]Staff
	hashes map[int64]string
	users  map[string]userRow
	nextID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		staff:  make(map[int64]Staff),
		hashes: make(map[int64]string),
		users:  make(map[string]userRow),
	}
}

func (s *memoryStore) List(ctx context.Context) ([]Staff, error) {
	var out []Staff
	for _, rec := range s.staff {
		out = append(out, rec)
	}
	return out, nil
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return fn(ctx, &memoryTx{s: s})
}

type memoryTx struct {
	s *memoryStore
}

func (tx *memoryTx) WorkingIDExists(ctx context.Context, workingID string, excludeStaffID int64) (bool, error) {
	if _, ok := tx.s.users[workingID]; !ok {
		return false, nil
	}
	for id, rec := range tx.s.staff {
		if rec.WorkingID == workingID && id == excludeStaffID {
			return false, nil
		}
	}
	return true, nil
}

func (tx *memoryTx) Insert(ctx context.Context, position, name, workingID, passwordHash string) (Staff, error) {
	tx.s.nextID++
	rec := Staff{ID: tx.s.nextID, Position: position, Name: name, WorkingID: workingID}
	tx.s.staff[rec.ID] = rec
	tx.s.hashes[rec.ID] = passwordHash
	return rec, nil
}

func (tx *memoryTx) Get(ctx context.Context, id int64) (Staff, bool, error) {
	rec, ok := tx.s.staff[id]
	return rec, ok, nil
}

func (tx *memoryTx) Update(ctx context.Context, id int64, position, name, workingID, passwordHash string) (Staff, bool, error) {
	if _, ok := tx.s.staff[id]; !ok {
		return Staff{}, false, nil
	}
	rec := Staff{ID: id, Position: position, Name: name, WorkingID: workingID}
	tx.s.staff[id] = rec
	tx.s.hashes[id] = passwordHash
	return rec, true, nil
}

func (tx *memoryTx) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := tx.s.staff[id]; !ok {
		return false, nil
	}
	delete(tx.s.staff, id)
	delete(tx.s.hashes, id)
	return true, nil
}

func (tx *memoryTx) UpsertUser(ctx context.Context, name, role, workingID, passwordHash string) error {
	tx.s.users[workingID] = userRow{name: name, role: role, hash: passwordHash}
	return nil
}

func (tx *memoryTx) RenameUser(ctx context.Context, oldWorkingID, name, role, workingID, passwordHash string) error {
	delete(tx.s.users, oldWorkingID)
	tx.s.users[workingID] = userRow{name: name, role: role, hash: passwordHash}
	return nil
}

func (tx *memoryTx) DeleteUser(ctx context.Context, workingID string) error {
	delete(tx.s.users, workingID)
	return nil
}

func staffInput() Input {
	return Input{Position: "Operator", Name: "Kyaw Min", WorkingID: "W-2001", Password: "pass1234"}
}

func TestCreateMirrorsLoginAccount(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	created, err := svc.Create(context.Background(), staffInput())
	require.NoError(t, err)
	require.Equal(t, "W-2001", created.WorkingID)

	user, ok := store.users["W-2001"]
	require.True(t, ok)
	require.Equal(t, "worker", user.role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.hash), []byte("pass1234")))
}

func TestCreatePlantManagerGetsManagerRole(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	in := staffInput()
	in.Position = "PM"
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "manager", store.users["W-2001"].role)
}

func TestCreateRejectsDuplicateWorkingID(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), staffInput())
	require.NoError(t, err)

	in := staffInput()
	in.Name = "Someone Else"
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateRequiresAllFields(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	in := staffInput()
	in.WorkingID = "  "
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateFollowsWorkingIDChange(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	created, err := svc.Create(context.Background(), staffInput())
	require.NoError(t, err)

	in := staffInput()
	in.WorkingID = "W-2002"
	updated, err := svc.Update(context.Background(), created.ID, in)
	require.NoError(t, err)
	require.Equal(t, "W-2002", updated.WorkingID)

	require.NotContains(t, store.users, "W-2001")
	require.Contains(t, store.users, "W-2002")
}

func TestUpdateRejectsWorkingIDCollision(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), staffInput())
	require.NoError(t, err)

	other := staffInput()
	other.WorkingID = "W-2002"
	created, err := svc.Create(context.Background(), other)
	require.NoError(t, err)

	in := staffInput()
	_, err = svc.Update(context.Background(), created.ID, in)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestUpdateMissingStaff(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.Update(context.Background(), 404, staffInput())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteRemovesStaffAndLogin(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	created, err := svc.Create(context.Background(), staffInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.Empty(t, store.staff)
	require.Empty(t, store.users)
}

func TestDeleteMissingStaff(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	err := svc.Delete(context.Background(), 404)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
