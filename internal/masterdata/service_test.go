package masterdata

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

type cascadeCall struct {
	oldGrade string
	oldCode  *string
	newGrade string
	newCode  *string
}

type memoryStore struct {
	colors       map[int64]Color
	materials    map[int64]Material
	colorRefs    map[int64]int64
	materialRefs map[string]int64
	cascades     []cascadeCall
	nextColorID  int64
	nextMatID    int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		colors:       make(map[int64]Color),
		materials:    make(map[int64]Material),
		colorRefs:    make(map[int64]int64),
		materialRefs: make(map[string]int64),
	}
}

func (s *memoryStore) addColor(name string, custom, active bool) int64 {
	s.nextColorID++
	s.colors[s.nextColorID] = Color{ID: s.nextColorID, Name: name, IsCustom: custom, IsActive: active}
	return s.nextColorID
}

func (s *memoryStore) addMaterial(grade string, code *string, active bool) int64 {
	s.nextMatID++
	s.materials[s.nextMatID] = Material{ID: s.nextMatID, Grade: grade, Code: code, IsActive: active}
	return s.nextMatID
}

func matKey(grade string, code *string) string {
	if code == nil {
		return grade + "|"
	}
	return grade + "|" + *code
}

func (s *memoryStore) ListActiveColors(ctx context.Context) ([]Color, error) {
	var out []Color
	for _, c := range s.colors {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memoryStore) ListActiveMaterials(ctx context.Context) ([]Material, error) {
	var out []Material
	for _, m := range s.materials {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return fn(ctx, &memoryTx{s: s})
}

type memoryTx struct {
	s *memoryStore
}

func (tx *memoryTx) GetColor(ctx context.Context, id int64) (Color, error) {
	c, ok := tx.s.colors[id]
	if !ok {
		return Color{}, httpx.NotFound("Color not found")
	}
	return c, nil
}

func (tx *memoryTx) FindActiveColorByName(ctx context.Context, name string) (Color, bool, error) {
	for _, c := range tx.s.colors {
		if c.IsActive && strings.EqualFold(c.Name, name) {
			return c, true, nil
		}
	}
	return Color{}, false, nil
}

func (tx *memoryTx) ResolveOrCreateColor(ctx context.Context, name string, custom bool) (int64, error) {
	for id, c := range tx.s.colors {
		if strings.EqualFold(c.Name, name) {
			if !c.IsActive {
				c.IsActive = true
				tx.s.colors[id] = c
			}
			return id, nil
		}
	}
	return tx.s.addColor(name, custom, true), nil
}

func (tx *memoryTx) CountColorRefs(ctx context.Context, id int64) (int64, error) {
	return tx.s.colorRefs[id], nil
}

func (tx *memoryTx) DeactivateColor(ctx context.Context, id int64) error {
	c := tx.s.colors[id]
	c.IsActive = false
	tx.s.colors[id] = c
	return nil
}

func (tx *memoryTx) DeleteColor(ctx context.Context, id int64) error {
	delete(tx.s.colors, id)
	return nil
}

func (tx *memoryTx) GetMaterial(ctx context.Context, id int64) (Material, error) {
	m, ok := tx.s.materials[id]
	if !ok {
		return Material{}, httpx.NotFound("Material not found")
	}
	return m, nil
}

func (tx *memoryTx) FindMaterialByKey(ctx context.Context, grade string, code *string, excludeID int64) (Material, bool, error) {
	for id, m := range tx.s.materials {
		if id == excludeID {
			continue
		}
		if matKey(m.Grade, m.Code) == matKey(grade, code) {
			return m, true, nil
		}
	}
	return Material{}, false, nil
}

func (tx *memoryTx) ResolveOrCreateMaterial(ctx context.Context, grade string, code *string) (int64, error) {
	for id, m := range tx.s.materials {
		if matKey(m.Grade, m.Code) == matKey(grade, code) {
			if !m.IsActive {
				m.IsActive = true
				tx.s.materials[id] = m
			}
			return id, nil
		}
	}
	return tx.s.addMaterial(grade, code, true), nil
}

func (tx *memoryTx) UpdateMaterial(ctx context.Context, id int64, grade string, code *string) error {
	m, ok := tx.s.materials[id]
	if !ok {
		return httpx.NotFound("Material not found")
	}
	m.Grade, m.Code = grade, code
	tx.s.materials[id] = m
	return nil
}

func (tx *memoryTx) CascadeMaterialRename(ctx context.Context, old Material, grade string, code *string) error {
	tx.s.cascades = append(tx.s.cascades, cascadeCall{
		oldGrade: old.Grade, oldCode: old.Code, newGrade: grade, newCode: code,
	})
	return nil
}

func (tx *memoryTx) CountMaterialRefs(ctx context.Context, grade string, code *string) (int64, error) {
	return tx.s.materialRefs[matKey(grade, code)], nil
}

func (tx *memoryTx) DeactivateMaterial(ctx context.Context, id int64) error {
	m := tx.s.materials[id]
	m.IsActive = false
	tx.s.materials[id] = m
	return nil
}

func (tx *memoryTx) DeleteMaterial(ctx context.Context, id int64) error {
	delete(tx.s.materials, id)
	return nil
}

func strptr(s string) *string { return &s }

func TestCreateColorAddsNewRow(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	created, err := svc.CreateColor(context.Background(), "  Ocean Blue ")
	require.NoError(t, err)
	require.Equal(t, "Ocean Blue", created.Name)
	require.True(t, created.IsActive)
}

func TestCreateColorRejectsActiveDuplicate(t *testing.T) {
	store := newMemoryStore()
	store.addColor("Red", false, true)
	svc := NewService(store, nil)

	_, err := svc.CreateColor(context.Background(), "red")
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateColorReactivatesInactiveRow(t *testing.T) {
	store := newMemoryStore()
	id := store.addColor("Mint", true, false)
	svc := NewService(store, nil)

	created, err := svc.CreateColor(context.Background(), "mint")
	require.NoError(t, err)
	require.Equal(t, id, created.ID)
	require.True(t, created.IsActive)
}

func TestCreateColorRequiresName(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.CreateColor(context.Background(), "   ")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteColorSoftDeletesWhenReferenced(t *testing.T) {
	store := newMemoryStore()
	id := store.addColor("Teal", true, true)
	store.colorRefs[id] = 3
	svc := NewService(store, nil)

	outcome, err := svc.DeleteColor(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, OutcomeDeactivated, outcome)
	require.False(t, store.colors[id].IsActive)
}

func TestDeleteColorRemovesOrphan(t *testing.T) {
	store := newMemoryStore()
	id := store.addColor("Teal", true, true)
	svc := NewService(store, nil)

	outcome, err := svc.DeleteColor(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, OutcomeRemoved, outcome)
	require.NotContains(t, store.colors, id)
}

func TestDeleteColorMissing(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.DeleteColor(context.Background(), 42)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateMaterialRejectsActiveDuplicateIdentity(t *testing.T) {
	store := newMemoryStore()
	store.addMaterial("PP", strptr("H110MA"), true)
	svc := NewService(store, nil)

	_, err := svc.CreateMaterial(context.Background(), "PP", strptr("H110MA"))
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateMaterialAllowsSameGradeDifferentCode(t *testing.T) {
	store := newMemoryStore()
	store.addMaterial("PP", strptr("H110MA"), true)
	svc := NewService(store, nil)

	created, err := svc.CreateMaterial(context.Background(), "PP", strptr("H350FG"))
	require.NoError(t, err)
	require.Equal(t, "PP", created.Grade)
	require.Equal(t, "H350FG", *created.Code)
}

func TestCreateMaterialCollapsesEmptyCode(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	created, err := svc.CreateMaterial(context.Background(), "ABS", strptr("  "))
	require.NoError(t, err)
	require.Nil(t, created.Code)
}

func TestUpdateMaterialCascadesOldIdentity(t *testing.T) {
	store := newMemoryStore()
	id := store.addMaterial("PP", strptr("H110MA"), true)
	svc := NewService(store, nil)

	updated, err := svc.UpdateMaterial(context.Background(), id, "PP-R", strptr("H220"))
	require.NoError(t, err)
	require.Equal(t, "PP-R", updated.Grade)
	require.Len(t, store.cascades, 1)
	require.Equal(t, "PP", store.cascades[0].oldGrade)
	require.Equal(t, "H110MA", *store.cascades[0].oldCode)
	require.Equal(t, "PP-R", store.cascades[0].newGrade)
}

func TestUpdateMaterialRejectsIdentityCollision(t *testing.T) {
	store := newMemoryStore()
	store.addMaterial("PP", strptr("H110MA"), true)
	id := store.addMaterial("ABS", nil, true)
	svc := NewService(store, nil)

	_, err := svc.UpdateMaterial(context.Background(), id, "PP", strptr("H110MA"))
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Empty(t, store.cascades)
}

func TestUpdateMaterialRejectsInactiveIdentityCollision(t *testing.T) {
	store := newMemoryStore()
	store.addMaterial("PP", strptr("H110MA"), false)
	id := store.addMaterial("ABS", nil, true)
	svc := NewService(store, nil)

	_, err := svc.UpdateMaterial(context.Background(), id, "PP", strptr("H110MA"))
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.ErrorContains(t, err, "deactivated")
	require.Empty(t, store.cascades)
}

func TestUpdateMaterialMissing(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.UpdateMaterial(context.Background(), 9, "PP", nil)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteMaterialSoftDeletesWhenReferenced(t *testing.T) {
	store := newMemoryStore()
	id := store.addMaterial("PP", strptr("H110MA"), true)
	store.materialRefs[matKey("PP", strptr("H110MA"))] = 2
	svc := NewService(store, nil)

	outcome, err := svc.DeleteMaterial(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, OutcomeDeactivated, outcome)
	require.False(t, store.materials[id].IsActive)
}

func TestDeleteMaterialRemovesOrphan(t *testing.T) {
	store := newMemoryStore()
	id := store.addMaterial("PP", nil, true)
	svc := NewService(store, nil)

	outcome, err := svc.DeleteMaterial(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, OutcomeRemoved, outcome)
	require.NotContains(t, store.materials, id)
}
