package products

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/resinflow/resinflow/internal/masterdata"
	"github.com/resinflow/resinflow/internal/platform/httpx"
)

type memoryStore struct {
	sap       map[string]SapProduct
	entryRefs map[string]int64
	entries   map[int64]EntryProduct
	nextSapID int64
	nextID    int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sap:       make(map[string]SapProduct),
		entryRefs: make(map[string]int64),
		entries:   make(map[int64]EntryProduct),
	}
}

func (s *memoryStore) addSap(name string, active bool) {
	s.nextSapID++
	s.sap[strings.ToLower(name)] = SapProduct{
		ID: s.nextSapID, SapName: name, PartDescription: "part", Unit: "pcs", IsActive: active,
	}
}

func (s *memoryStore) ListSap(ctx context.Context) ([]SapProduct, error) {
	var out []SapProduct
	for _, p := range s.sap {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) ListEntries(ctx context.Context) ([]EntryProduct, error) {
	var out []EntryProduct
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *memoryStore) InsertEntry(ctx context.Context, in EntryInput) (EntryProduct, error) {
	s.nextID++
	rec := EntryProduct{
		ID: s.nextID, ClientName: in.ClientName, ProductName: in.ProductName,
		ProductColor: in.ProductColor, Quantity: in.Quantity, Date: in.Date,
	}
	s.entries[rec.ID] = rec
	return rec, nil
}

func (s *memoryStore) UpdateEntry(ctx context.Context, id int64, in EntryInput) (EntryProduct, bool, error) {
	if _, ok := s.entries[id]; !ok {
		return EntryProduct{}, false, nil
	}
	rec := EntryProduct{
		ID: id, ClientName: in.ClientName, ProductName: in.ProductName,
		ProductColor: in.ProductColor, Quantity: in.Quantity, Date: in.Date,
	}
	s.entries[id] = rec
	return rec, true, nil
}

func (s *memoryStore) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return fn(ctx, &memoryTx{s: s})
}

type memoryTx struct {
	s *memoryStore
}

func (tx *memoryTx) FindSapByName(ctx context.Context, name string) (SapProduct, bool, error) {
	p, ok := tx.s.sap[strings.ToLower(name)]
	return p, ok, nil
}

func (tx *memoryTx) InsertSap(ctx context.Context, in SapInput) (SapProduct, error) {
	tx.s.nextSapID++
	p := SapProduct{
		ID: tx.s.nextSapID, SapName: in.SapName, PartDescription: in.PartDescription,
		Unit: in.Unit, Color: in.Color, Remarks: in.Remarks, IsCustom: true, IsActive: true,
	}
	tx.s.sap[strings.ToLower(in.SapName)] = p
	return p, nil
}

func (tx *memoryTx) UpdateSap(ctx context.Context, name string, in SapInput) (SapProduct, bool, error) {
	p, ok := tx.s.sap[strings.ToLower(name)]
	if !ok {
		return SapProduct{}, false, nil
	}
	delete(tx.s.sap, strings.ToLower(name))
	p.SapName, p.PartDescription, p.Unit = in.SapName, in.PartDescription, in.Unit
	p.Color, p.Remarks = in.Color, in.Remarks
	tx.s.sap[strings.ToLower(in.SapName)] = p
	return p, true, nil
}

func (tx *memoryTx) CountSapRefs(ctx context.Context, name string) (int64, error) {
	return tx.s.entryRefs[strings.ToLower(name)], nil
}

func (tx *memoryTx) DeactivateSap(ctx context.Context, name string) error {
	p := tx.s.sap[strings.ToLower(name)]
	p.IsActive = false
	tx.s.sap[strings.ToLower(name)] = p
	return nil
}

func (tx *memoryTx) DeleteSap(ctx context.Context, name string) error {
	delete(tx.s.sap, strings.ToLower(name))
	return nil
}

func sapInput(name string) SapInput {
	return SapInput{SapName: name, PartDescription: "bumper clip", Unit: "pcs"}
}

func entryInput() EntryInput {
	return EntryInput{
		ClientName:   "Acme",
		ProductName:  "Bumper Clip",
		ProductColor: "Black",
		Quantity:     decimal.NewFromInt(40),
		Date:         time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateSapTrimsAndStores(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	created, err := svc.CreateSap(context.Background(), sapInput("  Bumper Clip "))
	require.NoError(t, err)
	require.Equal(t, "Bumper Clip", created.SapName)
	require.True(t, created.IsActive)
}

func TestCreateSapRejectsDuplicateName(t *testing.T) {
	store := newMemoryStore()
	store.addSap("Bumper Clip", true)
	svc := NewService(store, nil)

	_, err := svc.CreateSap(context.Background(), sapInput("bumper clip"))
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateSapBlockedByInactiveRow(t *testing.T) {
	store := newMemoryStore()
	store.addSap("Bumper Clip", false)
	svc := NewService(store, nil)

	_, err := svc.CreateSap(context.Background(), sapInput("Bumper Clip"))
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateSapRequiresFields(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	in := sapInput("Bumper Clip")
	in.Unit = " "
	_, err := svc.CreateSap(context.Background(), in)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateSapRenames(t *testing.T) {
	store := newMemoryStore()
	store.addSap("Bumper Clip", true)
	svc := NewService(store, nil)

	updated, err := svc.UpdateSap(context.Background(), "Bumper Clip", sapInput("Door Trim"))
	require.NoError(t, err)
	require.Equal(t, "Door Trim", updated.SapName)
	require.NotContains(t, store.sap, "bumper clip")
}

func TestUpdateSapAllowsCaseOnlyRename(t *testing.T) {
	store := newMemoryStore()
	store.addSap("Bumper Clip", true)
	svc := NewService(store, nil)

	updated, err := svc.UpdateSap(context.Background(), "Bumper Clip", sapInput("BUMPER CLIP"))
	require.NoError(t, err)
	require.Equal(t, "BUMPER CLIP", updated.SapName)
}

func TestUpdateSapRejectsRenameCollision(t *testing.T) {
	store := newMemoryStore()
	store.addSap("Bumper Clip", true)
	store.addSap("Door Trim", true)
	svc := NewService(store, nil)

	_, err := svc.UpdateSap(context.Background(), "Bumper Clip", sapInput("door trim"))
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestUpdateSapMissing(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.UpdateSap(context.Background(), "Ghost", sapInput("Ghost"))
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteSapDeactivatesWhenReferenced(t *testing.T) {
	store := newMemoryStore()
	store.addSap("Bumper Clip", true)
	store.entryRefs["bumper clip"] = 2
	svc := NewService(store, nil)

	outcome, err := svc.DeleteSap(context.Background(), "Bumper Clip")
	require.NoError(t, err)
	require.Equal(t, masterdata.OutcomeDeactivated, outcome)
	require.False(t, store.sap["bumper clip"].IsActive)
}

func TestDeleteSapRemovesOrphan(t *testing.T) {
	store := newMemoryStore()
	store.addSap("Bumper Clip", true)
	svc := NewService(store, nil)

	outcome, err := svc.DeleteSap(context.Background(), "Bumper Clip")
	require.NoError(t, err)
	require.Equal(t, masterdata.OutcomeRemoved, outcome)
	require.NotContains(t, store.sap, "bumper clip")
}

func TestDeleteSapMissing(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.DeleteSap(context.Background(), "Ghost")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateEntryValidates(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	in := entryInput()
	in.Quantity = decimal.Zero
	_, err := svc.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, httpx.ErrValidation)

	in = entryInput()
	in.Date = time.Time{}
	_, err = svc.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestEntryLifecycle(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	created, err := svc.CreateEntry(ctx, entryInput())
	require.NoError(t, err)
	require.Equal(t, "Bumper Clip", created.ProductName)

	in := entryInput()
	in.Quantity = decimal.NewFromInt(55)
	updated, err := svc.UpdateEntry(ctx, created.ID, in)
	require.NoError(t, err)
	require.True(t, updated.Quantity.Equal(decimal.NewFromInt(55)))

	require.NoError(t, svc.DeleteEntry(ctx, created.ID))
	require.Empty(t, store.entries)
}

func TestUpdateEntryMissing(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.UpdateEntry(context.Background(), 12, entryInput())
	require.ErrorIs(t, err, httpx.ErrNotFound)

	err = svc.DeleteEntry(context.Background(), 12)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
