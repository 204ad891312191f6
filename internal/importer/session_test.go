package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backoffice/internal/domain"
)

func loadedSession(t *testing.T) *Session {
	t.Helper()
	store := NewStore()
	session, err := store.Create(domain.ImportExpenses)
	require.NoError(t, err)

	data := parseCSV(t, "Datum,Betrag,Beschreibung,Kategorie,Zahlungsmethode\n"+
		"2024-01-15,150.00,Miete Januar,rent,bank\n")
	require.NoError(t, session.LoadFile("ausgaben.csv", data))
	return session
}

func TestSessionHappyPath(t *testing.T) {
	session := loadedSession(t)
	assert.Equal(t, StateMapping, session.State)
	require.NotNil(t, session.Mapping)
	assert.True(t, session.Mapping.Valid)

	batch, err := session.Preview()
	require.NoError(t, err)
	assert.Equal(t, 1, batch.TotalRecords())
	assert.Equal(t, StatePreview, session.State)

	_, err = session.BeginImport()
	require.NoError(t, err)
	assert.Equal(t, StateImporting, session.State)

	require.NoError(t, session.Complete(&domain.ImportResult{}))
	assert.Equal(t, StateSuccess, session.State)
}

func TestSessionBackOnlyFromPreview(t *testing.T) {
	session := loadedSession(t)
	assert.Error(t, session.Back(), "back from mapping is invalid")

	_, err := session.Preview()
	require.NoError(t, err)
	require.NoError(t, session.Back())
	assert.Equal(t, StateMapping, session.State)
	assert.Nil(t, session.Batch, "preview batch is discarded")
}

func TestSessionMappingLockedAfterPreview(t *testing.T) {
	session := loadedSession(t)
	_, err := session.Preview()
	require.NoError(t, err)

	assert.Error(t, session.AssignMapping("date", "Datum"))
}

func TestSessionInvalidTransitions(t *testing.T) {
	session := loadedSession(t)

	_, err := session.BeginImport()
	assert.Error(t, err, "cannot import from mapping")

	_, err = session.PreviewBatch()
	assert.Error(t, err)
}

func TestSessionFailFromAnywhere(t *testing.T) {
	session := loadedSession(t)
	session.Fail(assert.AnError)
	assert.Equal(t, StateError, session.State)
	assert.NotEmpty(t, session.ErrorMessage)
}

func TestSessionResetReturnsToIdle(t *testing.T) {
	session := loadedSession(t)
	session.Reset()

	assert.Equal(t, StateIdle, session.State)
	assert.Empty(t, session.Filename)
	assert.Nil(t, session.Parsed)
	assert.Nil(t, session.Mapping)
}

func TestSessionCompleteWithFailedResult(t *testing.T) {
	session := loadedSession(t)
	_, err := session.Preview()
	require.NoError(t, err)
	_, err = session.BeginImport()
	require.NoError(t, err)

	require.NoError(t, session.Complete(&domain.ImportResult{
		FailedPhase: "expenses",
		Errors:      []string{"insert failed"},
	}))
	assert.Equal(t, StateError, session.State)
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()

	_, err := store.Create(domain.ImportType("unbekannt"))
	assert.Error(t, err)

	session, err := store.Create(domain.ImportItems)
	require.NoError(t, err)

	found, ok := store.Get(session.ID)
	require.True(t, ok)
	assert.Equal(t, session.ID, found.ID)

	assert.True(t, store.Delete(session.ID))
	assert.False(t, store.Delete(session.ID))
}

func TestStoreSweep(t *testing.T) {
	store := NewStore()
	session, err := store.Create(domain.ImportItems)
	require.NoError(t, err)

	session.UpdatedAt = time.Now().Add(-2 * time.Hour)
	assert.Equal(t, 1, store.Sweep(time.Hour))

	_, ok := store.Get(session.ID)
	assert.False(t, ok)
}

func TestStoreSweepEvery(t *testing.T) {
	store := NewStore()
	session, err := store.Create(domain.ImportItems)
	require.NoError(t, err)
	session.UpdatedAt = time.Now().Add(-2 * time.Hour)

	stop := store.SweepEvery(5*time.Millisecond, time.Hour)
	defer stop()

	require.Eventually(t, func() bool {
		_, ok := store.Get(session.ID)
		return !ok
	}, time.Second, 5*time.Millisecond, "expired session was not swept")
}
