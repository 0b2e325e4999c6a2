package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

func mustUser(t *testing.T, id int64, email string) *record.User {
	t.Helper()
	u, err := record.NewUserAt(id, email,
		record.NewAddress("Lviv", "Ukraine", "79000"),
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return u
}

func TestJournal_AppendReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.journal")

	w, err := NewJournalWriter(JournalConfig{FilePath: path})
	require.NoError(t, err)

	users := []*record.User{
		mustUser(t, 1, "alice@example.com"),
		mustUser(t, 2, "bob@example.com"),
		mustUser(t, 3, "carol@example.com"),
	}
	for _, u := range users {
		_, err := w.Append(u)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r, err := NewJournalReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, len(users))
	for i := range users {
		assert.True(t, users[i].Equal(got[i]), "record %d mismatch", i)
	}
}

func TestJournal_AppendOffsetsGrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.journal")

	w, err := NewJournalWriter(JournalConfig{FilePath: path})
	require.NoError(t, err)
	defer w.Close()

	first, err := w.Append(mustUser(t, 1, "alice@example.com"))
	require.NoError(t, err)
	second, err := w.Append(mustUser(t, 2, "bob@example.com"))
	require.NoError(t, err)

	assert.Equal(t, int64(0), first)
	assert.Greater(t, second, first)
	assert.Greater(t, w.Size(), second)
}

func TestJournal_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.journal")

	w, err := NewJournalWriter(JournalConfig{FilePath: path})
	require.NoError(t, err)
	_, err = w.Append(mustUser(t, 1, "alice@example.com"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewJournalWriter(JournalConfig{FilePath: path})
	require.NoError(t, err)
	_, err = w.Append(mustUser(t, 2, "bob@example.com"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewJournalReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID())
	assert.Equal(t, int64(2), got[1].ID())
}

func TestRecoverJournal_MissingFile(t *testing.T) {
	result, err := RecoverJournal(filepath.Join(t.TempDir(), "absent.journal"))
	require.NoError(t, err)
	assert.False(t, result.Truncated)
	assert.Zero(t, result.RecordsValidated)
}

func TestRecoverJournal_CleanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.journal")

	w, err := NewJournalWriter(JournalConfig{FilePath: path})
	require.NoError(t, err)
	_, err = w.Append(mustUser(t, 1, "alice@example.com"))
	require.NoError(t, err)
	_, err = w.Append(mustUser(t, 2, "bob@example.com"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	result, err := RecoverJournal(path)
	require.NoError(t, err)
	assert.False(t, result.Truncated)
	assert.Equal(t, int64(2), result.RecordsValidated)
	assert.Equal(t, result.FileSizeBefore, result.FileSizeAfter)
}

func TestRecoverJournal_TruncatesTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.journal")

	w, err := NewJournalWriter(JournalConfig{FilePath: path})
	require.NoError(t, err)
	_, err = w.Append(mustUser(t, 1, "alice@example.com"))
	require.NoError(t, err)
	_, err = w.Append(mustUser(t, 2, "bob@example.com"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Simulate a crash mid-append: a frame header promising more bytes
	// than the file holds.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xEE, 0x00, 0x00, 0x00, 0x01, 0x02})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err := RecoverJournal(path)
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, int64(2), result.RecordsValidated)
	assert.Less(t, result.FileSizeAfter, result.FileSizeBefore)

	// After recovery the journal reads cleanly end to end.
	r, err := NewJournalReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestJournalReader_ReportsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.journal")

	w, err := NewJournalWriter(JournalConfig{FilePath: path})
	require.NoError(t, err)
	_, err = w.Append(mustUser(t, 1, "alice@example.com"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Flip a byte inside the frame payload.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0600))

	r, err := NewJournalReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadNext()
	assert.ErrorIs(t, err, ErrJournalCorrupt)
}

func TestJournal_FsyncInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.journal")

	w, err := NewJournalWriter(JournalConfig{
		FilePath:      path,
		FsyncInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = w.Append(mustUser(t, 1, "alice@example.com"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	r, err := NewJournalReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
