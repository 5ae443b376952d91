package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/regscraper/internal/types"
)

func sampleRecord(day time.Time) *types.DailyRecord {
	return types.NewDailyRecord(day, day.Add(20*time.Hour), "test", []types.Announcement{
		{
			ID:           "11",
			Date:         day.Format(types.DateLayout),
			Type:         "Eintragung",
			State:        "Bayern",
			Amtsgericht:  "Amtsgericht München",
			CompanyName:  "Müller KG",
			OriginalText: "Eintragung\nBayern Amtsgericht München HRA 1234\nMüller KG – München",
			Details:      "Neueintragung",
			Register:     types.StandardRegister{Registerart: "HRA", Registernummer: "HRA 1234", CompanySeat: "München"},
		},
	})
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)

	exists, err := store.Exists(ctx, day)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Read(ctx, day)
	require.ErrorIs(t, err, ErrNotFound)

	rec := sampleRecord(day)
	require.NoError(t, store.Write(ctx, day, rec))

	exists, err = store.Exists(ctx, day)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := store.Read(ctx, day)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	empty := types.NewDailyRecord(day, day, "test", nil)
	require.NoError(t, store.Write(ctx, day, empty))

	got, err = store.Read(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumberOfAnnouncements)
	assert.Empty(t, got.Announcements)
}

func TestFileStore(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)

	exerciseStore(t, store)

	path := filepath.Join(root, "2026-10", "registerbekanntmachungen-2026-10-02.json")
	assert.Equal(t, path, store.Path(time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"date\": \"2026-10-02\"")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreList(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	ctx := context.Background()

	days := []time.Time{
		time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range days {
		require.NoError(t, store.Write(ctx, d, sampleRecord(d)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "2026-10", "notes.txt"), []byte("x"), 0o644))

	listed, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []time.Time{days[1], days[2], days[0]}, listed)

	missing, err := NewFileStore(filepath.Join(root, "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestEchoStoreNeverPersists(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	store := NewEchoStore(NewFileStore(root), &out)
	ctx := context.Background()
	day := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Write(ctx, day, sampleRecord(day)))

	exists, err := store.Exists(ctx, day)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Contains(t, out.String(), "\"company_name\": \"Müller KG\"")
}
