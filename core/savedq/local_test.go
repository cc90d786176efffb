package savedq

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logsvc "github.com/examprep/portal/services/logger"
	"github.com/examprep/portal/tests/fakes"
)

func TestLocalStore_Load(t *testing.T) {
	tests := []struct {
		name    string
		stored  map[string]string
		wantIDs []string
		wantLog bool
	}{
		{name: "missing", stored: nil, wantIDs: []string{}},
		{name: "blank", stored: map[string]string{StorageKey: "  "}, wantIDs: []string{}},
		{name: "legacy array", stored: map[string]string{StorageKey: `["q1","q2"]`}, wantIDs: []string{"q1", "q2"}},
		{name: "versioned", stored: map[string]string{StorageKey: `{"version":1,"ids":["q2","q1"]}`}, wantIDs: []string{"q2", "q1"}},
		{name: "duplicates dropped", stored: map[string]string{StorageKey: `["q1","q2","q1"]`}, wantIDs: []string{"q1", "q2"}},
		{name: "malformed json", stored: map[string]string{StorageKey: `["q1",`}, wantIDs: []string{}, wantLog: true},
		{name: "wrong shape", stored: map[string]string{StorageKey: `42`}, wantIDs: []string{}, wantLog: true},
		{name: "newer version", stored: map[string]string{StorageKey: `{"version":9,"ids":["q1"]}`}, wantIDs: []string{}, wantLog: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			ls := NewLocalStore(fakes.NewStorage(tt.stored), logsvc.NewWriterLogger(buf, "test", "debug"))

			set, err := ls.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, set.IDs())
			if tt.wantLog {
				assert.Contains(t, buf.String(), "discarding unreadable saved questions")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLocalStore_LoadStorageUnavailable(t *testing.T) {
	store := fakes.NewStorage(nil)
	store.GetErr = errors.New("quota exceeded")
	ls := NewLocalStore(store, logsvc.NewNopLogger())

	_, err := ls.Load(context.Background())
	assert.EqualError(t, err, "reading saved questions: quota exceeded")
}

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := fakes.NewStorage(map[string]string{StorageKey: `["q1","q2"]`})
	ls := NewLocalStore(store, logsvc.NewNopLogger())

	set, err := ls.Load(ctx)
	require.NoError(t, err)
	set.Add("q3")
	set.Remove("q1")
	require.NoError(t, ls.Save(ctx, set))
	assert.JSONEq(t, `{"version":1,"ids":["q2","q3"]}`, store.Value(StorageKey))

	reloaded, err := ls.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, set.IDs(), reloaded.IDs())

	require.NoError(t, ls.Save(ctx, NewIDSet()))
	assert.JSONEq(t, `{"version":1,"ids":[]}`, store.Value(StorageKey))
}
