package savedq

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/session"
	logsvc "github.com/examprep/portal/services/logger"
)

func recordIDs(recs []question.Record) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestHydrator_Hydrate(t *testing.T) {
	tests := []struct {
		name       string
		ids        []string
		failing    []string
		wantIDs    []string
		wantStale  []string
		wantFailed []string
	}{
		{name: "all found", ids: []string{"A", "B", "C"}, wantIDs: []string{"A", "B", "C"}},
		{name: "partial failure", ids: []string{"A", "B", "C"}, failing: []string{"B"}, wantIDs: []string{"A", "C"}, wantFailed: []string{"B"}},
		{name: "stale id", ids: []string{"A", "gone", "C"}, wantIDs: []string{"A", "C"}, wantStale: []string{"gone"}},
		{name: "all failing", ids: []string{"A", "B"}, failing: []string{"A", "B"}, wantIDs: []string{}, wantFailed: []string{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackendStub("A", "B", "C")
			for _, id := range tt.failing {
				b.failing[id] = errBackendDown
			}
			h := NewHydrator(b, 4, logsvc.NewNopLogger())

			hyd := h.Hydrate(context.Background(), session.Anonymous(), tt.ids)
			assert.Equal(t, tt.wantIDs, recordIDs(hyd.Records))
			assert.Equal(t, tt.wantStale, hyd.Stale)
			assert.Equal(t, tt.wantFailed, hyd.Failed)
			assert.LessOrEqual(t, len(hyd.Records), len(tt.ids))
		})
	}
}

func TestHydrator_EmptyMakesNoCall(t *testing.T) {
	b := newBackendStub("A")
	hyd := NewHydrator(b, 0, logsvc.NewNopLogger()).Hydrate(context.Background(), session.Anonymous(), nil)

	assert.NotNil(t, hyd.Records)
	assert.Empty(t, hyd.Records)
	assert.Empty(t, b.fetched)
}

func TestHydrator_KeepsInputOrder(t *testing.T) {
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = "q" + strconv.Itoa(i)
	}
	b := newBackendStub(ids...)
	// earlier ids complete last
	b.delay = func(id string) time.Duration {
		n, _ := strconv.Atoi(id[1:])
		return time.Duration(len(ids)-n) * time.Millisecond
	}

	hyd := NewHydrator(b, len(ids), logsvc.NewNopLogger()).Hydrate(context.Background(), session.Anonymous(), ids)
	assert.Equal(t, ids, recordIDs(hyd.Records))
	assert.Greater(t, b.maxInflight, 1, "fetches should run concurrently")
}

func TestHydrator_BoundsConcurrency(t *testing.T) {
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = "q" + strconv.Itoa(i)
	}
	b := newBackendStub(ids...)
	b.delay = func(string) time.Duration { return 2 * time.Millisecond }

	hyd := NewHydrator(b, 3, logsvc.NewNopLogger()).Hydrate(context.Background(), session.Anonymous(), ids)
	assert.Len(t, hyd.Records, len(ids))
	assert.LessOrEqual(t, b.maxInflight, 3)
}
