package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"scenario-engine/internal/simulation"
	"scenario-engine/pkg/platform"
)

func TestMemoryStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Load(ctx, "owner-1")
	if err != nil || got != nil {
		t.Fatalf("Load on empty store = %v, %v; want nil, nil", got, err)
	}

	in := simulation.DefaultInput()
	if err := s.Save(ctx, "owner-1", in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	in.UtilizationRate = 70
	if err := s.Save(ctx, "owner-1", in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err = s.Load(ctx, "owner-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.UtilizationRate != 70 {
		t.Fatalf("utilization = %g, want last write 70", got.UtilizationRate)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestMemoryStoreRejectsEmptyOwner(t *testing.T) {
	if err := NewMemoryStore().Save(context.Background(), "  ", simulation.DefaultInput()); err == nil {
		t.Fatal("expected error for blank owner id")
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (*simulation.ScenarioInput, error) {
	return nil, nil
}

func (failingStore) Save(context.Context, string, simulation.ScenarioInput) error {
	return errors.New("disk full")
}

func TestAsyncSaverDrainsOnClose(t *testing.T) {
	mem := NewMemoryStore()
	saver := NewAsyncSaver(mem, time.Second)
	for _, owner := range []string{"a", "b", "c"} {
		saver.SaveAsync(owner, simulation.DefaultInput())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := saver.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mem.Len() != 3 {
		t.Fatalf("stored %d scenarios, want 3", mem.Len())
	}
}

func TestAsyncSaverReportsErrors(t *testing.T) {
	saver := NewAsyncSaver(failingStore{}, time.Second)

	var mu sync.Mutex
	var failed []string
	saver.OnError = func(ownerID string, err error) {
		mu.Lock()
		failed = append(failed, ownerID)
		mu.Unlock()
	}
	saver.SaveAsync("owner-x", simulation.DefaultInput())

	if err := saver.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0] != "owner-x" {
		t.Fatalf("failed = %v, want [owner-x]", failed)
	}
}

func TestHTTPStore(t *testing.T) {
	backing := NewMemoryStore()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/scenarios/", func(w http.ResponseWriter, r *http.Request) {
		owner := r.URL.Path[len("/api/v1/scenarios/"):]
		switch r.Method {
		case http.MethodGet:
			in, _ := backing.Load(r.Context(), owner)
			if in == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"input": in})
		case http.MethodPut:
			var in simulation.ScenarioInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			backing.Save(r.Context(), owner, in)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ctx := context.Background()
	s := NewHTTPStore(ts.URL+"/", platform.NewHTTPClient(0, time.Second))

	got, err := s.Load(ctx, "venue-9")
	if err != nil || got != nil {
		t.Fatalf("Load missing = %v, %v; want nil, nil", got, err)
	}

	in := simulation.DefaultInput()
	in.SponsorCount = 4
	if err := s.Save(ctx, "venue-9", in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx, "venue-9")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.SponsorCount != 4 {
		t.Fatalf("Load = %+v, want sponsor_count 4", got)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Save(ctx, "b", simulation.DefaultInput())
	s.Save(ctx, "a", simulation.DefaultInput())

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].OwnerID != "a" || records[1].OwnerID != "b" {
		t.Fatalf("List = %+v", records)
	}
	if records[0].RevisionID == records[1].RevisionID {
		t.Fatal("each save should get its own revision id")
	}
}

func TestEncodeDecodeInput(t *testing.T) {
	in := simulation.DefaultInput()
	in.DemandMultiplier = 1.25
	payload, err := EncodeInput(in)
	if err != nil {
		t.Fatalf("EncodeInput: %v", err)
	}
	got, err := DecodeInput(payload)
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}
	if *got != in {
		t.Fatalf("decoded %+v, want %+v", *got, in)
	}

	partial, err := DecodeInput(`{"sponsor_count": 9}`)
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}
	if partial.SponsorCount != 9 || partial.ResourceUnitCount != 8 {
		t.Fatalf("partial decode = %+v", partial)
	}
}
