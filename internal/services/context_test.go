package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/veralith/clienteling-backend/internal/config"
	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/types"
)

type contextFixture struct {
	txRunner       *fakeTxRunner
	cache          *fakeCache
	customerRepo   *fakeCustomerRepo
	preferenceRepo *fakePreferenceRepo
	sessionRepo    *fakeSessionRepo
	svc            ContextService
}

func newContextFixture(t *testing.T) *contextFixture {
	f := &contextFixture{
		txRunner:       &fakeTxRunner{},
		cache:          newFakeCache(),
		customerRepo:   newFakeCustomerRepo(),
		preferenceRepo: &fakePreferenceRepo{},
		sessionRepo:    newFakeSessionRepo(),
	}
	cfg := config.Config{
		FaceEmbeddingDim:     4,
		TextEmbeddingDim:     3,
		SearchLimitCap:       100,
		DefaultSearchLimit:   10,
		DefaultSessionsLimit: 20,
	}
	f.svc = NewContextService(testLogger(t), cfg, f.txRunner, f.cache,
		f.customerRepo, f.preferenceRepo, f.sessionRepo)
	return f
}

func (f *contextFixture) seed() uuid.UUID {
	customer := &types.Customer{ID: uuid.New(), ExternalID: "crm-9", DisplayName: "B. Customer"}
	f.customerRepo.customers[customer.ID] = customer
	f.preferenceRepo.prefsByOwner = map[uuid.UUID][]types.CustomerPreference{
		customer.ID: {
			{ID: uuid.New(), CustomerID: customer.ID, Kind: "like", Category: "fit", Value: "slim"},
		},
	}
	ownerID := customer.ID
	sessionID := uuid.New()
	f.sessionRepo.sessions[sessionID] = &types.Session{ID: sessionID, CustomerID: &ownerID}
	return customer.ID
}

func TestGetCustomerContextAggregates(t *testing.T) {
	f := newContextFixture(t)
	customerID := f.seed()

	aggregate, err := f.svc.GetCustomerContext(context.Background(), customerID, 0)
	if err != nil {
		t.Fatalf("GetCustomerContext: %v", err)
	}
	if aggregate.Profile == nil || aggregate.Profile.ID != customerID {
		t.Fatalf("wrong profile: %+v", aggregate.Profile)
	}
	if len(aggregate.Preferences) != 1 {
		t.Fatalf("got %d preferences, want 1", len(aggregate.Preferences))
	}
	if len(aggregate.RecentSessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(aggregate.RecentSessions))
	}
	// All three reads share one snapshot.
	if f.txRunner.readSnapshots != 1 {
		t.Fatalf("aggregate used %d snapshots, want 1", f.txRunner.readSnapshots)
	}
	if f.cache.sets != 1 {
		t.Fatalf("aggregate cached %d times, want 1", f.cache.sets)
	}
}

func TestGetCustomerContextNotFound(t *testing.T) {
	f := newContextFixture(t)

	_, err := f.svc.GetCustomerContext(context.Background(), uuid.New(), 5)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.cache.sets != 0 {
		t.Fatal("missing customer was cached")
	}
}

func TestGetCustomerContextLimitHandling(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantErr   bool
		wantQuery int
	}{
		{"zero applies default", 0, false, 20},
		{"explicit limit passes through", 7, false, 7},
		{"cap is allowed", 100, false, 100},
		{"negative rejected", -1, true, 0},
		{"above cap rejected", 101, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newContextFixture(t)
			customerID := f.seed()

			_, err := f.svc.GetCustomerContext(context.Background(), customerID, tt.limit)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				if len(f.sessionRepo.recentLimits) != 0 {
					t.Fatal("session query ran despite invalid limit")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetCustomerContext: %v", err)
			}
			if got := f.sessionRepo.recentLimits[0]; got != tt.wantQuery {
				t.Fatalf("session query used limit %d, want %d", got, tt.wantQuery)
			}
		})
	}
}

func TestGetCustomerContextRejectsZeroUUID(t *testing.T) {
	f := newContextFixture(t)

	if _, err := f.svc.GetCustomerContext(context.Background(), uuid.Nil, 5); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestGetCustomerContextServedFromCache(t *testing.T) {
	f := newContextFixture(t)
	customerID := f.seed()

	first, err := f.svc.GetCustomerContext(context.Background(), customerID, 0)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := f.svc.GetCustomerContext(context.Background(), customerID, 0)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if f.txRunner.readSnapshots != 1 {
		t.Fatalf("cache hit still opened a snapshot (%d snapshots)", f.txRunner.readSnapshots)
	}
	if first != second {
		t.Fatal("cache returned a different aggregate")
	}
}

// A cached aggregate carries the default number of recent sessions. Reads
// asking for any other limit must bypass the cache entirely, both ways: never
// served from it, never stored in it.
func TestGetCustomerContextExplicitLimitBypassesCache(t *testing.T) {
	f := newContextFixture(t)
	customerID := f.seed()
	for i := 0; i < 2; i++ {
		ownerID := customerID
		sessionID := uuid.New()
		f.sessionRepo.sessions[sessionID] = &types.Session{ID: sessionID, CustomerID: &ownerID}
	}

	wide, err := f.svc.GetCustomerContext(context.Background(), customerID, 5)
	if err != nil {
		t.Fatalf("read with limit 5: %v", err)
	}
	if len(wide.RecentSessions) != 3 {
		t.Fatalf("limit 5 returned %d sessions, want 3", len(wide.RecentSessions))
	}
	narrow, err := f.svc.GetCustomerContext(context.Background(), customerID, 1)
	if err != nil {
		t.Fatalf("read with limit 1: %v", err)
	}
	if len(narrow.RecentSessions) != 1 {
		t.Fatalf("limit 1 returned %d sessions, want 1", len(narrow.RecentSessions))
	}
	if f.cache.sets != 0 {
		t.Fatalf("explicit-limit read stored %d cache entries", f.cache.sets)
	}
	if f.txRunner.readSnapshots != 2 {
		t.Fatalf("explicit-limit reads opened %d snapshots, want 2", f.txRunner.readSnapshots)
	}
}

// A read in flight while the customer is erased must not repopulate the cache
// after the erasure's purge: the next read has to hit the database and report
// not-found.
func TestGetCustomerContextNotCachedAfterConcurrentErasure(t *testing.T) {
	f := newContextFixture(t)
	customerID := f.seed()

	consent := NewConsentService(testLogger(t), &fakeTxRunner{}, f.cache,
		f.customerRepo, f.sessionRepo, &fakeFaceRepo{}, &fakeMemoryRepo{}, &fakePreferenceRepo{})
	f.txRunner.afterSnapshot = func() {
		if _, err := consent.OptOut(context.Background(), customerID); err != nil {
			t.Fatalf("OptOut: %v", err)
		}
	}

	// The read began before the erasure; serving its snapshot is fine.
	if _, err := f.svc.GetCustomerContext(context.Background(), customerID, 0); err != nil {
		t.Fatalf("in-flight read: %v", err)
	}
	if f.cache.refusedSets != 1 {
		t.Fatalf("tombstone refused %d writes, want 1", f.cache.refusedSets)
	}
	if len(f.cache.entries) != 0 {
		t.Fatal("erased customer written back to cache")
	}
	if _, err := f.svc.GetCustomerContext(context.Background(), customerID, 0); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("erased customer still served, err = %v", err)
	}
}

func TestGetCustomerContextSnapshotErrorPropagates(t *testing.T) {
	f := newContextFixture(t)
	customerID := f.seed()
	f.txRunner.failWith = errStorageDown

	if _, err := f.svc.GetCustomerContext(context.Background(), customerID, 0); !errors.Is(err, errStorageDown) {
		t.Fatalf("snapshot error swallowed, got %v", err)
	}
	if f.cache.sets != 0 {
		t.Fatal("failed read was cached")
	}
}
