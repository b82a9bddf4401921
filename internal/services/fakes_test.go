package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// Repo fakes: record calls, serve canned data. Every method takes the same
// (ctx, tx, ...) shape as the real repos and ignores tx.

type fakeTxRunner struct {
	transactions  int
	readSnapshots int
	failWith      error
	// Runs once after a snapshot commits, before control returns to the
	// service. Lets tests interleave another operation with a read.
	afterSnapshot func()
}

func (r *fakeTxRunner) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.transactions++
	if err := fn(nil); err != nil {
		return err
	}
	return r.failWith
}

func (r *fakeTxRunner) ReadSnapshot(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.readSnapshots++
	if err := fn(nil); err != nil {
		return err
	}
	if r.afterSnapshot != nil {
		hook := r.afterSnapshot
		r.afterSnapshot = nil
		hook()
	}
	return r.failWith
}

type fakeCache struct {
	entries     map[uuid.UUID]*types.CustomerContext
	tombstoned  map[uuid.UUID]bool
	purged      []uuid.UUID
	purgeErr    error
	sets        int
	refusedSets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:    map[uuid.UUID]*types.CustomerContext{},
		tombstoned: map[uuid.UUID]bool{},
	}
}

func (c *fakeCache) Get(ctx context.Context, customerID uuid.UUID) (*types.CustomerContext, bool) {
	aggregate, ok := c.entries[customerID]
	return aggregate, ok
}

func (c *fakeCache) Set(ctx context.Context, customerID uuid.UUID, aggregate *types.CustomerContext) {
	if c.tombstoned[customerID] {
		c.refusedSets++
		return
	}
	c.sets++
	c.entries[customerID] = aggregate
}

func (c *fakeCache) Purge(ctx context.Context, customerID uuid.UUID) error {
	if c.purgeErr != nil {
		return c.purgeErr
	}
	c.purged = append(c.purged, customerID)
	delete(c.entries, customerID)
	c.tombstoned[customerID] = true
	return nil
}

type fakeCustomerRepo struct {
	customers    map[uuid.UUID]*types.Customer
	deleteCalls  []uuid.UUID
	deleteErr    error
	consentCalls int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[uuid.UUID]*types.Customer{}}
}

func (r *fakeCustomerRepo) Create(ctx context.Context, tx *gorm.DB, customer *types.Customer) (*types.Customer, error) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	r.customers[customer.ID] = customer
	return customer, nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return customer, nil
}

func (r *fakeCustomerRepo) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Customer, error) {
	for _, customer := range r.customers {
		if customer.ExternalID == externalID {
			return customer, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCustomerRepo) UpdateConsent(ctx context.Context, tx *gorm.DB, id uuid.UUID, consent bool) (int64, error) {
	r.consentCalls++
	customer, ok := r.customers[id]
	if !ok {
		return 0, nil
	}
	customer.ConsentForBiometrics = consent
	return 1, nil
}

func (r *fakeCustomerRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	r.deleteCalls = append(r.deleteCalls, id)
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.customers[id]; !ok {
		return 0, nil
	}
	delete(r.customers, id)
	return 1, nil
}

type fakeSessionRepo struct {
	sessions     map[uuid.UUID]*types.Session
	detachCalls  []uuid.UUID
	detachErr    error
	recentLimits []int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*types.Session{}}
}

func (r *fakeSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.sessions[session.ID] = session
	return session, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) GetRecentByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, limit int) ([]types.Session, error) {
	r.recentLimits = append(r.recentLimits, limit)
	var results []types.Session
	for _, session := range r.sessions {
		if session.CustomerID != nil && *session.CustomerID == customerID {
			results = append(results, *session)
		}
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (r *fakeSessionRepo) DetachCustomer(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	r.detachCalls = append(r.detachCalls, customerID)
	if r.detachErr != nil {
		return 0, r.detachErr
	}
	var detached int64
	for _, session := range r.sessions {
		if session.CustomerID != nil && *session.CustomerID == customerID {
			session.CustomerID = nil
			detached++
		}
	}
	return detached, nil
}

type fakeEmployeeRepo struct {
	employees map[uuid.UUID]*types.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: map[uuid.UUID]*types.Employee{}}
}

func (r *fakeEmployeeRepo) Create(ctx context.Context, tx *gorm.DB, employee *types.Employee) (*types.Employee, error) {
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	r.employees[employee.ID] = employee
	return employee, nil
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Employee, error) {
	employee, ok := r.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return employee, nil
}

func (r *fakeEmployeeRepo) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Employee, error) {
	for _, employee := range r.employees {
		if employee.ExternalID == externalID {
			return employee, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTranscriptRepo struct {
	chunks []*types.TranscriptChunk
}

func (r *fakeTranscriptRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.TranscriptChunk) ([]*types.TranscriptChunk, error) {
	r.chunks = append(r.chunks, chunks...)
	return chunks, nil
}

func (r *fakeTranscriptRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.TranscriptChunk, error) {
	var results []types.TranscriptChunk
	for _, chunk := range r.chunks {
		if chunk.SessionID == sessionID {
			results = append(results, *chunk)
		}
	}
	return results, nil
}

func (r *fakeTranscriptRepo) CountBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var count int64
	for _, chunk := range r.chunks {
		if chunk.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

type fakeNoteRepo struct {
	notes []*types.CoachingNote
}

func (r *fakeNoteRepo) Create(ctx context.Context, tx *gorm.DB, note *types.CoachingNote) (*types.CoachingNote, error) {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	r.notes = append(r.notes, note)
	return note, nil
}

func (r *fakeNoteRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.CoachingNote, error) {
	var results []types.CoachingNote
	for _, note := range r.notes {
		if note.SessionID == sessionID {
			results = append(results, *note)
		}
	}
	return results, nil
}

type fakeFaceRepo struct {
	searchCalls  int
	lastLimit    int
	lastQueryDim int
	matches      []types.FaceMatch
	searchErr    error
	createErr    error
	created      []*types.CustomerFaceEmbedding
	countByOwner map[uuid.UUID]int64
}

func (r *fakeFaceRepo) Create(ctx context.Context, tx *gorm.DB, embedding *types.CustomerFaceEmbedding) (*types.CustomerFaceEmbedding, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if embedding.ID == uuid.Nil {
		embedding.ID = uuid.New()
	}
	r.created = append(r.created, embedding)
	return embedding, nil
}

func (r *fakeFaceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomerFaceEmbedding, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFaceRepo) SearchNearest(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int) ([]types.FaceMatch, error) {
	r.searchCalls++
	r.lastLimit = limit
	r.lastQueryDim = len(query.Slice())
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	return r.matches, nil
}

func (r *fakeFaceRepo) CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	return r.countByOwner[customerID], nil
}

type fakeMemoryRepo struct {
	scopedCalls  int
	globalCalls  int
	lastCustomer uuid.UUID
	lastLimit    int
	matches      []types.MemoryMatch
	createErr    error
	created      []*types.CustomerMemory
	countByOwner map[uuid.UUID]int64
	countErr     error
}

func (r *fakeMemoryRepo) Create(ctx context.Context, tx *gorm.DB, memory *types.CustomerMemory) (*types.CustomerMemory, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if memory.ID == uuid.Nil {
		memory.ID = uuid.New()
	}
	r.created = append(r.created, memory)
	return memory, nil
}

func (r *fakeMemoryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomerMemory, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMemoryRepo) SearchNearest(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, query pgvector.Vector, limit int) ([]types.MemoryMatch, error) {
	r.scopedCalls++
	r.lastCustomer = customerID
	r.lastLimit = limit
	var scoped []types.MemoryMatch
	for _, match := range r.matches {
		if match.CustomerID == customerID {
			scoped = append(scoped, match)
		}
	}
	return scoped, nil
}

func (r *fakeMemoryRepo) SearchNearestGlobal(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int) ([]types.MemoryMatch, error) {
	r.globalCalls++
	r.lastLimit = limit
	return r.matches, nil
}

func (r *fakeMemoryRepo) CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.countByOwner[customerID], nil
}

type fakePreferenceRepo struct {
	prefsByOwner map[uuid.UUID][]types.CustomerPreference
	countByOwner map[uuid.UUID]int64
}

func (r *fakePreferenceRepo) Create(ctx context.Context, tx *gorm.DB, pref *types.CustomerPreference) (*types.CustomerPreference, error) {
	if pref.ID == uuid.Nil {
		pref.ID = uuid.New()
	}
	if r.prefsByOwner == nil {
		r.prefsByOwner = map[uuid.UUID][]types.CustomerPreference{}
	}
	r.prefsByOwner[pref.CustomerID] = append(r.prefsByOwner[pref.CustomerID], *pref)
	return pref, nil
}

func (r *fakePreferenceRepo) GetByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) ([]types.CustomerPreference, error) {
	return r.prefsByOwner[customerID], nil
}

func (r *fakePreferenceRepo) CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	return r.countByOwner[customerID], nil
}

var errStorageDown = errors.New("storage unreachable")
