package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dealer/backend/internal/application/transaction"
	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/dealer"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of every repository the deal
// services use. Execute snapshots the store and restores it when fn fails,
// so a failed transition leaves nothing behind.
type MemoryStore struct {
	mu         sync.Mutex
	state      memoryState
	Contacts   map[uuid.UUID]contact.Contact
	Appraisals map[uuid.UUID]appraisal.Appraisal
	Dealers    map[uuid.UUID]dealer.Profile
}

type memoryState struct {
	deals     map[uuid.UUID]deal.Deal
	vehicles  map[uuid.UUID]vehicle.Vehicle
	issues    map[uuid.UUID]vehicle.Issue
	prepTasks map[uuid.UUID]vehicle.PrepTask
	documents map[uuid.UUID]document.SalesDocument
	counters  map[string]int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memoryState{
			deals:     map[uuid.UUID]deal.Deal{},
			vehicles:  map[uuid.UUID]vehicle.Vehicle{},
			issues:    map[uuid.UUID]vehicle.Issue{},
			prepTasks: map[uuid.UUID]vehicle.PrepTask{},
			documents: map[uuid.UUID]document.SalesDocument{},
			counters:  map[string]int64{},
		},
		Contacts:   map[uuid.UUID]contact.Contact{},
		Appraisals: map[uuid.UUID]appraisal.Appraisal{},
		Dealers:    map[uuid.UUID]dealer.Profile{},
	}
}

// Execute runs fn under the store lock, restoring the previous state on error
func (s *MemoryStore) Execute(_ context.Context, fn func(repos transaction.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.state.clone()
	if err := fn(memoryRepos{s}); err != nil {
		s.state = saved
		return err
	}
	return nil
}

// AddVehicle seeds a vehicle
func (s *MemoryStore) AddVehicle(v *vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.vehicles[v.ID] = *v
}

// AddDeal seeds a deal
func (s *MemoryStore) AddDeal(d *deal.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.deals[d.ID] = cloneDeal(d)
}

// AddIssue seeds a vehicle issue
func (s *MemoryStore) AddIssue(i vehicle.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.issues[i.ID] = i
}

// Vehicle returns a stored vehicle, or nil
func (s *MemoryStore) Vehicle(id uuid.UUID) *vehicle.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.vehicles[id]
	if !ok {
		return nil
	}
	return &v
}

// VehicleByVRM returns a stored vehicle by registration, or nil
func (s *MemoryStore) VehicleByVRM(vrm string) *vehicle.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.state.vehicles {
		if v.VRM == vrm {
			return &v
		}
	}
	return nil
}

// UpdateVehicle overwrites a stored vehicle
func (s *MemoryStore) UpdateVehicle(v *vehicle.Vehicle) {
	s.AddVehicle(v)
}

// Deal returns a stored deal, or nil
func (s *MemoryStore) Deal(id uuid.UUID) *deal.Deal {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.state.deals[id]
	if !ok {
		return nil
	}
	c := cloneDeal(&d)
	return &c
}

// Issues returns a vehicle's issues
func (s *MemoryStore) Issues(vehicleID uuid.UUID) []vehicle.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issuesFor(vehicleID)
}

// Issue returns a stored issue
func (s *MemoryStore) Issue(id uuid.UUID) vehicle.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.issues[id]
}

// PrepTasks returns a vehicle's preparation tasks
func (s *MemoryStore) PrepTasks(vehicleID uuid.UUID) []vehicle.PrepTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prepTasksFor(vehicleID)
}

// Documents returns a deal's documents, oldest first
func (s *MemoryStore) Documents(dealID uuid.UUID) []document.SalesDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentsFor(dealID)
}

func (s *MemoryStore) issuesFor(vehicleID uuid.UUID) []vehicle.Issue {
	out := make([]vehicle.Issue, 0)
	for _, i := range s.state.issues {
		if i.VehicleID == vehicleID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Description < out[b].Description })
	return out
}

func (s *MemoryStore) prepTasksFor(vehicleID uuid.UUID) []vehicle.PrepTask {
	out := make([]vehicle.PrepTask, 0)
	for _, t := range s.state.prepTasks {
		if t.VehicleID == vehicleID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SortOrder < out[b].SortOrder })
	return out
}

func (s *MemoryStore) documentsFor(dealID uuid.UUID) []document.SalesDocument {
	out := make([]document.SalesDocument, 0)
	for _, d := range s.state.documents {
		if d.DealID == dealID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].IssuedAt.Equal(out[b].IssuedAt) {
			return out[a].Sequence < out[b].Sequence
		}
		return out[a].IssuedAt.Before(out[b].IssuedAt)
	})
	return out
}

func (st memoryState) clone() memoryState {
	c := memoryState{
		deals:     make(map[uuid.UUID]deal.Deal, len(st.deals)),
		vehicles:  make(map[uuid.UUID]vehicle.Vehicle, len(st.vehicles)),
		issues:    make(map[uuid.UUID]vehicle.Issue, len(st.issues)),
		prepTasks: make(map[uuid.UUID]vehicle.PrepTask, len(st.prepTasks)),
		documents: make(map[uuid.UUID]document.SalesDocument, len(st.documents)),
		counters:  make(map[string]int64, len(st.counters)),
	}
	for k, v := range st.deals {
		c.deals[k] = cloneDeal(&v)
	}
	for k, v := range st.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range st.issues {
		c.issues[k] = v
	}
	for k, v := range st.prepTasks {
		c.prepTasks[k] = v
	}
	for k, v := range st.documents {
		c.documents[k] = v
	}
	for k, v := range st.counters {
		c.counters[k] = v
	}
	return c
}

func cloneDeal(d *deal.Deal) deal.Deal {
	c := *d
	c.ClearDomainEvents()
	c.AddOns = append([]deal.AddOn(nil), d.AddOns...)
	c.PartExchanges = append([]deal.PartExchange(nil), d.PartExchanges...)
	c.Payments = append([]deal.Payment(nil), d.Payments...)
	c.Requests = append([]deal.Request(nil), d.Requests...)
	c.CostAdjustments = append([]deal.CostAdjustment(nil), d.CostAdjustments...)
	return c
}

// memoryRepos exposes the store through the repository interfaces. Callers
// already hold the store lock.
type memoryRepos struct{ s *MemoryStore }

func (r memoryRepos) Deals() deal.Repository                { return memoryDeals(r) }
func (r memoryRepos) Vehicles() vehicle.Repository          { return memoryVehicles(r) }
func (r memoryRepos) Issues() vehicle.IssueRepository       { return memoryIssues(r) }
func (r memoryRepos) PrepTasks() vehicle.PrepTaskRepository { return memoryPrepTasks(r) }
func (r memoryRepos) Documents() document.Repository        { return memoryDocuments(r) }
func (r memoryRepos) Counter() document.Counter             { return memoryCounter(r) }
func (r memoryRepos) Contacts() contact.Repository          { return memoryContacts(r) }
func (r memoryRepos) Appraisals() appraisal.Repository      { return memoryAppraisals(r) }
func (r memoryRepos) Dealers() dealer.Repository            { return memoryDealers(r) }

type memoryDeals struct{ s *MemoryStore }

func (r memoryDeals) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*deal.Deal, error) {
	d, ok := r.s.state.deals[id]
	if !ok || d.TenantID != tenantID {
		return nil, shared.NewNotFoundError("deal", id)
	}
	c := cloneDeal(&d)
	return &c, nil
}

func (r memoryDeals) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*deal.Deal, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r memoryDeals) FindOpenByVehicle(_ context.Context, tenantID, vehicleID uuid.UUID) (*deal.Deal, error) {
	for _, d := range r.s.state.deals {
		if d.TenantID == tenantID && d.VehicleID == vehicleID && d.Status.IsOpen() {
			c := cloneDeal(&d)
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memoryDeals) List(_ context.Context, tenantID uuid.UUID, filter deal.ListFilter) ([]deal.Deal, int64, error) {
	all := make([]deal.Deal, 0)
	for _, d := range r.s.state.deals {
		if d.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.VehicleID != nil && d.VehicleID != *filter.VehicleID {
			continue
		}
		all = append(all, cloneDeal(&d))
	}
	sort.Slice(all, func(a, b int) bool { return all[a].CreatedAt.After(all[b].CreatedAt) })
	total := int64(len(all))
	start := filter.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r memoryDeals) Create(_ context.Context, d *deal.Deal) error {
	for _, existing := range r.s.state.deals {
		if existing.TenantID == d.TenantID && existing.VehicleID == d.VehicleID && existing.Status.IsOpen() {
			return shared.NewConflictError("Vehicle already has an open deal")
		}
	}
	r.s.state.deals[d.ID] = cloneDeal(d)
	return nil
}

func (r memoryDeals) SaveWithLock(_ context.Context, d *deal.Deal) error {
	stored, ok := r.s.state.deals[d.ID]
	if !ok {
		return shared.NewNotFoundError("deal", d.ID)
	}
	if stored.Version != d.Version {
		return shared.ErrConcurrencyConflict
	}
	d.IncrementVersion()
	r.s.state.deals[d.ID] = cloneDeal(d)
	return nil
}

type memoryVehicles struct{ s *MemoryStore }

func (r memoryVehicles) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*vehicle.Vehicle, error) {
	v, ok := r.s.state.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return nil, shared.NewNotFoundError("vehicle", id)
	}
	return &v, nil
}

func (r memoryVehicles) ExistsByVRM(_ context.Context, tenantID uuid.UUID, vrm string) (bool, error) {
	for _, v := range r.s.state.vehicles {
		if v.TenantID == tenantID && v.VRM == vrm {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryVehicles) Create(ctx context.Context, v *vehicle.Vehicle) error {
	exists, _ := r.ExistsByVRM(ctx, v.TenantID, v.VRM)
	if exists {
		return shared.NewConflictError("Vehicle %s already exists", v.VRM)
	}
	r.s.state.vehicles[v.ID] = *v
	return nil
}

func (r memoryVehicles) UpdateStatus(_ context.Context, v *vehicle.Vehicle) error {
	stored, ok := r.s.state.vehicles[v.ID]
	if !ok {
		return shared.NewNotFoundError("vehicle", v.ID)
	}
	stored.SalesStatus = v.SalesStatus
	stored.Status = v.Status
	stored.SoldDealID = v.SoldDealID
	stored.SoldAt = v.SoldAt
	r.s.state.vehicles[v.ID] = stored
	return nil
}

func (r memoryVehicles) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	v, ok := r.s.state.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return shared.NewNotFoundError("vehicle", id)
	}
	delete(r.s.state.vehicles, id)
	for k, i := range r.s.state.issues {
		if i.VehicleID == id {
			delete(r.s.state.issues, k)
		}
	}
	for k, t := range r.s.state.prepTasks {
		if t.VehicleID == id {
			delete(r.s.state.prepTasks, k)
		}
	}
	return nil
}

type memoryIssues struct{ s *MemoryStore }

func (r memoryIssues) CreateBatch(_ context.Context, issues []vehicle.Issue) error {
	for _, i := range issues {
		r.s.state.issues[i.ID] = i
	}
	return nil
}

func (r memoryIssues) FindByVehicle(_ context.Context, _, vehicleID uuid.UUID) ([]vehicle.Issue, error) {
	return r.s.issuesFor(vehicleID), nil
}

func (r memoryIssues) ResolveWontFix(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		i, ok := r.s.state.issues[id]
		if !ok || i.TenantID != tenantID || !i.IsOpen() {
			continue
		}
		i.Status = vehicle.IssueStatusWontFix
		i.ResolvedAt = &at
		i.UpdatedAt = at
		r.s.state.issues[id] = i
		n++
	}
	return n, nil
}

type memoryPrepTasks struct{ s *MemoryStore }

func (r memoryPrepTasks) CreateBatch(_ context.Context, tasks []vehicle.PrepTask) error {
	for _, t := range tasks {
		r.s.state.prepTasks[t.ID] = t
	}
	return nil
}

func (r memoryPrepTasks) FindByVehicle(_ context.Context, _, vehicleID uuid.UUID) ([]vehicle.PrepTask, error) {
	return r.s.prepTasksFor(vehicleID), nil
}

type memoryDocuments struct{ s *MemoryStore }

func (r memoryDocuments) Create(_ context.Context, doc *document.SalesDocument) error {
	for _, existing := range r.s.state.documents {
		if existing.TenantID == doc.TenantID && existing.Type == doc.Type && existing.Sequence == doc.Sequence {
			return shared.NewConflictError("Document number %s already issued", doc.DocumentNumber)
		}
	}
	r.s.state.documents[doc.ID] = *doc
	return nil
}

func (r memoryDocuments) Update(_ context.Context, doc *document.SalesDocument) error {
	stored, ok := r.s.state.documents[doc.ID]
	if !ok {
		return shared.NewNotFoundError("document", doc.ID)
	}
	if stored.Version != doc.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.s.state.documents[doc.ID] = *doc
	return nil
}

func (r memoryDocuments) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*document.SalesDocument, error) {
	d, ok := r.s.state.documents[id]
	if !ok || d.TenantID != tenantID {
		return nil, shared.NewNotFoundError("document", id)
	}
	return &d, nil
}

func (r memoryDocuments) FindByDeal(_ context.Context, _, dealID uuid.UUID) ([]document.SalesDocument, error) {
	return r.s.documentsFor(dealID), nil
}

func (r memoryDocuments) MaxSequence(_ context.Context, tenantID uuid.UUID, docType document.Type) (int64, error) {
	var highest int64
	for _, d := range r.s.state.documents {
		if d.TenantID == tenantID && d.Type == docType && d.Sequence > highest {
			highest = d.Sequence
		}
	}
	return highest, nil
}

type memoryCounter struct{ s *MemoryStore }

func (r memoryCounter) Allocate(_ context.Context, tenantID uuid.UUID, docType document.Type, prefix string) (document.Number, error) {
	key := tenantID.String() + "/" + string(docType)
	r.s.state.counters[key]++
	seq := r.s.state.counters[key]
	return document.Number{Sequence: seq, Value: document.FormatNumber(prefix, seq)}, nil
}

type memoryContacts struct{ s *MemoryStore }

func (r memoryContacts) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*contact.Contact, error) {
	c, ok := r.s.Contacts[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.NewNotFoundError("contact", id)
	}
	return &c, nil
}

type memoryAppraisals struct{ s *MemoryStore }

func (r memoryAppraisals) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*appraisal.Appraisal, error) {
	a, ok := r.s.Appraisals[id]
	if !ok || a.TenantID != tenantID {
		return nil, shared.NewNotFoundError("appraisal", id)
	}
	return &a, nil
}

type memoryDealers struct{ s *MemoryStore }

func (r memoryDealers) FindByTenant(_ context.Context, tenantID uuid.UUID) (*dealer.Profile, error) {
	p, ok := r.s.Dealers[tenantID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

var (
	_ transaction.Scope        = (*MemoryStore)(nil)
	_ transaction.Repositories = memoryRepos{}
)
