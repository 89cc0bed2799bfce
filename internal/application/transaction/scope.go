// Package transaction defines the unit of work shared by the deal and
// document services.
package transaction

import (
	"context"

	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/dealer"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/vehicle"
)

// Scope runs a function inside one database transaction. If the function
// returns an error every write made through the repositories is rolled back.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every store a deal transition touches. All
// repositories returned share the same underlying transaction.
//
// Contacts, Appraisals and Dealers are read-only lookups; they live here so
// reads observe the same snapshot as the writes.
type Repositories interface {
	Deals() deal.Repository
	Vehicles() vehicle.Repository
	Issues() vehicle.IssueRepository
	PrepTasks() vehicle.PrepTaskRepository
	Documents() document.Repository
	Counter() document.Counter
	Contacts() contact.Repository
	Appraisals() appraisal.Repository
	Dealers() dealer.Repository
}

// StaticRepositories is a fixed set of repositories
type StaticRepositories struct {
	DealRepo      deal.Repository
	VehicleRepo   vehicle.Repository
	IssueRepo     vehicle.IssueRepository
	PrepTaskRepo  vehicle.PrepTaskRepository
	DocumentRepo  document.Repository
	CounterImpl   document.Counter
	ContactRepo   contact.Repository
	AppraisalRepo appraisal.Repository
	DealerRepo    dealer.Repository
}

func (r *StaticRepositories) Deals() deal.Repository                { return r.DealRepo }
func (r *StaticRepositories) Vehicles() vehicle.Repository          { return r.VehicleRepo }
func (r *StaticRepositories) Issues() vehicle.IssueRepository       { return r.IssueRepo }
func (r *StaticRepositories) PrepTasks() vehicle.PrepTaskRepository { return r.PrepTaskRepo }
func (r *StaticRepositories) Documents() document.Repository        { return r.DocumentRepo }
func (r *StaticRepositories) Counter() document.Counter             { return r.CounterImpl }
func (r *StaticRepositories) Contacts() contact.Repository          { return r.ContactRepo }
func (r *StaticRepositories) Appraisals() appraisal.Repository      { return r.AppraisalRepo }
func (r *StaticRepositories) Dealers() dealer.Repository            { return r.DealerRepo }

// NoOpScope runs the function against fixed repositories without a real
// transaction. Used by tests and by callers that do not need atomicity.
type NoOpScope struct {
	Repos *StaticRepositories
}

// NewNoOpScope creates a NoOpScope
func NewNoOpScope(repos *StaticRepositories) *NoOpScope {
	return &NoOpScope{Repos: repos}
}

// Execute runs fn directly
func (s *NoOpScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.Repos)
}

var (
	_ Scope        = (*NoOpScope)(nil)
	_ Repositories = (*StaticRepositories)(nil)
)
