package vehicle

import (
	"strings"
	"time"

	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/google/uuid"
)

// Issue statuses in the stock book's vocabulary
const (
	IssueStatusOutstanding = "Outstanding"
	IssueStatusInProgress  = "In Progress"
	IssueStatusComplete    = "Complete"
	IssueStatusWontFix     = "Won't Fix"
)

// IssueCategoryOther is used when an appraisal category has no stock equivalent
const IssueCategoryOther = "Other"

var appraisalStatuses = map[string]string{
	appraisal.StatusOutstanding: IssueStatusOutstanding,
	appraisal.StatusInProgress:  IssueStatusInProgress,
	appraisal.StatusResolved:    IssueStatusComplete,
}

var appraisalCategories = map[string]string{
	"mechanical": "Mechanical",
	"bodywork":   "Bodywork",
	"interior":   "Interior",
	"tyres":      "Tyres",
	"electrical": "Electrical",
	"glass":      "Glass",
	"service":    "Service",
	"other":      IssueCategoryOther,
}

// Issue is a defect or job recorded against a stock vehicle
type Issue struct {
	ID                     uuid.UUID
	TenantID               uuid.UUID
	VehicleID              uuid.UUID
	Category               string
	Description            string
	Status                 string
	Notes                  string
	Transferred            bool
	SourceAppraisalIssueID *uuid.UUID
	ResolvedAt             *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsOpen reports whether the issue still needs work
func (i Issue) IsOpen() bool {
	return i.Status == IssueStatusOutstanding || i.Status == IssueStatusInProgress
}

// IssueFromAppraisal copies an appraisal issue onto a vehicle, translating
// the appraiser's vocabulary and tagging it as transferred
func IssueFromAppraisal(tenantID, vehicleID uuid.UUID, src appraisal.Issue, at time.Time) Issue {
	status, ok := appraisalStatuses[strings.ToLower(strings.TrimSpace(src.Status))]
	if !ok {
		status = IssueStatusOutstanding
	}
	category, ok := appraisalCategories[strings.ToLower(strings.TrimSpace(src.Category))]
	if !ok {
		category = IssueCategoryOther
	}
	sourceID := src.ID
	issue := Issue{
		ID:                     uuid.New(),
		TenantID:               tenantID,
		VehicleID:              vehicleID,
		Category:               category,
		Description:            src.Description,
		Status:                 status,
		Notes:                  src.Notes,
		Transferred:            true,
		SourceAppraisalIssueID: &sourceID,
		CreatedAt:              at,
		UpdatedAt:              at,
	}
	if status == IssueStatusComplete {
		issue.ResolvedAt = &at
	}
	return issue
}

// PrepTaskStatus is the state of a preparation task
type PrepTaskStatus string

const (
	PrepTaskPending PrepTaskStatus = "PENDING"
	PrepTaskDone    PrepTaskStatus = "DONE"
)

// PrepTask is one step of getting a vehicle ready for retail
type PrepTask struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	VehicleID uuid.UUID
	Name      string
	Status    PrepTaskStatus
	SortOrder int
	CreatedAt time.Time
}

// DefaultPrepTasks builds the pending task list for a vehicle from task names
func DefaultPrepTasks(tenantID, vehicleID uuid.UUID, names []string, at time.Time) []PrepTask {
	tasks := make([]PrepTask, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tasks = append(tasks, PrepTask{
			ID:        uuid.New(),
			TenantID:  tenantID,
			VehicleID: vehicleID,
			Name:      name,
			Status:    PrepTaskPending,
			SortOrder: len(tasks) + 1,
			CreatedAt: at,
		})
	}
	return tasks
}
