package vehicle

import (
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueFromAppraisal(t *testing.T) {
	tenantID, vehicleID := uuid.New(), uuid.New()
	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		src          appraisal.Issue
		wantStatus   string
		wantCategory string
		wantResolved bool
	}{
		{"outstanding", appraisal.Issue{Category: "bodywork", Status: "outstanding"}, IssueStatusOutstanding, "Bodywork", false},
		{"resolved", appraisal.Issue{Category: "Tyres", Status: "resolved"}, IssueStatusComplete, "Tyres", true},
		{"in progress", appraisal.Issue{Category: "mechanical", Status: "in_progress"}, IssueStatusInProgress, "Mechanical", false},
		{"unknown vocab", appraisal.Issue{Category: "smell", Status: "???"}, IssueStatusOutstanding, IssueCategoryOther, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.src.ID = uuid.New()
			issue := IssueFromAppraisal(tenantID, vehicleID, tt.src, at)
			assert.Equal(t, tt.wantStatus, issue.Status)
			assert.Equal(t, tt.wantCategory, issue.Category)
			assert.True(t, issue.Transferred)
			require.NotNil(t, issue.SourceAppraisalIssueID)
			assert.Equal(t, tt.src.ID, *issue.SourceAppraisalIssueID)
			assert.Equal(t, tt.wantResolved, issue.ResolvedAt != nil)
			assert.Equal(t, vehicleID, issue.VehicleID)
		})
	}
}

func TestDefaultPrepTasks(t *testing.T) {
	tasks := DefaultPrepTasks(uuid.New(), uuid.New(), []string{"Valet", " ", "MOT check", "Photos"}, time.Now())
	require.Len(t, tasks, 3)
	assert.Equal(t, "MOT check", tasks[1].Name)
	assert.Equal(t, 2, tasks[1].SortOrder)
	assert.Equal(t, PrepTaskPending, tasks[2].Status)
}
