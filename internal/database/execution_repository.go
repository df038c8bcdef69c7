package database

import "time"

// ExecutionStatus is a raw status row read from an execution collaborator
// (transport jobs executing individual segments). This subsystem only
// reads these records; job lifecycle writes happen on unrelated paths.
type ExecutionStatus struct {
	JobID     string    `db:"job_id"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ExecutionRepository reads execution collaborator status for segments
// that have a linked job record.
type ExecutionRepository struct {
	db DB
}

// NewExecutionRepository creates a new ExecutionRepository
func NewExecutionRepository(db DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// GetJobStatus retrieves the current status of one transport job.
func (r *ExecutionRepository) GetJobStatus(jobID string) (*ExecutionStatus, error) {
	query := `
		SELECT job_id, status, updated_at
		FROM transport_jobs
		WHERE job_id = $1
	`

	var st ExecutionStatus
	err := r.db.Get(&st, query, jobID)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStatusesForPlan retrieves statuses for every job linked to a plan's
// segments in one read, keyed by job_id.
func (r *ExecutionRepository) GetStatusesForPlan(planID string) (map[string]ExecutionStatus, error) {
	query := `
		SELECT j.job_id, j.status, j.updated_at
		FROM transport_jobs j
		JOIN fulfillment_segments s ON s.job_id = j.job_id
		WHERE s.plan_id = $1
	`

	rows, err := r.db.Query(query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[string]ExecutionStatus)
	for rows.Next() {
		var st ExecutionStatus
		if err := rows.Scan(&st.JobID, &st.Status, &st.UpdatedAt); err != nil {
			return nil, err
		}
		statuses[st.JobID] = st
	}
	return statuses, rows.Err()
}

// ListActivePlanIDs returns the IDs of plans still in the active state,
// used by the sync job to bound its polling.
func (r *ExecutionRepository) ListActivePlanIDs() ([]string, error) {
	query := `SELECT id FROM fulfillment_plans WHERE status = 'active' ORDER BY updated_at`

	ids := []string{}
	err := r.db.Select(&ids, query)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
