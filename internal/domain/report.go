package domain

// ReportStatistics aggregates complaint counts by status.
type ReportStatistics struct {
	TotalComplaints      int64 `json:"total_complaints"`
	ResolvedComplaints   int64 `json:"resolved_complaints"`
	PendingComplaints    int64 `json:"pending_complaints"`
	InProgressComplaints int64 `json:"in_progress_complaints"`
}

// DepartmentCount is a per-department complaint total.
type DepartmentCount struct {
	Department string `json:"department"`
	Total      int64  `json:"total"`
}

// StatusCount is a per-status complaint total.
type StatusCount struct {
	Status ComplaintStatus `json:"status"`
	Count  int64           `json:"count"`
}

// Report is the admin dashboard summary.
type Report struct {
	Statistics   ReportStatistics
	ByDepartment []DepartmentCount
	ByStatus     []StatusCount
}
