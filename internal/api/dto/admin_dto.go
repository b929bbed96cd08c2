package dto

import "github.com/spec-kit/grievance-service/internal/domain"

// AdminLoginRequest payload for login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminSession describes the logged-in admin.
type AdminSession struct {
	AdminID        int64   `json:"admin_id"`
	AdminUsername  string  `json:"admin_username"`
	DepartmentName *string `json:"department_name"`
}

// ReportResponse is the dashboard payload.
type ReportResponse struct {
	Statistics domain.ReportStatistics  `json:"statistics"`
	ChartData  []domain.DepartmentCount `json:"chartData"`
	StatusData []domain.StatusCount     `json:"statusData"`
}

// NewReportResponse maps a report, keeping empty series as [] rather than null.
func NewReportResponse(r *domain.Report) ReportResponse {
	out := ReportResponse{
		Statistics: r.Statistics,
		ChartData:  r.ByDepartment,
		StatusData: r.ByStatus,
	}
	if out.ChartData == nil {
		out.ChartData = []domain.DepartmentCount{}
	}
	if out.StatusData == nil {
		out.StatusData = []domain.StatusCount{}
	}
	return out
}
