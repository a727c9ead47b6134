package models

import "time"

// Stats holds the judge dashboard counters
type Stats struct {
	Today                   int    `json:"today" bson:"today" yaml:"today"`
	Month                   int    `json:"month" bson:"month" yaml:"month"`
	TotalPending            int    `json:"totalPending" bson:"totalPending" yaml:"totalPending"`
	AvgDuration             string `json:"avgDuration" bson:"avgDuration" yaml:"avgDuration"`
	ReadinessCompliance     int    `json:"readinessCompliance" bson:"readinessCompliance" yaml:"readinessCompliance"`
	TranscriptionEfficiency int    `json:"transcriptionEfficiency" bson:"transcriptionEfficiency" yaml:"transcriptionEfficiency"`
}

// CaseSummary holds the pendency breakdown by case age
type CaseSummary struct {
	Over10Years    int `json:"over10Years" bson:"over10Years" yaml:"over10Years"`
	FiveToTenYears int `json:"fiveToTenYears" bson:"fiveToTenYears" yaml:"fiveToTenYears"`
	OneToFiveYears int `json:"oneToFiveYears" bson:"oneToFiveYears" yaml:"oneToFiveYears"`
}

// AlertType classifies an alert in the dashboard feed
type AlertType string

// Alert types
const (
	AlertReadiness AlertType = "readiness"
	AlertOrder     AlertType = "order"
	AlertReview    AlertType = "review"
	AlertSystem    AlertType = "system"
)

// Alert is a short dashboard message. Alerts are derived on demand and never stored
// as authoritative state.
type Alert struct {
	ID        string    `json:"id" yaml:"id"`
	Type      AlertType `json:"type" yaml:"type"`
	Message   string    `json:"message" yaml:"message"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Time      string    `json:"time" yaml:"-"` // relative to generation, e.g. "10m ago"
}

// Role is the dashboard role a caller acts as
type Role string

// Roles
const (
	RoleJudge  Role = "JUDGE"
	RoleLawyer Role = "LAWYER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleJudge || r == RoleLawyer || r == RoleAdmin
}
