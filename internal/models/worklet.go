package models

// Worklet lifecycle statuses. Status transitions are unrestricted.
const (
	WorkletStatusApproved  = "Approved"
	WorkletStatusOngoing   = "Ongoing"
	WorkletStatusCompleted = "Completed"
	WorkletStatusDropped   = "Dropped"
	WorkletStatusOnHold    = "On Hold"
)

// ValidWorkletStatus reports whether status is a recognised worklet status.
func ValidWorkletStatus(status string) bool {
	switch status {
	case WorkletStatusApproved, WorkletStatusOngoing, WorkletStatusCompleted,
		WorkletStatusDropped, WorkletStatusOnHold:
		return true
	}
	return false
}

// Worklet is a tracked project. CertID is the human-facing certificate
// identifier and must be unique; lookups accept either the UUID or CertID.
type Worklet struct {
	BaseModel

	CertID      string `gorm:"uniqueIndex;not null" json:"cert_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Domain      string `json:"domain"`

	// Dates are stored as YYYY-MM-DD strings; only date precision is needed.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Status string `gorm:"not null;default:Ongoing" json:"status"`
	Year   int    `json:"year"`

	Associations []UserWorkletAssociation `gorm:"foreignKey:WorkletID" json:"-"`
	Evaluations  []Evaluation             `gorm:"foreignKey:WorkletID" json:"-"`
}
