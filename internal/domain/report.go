package domain

import "time"

// MaxOutstandingReports is the per-submitter cap on non-deleted reports.
const MaxOutstandingReports = 3

// Report is a "report a popup" tip. Answer is written at most once.
type Report struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Submitter   string     `gorm:"column:submitter;not null;index" json:"submitter"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Address     string     `gorm:"column:address;not null" json:"address"`
	Description string     `gorm:"column:description;type:text;not null" json:"description"`
	CreatedAt   time.Time  `gorm:"column:created_at;index" json:"createdAt"`
	Answer      *string    `gorm:"column:answer;type:text" json:"answer"`
	AnsweredAt  *time.Time `gorm:"column:answered_at" json:"answeredAt"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) Answered() bool {
	return r.Answer != nil
}

// ReportQuota counts a submitter's non-deleted reports. It is bumped with a
// conditional update so the cap holds under concurrent submissions.
type ReportQuota struct {
	Submitter   string    `gorm:"column:submitter;primaryKey"`
	Outstanding int       `gorm:"column:outstanding;not null;default:0"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (ReportQuota) TableName() string {
	return "report_quotas"
}
