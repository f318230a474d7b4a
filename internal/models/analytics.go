package models

import "time"

// ReadinessLevel buckets a readiness score.
type ReadinessLevel string

const (
	ReadinessHigh     ReadinessLevel = "HIGH"
	ReadinessModerate ReadinessLevel = "MODERATE"
	ReadinessLow      ReadinessLevel = "LOW"
)

// ReadinessForScore maps an average score onto a readiness level.
func ReadinessForScore(score float64) ReadinessLevel {
	switch {
	case score >= 80:
		return ReadinessHigh
	case score >= 65:
		return ReadinessModerate
	default:
		return ReadinessLow
	}
}

// SubjectReadiness is a student's readiness within one subject.
type SubjectReadiness struct {
	SubjectID    string         `db:"subject_id" json:"subject_id"`
	SubjectName  string         `db:"subject_name" json:"subject_name"`
	AverageScore float64        `db:"average_score" json:"average_score"`
	Attempts     int            `db:"attempts" json:"attempts"`
	Level        ReadinessLevel `db:"-" json:"level"`
}

// StudentReadiness is the overall readiness summary for one student.
type StudentReadiness struct {
	StudentID    string             `json:"student_id"`
	AverageScore float64            `json:"average_score"`
	Level        ReadinessLevel     `json:"level"`
	Subjects     []SubjectReadiness `json:"subjects"`
}

// ExamAttempt is one mock-exam history row in a student record.
type ExamAttempt struct {
	AssessmentID    string    `db:"assessment_id" json:"assessment_id"`
	AssessmentTitle string    `db:"assessment_title" json:"assessment_title"`
	SubjectName     string    `db:"subject_name" json:"subject_name"`
	Score           float64   `db:"score" json:"score"`
	Passed          bool      `db:"passed" json:"passed"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submitted_at"`
}

// StudentRecord is the full analytics view of one student.
type StudentRecord struct {
	Student       UserInfo         `json:"student"`
	Readiness     StudentReadiness `json:"readiness"`
	ExamHistory   []ExamAttempt    `json:"exam_history"`
	MaterialsRead int              `json:"materials_read"`
	StudyHours    float64          `json:"study_hours"`
	StreakDays    int              `json:"streak_days"`
	LoginCount    int              `json:"login_count"`
	LastActive    *time.Time       `json:"last_active,omitempty"`
}

// StudentRosterRow summarizes a student in the analytics roster.
type StudentRosterRow struct {
	StudentID       string         `db:"student_id" json:"student_id"`
	FullName        string         `db:"full_name" json:"full_name"`
	InstitutionalID string         `db:"institutional_id" json:"institutional_id"`
	AverageScore    float64        `db:"average_score" json:"average_score"`
	Attempts        int            `db:"attempts" json:"attempts"`
	Level           ReadinessLevel `db:"-" json:"level"`
}

// RosterFilter constrains analytics roster queries.
type RosterFilter struct {
	Search   string
	Level    *ReadinessLevel
	Page     int
	PageSize int
}

// AdminDashboard is the admin landing summary.
type AdminDashboard struct {
	TotalUsers        int              `json:"total_users"`
	TotalStudents     int              `json:"total_students"`
	TotalFaculty      int              `json:"total_faculty"`
	TotalSubjects     int              `json:"total_subjects"`
	TotalContent      int              `json:"total_content"`
	TotalAssessments  int              `json:"total_assessments"`
	PendingApprovals  PendingCounts    `json:"pending_approvals"`
	AverageReadiness  float64          `json:"average_readiness"`
	UserGrowth7d      []DailyCount     `json:"user_growth_7d"`
	RoleDistribution  map[string]int   `json:"role_distribution"`
	RecentActivity    []ActivityLog    `json:"recent_activity"`
	MaintenanceMode   bool             `json:"maintenance_mode"`
}

// PendingCounts breaks down items awaiting review.
type PendingCounts struct {
	Content        int `db:"content" json:"content"`
	Assessments    int `db:"assessments" json:"assessments"`
	SubjectChanges int `db:"subject_changes" json:"subject_changes"`
	Users          int `db:"users" json:"users"`
}

// DailyCount is one point of a per-day series.
type DailyCount struct {
	Date  string `db:"date" json:"date"`
	Count int    `db:"count" json:"count"`
}

// FacultyDashboard summarizes a faculty member's own items.
type FacultyDashboard struct {
	MyContent         int           `json:"my_content"`
	MyAssessments     int           `json:"my_assessments"`
	PendingReview     int           `json:"pending_review"`
	RevisionRequested int           `json:"revision_requested"`
	OpenRevisions     int           `json:"open_revisions"`
	RecentActivity    []ActivityLog `json:"recent_activity"`
}

// SubjectProgress is a student's completion within one subject.
type SubjectProgress struct {
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	SubjectName    string         `db:"subject_name" json:"subject_name"`
	TotalContent   int            `db:"total_content" json:"total_content"`
	CompletedCount int            `db:"completed_count" json:"completed_count"`
	AverageScore   float64        `db:"average_score" json:"average_score"`
	Level          ReadinessLevel `db:"-" json:"level"`
}

// StudentDashboard is the mobile landing summary.
type StudentDashboard struct {
	Subjects      []SubjectProgress `json:"subjects"`
	Readiness     StudentReadiness  `json:"readiness"`
	StreakDays    int               `json:"streak_days"`
	TotalPassed   int               `json:"total_passed"`
	TotalAttempts int               `json:"total_attempts"`
}
