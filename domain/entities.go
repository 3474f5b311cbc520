/*
entities.go - Persisted school administration records

PURPOSE:
  One struct per table. Relationships are plain foreign-key ids; nothing here
  holds a pointer to another entity, and related rows are fetched through the
  Store when a handler needs them.

TABLES:
  students, admissions, subjects, timetables, timetable_slots, exams,
  exam_results, fee_structures, fee_items, fee_records, payments, reports,
  users, roles, user_roles

MONEY:
  Fee amounts are decimal.Decimal (JSON strings, numeric(12,2) columns).
  Exam marks stay float64, they are scores rather than money.

SEE ALSO:
  - store.go: Repository and Store contracts
  - store/sqlstore: gorm implementation
*/
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// =============================================================================
// STUDENTS & ADMISSIONS
// =============================================================================

type Student struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	FirstName      string  `gorm:"not null" json:"first_name"`
	LastName       string  `gorm:"not null" json:"last_name"`
	DateOfBirth    Date    `gorm:"not null" json:"date_of_birth"`
	Gender         string  `gorm:"not null" json:"gender"`
	EnrollmentDate Date    `gorm:"not null" json:"enrollment_date"`
	GradeLevel     string  `gorm:"not null;index" json:"grade_level"`
	StudentNumber  string  `gorm:"column:student_id;not null;uniqueIndex" json:"student_id"`
	Address        *string `json:"address"`
	PhoneNumber    *string `json:"phone_number"`
	Email          *string `json:"email"`
	IsActive       bool    `gorm:"not null" json:"is_active"`
	ParentID       *uint   `gorm:"index" json:"parent_id"`
}

type Admission struct {
	ID                      uint            `gorm:"primaryKey" json:"id"`
	ApplicationDate         Date            `gorm:"not null" json:"application_date"`
	Status                  AdmissionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	DesiredGradeLevel       string          `gorm:"not null" json:"desired_grade_level"`
	PreviousSchool          *string         `json:"previous_school"`
	PreviousGradeLevel      *string         `json:"previous_grade_level"`
	Notes                   *string         `gorm:"type:text" json:"notes"`
	FirstName               string          `gorm:"not null" json:"first_name"`
	LastName                string          `gorm:"not null" json:"last_name"`
	DateOfBirth             Date            `gorm:"not null" json:"date_of_birth"`
	Gender                  string          `gorm:"not null" json:"gender"`
	Address                 string          `gorm:"not null" json:"address"`
	PhoneNumber             string          `gorm:"not null" json:"phone_number"`
	Email                   *string         `json:"email"`
	ParentName              string          `gorm:"not null" json:"parent_name"`
	ParentPhone             string          `gorm:"not null" json:"parent_phone"`
	ParentEmail             *string         `json:"parent_email"`
	ParentAddress           *string         `json:"parent_address"`
	RelationshipToApplicant string          `gorm:"not null" json:"relationship_to_applicant"`
	StudentID               *uint           `json:"student_id"`
}

// =============================================================================
// SUBJECTS & TIMETABLES
// =============================================================================

type Subject struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Code        string  `gorm:"not null;uniqueIndex" json:"code"`
	Description *string `gorm:"type:text" json:"description"`
	GradeLevel  string  `gorm:"not null;index" json:"grade_level"`
	Credits     *int    `json:"credits"`
	IsActive    bool    `gorm:"not null" json:"is_active"`
	TeacherID   *uint   `gorm:"index" json:"teacher_id"`
}

type Timetable struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"not null" json:"name"`
	Description  *string `gorm:"type:text" json:"description"`
	AcademicYear string  `gorm:"not null" json:"academic_year"`
	Term         string  `gorm:"not null" json:"term"`
	GradeLevel   string  `gorm:"not null" json:"grade_level"`
	Section      *string `json:"section"`
	IsActive     bool    `gorm:"not null" json:"is_active"`
}

// TimetableSlot is one subject on one weekday. Within a timetable, slots on
// the same day never overlap as [StartTime, EndTime) intervals.
type TimetableSlot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Day         Weekday   `gorm:"type:varchar(10);not null;index:idx_slot_timetable_day,priority:2" json:"day"`
	StartTime   ClockTime `gorm:"not null" json:"start_time"`
	EndTime     ClockTime `gorm:"not null" json:"end_time"`
	RoomNumber  *string   `json:"room_number"`
	TimetableID uint      `gorm:"not null;index:idx_slot_timetable_day,priority:1" json:"timetable_id"`
	SubjectID   uint      `gorm:"not null" json:"subject_id"`
	TeacherID   *uint     `json:"teacher_id"`
}

// =============================================================================
// EXAMS
// =============================================================================

type Exam struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Name         string   `gorm:"not null" json:"name"`
	Description  *string  `gorm:"type:text" json:"description"`
	ExamType     ExamType `gorm:"type:varchar(20);not null" json:"exam_type"`
	Date         Date     `gorm:"not null" json:"date"`
	StartTime    *string  `json:"start_time"`
	EndTime      *string  `json:"end_time"`
	TotalMarks   float64  `gorm:"not null" json:"total_marks"`
	PassingMarks float64  `gorm:"not null" json:"passing_marks"`
	GradeLevel   string   `gorm:"not null" json:"grade_level"`
	AcademicYear string   `gorm:"not null" json:"academic_year"`
	Term         string   `gorm:"not null" json:"term"`
	Instructions *string  `gorm:"type:text" json:"instructions"`
}

// ExamResult is unique per (student, exam, subject).
type ExamResult struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Score     float64 `gorm:"not null" json:"score"`
	Grade     *string `json:"grade"`
	Remarks   *string `gorm:"type:text" json:"remarks"`
	StudentID uint    `gorm:"not null;uniqueIndex:idx_result_student_exam_subject" json:"student_id"`
	ExamID    uint    `gorm:"not null;uniqueIndex:idx_result_student_exam_subject;index" json:"exam_id"`
	SubjectID uint    `gorm:"not null;uniqueIndex:idx_result_student_exam_subject" json:"subject_id"`
}

// =============================================================================
// FEES & PAYMENTS
// =============================================================================

type FeeStructure struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"not null" json:"name"`
	Description  *string `gorm:"type:text" json:"description"`
	AcademicYear string  `gorm:"not null" json:"academic_year"`
	GradeLevel   string  `gorm:"not null" json:"grade_level"`
	IsActive     bool    `gorm:"not null" json:"is_active"`
}

type FeeItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Description    *string         `gorm:"type:text" json:"description"`
	FeeType        FeeType         `gorm:"type:varchar(20);not null" json:"fee_type"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	DueDate        *Date           `json:"due_date"`
	IsMandatory    bool            `gorm:"not null" json:"is_mandatory"`
	FeeStructureID uint            `gorm:"not null;index" json:"fee_structure_id"`
}

// FeeRecord is a student's obligation for a term. Balance always equals
// TotalAmount - PaidAmount; package fees keeps it that way.
type FeeRecord struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	AcademicYear   string          `gorm:"not null" json:"academic_year"`
	Term           string          `gorm:"not null" json:"term"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"paid_amount"`
	Balance        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"balance"`
	Status         PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	DueDate        Date            `gorm:"not null" json:"due_date"`
	StudentID      uint            `gorm:"not null;index" json:"student_id"`
	FeeStructureID uint            `gorm:"not null" json:"fee_structure_id"`
}

type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	TransactionID *string         `json:"transaction_id"`
	ReceiptNumber *string         `json:"receipt_number"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	FeeRecordID   uint            `gorm:"not null;index" json:"fee_record_id"`
}

// =============================================================================
// REPORTS
// =============================================================================

type Report struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Title             string         `gorm:"not null" json:"title"`
	Description       *string        `gorm:"type:text" json:"description"`
	ReportType        ReportType     `gorm:"type:varchar(20);not null;index" json:"report_type"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	CreatedBy         uint           `gorm:"not null;index" json:"created_by"`
	Parameters        datatypes.JSON `json:"parameters"`
	FilePath          *string        `json:"file_path"`
	IsScheduled       bool           `gorm:"not null" json:"is_scheduled"`
	ScheduleFrequency *string        `json:"schedule_frequency"`
	LastRun           *time.Time     `json:"last_run"`
	NextRun           *time.Time     `json:"next_run"`
}

// =============================================================================
// USERS & ROLES
// =============================================================================

type User struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Email          string  `gorm:"not null;uniqueIndex" json:"email"`
	FullName       *string `json:"full_name"`
	HashedPassword string  `gorm:"not null" json:"-"`
	IsActive       bool    `gorm:"not null" json:"is_active"`
	IsSuperuser    bool    `gorm:"not null" json:"is_superuser"`
}

type Role struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null;uniqueIndex" json:"name"`
	Description *string `json:"description"`
}

// UserRole is the users <-> roles join row.
type UserRole struct {
	UserID uint `gorm:"primaryKey"`
	RoleID uint `gorm:"primaryKey"`
}

// Models lists every table for migration, in dependency order.
func Models() []any {
	return []any{
		&User{}, &Role{}, &UserRole{},
		&Student{}, &Admission{},
		&Subject{}, &Timetable{}, &TimetableSlot{},
		&Exam{}, &ExamResult{},
		&FeeStructure{}, &FeeItem{}, &FeeRecord{}, &Payment{},
		&Report{},
	}
}
