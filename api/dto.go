/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Request bodies for creates, plus the few response shapes that are not an
  entity. Entities serialize themselves (domain/entities.go), and PUT bodies
  decode straight into the domain patch types (domain/patch.go).

NAMING CONVENTION:
  - Create*Request: POST bodies, with toModel() filling defaults
  - *Request / *Response: everything else

VALIDATION:
  Struct tags are checked by validate.go after decoding. Rules the tags
  cannot express (referenced rows exist, slot ranges, reconciliation) live
  in the handlers.

SEE ALSO:
  - handlers.go: uses these types
  - validate.go: tag rules, custom "enum" and "frequency" tags
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/warp/schooladmin/domain"
)

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Details   string            `json:"details,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Conflicts []uint            `json:"conflicts,omitempty"`
}

// ScenarioDTO describes a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// =============================================================================
// AUTH & USERS
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=4"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
}

type CreateRoleRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type SetRolesRequest struct {
	RoleIDs []uint `json:"role_ids" validate:"dive,gt=0"`
}

// =============================================================================
// STUDENTS & ADMISSIONS
// =============================================================================

type CreateStudentRequest struct {
	FirstName      string      `json:"first_name" validate:"required"`
	LastName       string      `json:"last_name" validate:"required"`
	DateOfBirth    domain.Date `json:"date_of_birth" validate:"required"`
	Gender         string      `json:"gender" validate:"required"`
	EnrollmentDate domain.Date `json:"enrollment_date" validate:"required"`
	GradeLevel     string      `json:"grade_level" validate:"required"`
	StudentNumber  string      `json:"student_id" validate:"required"`
	Address        *string     `json:"address"`
	PhoneNumber    *string     `json:"phone_number"`
	Email          *string     `json:"email" validate:"omitempty,email"`
	IsActive       *bool       `json:"is_active"`
	ParentID       *uint       `json:"parent_id"`
}

func (req CreateStudentRequest) toModel() domain.Student {
	return domain.Student{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		EnrollmentDate: req.EnrollmentDate,
		GradeLevel:     req.GradeLevel,
		StudentNumber:  req.StudentNumber,
		Address:        req.Address,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		IsActive:       boolOr(req.IsActive, true),
		ParentID:       req.ParentID,
	}
}

type CreateAdmissionRequest struct {
	ApplicationDate         domain.Date             `json:"application_date" validate:"required"`
	Status                  *domain.AdmissionStatus `json:"status" validate:"omitempty,enum"`
	DesiredGradeLevel       string                  `json:"desired_grade_level" validate:"required"`
	PreviousSchool          *string                 `json:"previous_school"`
	PreviousGradeLevel      *string                 `json:"previous_grade_level"`
	Notes                   *string                 `json:"notes"`
	FirstName               string                  `json:"first_name" validate:"required"`
	LastName                string                  `json:"last_name" validate:"required"`
	DateOfBirth             domain.Date             `json:"date_of_birth" validate:"required"`
	Gender                  string                  `json:"gender" validate:"required"`
	Address                 string                  `json:"address" validate:"required"`
	PhoneNumber             string                  `json:"phone_number" validate:"required"`
	Email                   *string                 `json:"email" validate:"omitempty,email"`
	ParentName              string                  `json:"parent_name" validate:"required"`
	ParentPhone             string                  `json:"parent_phone" validate:"required"`
	ParentEmail             *string                 `json:"parent_email" validate:"omitempty,email"`
	ParentAddress           *string                 `json:"parent_address"`
	RelationshipToApplicant string                  `json:"relationship_to_applicant" validate:"required"`
	StudentID               *uint                   `json:"student_id"`
}

func (req CreateAdmissionRequest) toModel() domain.Admission {
	status := domain.AdmissionPending
	if req.Status != nil {
		status = *req.Status
	}
	return domain.Admission{
		ApplicationDate:         req.ApplicationDate,
		Status:                  status,
		DesiredGradeLevel:       req.DesiredGradeLevel,
		PreviousSchool:          req.PreviousSchool,
		PreviousGradeLevel:      req.PreviousGradeLevel,
		Notes:                   req.Notes,
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		DateOfBirth:             req.DateOfBirth,
		Gender:                  req.Gender,
		Address:                 req.Address,
		PhoneNumber:             req.PhoneNumber,
		Email:                   req.Email,
		ParentName:              req.ParentName,
		ParentPhone:             req.ParentPhone,
		ParentEmail:             req.ParentEmail,
		ParentAddress:           req.ParentAddress,
		RelationshipToApplicant: req.RelationshipToApplicant,
		StudentID:               req.StudentID,
	}
}

// =============================================================================
// SUBJECTS & TIMETABLES
// =============================================================================

type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required"`
	Code        string  `json:"code" validate:"required"`
	Description *string `json:"description"`
	GradeLevel  string  `json:"grade_level" validate:"required"`
	Credits     *int    `json:"credits" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active"`
	TeacherID   *uint   `json:"teacher_id"`
}

func (req CreateSubjectRequest) toModel() domain.Subject {
	return domain.Subject{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		GradeLevel:  req.GradeLevel,
		Credits:     req.Credits,
		IsActive:    boolOr(req.IsActive, true),
		TeacherID:   req.TeacherID,
	}
}

type CreateTimetableRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	Term         string  `json:"term" validate:"required"`
	GradeLevel   string  `json:"grade_level" validate:"required"`
	Section      *string `json:"section"`
	IsActive     *bool   `json:"is_active"`
}

func (req CreateTimetableRequest) toModel() domain.Timetable {
	return domain.Timetable{
		Name:         req.Name,
		Description:  req.Description,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		GradeLevel:   req.GradeLevel,
		Section:      req.Section,
		IsActive:     boolOr(req.IsActive, true),
	}
}

type CreateSlotRequest struct {
	Day         domain.Weekday   `json:"day" validate:"required,enum"`
	StartTime   domain.ClockTime `json:"start_time"`
	EndTime     domain.ClockTime `json:"end_time"`
	RoomNumber  *string          `json:"room_number"`
	TimetableID uint             `json:"timetable_id" validate:"required"`
	SubjectID   uint             `json:"subject_id" validate:"required"`
	TeacherID   *uint            `json:"teacher_id"`
}

func (req CreateSlotRequest) toModel() domain.TimetableSlot {
	return domain.TimetableSlot{
		Day:         req.Day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		RoomNumber:  req.RoomNumber,
		TimetableID: req.TimetableID,
		SubjectID:   req.SubjectID,
		TeacherID:   req.TeacherID,
	}
}

// =============================================================================
// EXAMS
// =============================================================================

type CreateExamRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  *string         `json:"description"`
	ExamType     domain.ExamType `json:"exam_type" validate:"required,enum"`
	Date         domain.Date     `json:"date" validate:"required"`
	StartTime    *string         `json:"start_time"`
	EndTime      *string         `json:"end_time"`
	TotalMarks   float64         `json:"total_marks" validate:"gt=0"`
	PassingMarks float64         `json:"passing_marks" validate:"gte=0,ltefield=TotalMarks"`
	GradeLevel   string          `json:"grade_level" validate:"required"`
	AcademicYear string          `json:"academic_year" validate:"required"`
	Term         string          `json:"term" validate:"required"`
	Instructions *string         `json:"instructions"`
}

func (req CreateExamRequest) toModel() domain.Exam {
	return domain.Exam{
		Name:         req.Name,
		Description:  req.Description,
		ExamType:     req.ExamType,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		TotalMarks:   req.TotalMarks,
		PassingMarks: req.PassingMarks,
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		Instructions: req.Instructions,
	}
}

type CreateExamResultRequest struct {
	Score     float64 `json:"score" validate:"gte=0"`
	Grade     *string `json:"grade"`
	Remarks   *string `json:"remarks"`
	StudentID uint    `json:"student_id" validate:"required"`
	ExamID    uint    `json:"exam_id" validate:"required"`
	SubjectID uint    `json:"subject_id" validate:"required"`
}

func (req CreateExamResultRequest) toModel() domain.ExamResult {
	return domain.ExamResult{
		Score:     req.Score,
		Grade:     req.Grade,
		Remarks:   req.Remarks,
		StudentID: req.StudentID,
		ExamID:    req.ExamID,
		SubjectID: req.SubjectID,
	}
}

// =============================================================================
// FEES & PAYMENTS
// =============================================================================

type CreateFeeStructureRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	GradeLevel   string  `json:"grade_level" validate:"required"`
	IsActive     *bool   `json:"is_active"`
}

func (req CreateFeeStructureRequest) toModel() domain.FeeStructure {
	return domain.FeeStructure{
		Name:         req.Name,
		Description:  req.Description,
		AcademicYear: req.AcademicYear,
		GradeLevel:   req.GradeLevel,
		IsActive:     boolOr(req.IsActive, true),
	}
}

type CreateFeeItemRequest struct {
	Name           string          `json:"name" validate:"required"`
	Description    *string         `json:"description"`
	FeeType        domain.FeeType  `json:"fee_type" validate:"required,enum"`
	Amount         decimal.Decimal `json:"amount" validate:"gte=0"`
	DueDate        *domain.Date    `json:"due_date"`
	IsMandatory    *bool           `json:"is_mandatory"`
	FeeStructureID uint            `json:"fee_structure_id" validate:"required"`
}

func (req CreateFeeItemRequest) toModel() domain.FeeItem {
	return domain.FeeItem{
		Name:           req.Name,
		Description:    req.Description,
		FeeType:        req.FeeType,
		Amount:         req.Amount,
		DueDate:        req.DueDate,
		IsMandatory:    boolOr(req.IsMandatory, true),
		FeeStructureID: req.FeeStructureID,
	}
}

// CreateFeeRecordRequest omits paid_amount and balance; a new record has no
// payments and its balance is its total.
type CreateFeeRecordRequest struct {
	AcademicYear   string                `json:"academic_year" validate:"required"`
	Term           string                `json:"term" validate:"required"`
	TotalAmount    decimal.Decimal       `json:"total_amount" validate:"gte=0"`
	Status         *domain.PaymentStatus `json:"status" validate:"omitempty,enum"`
	DueDate        domain.Date           `json:"due_date" validate:"required"`
	StudentID      uint                  `json:"student_id" validate:"required"`
	FeeStructureID uint                  `json:"fee_structure_id" validate:"required"`
}

func (req CreateFeeRecordRequest) toModel() domain.FeeRecord {
	rec := domain.FeeRecord{
		AcademicYear:   req.AcademicYear,
		Term:           req.Term,
		TotalAmount:    req.TotalAmount,
		DueDate:        req.DueDate,
		StudentID:      req.StudentID,
		FeeStructureID: req.FeeStructureID,
	}
	if req.Status != nil {
		rec.Status = *req.Status
	}
	return rec
}

// FromStructureRequest builds a fee record from a structure's items.
type FromStructureRequest struct {
	StudentID      uint         `json:"student_id" validate:"required"`
	FeeStructureID uint         `json:"fee_structure_id" validate:"required"`
	Term           string       `json:"term" validate:"required"`
	DueDate        *domain.Date `json:"due_date"`
	MandatoryOnly  *bool        `json:"mandatory_only"`
}

type CreatePaymentRequest struct {
	Amount        decimal.Decimal      `json:"amount" validate:"gt=0"`
	PaymentDate   *domain.Timestamp    `json:"payment_date"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" validate:"required,enum"`
	TransactionID *string              `json:"transaction_id"`
	ReceiptNumber *string              `json:"receipt_number"`
	Notes         *string              `json:"notes"`
	FeeRecordID   uint                 `json:"fee_record_id" validate:"required"`
}

func (req CreatePaymentRequest) toModel(now time.Time) domain.Payment {
	paid := now
	if req.PaymentDate != nil {
		paid = req.PaymentDate.Time
	}
	return domain.Payment{
		Amount:        req.Amount,
		PaymentDate:   paid,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		ReceiptNumber: req.ReceiptNumber,
		Notes:         req.Notes,
		FeeRecordID:   req.FeeRecordID,
	}
}

// =============================================================================
// REPORTS
// =============================================================================

type CreateReportRequest struct {
	Title             string            `json:"title" validate:"required"`
	Description       *string           `json:"description"`
	ReportType        domain.ReportType `json:"report_type" validate:"required,enum"`
	Parameters        json.RawMessage   `json:"parameters"`
	FilePath          *string           `json:"file_path"`
	IsScheduled       bool              `json:"is_scheduled"`
	ScheduleFrequency *string           `json:"schedule_frequency" validate:"omitempty,frequency"`
	NextRun           *domain.Timestamp `json:"next_run"`
	CreatedBy         *uint             `json:"created_by"`
}

func (req CreateReportRequest) toModel(createdBy uint) domain.Report {
	return domain.Report{
		Title:             req.Title,
		Description:       req.Description,
		ReportType:        req.ReportType,
		CreatedBy:         createdBy,
		Parameters:        jsonOrEmpty(req.Parameters),
		FilePath:          req.FilePath,
		IsScheduled:       req.IsScheduled,
		ScheduleFrequency: req.ScheduleFrequency,
		NextRun:           req.NextRun.TimePtr(),
	}
}

// jsonOrEmpty stores absent or null parameters as an empty object.
func jsonOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
