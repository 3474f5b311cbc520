/*
patch.go - Typed partial updates

PURPOSE:
  Each XxxPatch lists the fields a PUT may change. A nil pointer (or a
  Nullable with Set == false) leaves the column alone; Apply copies the rest
  onto a loaded row. Handlers decode request bodies straight into these.

NOT PATCHABLE:
  - FeeRecord.paid_amount / balance: derived from payments (package fees)
  - Payment.fee_record_id, TimetableSlot.timetable_id: ownership is fixed
  - User.hashed_password: use the password field, hashed by the handler
*/
package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

type StudentPatch struct {
	FirstName      *string          `json:"first_name" validate:"omitempty,min=1"`
	LastName       *string          `json:"last_name" validate:"omitempty,min=1"`
	DateOfBirth    *Date            `json:"date_of_birth"`
	Gender         *string          `json:"gender" validate:"omitempty,min=1"`
	EnrollmentDate *Date            `json:"enrollment_date"`
	GradeLevel     *string          `json:"grade_level" validate:"omitempty,min=1"`
	StudentNumber  *string          `json:"student_id" validate:"omitempty,min=1"`
	Address        Nullable[string] `json:"address"`
	PhoneNumber    Nullable[string] `json:"phone_number"`
	Email          Nullable[string] `json:"email" validate:"omitempty,email"`
	IsActive       *bool            `json:"is_active"`
	ParentID       Nullable[uint]   `json:"parent_id"`
}

func (p StudentPatch) Apply(s *Student) {
	setIf(&s.FirstName, p.FirstName)
	setIf(&s.LastName, p.LastName)
	setIf(&s.DateOfBirth, p.DateOfBirth)
	setIf(&s.Gender, p.Gender)
	setIf(&s.EnrollmentDate, p.EnrollmentDate)
	setIf(&s.GradeLevel, p.GradeLevel)
	setIf(&s.StudentNumber, p.StudentNumber)
	p.Address.applyTo(&s.Address)
	p.PhoneNumber.applyTo(&s.PhoneNumber)
	p.Email.applyTo(&s.Email)
	setIf(&s.IsActive, p.IsActive)
	p.ParentID.applyTo(&s.ParentID)
}

type AdmissionPatch struct {
	ApplicationDate         *Date            `json:"application_date"`
	Status                  *AdmissionStatus `json:"status" validate:"omitempty,enum"`
	DesiredGradeLevel       *string          `json:"desired_grade_level" validate:"omitempty,min=1"`
	PreviousSchool          Nullable[string] `json:"previous_school"`
	PreviousGradeLevel      Nullable[string] `json:"previous_grade_level"`
	Notes                   Nullable[string] `json:"notes"`
	FirstName               *string          `json:"first_name" validate:"omitempty,min=1"`
	LastName                *string          `json:"last_name" validate:"omitempty,min=1"`
	DateOfBirth             *Date            `json:"date_of_birth"`
	Gender                  *string          `json:"gender" validate:"omitempty,min=1"`
	Address                 *string          `json:"address" validate:"omitempty,min=1"`
	PhoneNumber             *string          `json:"phone_number" validate:"omitempty,min=1"`
	Email                   Nullable[string] `json:"email" validate:"omitempty,email"`
	ParentName              *string          `json:"parent_name" validate:"omitempty,min=1"`
	ParentPhone             *string          `json:"parent_phone" validate:"omitempty,min=1"`
	ParentEmail             Nullable[string] `json:"parent_email" validate:"omitempty,email"`
	ParentAddress           Nullable[string] `json:"parent_address"`
	RelationshipToApplicant *string          `json:"relationship_to_applicant" validate:"omitempty,min=1"`
	StudentID               Nullable[uint]   `json:"student_id"`
}

func (p AdmissionPatch) Apply(a *Admission) {
	setIf(&a.ApplicationDate, p.ApplicationDate)
	setIf(&a.Status, p.Status)
	setIf(&a.DesiredGradeLevel, p.DesiredGradeLevel)
	p.PreviousSchool.applyTo(&a.PreviousSchool)
	p.PreviousGradeLevel.applyTo(&a.PreviousGradeLevel)
	p.Notes.applyTo(&a.Notes)
	setIf(&a.FirstName, p.FirstName)
	setIf(&a.LastName, p.LastName)
	setIf(&a.DateOfBirth, p.DateOfBirth)
	setIf(&a.Gender, p.Gender)
	setIf(&a.Address, p.Address)
	setIf(&a.PhoneNumber, p.PhoneNumber)
	p.Email.applyTo(&a.Email)
	setIf(&a.ParentName, p.ParentName)
	setIf(&a.ParentPhone, p.ParentPhone)
	p.ParentEmail.applyTo(&a.ParentEmail)
	p.ParentAddress.applyTo(&a.ParentAddress)
	setIf(&a.RelationshipToApplicant, p.RelationshipToApplicant)
	p.StudentID.applyTo(&a.StudentID)
}

type SubjectPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Code        *string          `json:"code" validate:"omitempty,min=1"`
	Description Nullable[string] `json:"description"`
	GradeLevel  *string          `json:"grade_level" validate:"omitempty,min=1"`
	Credits     Nullable[int]    `json:"credits" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"is_active"`
	TeacherID   Nullable[uint]   `json:"teacher_id"`
}

func (p SubjectPatch) Apply(s *Subject) {
	setIf(&s.Name, p.Name)
	setIf(&s.Code, p.Code)
	p.Description.applyTo(&s.Description)
	setIf(&s.GradeLevel, p.GradeLevel)
	p.Credits.applyTo(&s.Credits)
	setIf(&s.IsActive, p.IsActive)
	p.TeacherID.applyTo(&s.TeacherID)
}

type TimetablePatch struct {
	Name         *string          `json:"name" validate:"omitempty,min=1"`
	Description  Nullable[string] `json:"description"`
	AcademicYear *string          `json:"academic_year" validate:"omitempty,min=1"`
	Term         *string          `json:"term" validate:"omitempty,min=1"`
	GradeLevel   *string          `json:"grade_level" validate:"omitempty,min=1"`
	Section      Nullable[string] `json:"section"`
	IsActive     *bool            `json:"is_active"`
}

func (p TimetablePatch) Apply(t *Timetable) {
	setIf(&t.Name, p.Name)
	p.Description.applyTo(&t.Description)
	setIf(&t.AcademicYear, p.AcademicYear)
	setIf(&t.Term, p.Term)
	setIf(&t.GradeLevel, p.GradeLevel)
	p.Section.applyTo(&t.Section)
	setIf(&t.IsActive, p.IsActive)
}

type SlotPatch struct {
	Day        *Weekday         `json:"day" validate:"omitempty,enum"`
	StartTime  *ClockTime       `json:"start_time"`
	EndTime    *ClockTime       `json:"end_time"`
	RoomNumber Nullable[string] `json:"room_number"`
	SubjectID  *uint            `json:"subject_id"`
	TeacherID  Nullable[uint]   `json:"teacher_id"`
}

// TouchesTime reports whether the patch changes the slot's day or interval.
func (p SlotPatch) TouchesTime() bool {
	return p.Day != nil || p.StartTime != nil || p.EndTime != nil
}

func (p SlotPatch) Apply(s *TimetableSlot) {
	setIf(&s.Day, p.Day)
	setIf(&s.StartTime, p.StartTime)
	setIf(&s.EndTime, p.EndTime)
	p.RoomNumber.applyTo(&s.RoomNumber)
	setIf(&s.SubjectID, p.SubjectID)
	p.TeacherID.applyTo(&s.TeacherID)
}

type ExamPatch struct {
	Name         *string          `json:"name" validate:"omitempty,min=1"`
	Description  Nullable[string] `json:"description"`
	ExamType     *ExamType        `json:"exam_type" validate:"omitempty,enum"`
	Date         *Date            `json:"date"`
	StartTime    Nullable[string] `json:"start_time"`
	EndTime      Nullable[string] `json:"end_time"`
	TotalMarks   *float64         `json:"total_marks" validate:"omitempty,gt=0"`
	PassingMarks *float64         `json:"passing_marks" validate:"omitempty,gte=0"`
	GradeLevel   *string          `json:"grade_level" validate:"omitempty,min=1"`
	AcademicYear *string          `json:"academic_year" validate:"omitempty,min=1"`
	Term         *string          `json:"term" validate:"omitempty,min=1"`
	Instructions Nullable[string] `json:"instructions"`
}

func (p ExamPatch) Apply(e *Exam) {
	setIf(&e.Name, p.Name)
	p.Description.applyTo(&e.Description)
	setIf(&e.ExamType, p.ExamType)
	setIf(&e.Date, p.Date)
	p.StartTime.applyTo(&e.StartTime)
	p.EndTime.applyTo(&e.EndTime)
	setIf(&e.TotalMarks, p.TotalMarks)
	setIf(&e.PassingMarks, p.PassingMarks)
	setIf(&e.GradeLevel, p.GradeLevel)
	setIf(&e.AcademicYear, p.AcademicYear)
	setIf(&e.Term, p.Term)
	p.Instructions.applyTo(&e.Instructions)
}

type ExamResultPatch struct {
	Score   *float64         `json:"score" validate:"omitempty,gte=0"`
	Grade   Nullable[string] `json:"grade"`
	Remarks Nullable[string] `json:"remarks"`
}

func (p ExamResultPatch) Apply(r *ExamResult) {
	setIf(&r.Score, p.Score)
	p.Grade.applyTo(&r.Grade)
	p.Remarks.applyTo(&r.Remarks)
}

type FeeStructurePatch struct {
	Name         *string          `json:"name" validate:"omitempty,min=1"`
	Description  Nullable[string] `json:"description"`
	AcademicYear *string          `json:"academic_year" validate:"omitempty,min=1"`
	GradeLevel   *string          `json:"grade_level" validate:"omitempty,min=1"`
	IsActive     *bool            `json:"is_active"`
}

func (p FeeStructurePatch) Apply(s *FeeStructure) {
	setIf(&s.Name, p.Name)
	p.Description.applyTo(&s.Description)
	setIf(&s.AcademicYear, p.AcademicYear)
	setIf(&s.GradeLevel, p.GradeLevel)
	setIf(&s.IsActive, p.IsActive)
}

type FeeItemPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Description Nullable[string] `json:"description"`
	FeeType     *FeeType         `json:"fee_type" validate:"omitempty,enum"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	DueDate     Nullable[Date]   `json:"due_date"`
	IsMandatory *bool            `json:"is_mandatory"`
}

func (p FeeItemPatch) Apply(i *FeeItem) {
	setIf(&i.Name, p.Name)
	p.Description.applyTo(&i.Description)
	setIf(&i.FeeType, p.FeeType)
	setIf(&i.Amount, p.Amount)
	p.DueDate.applyTo(&i.DueDate)
	setIf(&i.IsMandatory, p.IsMandatory)
}

// FeeRecordPatch covers the descriptive fields of a record. TotalAmount is
// applied by fees.Retotal rather than Apply so the balance follows it.
type FeeRecordPatch struct {
	AcademicYear *string          `json:"academic_year" validate:"omitempty,min=1"`
	Term         *string          `json:"term" validate:"omitempty,min=1"`
	TotalAmount  *decimal.Decimal `json:"total_amount" validate:"omitempty,gte=0"`
	Status       *PaymentStatus   `json:"status" validate:"omitempty,enum"`
	DueDate      *Date            `json:"due_date"`
}

func (p FeeRecordPatch) Apply(r *FeeRecord) {
	setIf(&r.AcademicYear, p.AcademicYear)
	setIf(&r.Term, p.Term)
	setIf(&r.Status, p.Status)
	setIf(&r.DueDate, p.DueDate)
}

// PaymentPatch leaves Amount to the caller, which must reconcile the owning
// record when it changes.
type PaymentPatch struct {
	Amount        *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	PaymentDate   *Timestamp       `json:"payment_date"`
	PaymentMethod *PaymentMethod   `json:"payment_method" validate:"omitempty,enum"`
	TransactionID Nullable[string] `json:"transaction_id"`
	ReceiptNumber Nullable[string] `json:"receipt_number"`
	Notes         Nullable[string] `json:"notes"`
}

func (p PaymentPatch) Apply(pay *Payment) {
	if p.PaymentDate != nil {
		pay.PaymentDate = p.PaymentDate.Time
	}
	setIf(&pay.PaymentMethod, p.PaymentMethod)
	p.TransactionID.applyTo(&pay.TransactionID)
	p.ReceiptNumber.applyTo(&pay.ReceiptNumber)
	p.Notes.applyTo(&pay.Notes)
}

type ReportPatch struct {
	Title             *string             `json:"title" validate:"omitempty,min=1"`
	Description       Nullable[string]    `json:"description"`
	ReportType        *ReportType         `json:"report_type" validate:"omitempty,enum"`
	Parameters        *datatypes.JSON     `json:"parameters"`
	FilePath          Nullable[string]    `json:"file_path"`
	IsScheduled       *bool               `json:"is_scheduled"`
	ScheduleFrequency Nullable[string]    `json:"schedule_frequency" validate:"omitempty,frequency"`
	LastRun           Nullable[Timestamp] `json:"last_run"`
	NextRun           Nullable[Timestamp] `json:"next_run"`
}

func (p ReportPatch) Apply(r *Report) {
	setIf(&r.Title, p.Title)
	p.Description.applyTo(&r.Description)
	setIf(&r.ReportType, p.ReportType)
	setIf(&r.Parameters, p.Parameters)
	p.FilePath.applyTo(&r.FilePath)
	setIf(&r.IsScheduled, p.IsScheduled)
	p.ScheduleFrequency.applyTo(&r.ScheduleFrequency)
	if p.LastRun.Set {
		r.LastRun = p.LastRun.Value.TimePtr()
	}
	if p.NextRun.Set {
		r.NextRun = p.NextRun.Value.TimePtr()
	}
}

type UserPatch struct {
	Email       *string          `json:"email" validate:"omitempty,email"`
	FullName    Nullable[string] `json:"full_name"`
	Password    *string          `json:"password" validate:"omitempty,min=4"`
	IsActive    *bool            `json:"is_active"`
	IsSuperuser *bool            `json:"is_superuser"`
}

// Apply copies everything except Password, which the caller hashes.
func (p UserPatch) Apply(u *User) {
	setIf(&u.Email, p.Email)
	p.FullName.applyTo(&u.FullName)
	setIf(&u.IsActive, p.IsActive)
	setIf(&u.IsSuperuser, p.IsSuperuser)
}
