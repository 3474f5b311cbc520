/*
store.go - Persistence interface for school records

PURPOSE:
  Defines the boundary between request handling and the database. Every
  entity gets the same Repository shape; lookups that used to be ORM
  back-references are filter fields here (e.g. SlotFilter.TimetableID).

KEY INTERFACES:
  Repository[T, F]: CRUD + filtered listing for one table
  Store:            one Repository per table, row locking, user roles, WithTx

FILTERS:
  Every XxxFilter embeds Page. A nil pointer field means "don't filter on
  this"; Page.Limit == 0 means no limit.

TRANSACTIONS:
  WithTx hands fn a Store bound to one database transaction. Code inside fn
  must use that Store, never the outer one.

IMPLEMENTATIONS:
  - store/sqlstore: gorm over sqlite or postgres

SEE ALSO:
  - entities.go: the row types
  - api/handlers.go: the only caller
*/
package domain

import (
	"context"
	"time"
)

// =============================================================================
// REPOSITORY - one table
// =============================================================================

type Repository[T any, F any] interface {
	// Create inserts v and fills in its ID.
	Create(ctx context.Context, v *T) error

	// Get returns ErrNotFound (as *NotFoundError) when no row has the id.
	Get(ctx context.Context, id uint) (*T, error)

	// Update writes every column of v.
	Update(ctx context.Context, v *T) error

	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filter F) ([]T, error)

	// DeleteMatching removes every row the filter selects, ignoring Page.
	DeleteMatching(ctx context.Context, filter F) (int64, error)
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	Students() Repository[Student, StudentFilter]
	Admissions() Repository[Admission, AdmissionFilter]
	Subjects() Repository[Subject, SubjectFilter]
	Timetables() Repository[Timetable, TimetableFilter]
	Slots() Repository[TimetableSlot, SlotFilter]
	Exams() Repository[Exam, ExamFilter]
	ExamResults() Repository[ExamResult, ExamResultFilter]
	FeeStructures() Repository[FeeStructure, FeeStructureFilter]
	FeeItems() Repository[FeeItem, FeeItemFilter]
	FeeRecords() Repository[FeeRecord, FeeRecordFilter]
	Payments() Repository[Payment, PaymentFilter]
	Reports() Repository[Report, ReportFilter]
	Users() Repository[User, UserFilter]
	Roles() Repository[Role, RoleFilter]

	// LockFeeRecord loads a fee record for update. Inside WithTx the row
	// stays locked until the transaction ends, where the engine supports it.
	LockFeeRecord(ctx context.Context, id uint) (*FeeRecord, error)

	// SetUserRoles replaces the user's role set.
	SetUserRoles(ctx context.Context, userID uint, roleIDs []uint) error
	UserRoles(ctx context.Context, userID uint) ([]Role, error)

	// WithTx runs fn in a transaction; fn's error rolls it back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// FILTERS
// =============================================================================

// Page is offset pagination. Limit 0 returns every row.
type Page struct {
	Skip  int
	Limit int
}

// Paging is promoted to every filter that embeds Page.
func (p Page) Paging() Page { return p }

type StudentFilter struct {
	Page
	GradeLevel    *string
	ParentID      *uint
	StudentNumber *string
}

type AdmissionFilter struct {
	Page
	Status *AdmissionStatus
}

type SubjectFilter struct {
	Page
	GradeLevel *string
	IsActive   *bool
	TeacherID  *uint
	Code       *string
}

type TimetableFilter struct {
	Page
	AcademicYear *string
	GradeLevel   *string
	IsActive     *bool
}

type SlotFilter struct {
	Page
	TimetableID *uint
	Day         *Weekday
}

type ExamFilter struct {
	Page
	ExamType     *ExamType
	GradeLevel   *string
	AcademicYear *string
	Term         *string
}

type ExamResultFilter struct {
	Page
	StudentID *uint
	ExamID    *uint
	SubjectID *uint
}

type FeeStructureFilter struct {
	Page
	AcademicYear *string
	GradeLevel   *string
	IsActive     *bool
}

type FeeItemFilter struct {
	Page
	FeeStructureID *uint
	MandatoryOnly  bool
}

type FeeRecordFilter struct {
	Page
	StudentID *uint
	Status    *PaymentStatus
}

type PaymentFilter struct {
	Page
	FeeRecordID *uint
}

type ReportFilter struct {
	Page
	ReportType  *ReportType
	IsScheduled *bool
	CreatedBy   *uint
	// DueBy selects reports whose next_run is at or before the given time.
	DueBy *time.Time
}

type UserFilter struct {
	Page
	Email *string
}

type RoleFilter struct {
	Page
	Name *string
}

// Ptr returns a pointer to v, for filling filter fields inline.
func Ptr[T any](v T) *T { return &v }
