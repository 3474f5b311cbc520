package domain

// Enumerations stored as lowercase strings. Valid is used by the request
// validator's "enum" tag.

type AdmissionStatus string

const (
	AdmissionPending    AdmissionStatus = "pending"
	AdmissionReviewing  AdmissionStatus = "reviewing"
	AdmissionApproved   AdmissionStatus = "approved"
	AdmissionRejected   AdmissionStatus = "rejected"
	AdmissionWaitlisted AdmissionStatus = "waitlisted"
	AdmissionEnrolled   AdmissionStatus = "enrolled"
	AdmissionWithdrawn  AdmissionStatus = "withdrawn"
)

func (s AdmissionStatus) Valid() bool {
	switch s {
	case AdmissionPending, AdmissionReviewing, AdmissionApproved, AdmissionRejected,
		AdmissionWaitlisted, AdmissionEnrolled, AdmissionWithdrawn:
		return true
	}
	return false
}

type ExamType string

const (
	ExamQuiz       ExamType = "quiz"
	ExamTest       ExamType = "test"
	ExamMidterm    ExamType = "midterm"
	ExamFinal      ExamType = "final"
	ExamAssignment ExamType = "assignment"
	ExamProject    ExamType = "project"
	ExamPractical  ExamType = "practical"
	ExamOther      ExamType = "other"
)

func (t ExamType) Valid() bool {
	switch t {
	case ExamQuiz, ExamTest, ExamMidterm, ExamFinal, ExamAssignment, ExamProject, ExamPractical, ExamOther:
		return true
	}
	return false
}

// PaymentStatus is the state of a FeeRecord. Only Pending, PartiallyPaid and
// Paid are ever derived from amounts; the rest are set explicitly.
type PaymentStatus string

const (
	StatusPending       PaymentStatus = "pending"
	StatusPaid          PaymentStatus = "paid"
	StatusPartiallyPaid PaymentStatus = "partially_paid"
	StatusOverdue       PaymentStatus = "overdue"
	StatusCancelled     PaymentStatus = "cancelled"
	StatusRefunded      PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusPartiallyPaid, StatusOverdue, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Derivable reports whether s is one of the statuses reconciliation produces.
func (s PaymentStatus) Derivable() bool {
	return s == StatusPending || s == StatusPartiallyPaid || s == StatusPaid
}

type PaymentMethod string

const (
	MethodCash          PaymentMethod = "cash"
	MethodCreditCard    PaymentMethod = "credit_card"
	MethodDebitCard     PaymentMethod = "debit_card"
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodCheck         PaymentMethod = "check"
	MethodOnlinePayment PaymentMethod = "online_payment"
	MethodOther         PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodCheck, MethodOnlinePayment, MethodOther:
		return true
	}
	return false
}

type FeeType string

const (
	FeeTuition        FeeType = "tuition"
	FeeAdmission      FeeType = "admission"
	FeeExamination    FeeType = "examination"
	FeeTransportation FeeType = "transportation"
	FeeLibrary        FeeType = "library"
	FeeLaboratory     FeeType = "laboratory"
	FeeSports         FeeType = "sports"
	FeeTechnology     FeeType = "technology"
	FeeUniform        FeeType = "uniform"
	FeeBooks          FeeType = "books"
	FeeLate           FeeType = "late_fee"
	FeeOther          FeeType = "other"
)

func (t FeeType) Valid() bool {
	switch t {
	case FeeTuition, FeeAdmission, FeeExamination, FeeTransportation, FeeLibrary, FeeLaboratory,
		FeeSports, FeeTechnology, FeeUniform, FeeBooks, FeeLate, FeeOther:
		return true
	}
	return false
}

type ReportType string

const (
	ReportAttendance     ReportType = "attendance"
	ReportAcademic       ReportType = "academic"
	ReportFinancial      ReportType = "financial"
	ReportBehavioral     ReportType = "behavioral"
	ReportAdministrative ReportType = "administrative"
	ReportCustom         ReportType = "custom"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportAttendance, ReportAcademic, ReportFinancial, ReportBehavioral, ReportAdministrative, ReportCustom:
		return true
	}
	return false
}
