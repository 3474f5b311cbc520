package sqlstore

import (
	"gorm.io/gorm"

	"github.com/warp/schooladmin/domain"
)

// eq adds "column = v" when v is set.
func eq[V any](q *gorm.DB, column string, v *V) *gorm.DB {
	if v == nil {
		return q
	}
	return q.Where(column+" = ?", *v)
}

func scopeStudents(q *gorm.DB, f domain.StudentFilter) *gorm.DB {
	q = eq(q, "grade_level", f.GradeLevel)
	q = eq(q, "parent_id", f.ParentID)
	return eq(q, "student_id", f.StudentNumber)
}

func scopeAdmissions(q *gorm.DB, f domain.AdmissionFilter) *gorm.DB {
	return eq(q, "status", f.Status)
}

func scopeSubjects(q *gorm.DB, f domain.SubjectFilter) *gorm.DB {
	q = eq(q, "grade_level", f.GradeLevel)
	q = eq(q, "is_active", f.IsActive)
	q = eq(q, "teacher_id", f.TeacherID)
	return eq(q, "code", f.Code)
}

func scopeTimetables(q *gorm.DB, f domain.TimetableFilter) *gorm.DB {
	q = eq(q, "academic_year", f.AcademicYear)
	q = eq(q, "grade_level", f.GradeLevel)
	return eq(q, "is_active", f.IsActive)
}

func scopeSlots(q *gorm.DB, f domain.SlotFilter) *gorm.DB {
	q = eq(q, "timetable_id", f.TimetableID)
	return eq(q, "day", f.Day)
}

func scopeExams(q *gorm.DB, f domain.ExamFilter) *gorm.DB {
	q = eq(q, "exam_type", f.ExamType)
	q = eq(q, "grade_level", f.GradeLevel)
	q = eq(q, "academic_year", f.AcademicYear)
	return eq(q, "term", f.Term)
}

func scopeExamResults(q *gorm.DB, f domain.ExamResultFilter) *gorm.DB {
	q = eq(q, "student_id", f.StudentID)
	q = eq(q, "exam_id", f.ExamID)
	return eq(q, "subject_id", f.SubjectID)
}

func scopeFeeStructures(q *gorm.DB, f domain.FeeStructureFilter) *gorm.DB {
	q = eq(q, "academic_year", f.AcademicYear)
	q = eq(q, "grade_level", f.GradeLevel)
	return eq(q, "is_active", f.IsActive)
}

func scopeFeeItems(q *gorm.DB, f domain.FeeItemFilter) *gorm.DB {
	q = eq(q, "fee_structure_id", f.FeeStructureID)
	if f.MandatoryOnly {
		q = q.Where("is_mandatory = ?", true)
	}
	return q
}

func scopeFeeRecords(q *gorm.DB, f domain.FeeRecordFilter) *gorm.DB {
	q = eq(q, "student_id", f.StudentID)
	return eq(q, "status", f.Status)
}

func scopePayments(q *gorm.DB, f domain.PaymentFilter) *gorm.DB {
	return eq(q, "fee_record_id", f.FeeRecordID)
}

func scopeReports(q *gorm.DB, f domain.ReportFilter) *gorm.DB {
	q = eq(q, "report_type", f.ReportType)
	q = eq(q, "is_scheduled", f.IsScheduled)
	q = eq(q, "created_by", f.CreatedBy)
	if f.DueBy != nil {
		// stored times are UTC
		q = q.Where("next_run IS NOT NULL AND next_run <= ?", f.DueBy.UTC())
	}
	return q
}

func scopeUsers(q *gorm.DB, f domain.UserFilter) *gorm.DB {
	return eq(q, "email", f.Email)
}

func scopeRoles(q *gorm.DB, f domain.RoleFilter) *gorm.DB {
	return eq(q, "name", f.Name)
}
