package api

import (
	"net/http"

	"github.com/warp/schooladmin/domain"
)

// =============================================================================
// EXAM HANDLERS
// =============================================================================

const duplicateExamResult = "Result already exists for this student, exam, and subject"

func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	examType, err := queryEnum[domain.ExamType](r, "exam_type")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Exams(), domain.ExamFilter{
		Page:         page,
		ExamType:     examType,
		GradeLevel:   queryString(r, "grade_level"),
		AcademicYear: queryString(r, "academic_year"),
		Term:         queryString(r, "term"),
	})
}

func (h *Handler) GetExam(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Exams())
}

func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req CreateExamRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	exam := req.toModel()
	if err := h.Store.Exams().Create(r.Context(), &exam); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exam)
}

func (h *Handler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.ExamPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var exam *domain.Exam
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if exam, err = tx.Exams().Get(r.Context(), id); err != nil {
			return err
		}
		patch.Apply(exam)
		if exam.PassingMarks > exam.TotalMarks {
			return &domain.InvalidStateError{Field: "passing_marks", Reason: "must not exceed total_marks"}
		}
		return tx.Exams().Update(r.Context(), exam)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exam)
}

// DeleteExam removes the exam and its results.
func (h *Handler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}

	var exam *domain.Exam
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if exam, err = tx.Exams().Get(r.Context(), id); err != nil {
			return err
		}
		if _, err := tx.ExamResults().DeleteMatching(r.Context(), domain.ExamResultFilter{ExamID: &id}); err != nil {
			return err
		}
		return tx.Exams().Delete(r.Context(), id)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exam)
}

// =============================================================================
// EXAM RESULT HANDLERS
// =============================================================================

func (h *Handler) CreateExamResult(w http.ResponseWriter, r *http.Request) {
	var req CreateExamResultRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	result := req.toModel()
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if _, err := tx.Exams().Get(r.Context(), result.ExamID); err != nil {
			return err
		}
		existing, err := tx.ExamResults().List(r.Context(), domain.ExamResultFilter{
			StudentID: &result.StudentID,
			ExamID:    &result.ExamID,
			SubjectID: &result.SubjectID,
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &domain.DuplicateError{Entity: "Exam result", Message: duplicateExamResult}
		}
		return tx.ExamResults().Create(r.Context(), &result)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetExamResult(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.ExamResults())
}

func (h *Handler) ResultsByExam(w http.ResponseWriter, r *http.Request) {
	examID, err := parseID(r, "exam_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.ExamResults(), domain.ExamResultFilter{ExamID: &examID})
}

func (h *Handler) ResultsByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseID(r, "student_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.ExamResults(), domain.ExamResultFilter{StudentID: &studentID})
}

func (h *Handler) UpdateExamResult(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.ExamResultPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var result *domain.ExamResult
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if result, err = tx.ExamResults().Get(r.Context(), id); err != nil {
			return err
		}
		patch.Apply(result)
		return tx.ExamResults().Update(r.Context(), result)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteExamResult(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, h.Store.ExamResults())
}
