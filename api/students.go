package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/schooladmin/domain"
)

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

const duplicateStudentNumber = "A student with this student ID already exists."

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	parentID, err := queryUint(r, "parent_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Students(), domain.StudentFilter{
		Page:       page,
		GradeLevel: queryString(r, "grade_level"),
		ParentID:   parentID,
	})
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Students())
}

func (h *Handler) StudentsByGrade(w http.ResponseWriter, r *http.Request) {
	grade := chi.URLParam(r, "grade_level")
	serveList(w, r, h.Store.Students(), domain.StudentFilter{GradeLevel: &grade})
}

func (h *Handler) StudentsByParent(w http.ResponseWriter, r *http.Request) {
	parentID, err := parseID(r, "parent_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Students(), domain.StudentFilter{ParentID: &parentID})
}

// ensureStudentNumberFree reports a duplicate when another student holds number.
func ensureStudentNumberFree(r *http.Request, st domain.Store, number string, self uint) error {
	taken, err := st.Students().List(r.Context(), domain.StudentFilter{StudentNumber: &number})
	if err != nil {
		return err
	}
	for _, s := range taken {
		if s.ID != self {
			return &domain.DuplicateError{Entity: "Student", Message: duplicateStudentNumber}
		}
	}
	return nil
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	student := req.toModel()
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if err := ensureStudentNumberFree(r, tx, student.StudentNumber, 0); err != nil {
			return err
		}
		return tx.Students().Create(r.Context(), &student)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.StudentPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var student *domain.Student
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if student, err = tx.Students().Get(r.Context(), id); err != nil {
			return err
		}
		if patch.StudentNumber != nil && *patch.StudentNumber != student.StudentNumber {
			if err := ensureStudentNumberFree(r, tx, *patch.StudentNumber, id); err != nil {
				return err
			}
		}
		patch.Apply(student)
		return tx.Students().Update(r.Context(), student)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, h.Store.Students())
}

// =============================================================================
// ADMISSION HANDLERS
// =============================================================================

func (h *Handler) ListAdmissions(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	status, err := queryEnum[domain.AdmissionStatus](r, "status")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Admissions(), domain.AdmissionFilter{Page: page, Status: status})
}

func (h *Handler) AdmissionsByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := pathEnum[domain.AdmissionStatus](r, "status")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Admissions(), domain.AdmissionFilter{Status: &status})
}

func (h *Handler) GetAdmission(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Admissions())
}

func (h *Handler) CreateAdmission(w http.ResponseWriter, r *http.Request) {
	var req CreateAdmissionRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	admission := req.toModel()
	if err := h.Store.Admissions().Create(r.Context(), &admission); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, admission)
}

func (h *Handler) UpdateAdmission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.AdmissionPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var admission *domain.Admission
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if admission, err = tx.Admissions().Get(r.Context(), id); err != nil {
			return err
		}
		patch.Apply(admission)
		return tx.Admissions().Update(r.Context(), admission)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, admission)
}

func (h *Handler) DeleteAdmission(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, h.Store.Admissions())
}
