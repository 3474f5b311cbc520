package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/timetable"
)

// =============================================================================
// SUBJECT HANDLERS
// =============================================================================

const duplicateSubjectCode = "A subject with this code already exists."

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	active, err := queryBool(r, "is_active", activeOnly)
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Subjects(), domain.SubjectFilter{
		Page:       page,
		GradeLevel: queryString(r, "grade_level"),
		IsActive:   active,
	})
}

func (h *Handler) SubjectsByTeacher(w http.ResponseWriter, r *http.Request) {
	teacherID, err := parseID(r, "teacher_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Subjects(), domain.SubjectFilter{TeacherID: &teacherID})
}

func (h *Handler) SubjectsByGrade(w http.ResponseWriter, r *http.Request) {
	grade := chi.URLParam(r, "grade_level")
	serveList(w, r, h.Store.Subjects(), domain.SubjectFilter{GradeLevel: &grade})
}

func (h *Handler) GetSubject(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Subjects())
}

func ensureSubjectCodeFree(r *http.Request, st domain.Store, code string, self uint) error {
	taken, err := st.Subjects().List(r.Context(), domain.SubjectFilter{Code: &code})
	if err != nil {
		return err
	}
	for _, s := range taken {
		if s.ID != self {
			return &domain.DuplicateError{Entity: "Subject", Message: duplicateSubjectCode}
		}
	}
	return nil
}

func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var req CreateSubjectRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	subject := req.toModel()
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if err := ensureSubjectCodeFree(r, tx, subject.Code, 0); err != nil {
			return err
		}
		return tx.Subjects().Create(r.Context(), &subject)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (h *Handler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.SubjectPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var subject *domain.Subject
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if subject, err = tx.Subjects().Get(r.Context(), id); err != nil {
			return err
		}
		if patch.Code != nil && *patch.Code != subject.Code {
			if err := ensureSubjectCodeFree(r, tx, *patch.Code, id); err != nil {
				return err
			}
		}
		patch.Apply(subject)
		return tx.Subjects().Update(r.Context(), subject)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

func (h *Handler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, h.Store.Subjects())
}

// =============================================================================
// TIMETABLE HANDLERS
// =============================================================================

func (h *Handler) ListTimetables(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	active, err := queryBool(r, "is_active", activeOnly)
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Timetables(), domain.TimetableFilter{
		Page:         page,
		AcademicYear: queryString(r, "academic_year"),
		GradeLevel:   queryString(r, "grade_level"),
		IsActive:     active,
	})
}

func (h *Handler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Timetables())
}

func (h *Handler) CreateTimetable(w http.ResponseWriter, r *http.Request) {
	var req CreateTimetableRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	tt := req.toModel()
	if err := h.Store.Timetables().Create(r.Context(), &tt); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tt)
}

func (h *Handler) UpdateTimetable(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.TimetablePatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var tt *domain.Timetable
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if tt, err = tx.Timetables().Get(r.Context(), id); err != nil {
			return err
		}
		patch.Apply(tt)
		return tx.Timetables().Update(r.Context(), tt)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

// DeleteTimetable removes the timetable and all of its slots.
func (h *Handler) DeleteTimetable(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}

	var tt *domain.Timetable
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if tt, err = tx.Timetables().Get(r.Context(), id); err != nil {
			return err
		}
		if _, err := tx.Slots().DeleteMatching(r.Context(), domain.SlotFilter{TimetableID: &id}); err != nil {
			return err
		}
		return tx.Timetables().Delete(r.Context(), id)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

// =============================================================================
// SLOT HANDLERS
// =============================================================================

// checkSlot returns a SlotConflictError when c overlaps any slot on the same
// timetable and day, ignoring excludeID.
func checkSlot(r *http.Request, tx domain.Store, c timetable.Candidate, excludeID *uint) error {
	if err := timetable.ValidateRange(c.Start, c.End); err != nil {
		return err
	}
	existing, err := tx.Slots().List(r.Context(), domain.SlotFilter{TimetableID: &c.TimetableID, Day: &c.Day})
	if err != nil {
		return err
	}
	if conflicts := timetable.CheckConflict(existing, c, excludeID); len(conflicts) > 0 {
		return &domain.SlotConflictError{Conflicts: conflicts}
	}
	return nil
}

func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	slot := req.toModel()
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if _, err := tx.Timetables().Get(r.Context(), slot.TimetableID); err != nil {
			return err
		}
		if _, err := tx.Subjects().Get(r.Context(), slot.SubjectID); err != nil {
			return err
		}
		if err := checkSlot(r, tx, timetable.CandidateOf(slot), nil); err != nil {
			return err
		}
		return tx.Slots().Create(r.Context(), &slot)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Slots())
}

// SlotsByTimetable lists a timetable's slots in weekday then start order.
func (h *Handler) SlotsByTimetable(w http.ResponseWriter, r *http.Request) {
	timetableID, err := parseID(r, "timetable_id")
	if err != nil {
		fail(w, err)
		return
	}
	day, err := queryEnum[domain.Weekday](r, "day")
	if err != nil {
		fail(w, err)
		return
	}
	slots, err := h.Store.Slots().List(r.Context(), domain.SlotFilter{TimetableID: &timetableID, Day: day})
	if err != nil {
		fail(w, err)
		return
	}
	timetable.Sort(slots)
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.SlotPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var slot *domain.TimetableSlot
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if slot, err = tx.Slots().Get(r.Context(), id); err != nil {
			return err
		}
		if patch.SubjectID != nil && *patch.SubjectID != slot.SubjectID {
			if _, err := tx.Subjects().Get(r.Context(), *patch.SubjectID); err != nil {
				return err
			}
		}
		patch.Apply(slot)
		if timetable.NeedsCheck(patch) {
			if err := checkSlot(r, tx, timetable.CandidateOf(*slot), &id); err != nil {
				return err
			}
		}
		return tx.Slots().Update(r.Context(), slot)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, h.Store.Slots())
}
