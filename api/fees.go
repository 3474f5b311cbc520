package api

import (
	"net/http"
	"time"

	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/fees"
)

// derivedFeeFields are computed from payments and rejected in bodies.
var derivedFeeFields = []string{"paid_amount", "balance"}

// =============================================================================
// FEE STRUCTURE HANDLERS
// =============================================================================

func (h *Handler) ListFeeStructures(w http.ResponseWriter, r *http.Request) {
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
	serveList(w, r, h.Store.FeeStructures(), domain.FeeStructureFilter{
		Page:         page,
		AcademicYear: queryString(r, "academic_year"),
		GradeLevel:   queryString(r, "grade_level"),
		IsActive:     active,
	})
}

func (h *Handler) GetFeeStructure(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.FeeStructures())
}

func (h *Handler) CreateFeeStructure(w http.ResponseWriter, r *http.Request) {
	var req CreateFeeStructureRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	fs := req.toModel()
	if err := h.Store.FeeStructures().Create(r.Context(), &fs); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fs)
}

func (h *Handler) UpdateFeeStructure(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.FeeStructurePatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var fs *domain.FeeStructure
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if fs, err = tx.FeeStructures().Get(r.Context(), id); err != nil {
			return err
		}
		patch.Apply(fs)
		return tx.FeeStructures().Update(r.Context(), fs)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

// DeleteFeeStructure removes the structure and its items. Fee records
// created from it keep their amounts.
func (h *Handler) DeleteFeeStructure(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}

	var fs *domain.FeeStructure
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if fs, err = tx.FeeStructures().Get(r.Context(), id); err != nil {
			return err
		}
		if _, err := tx.FeeItems().DeleteMatching(r.Context(), domain.FeeItemFilter{FeeStructureID: &id}); err != nil {
			return err
		}
		return tx.FeeStructures().Delete(r.Context(), id)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

// =============================================================================
// FEE ITEM HANDLERS
// =============================================================================

func (h *Handler) CreateFeeItem(w http.ResponseWriter, r *http.Request) {
	var req CreateFeeItemRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	item := req.toModel()
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if _, err := tx.FeeStructures().Get(r.Context(), item.FeeStructureID); err != nil {
			return err
		}
		return tx.FeeItems().Create(r.Context(), &item)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) GetFeeItem(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.FeeItems())
}

func (h *Handler) FeeItemsByStructure(w http.ResponseWriter, r *http.Request) {
	structureID, err := parseID(r, "fee_structure_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.FeeItems(), domain.FeeItemFilter{FeeStructureID: &structureID})
}

func (h *Handler) UpdateFeeItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.FeeItemPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var item *domain.FeeItem
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if item, err = tx.FeeItems().Get(r.Context(), id); err != nil {
			return err
		}
		patch.Apply(item)
		return tx.FeeItems().Update(r.Context(), item)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteFeeItem(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, h.Store.FeeItems())
}

// =============================================================================
// FEE RECORD HANDLERS
// =============================================================================

func (h *Handler) ListFeeRecords(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	studentID, err := queryUint(r, "student_id")
	if err != nil {
		fail(w, err)
		return
	}
	status, err := queryEnum[domain.PaymentStatus](r, "status")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.FeeRecords(), domain.FeeRecordFilter{Page: page, StudentID: studentID, Status: status})
}

func (h *Handler) CreateFeeRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateFeeRecordRequest
	if err := decodeWithout(r, &req, derivedFeeFields...); err != nil {
		fail(w, err)
		return
	}

	rec := fees.Open(req.toModel())
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if _, err := tx.Students().Get(r.Context(), rec.StudentID); err != nil {
			return err
		}
		if _, err := tx.FeeStructures().Get(r.Context(), rec.FeeStructureID); err != nil {
			return err
		}
		return tx.FeeRecords().Create(r.Context(), &rec)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// CreateFeeRecordFromStructure totals a structure's items into a new record.
// Only mandatory items count unless mandatory_only is false.
func (h *Handler) CreateFeeRecordFromStructure(w http.ResponseWriter, r *http.Request) {
	var req FromStructureRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	var rec domain.FeeRecord
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if _, err := tx.Students().Get(r.Context(), req.StudentID); err != nil {
			return err
		}
		structure, err := tx.FeeStructures().Get(r.Context(), req.FeeStructureID)
		if err != nil {
			return err
		}
		items, err := tx.FeeItems().List(r.Context(), domain.FeeItemFilter{FeeStructureID: &structure.ID})
		if err != nil {
			return err
		}
		rec, err = fees.RecordFromStructure(*structure, items, req.StudentID, req.Term, req.DueDate, boolOr(req.MandatoryOnly, true))
		if err != nil {
			return err
		}
		return tx.FeeRecords().Create(r.Context(), &rec)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetFeeRecord(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.FeeRecords())
}

func (h *Handler) FeeRecordsByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseID(r, "student_id")
	if err != nil {
		fail(w, err)
		return
	}
	status, err := queryEnum[domain.PaymentStatus](r, "status")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.FeeRecords(), domain.FeeRecordFilter{StudentID: &studentID, Status: status})
}

// UpdateFeeRecord applies a patch. A new total recomputes the balance; an
// explicit status in the same patch wins over the derived one.
func (h *Handler) UpdateFeeRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.FeeRecordPatch
	if err := decodeWithout(r, &patch, derivedFeeFields...); err != nil {
		fail(w, err)
		return
	}

	var rec domain.FeeRecord
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		locked, err := tx.LockFeeRecord(r.Context(), id)
		if err != nil {
			return err
		}
		rec = *locked
		if patch.TotalAmount != nil {
			if rec, err = fees.Retotal(rec, *patch.TotalAmount); err != nil {
				return err
			}
		}
		patch.Apply(&rec)
		return tx.FeeRecords().Update(r.Context(), &rec)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteFeeRecord removes the record and its payments.
func (h *Handler) DeleteFeeRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}

	var rec *domain.FeeRecord
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if rec, err = tx.LockFeeRecord(r.Context(), id); err != nil {
			return err
		}
		if _, err := tx.Payments().DeleteMatching(r.Context(), domain.PaymentFilter{FeeRecordID: &id}); err != nil {
			return err
		}
		return tx.FeeRecords().Delete(r.Context(), id)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// applyEvent reconciles the payment's fee record with ev and saves it.
func applyEvent(r *http.Request, tx domain.Store, recordID uint, ev fees.Event) error {
	locked, err := tx.LockFeeRecord(r.Context(), recordID)
	if err != nil {
		return err
	}
	rec, err := fees.Reconcile(*locked, ev)
	if err != nil {
		return err
	}
	return tx.FeeRecords().Update(r.Context(), &rec)
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	payment := req.toModel(time.Now().UTC())
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if err := applyEvent(r, tx, payment.FeeRecordID, fees.NewPayment(payment.Amount)); err != nil {
			return err
		}
		return tx.Payments().Create(r.Context(), &payment)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Payments())
}

func (h *Handler) PaymentsByFeeRecord(w http.ResponseWriter, r *http.Request) {
	recordID, err := parseID(r, "fee_record_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Payments(), domain.PaymentFilter{FeeRecordID: &recordID})
}

// UpdatePayment applies a patch; only an amount change touches the record.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.PaymentPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var payment *domain.Payment
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if payment, err = tx.Payments().Get(r.Context(), id); err != nil {
			return err
		}
		if patch.Amount != nil && !patch.Amount.Equal(payment.Amount) {
			if err := applyEvent(r, tx, payment.FeeRecordID, fees.AmendedPayment(payment.Amount, *patch.Amount)); err != nil {
				return err
			}
			payment.Amount = *patch.Amount
		}
		patch.Apply(payment)
		return tx.Payments().Update(r.Context(), payment)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// DeletePayment removes the payment and reverses it on its record.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}

	var payment *domain.Payment
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if payment, err = tx.Payments().Get(r.Context(), id); err != nil {
			return err
		}
		if err := applyEvent(r, tx, payment.FeeRecordID, fees.RemovedPayment(payment.Amount)); err != nil {
			return err
		}
		return tx.Payments().Delete(r.Context(), id)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}
