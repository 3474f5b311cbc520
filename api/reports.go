package api

import (
	"net/http"
	"time"

	"gorm.io/datatypes"

	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/reports"
)

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	reportType, err := queryEnum[domain.ReportType](r, "report_type")
	if err != nil {
		fail(w, err)
		return
	}
	scheduled, err := queryBool(r, "is_scheduled", nil)
	if err != nil {
		fail(w, err)
		return
	}
	createdBy, err := queryUint(r, "created_by")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Reports(), domain.ReportFilter{
		Page:        page,
		ReportType:  reportType,
		IsScheduled: scheduled,
		CreatedBy:   createdBy,
	})
}

func (h *Handler) ReportsByType(w http.ResponseWriter, r *http.Request) {
	reportType, err := pathEnum[domain.ReportType](r, "report_type")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Reports(), domain.ReportFilter{ReportType: &reportType})
}

func (h *Handler) ScheduledReports(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.Store.Reports(), domain.ReportFilter{IsScheduled: domain.Ptr(true)})
}

// DueReports lists scheduled reports whose next run has arrived.
func (h *Handler) DueReports(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	serveList(w, r, h.Store.Reports(), domain.ReportFilter{IsScheduled: domain.Ptr(true), DueBy: &now})
}

func (h *Handler) ReportsByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "user_id")
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Reports(), domain.ReportFilter{CreatedBy: &userID})
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Reports())
}

// CreateReport attributes the report to created_by, or to the caller when
// the body leaves it out.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	var createdBy uint
	switch {
	case req.CreatedBy != nil:
		createdBy = *req.CreatedBy
	case CurrentUser(r.Context()) != nil:
		createdBy = CurrentUser(r.Context()).ID
	default:
		fail(w, fieldError("created_by", "required when not authenticated"))
		return
	}

	report := req.toModel(createdBy)
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if _, err := tx.Users().Get(r.Context(), createdBy); err != nil {
			return err
		}
		return tx.Reports().Create(r.Context(), &report)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.ReportPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}
	if patch.Parameters != nil && len(*patch.Parameters) == 0 {
		patch.Parameters = &datatypes.JSON{'{', '}'}
	}

	var report *domain.Report
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if report, err = tx.Reports().Get(r.Context(), id); err != nil {
			return err
		}
		patch.Apply(report)
		return tx.Reports().Update(r.Context(), report)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RunReport records a run now and advances next_run for scheduled reports.
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}

	var report domain.Report
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		stored, err := tx.Reports().Get(r.Context(), id)
		if err != nil {
			return err
		}
		report = reports.MarkRun(*stored, time.Now().UTC())
		return tx.Reports().Update(r.Context(), &report)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, h.Store.Reports())
}
