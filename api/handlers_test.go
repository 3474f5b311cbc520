/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Error mapping (404, duplicate 400, validation 400)
- Payment reconciliation through the fee-record endpoints
- Slot conflict detection on create and update
- Cascading deletes
- Authentication and superuser guards
- Report runs and due listing
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/warp/schooladmin/config"
	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/store/sqlstore"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type testAPI struct {
	t      *testing.T
	h      *Handler
	router http.Handler
	token  string
}

func testConfig() *config.Config {
	return &config.Config{
		ProjectName:            "School Management System",
		Port:                   8080,
		APIPrefix:              "/api/v1",
		SecretKey:              "test-secret",
		AccessTokenTTL:         time.Hour,
		FirstSuperuser:         "admin@example.com",
		FirstSuperuserPassword: "admin",
		LogLevel:               "silent",
		CORSOrigins:            []string{"*"},
		EnableScenarios:        true,
	}
}

func newTestAPI(t *testing.T, opts ...func(*config.Config)) *testAPI {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	store, err := sqlstore.New(config.SQLite, ":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, _, err = store.EnsureSuperuser(context.Background(), cfg.FirstSuperuser, cfg.FirstSuperuserPassword)
	require.NoError(t, err)

	h := NewHandler(store, cfg)
	return &testAPI{t: t, h: h, router: NewRouter(h)}
}

// do sends body as JSON to the API prefix + path.
func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// mustDo asserts the status and decodes the response into out.
func (a *testAPI) mustDo(status int, method, path string, body, out any) {
	a.t.Helper()
	rec := a.do(method, path, body)
	require.Equal(a.t, status, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func studentBody(number string) map[string]any {
	return map[string]any{
		"first_name":      "John",
		"last_name":       "Doe",
		"date_of_birth":   "2010-05-15",
		"gender":          "Male",
		"enrollment_date": "2023-09-01",
		"grade_level":     "Grade 5",
		"student_id":      number,
	}
}

func (a *testAPI) createStudent(number string) domain.Student {
	var s domain.Student
	a.mustDo(http.StatusCreated, http.MethodPost, "/students/", studentBody(number), &s)
	return s
}

func (a *testAPI) createStructure() domain.FeeStructure {
	var fs domain.FeeStructure
	a.mustDo(http.StatusCreated, http.MethodPost, "/payments/fee-structures/", map[string]any{
		"name": "Grade 5 Fee Structure", "academic_year": "2023-2024", "grade_level": "Grade 5",
	}, &fs)
	return fs
}

func (a *testAPI) createRecord(studentID, structureID uint, total string) domain.FeeRecord {
	var rec domain.FeeRecord
	a.mustDo(http.StatusCreated, http.MethodPost, "/payments/fee-records/", map[string]any{
		"academic_year": "2023-2024", "term": "Fall", "total_amount": total,
		"due_date": "2023-09-15", "student_id": studentID, "fee_structure_id": structureID,
	}, &rec)
	return rec
}

func (a *testAPI) getRecord(id uint) domain.FeeRecord {
	var rec domain.FeeRecord
	a.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/payments/fee-records/%d", id), nil, &rec)
	return rec
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

// =============================================================================
// GENERAL
// =============================================================================

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStudents_CRUD(t *testing.T) {
	// GIVEN: A created student
	api := newTestAPI(t)
	s := api.createStudent("ST001")
	assert.True(t, s.IsActive, "is_active defaults to true")

	// WHEN: Updating the grade only
	var updated domain.Student
	api.mustDo(http.StatusOK, http.MethodPut, fmt.Sprintf("/students/%d", s.ID),
		map[string]any{"grade_level": "Grade 6"}, &updated)

	// THEN: Other fields are untouched
	assert.Equal(t, "Grade 6", updated.GradeLevel)
	assert.Equal(t, "ST001", updated.StudentNumber)
	assert.Equal(t, "2010-05-15", updated.DateOfBirth.String())

	var byGrade []domain.Student
	api.mustDo(http.StatusOK, http.MethodGet, "/students/by-grade/Grade%206", nil, &byGrade)
	require.Len(t, byGrade, 1)

	// Delete returns the deleted row, then it is gone
	var deleted domain.Student
	api.mustDo(http.StatusOK, http.MethodDelete, fmt.Sprintf("/students/%d", s.ID), nil, &deleted)
	assert.Equal(t, s.ID, deleted.ID)
	api.mustDo(http.StatusNotFound, http.MethodGet, fmt.Sprintf("/students/%d", s.ID), nil, nil)
}

func TestStudents_DuplicateStudentID(t *testing.T) {
	// GIVEN: A student with number ST001
	api := newTestAPI(t)
	api.createStudent("ST001")

	// WHEN: Creating another with the same number
	rec := api.do(http.MethodPost, "/students/", studentBody("ST001"))

	// THEN: 400 with the duplicate message
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := errorBody(t, rec)
	assert.Equal(t, "duplicate", resp.Code)
	assert.Equal(t, "A student with this student ID already exists.", resp.Error)

	// AND: Renaming a second student onto the taken number also fails
	other := api.createStudent("ST002")
	rec = api.do(http.MethodPut, fmt.Sprintf("/students/%d", other.ID), map[string]any{"student_id": "ST001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFound_NamesEntity(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/subjects/99", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := errorBody(t, rec)
	assert.Equal(t, "Subject not found", resp.Error)
	assert.Equal(t, "not_found", resp.Code)
}

func TestValidation_FieldMessages(t *testing.T) {
	api := newTestAPI(t)

	// Missing required fields
	rec := api.do(http.MethodPost, "/students/", map[string]any{"first_name": "John"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := errorBody(t, rec)
	assert.Equal(t, "validation", resp.Code)
	assert.Contains(t, resp.Fields, "last_name")
	assert.Contains(t, resp.Fields, "student_id")
	assert.NotContains(t, resp.Fields, "first_name")

	// Unknown enum value
	rec = api.do(http.MethodPost, "/exams/", map[string]any{
		"name": "Quiz", "exam_type": "oral", "date": "2023-10-15", "total_marks": 10,
		"passing_marks": 5, "grade_level": "Grade 5", "academic_year": "2023-2024", "term": "Fall",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec).Fields, "exam_type")

	// Bad paging
	rec = api.do(http.MethodGet, "/students/?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Empty body
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/", nil)
	out := httptest.NewRecorder()
	api.router.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

// =============================================================================
// FEES & PAYMENTS
// =============================================================================

func TestPayments_ReconcileLifecycle(t *testing.T) {
	// GIVEN: A 5500 fee record with no payments
	api := newTestAPI(t)
	student := api.createStudent("ST001")
	structure := api.createStructure()
	rec := api.createRecord(student.ID, structure.ID, "5500")
	assert.Equal(t, domain.StatusPending, rec.Status)
	assertMoney(t, "5500", rec.Balance, "balance")
	assertMoney(t, "0", rec.PaidAmount, "paid_amount")

	// WHEN: Paying the full amount
	var full domain.Payment
	api.mustDo(http.StatusCreated, http.MethodPost, "/payments/payments/", map[string]any{
		"amount": "5500", "payment_method": "bank_transfer", "fee_record_id": rec.ID,
	}, &full)

	// THEN: The record is paid with zero balance
	rec = api.getRecord(rec.ID)
	assert.Equal(t, domain.StatusPaid, rec.Status)
	assertMoney(t, "0", rec.Balance, "balance")

	// WHEN: The payment is deleted
	api.mustDo(http.StatusOK, http.MethodDelete, fmt.Sprintf("/payments/payments/%d", full.ID), nil, nil)

	// THEN: Back to pending
	rec = api.getRecord(rec.ID)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assertMoney(t, "0", rec.PaidAmount, "paid_amount")
	assertMoney(t, "5500", rec.Balance, "balance")

	// WHEN: A partial payment of 3000
	var partial domain.Payment
	api.mustDo(http.StatusCreated, http.MethodPost, "/payments/payments/", map[string]any{
		"amount": "3000", "payment_method": "cash", "fee_record_id": rec.ID,
	}, &partial)

	// THEN: Partially paid with 2500 outstanding
	rec = api.getRecord(rec.ID)
	assert.Equal(t, domain.StatusPartiallyPaid, rec.Status)
	assertMoney(t, "3000", rec.PaidAmount, "paid_amount")
	assertMoney(t, "2500", rec.Balance, "balance")

	// WHEN: The partial payment is amended to the full amount
	var amended domain.Payment
	api.mustDo(http.StatusOK, http.MethodPut, fmt.Sprintf("/payments/payments/%d", partial.ID),
		map[string]any{"amount": "5500"}, &amended)
	assertMoney(t, "5500", amended.Amount, "amount")

	// THEN: Paid
	rec = api.getRecord(rec.ID)
	assert.Equal(t, domain.StatusPaid, rec.Status)
	assertMoney(t, "0", rec.Balance, "balance")

	// AND: A notes-only edit leaves the record alone
	api.mustDo(http.StatusOK, http.MethodPut, fmt.Sprintf("/payments/payments/%d", partial.ID),
		map[string]any{"notes": "settled"}, nil)
	assertMoney(t, "5500", api.getRecord(rec.ID).PaidAmount, "paid_amount")
}

func TestPayments_Rejected(t *testing.T) {
	api := newTestAPI(t)
	student := api.createStudent("ST001")
	structure := api.createStructure()
	rec := api.createRecord(student.ID, structure.ID, "100")

	// Non-positive amount
	resp := api.do(http.MethodPost, "/payments/payments/", map[string]any{
		"amount": "0", "payment_method": "cash", "fee_record_id": rec.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Missing fee record, nothing is written
	resp = api.do(http.MethodPost, "/payments/payments/", map[string]any{
		"amount": "10", "payment_method": "cash", "fee_record_id": 999,
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var payments []domain.Payment
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/payments/payments/by-fee-record/%d", rec.ID), nil, &payments)
	assert.Empty(t, payments)
}

func TestFeeRecords_DerivedFieldsAreReadOnly(t *testing.T) {
	api := newTestAPI(t)
	student := api.createStudent("ST001")
	structure := api.createStructure()

	// Create with paid_amount
	rec := api.do(http.MethodPost, "/payments/fee-records/", map[string]any{
		"academic_year": "2023-2024", "term": "Fall", "total_amount": "100", "paid_amount": "100",
		"due_date": "2023-09-15", "student_id": student.ID, "fee_structure_id": structure.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec).Fields, "paid_amount")

	// Update with balance
	created := api.createRecord(student.ID, structure.ID, "100")
	rec = api.do(http.MethodPut, fmt.Sprintf("/payments/fee-records/%d", created.ID), map[string]any{"balance": "0"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec).Fields, "balance")
}

func TestFeeRecords_RetotalKeepsBalance(t *testing.T) {
	// GIVEN: 1000 total with 400 paid
	api := newTestAPI(t)
	student := api.createStudent("ST001")
	structure := api.createStructure()
	rec := api.createRecord(student.ID, structure.ID, "1000")
	api.mustDo(http.StatusCreated, http.MethodPost, "/payments/payments/", map[string]any{
		"amount": "400", "payment_method": "cash", "fee_record_id": rec.ID,
	}, nil)

	// WHEN: The total drops to 400
	var updated domain.FeeRecord
	api.mustDo(http.StatusOK, http.MethodPut, fmt.Sprintf("/payments/fee-records/%d", rec.ID),
		map[string]any{"total_amount": "400"}, &updated)

	// THEN: Balance follows and the record is paid
	assertMoney(t, "0", updated.Balance, "balance")
	assert.Equal(t, domain.StatusPaid, updated.Status)

	// AND: An explicit overdue status wins
	api.mustDo(http.StatusOK, http.MethodPut, fmt.Sprintf("/payments/fee-records/%d", rec.ID),
		map[string]any{"total_amount": "900", "status": "overdue"}, &updated)
	assertMoney(t, "500", updated.Balance, "balance")
	assert.Equal(t, domain.StatusOverdue, updated.Status)
}

func TestFeeRecords_FromStructure(t *testing.T) {
	// GIVEN: A structure with two mandatory items and one optional item
	api := newTestAPI(t)
	student := api.createStudent("ST001")
	structure := api.createStructure()
	for _, item := range []map[string]any{
		{"name": "Tuition Fee", "fee_type": "tuition", "amount": "5000", "due_date": "2023-09-15"},
		{"name": "Library Fee", "fee_type": "library", "amount": "500", "due_date": "2023-09-01"},
		{"name": "Sports", "fee_type": "sports", "amount": "200", "is_mandatory": false, "due_date": "2023-08-01"},
	} {
		item["fee_structure_id"] = structure.ID
		api.mustDo(http.StatusCreated, http.MethodPost, "/payments/fee-items/", item, nil)
	}

	// WHEN: Building a record from it
	var rec domain.FeeRecord
	api.mustDo(http.StatusCreated, http.MethodPost, "/payments/fee-records/from-structure", map[string]any{
		"student_id": student.ID, "fee_structure_id": structure.ID, "term": "Fall",
	}, &rec)

	// THEN: Only mandatory items count
	assertMoney(t, "5500", rec.TotalAmount, "total_amount")
	assertMoney(t, "5500", rec.Balance, "balance")
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Equal(t, "2023-2024", rec.AcademicYear)
	assert.Equal(t, "2023-09-01", rec.DueDate.String())

	var records []domain.FeeRecord
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/payments/fee-records/by-student/%d?status=pending", student.ID), nil, &records)
	assert.Len(t, records, 1)
}

func TestFeeRecords_DeleteRemovesPayments(t *testing.T) {
	api := newTestAPI(t)
	student := api.createStudent("ST001")
	structure := api.createStructure()
	rec := api.createRecord(student.ID, structure.ID, "100")
	var payment domain.Payment
	api.mustDo(http.StatusCreated, http.MethodPost, "/payments/payments/", map[string]any{
		"amount": "50", "payment_method": "cash", "fee_record_id": rec.ID,
	}, &payment)

	api.mustDo(http.StatusOK, http.MethodDelete, fmt.Sprintf("/payments/fee-records/%d", rec.ID), nil, nil)

	api.mustDo(http.StatusNotFound, http.MethodGet, fmt.Sprintf("/payments/payments/%d", payment.ID), nil, nil)
}

// =============================================================================
// TIMETABLES
// =============================================================================

func (a *testAPI) timetableWithSubject() (domain.Timetable, domain.Subject) {
	var tt domain.Timetable
	a.mustDo(http.StatusCreated, http.MethodPost, "/timetables/", map[string]any{
		"name": "Grade 5 Timetable", "academic_year": "2023-2024", "term": "Fall", "grade_level": "Grade 5",
	}, &tt)
	var subject domain.Subject
	a.mustDo(http.StatusCreated, http.MethodPost, "/subjects/", map[string]any{
		"name": "Mathematics", "code": "MATH101", "grade_level": "Grade 5",
	}, &subject)
	return tt, subject
}

func slotBody(tt domain.Timetable, subject domain.Subject, day, start, end string) map[string]any {
	return map[string]any{
		"day": day, "start_time": start, "end_time": end,
		"timetable_id": tt.ID, "subject_id": subject.ID, "room_number": "101",
	}
}

func TestSlots_ConflictDetection(t *testing.T) {
	// GIVEN: A Monday slot 08:00-09:30
	api := newTestAPI(t)
	tt, subject := api.timetableWithSubject()
	var first domain.TimetableSlot
	api.mustDo(http.StatusCreated, http.MethodPost, "/timetables/slots/",
		slotBody(tt, subject, "monday", "08:00", "09:30"), &first)
	assert.Equal(t, "08:00:00", first.StartTime.String())

	// WHEN: Adding an overlapping 09:00-10:00
	rec := api.do(http.MethodPost, "/timetables/slots/", slotBody(tt, subject, "monday", "09:00", "10:00"))

	// THEN: 400 naming the conflicting slot
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := errorBody(t, rec)
	assert.Equal(t, "slot_conflict", resp.Code)
	assert.Equal(t, []uint{first.ID}, resp.Conflicts)

	// Touching intervals are fine, as are other days
	var touching domain.TimetableSlot
	api.mustDo(http.StatusCreated, http.MethodPost, "/timetables/slots/",
		slotBody(tt, subject, "monday", "09:30", "10:30"), &touching)
	api.mustDo(http.StatusCreated, http.MethodPost, "/timetables/slots/",
		slotBody(tt, subject, "tuesday", "09:00", "10:00"), nil)

	// Moving the second slot onto the first conflicts, excluding itself
	rec = api.do(http.MethodPut, fmt.Sprintf("/timetables/slots/%d", touching.ID),
		map[string]any{"start_time": "09:00"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []uint{first.ID}, errorBody(t, rec).Conflicts)

	// Shortening a slot within its own interval is fine
	api.mustDo(http.StatusOK, http.MethodPut, fmt.Sprintf("/timetables/slots/%d", touching.ID),
		map[string]any{"end_time": "10:00"}, nil)

	// Inverted range
	rec = api.do(http.MethodPost, "/timetables/slots/", slotBody(tt, subject, "friday", "10:00", "09:00"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Listing is ordered by day then start
	var slots []domain.TimetableSlot
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/timetables/slots/by-timetable/%d", tt.ID), nil, &slots)
	require.Len(t, slots, 3)
	assert.Equal(t, domain.Monday, slots[0].Day)
	assert.Equal(t, first.ID, slots[0].ID)
	assert.Equal(t, domain.Tuesday, slots[2].Day)
}

func TestSlots_RoomOnlyUpdateSkipsCheck(t *testing.T) {
	// GIVEN: Two overlapping slots written straight to the store
	api := newTestAPI(t)
	tt, subject := api.timetableWithSubject()
	ctx := context.Background()
	for _, start := range []int{8, 9} {
		slot := domain.TimetableSlot{
			Day: domain.Monday, StartTime: domain.NewClockTime(start, 0), EndTime: domain.NewClockTime(start+2, 0),
			TimetableID: tt.ID, SubjectID: subject.ID,
		}
		require.NoError(t, api.h.Store.Slots().Create(ctx, &slot))
	}

	// WHEN: Changing only the room of the second
	var updated domain.TimetableSlot
	api.mustDo(http.StatusOK, http.MethodPut, "/timetables/slots/2", map[string]any{"room_number": "B2"}, &updated)

	// THEN: No conflict check, the room is saved and the times kept
	require.NotNil(t, updated.RoomNumber)
	assert.Equal(t, "B2", *updated.RoomNumber)

	var stored domain.TimetableSlot
	api.mustDo(http.StatusOK, http.MethodGet, "/timetables/slots/2", nil, &stored)
	assert.Equal(t, "09:00:00", stored.StartTime.String())
	assert.Equal(t, "11:00:00", stored.EndTime.String())

	// AND: The same slot does conflict once a time is touched
	rec := api.do(http.MethodPut, "/timetables/slots/2", map[string]any{"start_time": "09:00"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := errorBody(t, rec)
	assert.Equal(t, "slot_conflict", resp.Code)
	assert.Equal(t, []uint{1}, resp.Conflicts)
}

func TestSlots_RequireTimetableAndSubject(t *testing.T) {
	api := newTestAPI(t)
	tt, subject := api.timetableWithSubject()

	body := slotBody(tt, subject, "monday", "08:00", "09:00")
	body["subject_id"] = 99
	rec := api.do(http.MethodPost, "/timetables/slots/", body)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Subject not found", errorBody(t, rec).Error)

	body = slotBody(tt, subject, "monday", "08:00", "09:00")
	body["timetable_id"] = 99
	rec = api.do(http.MethodPost, "/timetables/slots/", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimetables_DeleteCascadesSlots(t *testing.T) {
	api := newTestAPI(t)
	tt, subject := api.timetableWithSubject()
	var slot domain.TimetableSlot
	api.mustDo(http.StatusCreated, http.MethodPost, "/timetables/slots/",
		slotBody(tt, subject, "monday", "08:00", "09:00"), &slot)

	api.mustDo(http.StatusOK, http.MethodDelete, fmt.Sprintf("/timetables/%d", tt.ID), nil, nil)

	api.mustDo(http.StatusNotFound, http.MethodGet, fmt.Sprintf("/timetables/slots/%d", slot.ID), nil, nil)
}

func TestSubjects_ActiveFilterDefault(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(http.StatusCreated, http.MethodPost, "/subjects/", map[string]any{
		"name": "Art", "code": "ART1", "grade_level": "Grade 5", "is_active": false,
	}, nil)
	api.mustDo(http.StatusCreated, http.MethodPost, "/subjects/", map[string]any{
		"name": "Music", "code": "MUS1", "grade_level": "Grade 5",
	}, nil)

	var active, inactive []domain.Subject
	api.mustDo(http.StatusOK, http.MethodGet, "/subjects/", nil, &active)
	api.mustDo(http.StatusOK, http.MethodGet, "/subjects/?is_active=false", nil, &inactive)

	require.Len(t, active, 1)
	assert.Equal(t, "MUS1", active[0].Code)
	require.Len(t, inactive, 1)
	assert.Equal(t, "ART1", inactive[0].Code)

	rec := api.do(http.MethodPost, "/subjects/", map[string]any{"name": "Music 2", "code": "MUS1", "grade_level": "Grade 5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EXAMS
// =============================================================================

func TestExamResults_DuplicateAndCascade(t *testing.T) {
	// GIVEN: An exam with one result
	api := newTestAPI(t)
	student := api.createStudent("ST001")
	var exam domain.Exam
	api.mustDo(http.StatusCreated, http.MethodPost, "/exams/", map[string]any{
		"name": "Mathematics Midterm", "exam_type": "midterm", "date": "2023-10-15",
		"total_marks": 100, "passing_marks": 40, "grade_level": "Grade 5",
		"academic_year": "2023-2024", "term": "Fall",
	}, &exam)
	result := map[string]any{"score": 85, "grade": "A", "student_id": student.ID, "exam_id": exam.ID, "subject_id": 1}
	api.mustDo(http.StatusCreated, http.MethodPost, "/exams/results/", result, nil)

	// WHEN: Recording the same student/exam/subject again
	rec := api.do(http.MethodPost, "/exams/results/", result)

	// THEN: 400 duplicate
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Result already exists for this student, exam, and subject", errorBody(t, rec).Error)

	// AND: Deleting the exam removes its results
	api.mustDo(http.StatusOK, http.MethodDelete, fmt.Sprintf("/exams/%d", exam.ID), nil, nil)
	var results []domain.ExamResult
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/exams/results/by-student/%d", student.ID), nil, &results)
	assert.Empty(t, results)
}

func TestExams_PassingMarksBound(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]any{
		"name": "Quiz", "exam_type": "quiz", "date": "2023-10-15",
		"total_marks": 10, "passing_marks": 20, "grade_level": "Grade 5",
		"academic_year": "2023-2024", "term": "Fall",
	}
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/exams/", body).Code)

	body["passing_marks"] = 5
	var exam domain.Exam
	api.mustDo(http.StatusCreated, http.MethodPost, "/exams/", body, &exam)
	rec := api.do(http.MethodPut, fmt.Sprintf("/exams/%d", exam.ID), map[string]any{"total_marks": 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// AUTH
// =============================================================================

func (a *testAPI) login(email, password string) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, "/auth/login", map[string]any{"email": email, "password": password})
}

func TestAuth_RequiredFlow(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.AuthRequired = true })

	// No token
	rec := api.do(http.MethodGet, "/students/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong password
	rec = api.login("admin@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	api.token = "not-a-token"
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/students/", nil).Code)

	// Good login
	api.token = ""
	rec = api.login("admin@example.com", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	api.token = tok.AccessToken

	var me domain.User
	api.mustDo(http.StatusOK, http.MethodGet, "/users/me", nil, &me)
	assert.Equal(t, "admin@example.com", me.Email)
	assert.True(t, me.IsSuperuser)

	// Superuser creates a plain user
	var teacher domain.User
	api.mustDo(http.StatusCreated, http.MethodPost, "/users/", map[string]any{
		"email": "teacher@example.com", "password": "secret", "full_name": "Teacher User",
	}, &teacher)
	assert.True(t, teacher.IsActive)
	assert.NotContains(t, api.do(http.MethodGet, fmt.Sprintf("/users/%d", teacher.ID), nil).Body.String(), "hashed_password")

	// The plain user can read but not administer
	rec = api.login("teacher@example.com", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	api.token = tok.AccessToken
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/students/", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/users/", map[string]any{
		"email": "x@example.com", "password": "secret",
	}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/scenarios/", nil).Code)
}

func TestAuth_InactiveUser(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(http.StatusCreated, http.MethodPost, "/users/", map[string]any{
		"email": "gone@example.com", "password": "secret", "is_active": false,
	}, nil)

	rec := api.login("gone@example.com", "secret")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Inactive user", errorBody(t, rec).Error)
}

func TestAuth_FormLogin(t *testing.T) {
	api := newTestAPI(t)
	form := url.Values{"username": {"admin@example.com"}, "password": {"admin"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAuth_MeNeedsTokenEvenWhenOptional(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/users/me", nil).Code)
}

func TestUsers_Roles(t *testing.T) {
	api := newTestAPI(t)
	var teacherRole, parentRole domain.Role
	api.mustDo(http.StatusCreated, http.MethodPost, "/roles/", map[string]any{"name": "teacher"}, &teacherRole)
	api.mustDo(http.StatusCreated, http.MethodPost, "/roles/", map[string]any{"name": "parent"}, &parentRole)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/roles/", map[string]any{"name": "teacher"}).Code)

	var roles []domain.Role
	api.mustDo(http.StatusOK, http.MethodPut, "/users/1/roles",
		map[string]any{"role_ids": []uint{parentRole.ID, teacherRole.ID}}, &roles)
	require.Len(t, roles, 2)
	assert.Equal(t, "teacher", roles[0].Name)

	api.mustDo(http.StatusOK, http.MethodGet, "/users/1/roles", nil, &roles)
	assert.Len(t, roles, 2)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, "/users/1/roles",
		map[string]any{"role_ids": []uint{99}}).Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReports_CreateRunAndDue(t *testing.T) {
	// GIVEN: A daily scheduled report that was due yesterday
	api := newTestAPI(t)
	yesterday := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	var report domain.Report
	api.mustDo(http.StatusCreated, http.MethodPost, "/reports/", map[string]any{
		"title": "Attendance Report", "report_type": "attendance", "created_by": 1,
		"is_scheduled": true, "schedule_frequency": "daily", "next_run": yesterday,
	}, &report)
	assert.JSONEq(t, `{}`, string(report.Parameters))

	var due []domain.Report
	api.mustDo(http.StatusOK, http.MethodGet, "/reports/due", nil, &due)
	require.Len(t, due, 1)

	// WHEN: Running it
	var ran domain.Report
	api.mustDo(http.StatusOK, http.MethodPost, fmt.Sprintf("/reports/%d/run", report.ID), nil, &ran)

	// THEN: last_run is set and next_run moved to a future midnight
	require.NotNil(t, ran.LastRun)
	require.NotNil(t, ran.NextRun)
	assert.True(t, ran.NextRun.After(time.Now().UTC()))
	assert.Equal(t, 0, ran.NextRun.Hour())

	api.mustDo(http.StatusOK, http.MethodGet, "/reports/due", nil, &due)
	assert.Empty(t, due)
}

func TestReports_CreatedByRules(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]any{"title": "Fees", "report_type": "financial"}

	// Neither body nor token names a user
	rec := api.do(http.MethodPost, "/reports/", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec).Fields, "created_by")

	// Unknown user
	body["created_by"] = 42
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/reports/", body).Code)

	// Bad frequency
	body["created_by"] = 1
	body["schedule_frequency"] = "hourly"
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/reports/", body).Code)
}
