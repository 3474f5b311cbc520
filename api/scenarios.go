/*
scenarios.go - Demo datasets for development and demonstrations

PURPOSE:
  Replaces the database contents with a known dataset so the API can be
  explored without typing in a school by hand.

AVAILABLE SCENARIOS:
  empty:          Only the first superuser
  sample-school:  Three users, two students, a Grade 5 timetable, two
                  midterms with results, a fee structure, two fee records
                  (one paid, one partially paid) and two reports

HOW SCENARIOS WORK:
 1. Reset database (drop and recreate every table)
 2. Create the first superuser from config
 3. Run the loader inside one transaction
 4. Payments go through fees.Reconcile like any other payment

USAGE VIA API:
  POST /api/v1/scenarios/load
  {"scenario_id": "sample-school"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxx(ctx, tx)
 3. Add it to 'loaders'

NOTE:
  Scenarios reset the database. Only use in development/demo environments.
  The routes are mounted only when ENABLE_SCENARIOS is true.

SEE ALSO:
  - server.go: /scenarios routes
  - cmd/admin: "seed" loads a scenario from the command line
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/warp/schooladmin/auth"
	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/fees"
)

// SampleSchool is the scenario loaded by CREATE_SAMPLE_DATA.
const SampleSchool = "sample-school"

// demoPassword is the password of every non-superuser demo account.
const demoPassword = "password"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty School",
		Description: "No records, only the first superuser",
		Category:    "setup",
	},
	{
		ID:          SampleSchool,
		Name:        "Sample School",
		Description: "Grade 5 class with timetable, midterm results, fees and reports",
		Category:    "demo",
	},
}

var loaders = map[string]func(ctx context.Context, tx domain.Store) error{
	"empty":      func(context.Context, domain.Store) error { return nil },
	SampleSchool: loadSampleSchool,
}

// ErrUnknownScenario is returned for an id not in the scenario list.
var ErrUnknownScenario = errors.New("unknown scenario")

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every table, keeping only the first superuser.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// LoadScenarioByID resets the database and loads scenario id.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	load, ok := loaders[id]
	if !ok {
		return errors.Wrap(ErrUnknownScenario, id)
	}
	if err := h.reset(ctx); err != nil {
		return err
	}
	if err := h.Store.WithTx(ctx, func(tx domain.Store) error { return load(ctx, tx) }); err != nil {
		return errors.Wrapf(err, "load scenario %s", id)
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return nil
}

func (h *Handler) reset(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	_, _, err := h.Store.EnsureSuperuser(ctx, h.Config.FirstSuperuser, h.Config.FirstSuperuserPassword)
	return err
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func str(s string) *string { return &s }

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func loadSampleSchool(ctx context.Context, tx domain.Store) error {
	// --- staff and parents ---
	admins, err := tx.Users().List(ctx, domain.UserFilter{Page: domain.Page{Limit: 1}})
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return errors.New("sample school needs a superuser")
	}
	admin := admins[0]
	teacher, err := demoUser(ctx, tx, "teacher@example.com", "Teacher User")
	if err != nil {
		return err
	}
	parent, err := demoUser(ctx, tx, "parent@example.com", "Parent User")
	if err != nil {
		return err
	}
	for _, name := range []string{"admin", "teacher", "parent"} {
		if err := tx.Roles().Create(ctx, &domain.Role{Name: name}); err != nil {
			return err
		}
	}
	roles, err := tx.Roles().List(ctx, domain.RoleFilter{})
	if err != nil {
		return err
	}
	byName := map[string]uint{}
	for _, role := range roles {
		byName[role.Name] = role.ID
	}
	if err := tx.SetUserRoles(ctx, admin.ID, []uint{byName["admin"]}); err != nil {
		return err
	}
	if err := tx.SetUserRoles(ctx, teacher.ID, []uint{byName["teacher"]}); err != nil {
		return err
	}
	if err := tx.SetUserRoles(ctx, parent.ID, []uint{byName["parent"]}); err != nil {
		return err
	}

	// --- students and their admissions ---
	enrolled := domain.NewDate(2023, time.September, 1)
	john := domain.Student{
		FirstName: "John", LastName: "Doe", DateOfBirth: domain.NewDate(2010, time.May, 15),
		Gender: "Male", EnrollmentDate: enrolled, GradeLevel: "Grade 5", StudentNumber: "ST001",
		Address: str("123 Main St, City"), PhoneNumber: str("123-456-7890"),
		Email: str("john.doe@example.com"), IsActive: true, ParentID: &parent.ID,
	}
	jane := domain.Student{
		FirstName: "Jane", LastName: "Smith", DateOfBirth: domain.NewDate(2011, time.August, 22),
		Gender: "Female", EnrollmentDate: enrolled, GradeLevel: "Grade 4", StudentNumber: "ST002",
		Address: str("456 Oak St, City"), PhoneNumber: str("234-567-8901"),
		Email: str("jane.smith@example.com"), IsActive: true, ParentID: &parent.ID,
	}
	for _, s := range []*domain.Student{&john, &jane} {
		if err := tx.Students().Create(ctx, s); err != nil {
			return err
		}
	}
	admissions := []domain.Admission{
		{
			ApplicationDate: domain.NewDate(2023, time.June, 15), Status: domain.AdmissionApproved,
			DesiredGradeLevel: "Grade 5", PreviousSchool: str("Previous Elementary School"),
			PreviousGradeLevel: str("Grade 4"), Notes: str("Good academic record"),
			FirstName: john.FirstName, LastName: john.LastName, DateOfBirth: john.DateOfBirth,
			Gender: john.Gender, Address: *john.Address, PhoneNumber: *john.PhoneNumber, Email: john.Email,
			ParentName: "Parent Doe", ParentPhone: "987-654-3210", ParentEmail: str("parent.doe@example.com"),
			ParentAddress: john.Address, RelationshipToApplicant: "Father", StudentID: &john.ID,
		},
		{
			ApplicationDate: domain.NewDate(2023, time.June, 20), Status: domain.AdmissionApproved,
			DesiredGradeLevel: "Grade 4", PreviousSchool: str("Previous Elementary School"),
			PreviousGradeLevel: str("Grade 3"), Notes: str("Good academic record"),
			FirstName: jane.FirstName, LastName: jane.LastName, DateOfBirth: jane.DateOfBirth,
			Gender: jane.Gender, Address: *jane.Address, PhoneNumber: *jane.PhoneNumber, Email: jane.Email,
			ParentName: "Parent Smith", ParentPhone: "876-543-2109", ParentEmail: str("parent.smith@example.com"),
			ParentAddress: jane.Address, RelationshipToApplicant: "Mother", StudentID: &jane.ID,
		},
	}
	for i := range admissions {
		if err := tx.Admissions().Create(ctx, &admissions[i]); err != nil {
			return err
		}
	}

	// --- subjects and the Grade 5 timetable ---
	credits := func(n int) *int { return &n }
	subjects := []domain.Subject{
		{Name: "Mathematics", Code: "MATH101", Description: str("Basic mathematics for elementary students"), Credits: credits(5)},
		{Name: "Science", Code: "SCI101", Description: str("Basic science for elementary students"), Credits: credits(4)},
		{Name: "English", Code: "ENG101", Description: str("English language and literature"), Credits: credits(5)},
	}
	for i := range subjects {
		subjects[i].GradeLevel = "Grade 5"
		subjects[i].IsActive = true
		subjects[i].TeacherID = &teacher.ID
		if err := tx.Subjects().Create(ctx, &subjects[i]); err != nil {
			return err
		}
	}

	tt := domain.Timetable{
		Name: "Grade 5 Timetable", Description: str("Timetable for Grade 5 students"),
		AcademicYear: "2023-2024", Term: "Fall", GradeLevel: "Grade 5", Section: str("A"), IsActive: true,
	}
	if err := tx.Timetables().Create(ctx, &tt); err != nil {
		return err
	}
	for i, subject := range subjects {
		slot := domain.TimetableSlot{
			Day:         domain.Monday,
			StartTime:   domain.NewClockTime(8+i, 0),
			EndTime:     domain.NewClockTime(9+i, 0),
			RoomNumber:  str([]string{"101", "102", "103"}[i]),
			TimetableID: tt.ID,
			SubjectID:   subject.ID,
			TeacherID:   &teacher.ID,
		}
		if err := tx.Slots().Create(ctx, &slot); err != nil {
			return err
		}
	}

	// --- midterms ---
	for i, subject := range subjects[:2] {
		exam := domain.Exam{
			Name: subject.Name + " Midterm", Description: str("Midterm exam for " + subject.Name),
			ExamType: domain.ExamMidterm, Date: domain.NewDate(2023, time.October, 15+2*i),
			StartTime: str("09:00"), EndTime: str("11:00"), TotalMarks: 100, PassingMarks: 40,
			GradeLevel: "Grade 5", AcademicYear: "2023-2024", Term: "Fall",
			Instructions: str("Answer all questions"),
		}
		if err := tx.Exams().Create(ctx, &exam); err != nil {
			return err
		}
		result := domain.ExamResult{
			Score:     []float64{85, 78}[i],
			Grade:     str([]string{"A", "B"}[i]),
			Remarks:   str([]string{"Excellent work", "Good work"}[i]),
			StudentID: john.ID,
			ExamID:    exam.ID,
			SubjectID: subject.ID,
		}
		if err := tx.ExamResults().Create(ctx, &result); err != nil {
			return err
		}
	}

	// --- fees ---
	structure := domain.FeeStructure{
		Name: "Grade 5 Fee Structure", Description: str("Fee structure for Grade 5 students"),
		AcademicYear: "2023-2024", GradeLevel: "Grade 5", IsActive: true,
	}
	if err := tx.FeeStructures().Create(ctx, &structure); err != nil {
		return err
	}
	due := domain.NewDate(2023, time.September, 15)
	items := []domain.FeeItem{
		{Name: "Tuition Fee", Description: str("Tuition fee for the academic year"), FeeType: domain.FeeTuition, Amount: money(5000)},
		{Name: "Library Fee", Description: str("Library fee for the academic year"), FeeType: domain.FeeLibrary, Amount: money(500)},
	}
	for i := range items {
		items[i].DueDate = &due
		items[i].IsMandatory = true
		items[i].FeeStructureID = structure.ID
		if err := tx.FeeItems().Create(ctx, &items[i]); err != nil {
			return err
		}
	}

	payments := []domain.Payment{
		{
			Amount: money(5500), PaymentDate: time.Date(2023, time.September, 10, 10, 0, 0, 0, time.UTC),
			PaymentMethod: domain.MethodBankTransfer, TransactionID: str("TXN123456"),
			ReceiptNumber: str("REC123456"), Notes: str("Full payment"),
		},
		{
			Amount: money(3000), PaymentDate: time.Date(2023, time.September, 12, 11, 0, 0, 0, time.UTC),
			PaymentMethod: domain.MethodCash, ReceiptNumber: str("REC123457"), Notes: str("Partial payment"),
		},
	}
	for i, student := range []domain.Student{john, jane} {
		rec, err := fees.RecordFromStructure(structure, items, student.ID, "Fall", nil, true)
		if err != nil {
			return err
		}
		if err := tx.FeeRecords().Create(ctx, &rec); err != nil {
			return err
		}
		payment := payments[i]
		if rec, err = fees.Reconcile(rec, fees.NewPayment(payment.Amount)); err != nil {
			return err
		}
		if err := tx.FeeRecords().Update(ctx, &rec); err != nil {
			return err
		}
		payment.FeeRecordID = rec.ID
		if err := tx.Payments().Create(ctx, &payment); err != nil {
			return err
		}
	}

	// --- reports ---
	reportRuns := []time.Time{
		time.Date(2023, time.October, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2023, time.October, 5, 10, 0, 0, 0, time.UTC),
	}
	nextRun := time.Date(2023, time.November, 1, 9, 0, 0, 0, time.UTC)
	samples := []domain.Report{
		{
			Title: "Attendance Report", Description: str("Monthly attendance report"),
			ReportType: domain.ReportAttendance, Parameters: datatypes.JSON(`{"month": "September", "year": "2023"}`),
			FilePath: str("/reports/attendance_report_202309.pdf"), IsScheduled: true,
			ScheduleFrequency: str("Monthly"), LastRun: &reportRuns[0], NextRun: &nextRun,
		},
		{
			Title: "Academic Report", Description: str("Term academic report"),
			ReportType: domain.ReportAcademic, Parameters: datatypes.JSON(`{"term": "Fall", "year": "2023"}`),
			FilePath: str("/reports/academic_report_2023_fall.pdf"), LastRun: &reportRuns[1],
		},
	}
	for i := range samples {
		samples[i].CreatedBy = admin.ID
		if err := tx.Reports().Create(ctx, &samples[i]); err != nil {
			return err
		}
	}
	return nil
}

func demoUser(ctx context.Context, tx domain.Store, email, name string) (*domain.User, error) {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: email, FullName: &name, HashedPassword: hash, IsActive: true}
	if err := tx.Users().Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
