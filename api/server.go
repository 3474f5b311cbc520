/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:       Request logging
  2. Recoverer:    Panic recovery (500 instead of crash)
  3. RequestID:    Unique ID per request for tracing
  4. CORS:         Origins from CORS_ORIGINS
  5. Authenticate: Bearer token -> current user (API routes only)

ROUTE GROUPS (under API_V1_STR):
  /auth/login           Token issue, no authentication
  /users, /roles        Accounts; writes need a superuser
  /students, /admissions, /subjects, /timetables, /exams, /payments, /reports
  /scenarios/*          Demo datasets (ENABLE_SCENARIOS), superuser only
  /health               Outside the prefix

ROUTE ORDER:
  Fixed segments (/slots, /results, /by-grade/...) are registered next to
  /{id}; chi matches static segments before parameters.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Authenticate, RequireUser, RequireSuperuser
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route(h.Config.APIPrefix, func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Route("/users", func(r chi.Router) {
				r.With(h.RequireUser).Get("/me", h.Me)
				r.Get("/", h.ListUsers)
				r.Get("/{id}", h.GetUser)
				r.Get("/{id}/roles", h.GetUserRoles)

				r.Group(func(r chi.Router) {
					r.Use(h.RequireSuperuser)
					r.Post("/", h.CreateUser)
					r.Put("/{id}", h.UpdateUser)
					r.Delete("/{id}", h.DeleteUser)
					r.Put("/{id}/roles", h.SetUserRoles)
				})
			})

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", h.ListRoles)
				r.With(h.RequireSuperuser).Post("/", h.CreateRole)
			})

			r.Route("/students", func(r chi.Router) {
				r.Get("/", h.ListStudents)
				r.Post("/", h.CreateStudent)
				r.Get("/by-grade/{grade_level}", h.StudentsByGrade)
				r.Get("/by-parent/{parent_id}", h.StudentsByParent)
				r.Get("/{id}", h.GetStudent)
				r.Put("/{id}", h.UpdateStudent)
				r.Delete("/{id}", h.DeleteStudent)
			})

			r.Route("/admissions", func(r chi.Router) {
				r.Get("/", h.ListAdmissions)
				r.Post("/", h.CreateAdmission)
				r.Get("/by-status/{status}", h.AdmissionsByStatus)
				r.Get("/{id}", h.GetAdmission)
				r.Put("/{id}", h.UpdateAdmission)
				r.Delete("/{id}", h.DeleteAdmission)
			})

			r.Route("/subjects", func(r chi.Router) {
				r.Get("/", h.ListSubjects)
				r.Post("/", h.CreateSubject)
				r.Get("/by-teacher/{teacher_id}", h.SubjectsByTeacher)
				r.Get("/by-grade/{grade_level}", h.SubjectsByGrade)
				r.Get("/{id}", h.GetSubject)
				r.Put("/{id}", h.UpdateSubject)
				r.Delete("/{id}", h.DeleteSubject)
			})

			r.Route("/timetables", func(r chi.Router) {
				r.Get("/", h.ListTimetables)
				r.Post("/", h.CreateTimetable)

				r.Route("/slots", func(r chi.Router) {
					r.Post("/", h.CreateSlot)
					r.Get("/by-timetable/{timetable_id}", h.SlotsByTimetable)
					r.Get("/{id}", h.GetSlot)
					r.Put("/{id}", h.UpdateSlot)
					r.Delete("/{id}", h.DeleteSlot)
				})

				r.Get("/{id}", h.GetTimetable)
				r.Put("/{id}", h.UpdateTimetable)
				r.Delete("/{id}", h.DeleteTimetable)
			})

			r.Route("/exams", func(r chi.Router) {
				r.Get("/", h.ListExams)
				r.Post("/", h.CreateExam)

				r.Route("/results", func(r chi.Router) {
					r.Post("/", h.CreateExamResult)
					r.Get("/by-exam/{exam_id}", h.ResultsByExam)
					r.Get("/by-student/{student_id}", h.ResultsByStudent)
					r.Get("/{id}", h.GetExamResult)
					r.Put("/{id}", h.UpdateExamResult)
					r.Delete("/{id}", h.DeleteExamResult)
				})

				r.Get("/{id}", h.GetExam)
				r.Put("/{id}", h.UpdateExam)
				r.Delete("/{id}", h.DeleteExam)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Route("/fee-structures", func(r chi.Router) {
					r.Get("/", h.ListFeeStructures)
					r.Post("/", h.CreateFeeStructure)
					r.Get("/{id}", h.GetFeeStructure)
					r.Put("/{id}", h.UpdateFeeStructure)
					r.Delete("/{id}", h.DeleteFeeStructure)
				})

				r.Route("/fee-items", func(r chi.Router) {
					r.Post("/", h.CreateFeeItem)
					r.Get("/by-structure/{fee_structure_id}", h.FeeItemsByStructure)
					r.Get("/{id}", h.GetFeeItem)
					r.Put("/{id}", h.UpdateFeeItem)
					r.Delete("/{id}", h.DeleteFeeItem)
				})

				r.Route("/fee-records", func(r chi.Router) {
					r.Get("/", h.ListFeeRecords)
					r.Post("/", h.CreateFeeRecord)
					r.Post("/from-structure", h.CreateFeeRecordFromStructure)
					r.Get("/by-student/{student_id}", h.FeeRecordsByStudent)
					r.Get("/{id}", h.GetFeeRecord)
					r.Put("/{id}", h.UpdateFeeRecord)
					r.Delete("/{id}", h.DeleteFeeRecord)
				})

				r.Route("/payments", func(r chi.Router) {
					r.Post("/", h.CreatePayment)
					r.Get("/by-fee-record/{fee_record_id}", h.PaymentsByFeeRecord)
					r.Get("/{id}", h.GetPayment)
					r.Put("/{id}", h.UpdatePayment)
					r.Delete("/{id}", h.DeletePayment)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", h.ListReports)
				r.Post("/", h.CreateReport)
				r.Get("/scheduled", h.ScheduledReports)
				r.Get("/due", h.DueReports)
				r.Get("/by-type/{report_type}", h.ReportsByType)
				r.Get("/by-user/{user_id}", h.ReportsByUser)
				r.Get("/{id}", h.GetReport)
				r.Put("/{id}", h.UpdateReport)
				r.Delete("/{id}", h.DeleteReport)
				r.Post("/{id}/run", h.RunReport)
			})

			if h.Config.EnableScenarios {
				r.Route("/scenarios", func(r chi.Router) {
					r.Use(h.RequireSuperuser)
					r.Get("/", h.ListScenarios)
					r.Get("/current", h.GetCurrentScenario)
					r.Post("/load", h.LoadScenario)
					r.Post("/reset", h.ResetDatabase)
				})
			}
		})
	})

	return r
}
