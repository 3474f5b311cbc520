/*
Package sqlstore implements domain.Store with gorm over SQLite or PostgreSQL.

PURPOSE:
  One Store value owns a *gorm.DB. Every entity is served by the same generic
  table[T, F]; what differs per entity is its filter scope (scopes.go). The
  dialect only matters for opening the connection and for row locks.

USAGE:
  st, err := sqlstore.Open(cfg)
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SQLITE:
  Opened with foreign keys on and WAL journaling, and pinned to a single
  connection. ":memory:" databases exist per connection, and one connection
  also serialises writers, so LockFeeRecord needs no SELECT ... FOR UPDATE.

POSTGRESQL:
  Any postgres:// URL. LockFeeRecord takes a row lock that lasts until the
  surrounding WithTx commits.

MIGRATION:
  Schema is auto-migrated on Open from domain.Models(). Reset drops and
  recreates every table, which also restarts id sequences.

SEE ALSO:
  - domain/store.go: the interfaces implemented here
  - errors.go: driver error translation
*/
package sqlstore

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/warp/schooladmin/auth"
	"github.com/warp/schooladmin/config"
	"github.com/warp/schooladmin/domain"
)

const sqliteParams = "?_foreign_keys=on&_journal_mode=WAL"

// Store implements domain.Store.
type Store struct {
	db      *gorm.DB
	dialect config.Dialect
}

var _ domain.Store = (*Store)(nil)

// Open connects using the configured dialect and DSN, then migrates.
func Open(cfg *config.Config) (*Store, error) {
	return New(cfg.Dialect(), cfg.DSN(), cfg.GormLogLevel())
}

// New opens dsn with the given dialect. Use ":memory:" with config.SQLite
// for a throwaway database.
func New(dialect config.Dialect, dsn string, level logger.LogLevel) (*Store, error) {
	var dialector gorm.Dialector
	switch dialect {
	case config.Postgres:
		dialector = postgres.Open(dsn)
	case config.SQLite:
		dialector = sqlite.Open(dsn + sqliteParams)
	default:
		return nil, errors.Errorf("unsupported dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if dialect == config.SQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to open database")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates missing tables, columns and indexes.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(domain.Models()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

// Reset drops every table and migrates again.
func (s *Store) Reset(ctx context.Context) error {
	models := domain.Models()
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	if err := s.db.WithContext(ctx).Migrator().DropTable(models...); err != nil {
		return errors.Wrap(err, "failed to drop tables")
	}
	return s.Migrate()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Dialect() config.Dialect { return s.dialect }

// =============================================================================
// REPOSITORIES
// =============================================================================

func (s *Store) Students() domain.Repository[domain.Student, domain.StudentFilter] {
	return &table[domain.Student, domain.StudentFilter]{db: s.db, entity: "Student", scope: scopeStudents}
}

func (s *Store) Admissions() domain.Repository[domain.Admission, domain.AdmissionFilter] {
	return &table[domain.Admission, domain.AdmissionFilter]{db: s.db, entity: "Admission application", scope: scopeAdmissions}
}

func (s *Store) Subjects() domain.Repository[domain.Subject, domain.SubjectFilter] {
	return &table[domain.Subject, domain.SubjectFilter]{db: s.db, entity: "Subject", scope: scopeSubjects}
}

func (s *Store) Timetables() domain.Repository[domain.Timetable, domain.TimetableFilter] {
	return &table[domain.Timetable, domain.TimetableFilter]{db: s.db, entity: "Timetable", scope: scopeTimetables}
}

func (s *Store) Slots() domain.Repository[domain.TimetableSlot, domain.SlotFilter] {
	return &table[domain.TimetableSlot, domain.SlotFilter]{db: s.db, entity: "Timetable slot", scope: scopeSlots}
}

func (s *Store) Exams() domain.Repository[domain.Exam, domain.ExamFilter] {
	return &table[domain.Exam, domain.ExamFilter]{db: s.db, entity: "Exam", scope: scopeExams}
}

func (s *Store) ExamResults() domain.Repository[domain.ExamResult, domain.ExamResultFilter] {
	return &table[domain.ExamResult, domain.ExamResultFilter]{db: s.db, entity: "Exam result", scope: scopeExamResults}
}

func (s *Store) FeeStructures() domain.Repository[domain.FeeStructure, domain.FeeStructureFilter] {
	return &table[domain.FeeStructure, domain.FeeStructureFilter]{db: s.db, entity: "Fee structure", scope: scopeFeeStructures}
}

func (s *Store) FeeItems() domain.Repository[domain.FeeItem, domain.FeeItemFilter] {
	return &table[domain.FeeItem, domain.FeeItemFilter]{db: s.db, entity: "Fee item", scope: scopeFeeItems}
}

func (s *Store) FeeRecords() domain.Repository[domain.FeeRecord, domain.FeeRecordFilter] {
	return &table[domain.FeeRecord, domain.FeeRecordFilter]{db: s.db, entity: "Fee record", scope: scopeFeeRecords}
}

func (s *Store) Payments() domain.Repository[domain.Payment, domain.PaymentFilter] {
	return &table[domain.Payment, domain.PaymentFilter]{db: s.db, entity: "Payment", scope: scopePayments}
}

func (s *Store) Reports() domain.Repository[domain.Report, domain.ReportFilter] {
	return &table[domain.Report, domain.ReportFilter]{db: s.db, entity: "Report", scope: scopeReports}
}

func (s *Store) Users() domain.Repository[domain.User, domain.UserFilter] {
	return &table[domain.User, domain.UserFilter]{db: s.db, entity: "User", scope: scopeUsers}
}

func (s *Store) Roles() domain.Repository[domain.Role, domain.RoleFilter] {
	return &table[domain.Role, domain.RoleFilter]{db: s.db, entity: "Role", scope: scopeRoles}
}

// =============================================================================
// LOCKING, ROLES, TRANSACTIONS
// =============================================================================

func (s *Store) LockFeeRecord(ctx context.Context, id uint) (*domain.FeeRecord, error) {
	q := s.db.WithContext(ctx)
	if s.dialect == config.Postgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rec domain.FeeRecord
	if err := q.First(&rec, id).Error; err != nil {
		return nil, translate(err, "Fee record", id)
	}
	return &rec, nil
}

func (s *Store) SetUserRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&domain.UserRole{}).Error; err != nil {
			return errors.Wrap(err, "clear user roles")
		}
		if len(roleIDs) == 0 {
			return nil
		}
		seen := make(map[uint]bool, len(roleIDs))
		rows := make([]domain.UserRole, 0, len(roleIDs))
		for _, id := range roleIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, domain.UserRole{UserID: userID, RoleID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return errors.Wrap(err, "set user roles")
		}
		return nil
	})
}

func (s *Store) UserRoles(ctx context.Context, userID uint) ([]domain.Role, error) {
	roles := []domain.Role{}
	err := s.db.WithContext(ctx).
		Model(&domain.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id").
		Find(&roles).Error
	if err != nil {
		return nil, errors.Wrap(err, "list user roles")
	}
	return roles, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, dialect: s.dialect})
	})
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// EnsureSuperuser creates an active superuser with email unless a user with
// that email already exists. It reports whether a row was created.
func (s *Store) EnsureSuperuser(ctx context.Context, email, password string) (*domain.User, bool, error) {
	existing, err := s.Users().List(ctx, domain.UserFilter{Email: &email})
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, errors.Wrap(err, "hash password")
	}
	u := &domain.User{
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    true,
	}
	if err := s.Users().Create(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}
