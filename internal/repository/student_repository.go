package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/pkg/database"
)

// ErrDuplicateStudent is returned when a student id is already registered.
var ErrDuplicateStudent = errors.New("student already exists")

// ErrInvalidRecord is returned when the store rejects a row for breaking a
// column constraint.
var ErrInvalidRecord = errors.New("student record rejected by store")

const studentColumns = `student_id, name, class_name, sessions, badges, high_score, overall_score, time_spent, created_at, updated_at`

const insertStudentQuery = `INSERT INTO students (student_id, name, class_name, sessions, badges, high_score, overall_score, time_spent, created_at, updated_at)
        VALUES (:student_id, :name, :class_name, :sessions, :badges, :high_score, :overall_score, :time_spent, :created_at, :updated_at)`

// QueryObserver receives timing for each store round trip.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// StudentRepository manages persistence for student progress records.
type StudentRepository struct {
	db       *sqlx.DB
	lockRows bool
	observer QueryObserver
}

// NewStudentRepository constructs a StudentRepository. Row locks are used on
// PostgreSQL; SQLite relies on its single-connection pool instead.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db, lockRows: database.IsPostgres(db)}
}

// WithQueryObserver attaches query timing instrumentation.
func (r *StudentRepository) WithQueryObserver(o QueryObserver) *StudentRepository {
	r.observer = o
	return r
}

func (r *StudentRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Ping checks store connectivity.
func (r *StudentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FindByStudentID fetches a student. It returns sql.ErrNoRows when absent.
func (r *StudentRepository) FindByStudentID(ctx context.Context, id string) (*models.Student, error) {
	defer r.observe("students.find", time.Now())
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM students WHERE student_id = ?`)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetOrCreate inserts defaults when no student exists for defaults.StudentID
// and returns the stored record. created reports whether this call inserted it.
func (r *StudentRepository) GetOrCreate(ctx context.Context, defaults *models.Student) (student *models.Student, created bool, err error) {
	defer r.observe("students.get_or_create", time.Now())
	stampNew(defaults)
	res, err := r.db.NamedExecContext(ctx, insertStudentQuery+` ON CONFLICT (student_id) DO NOTHING`, defaults)
	if err != nil {
		return nil, false, fmt.Errorf("upsert student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM students WHERE student_id = ?`)
	var stored models.Student
	if err := r.db.GetContext(ctx, &stored, query, defaults.StudentID); err != nil {
		return nil, false, fmt.Errorf("load student: %w", err)
	}
	return &stored, created, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	defer r.observe("students.create", time.Now())
	stampNew(student)
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateStudent
		}
		if isConstraintViolation(err) {
			return fmt.Errorf("create student: %w: %v", ErrInvalidRecord, err)
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Mutate loads a student under a row lock, applies fn and persists the result
// in the same transaction. fn's error aborts the transaction unchanged.
// sql.ErrNoRows is returned when the student does not exist.
func (r *StudentRepository) Mutate(ctx context.Context, id string, fn func(*models.Student) error) (_ *models.Student, err error) {
	defer r.observe("students.mutate", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin student transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT ` + studentColumns + ` FROM students WHERE student_id = ?`
	if r.lockRows {
		query += ` FOR UPDATE`
	}
	var student models.Student
	if err = tx.GetContext(ctx, &student, tx.Rebind(query), id); err != nil {
		return nil, err
	}

	if err = fn(&student); err != nil {
		return nil, err
	}

	student.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE students SET name = :name, class_name = :class_name, sessions = :sessions, badges = :badges, high_score = :high_score, overall_score = :overall_score, time_spent = :time_spent, updated_at = :updated_at WHERE student_id = :student_id`
	if _, err = tx.NamedExecContext(ctx, updateQuery, &student); err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("update student: %w: %v", ErrInvalidRecord, err)
		}
		return nil, fmt.Errorf("update student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit student: %w", err)
	}
	return &student, nil
}

// Delete removes a student and its embedded badges. It reports whether a row existed.
func (r *StudentRepository) Delete(ctx context.Context, id string) (bool, error) {
	defer r.observe("students.delete", time.Now())
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM students WHERE student_id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student rows: %w", err)
	}
	return n > 0, nil
}

// List returns every student ordered by name.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	defer r.observe("students.list", time.Now())
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY name ASC, student_id ASC`
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// TopByHighScore returns the limit best students by high score; ties keep
// registration order.
func (r *StudentRepository) TopByHighScore(ctx context.Context, limit int) ([]models.Student, error) {
	defer r.observe("students.top", time.Now())
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM students ORDER BY high_score DESC, created_at ASC, student_id ASC LIMIT ?`)
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, limit); err != nil {
		return nil, fmt.Errorf("top students: %w", err)
	}
	return students, nil
}

func stampNew(student *models.Student) {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Badges == nil {
		student.Badges = models.Badges{}
	}
	if student.TimeSpent == nil {
		student.TimeSpent = models.TimeSpent{}
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isConstraintViolation matches check, not-null and numeric range failures.
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23502", "23514", "22003":
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "CHECK constraint failed") || strings.Contains(msg, "NOT NULL constraint failed")
}
