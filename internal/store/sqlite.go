package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"menza/internal/models"
)

// DB is the sqlite-backed Store.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and creates tables.
func NewDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS canteens (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT,
			capacity INTEGER NOT NULL,
			working_hours TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// No canteen FK here: reservation history outlives a deleted canteen.
		`CREATE TABLE IF NOT EXISTS reservations (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			canteen_id TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			duration INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'Active',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (student_id) REFERENCES students(id)
		)`,

		`CREATE TABLE IF NOT EXISTS restrictions (
			id TEXT PRIMARY KEY,
			canteen_id TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			working_hours TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (canteen_id) REFERENCES canteens(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_student ON reservations(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_canteen_date ON reservations(canteen_id, date, status)`,
		`CREATE INDEX IF NOT EXISTS idx_restrictions_canteen ON restrictions(canteen_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

func (db *DB) AddStudent(ctx context.Context, s *models.Student) (*models.Student, error) {
	out := *s
	out.ID = uuid.New().String()
	_, err := db.ExecContext(ctx,
		"INSERT INTO students (id, name, email, is_admin) VALUES (?, ?, ?, ?)",
		out.ID, out.Name, out.Email, out.IsAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	return &out, nil
}

func (db *DB) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	return db.scanStudent(db.QueryRowContext(ctx,
		"SELECT id, name, email, is_admin FROM students WHERE id = ?", id))
}

func (db *DB) GetStudentByEmail(ctx context.Context, email string) (*models.Student, error) {
	return db.scanStudent(db.QueryRowContext(ctx,
		"SELECT id, name, email, is_admin FROM students WHERE email = ?", email))
}

func (db *DB) scanStudent(row *sql.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	return &s, nil
}

func (db *DB) AddCanteen(ctx context.Context, c *models.Canteen) (*models.Canteen, error) {
	out := *c
	out.ID = uuid.New().String()
	hours, err := json.Marshal(out.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("marshal working hours: %w", err)
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO canteens (id, name, location, capacity, working_hours) VALUES (?, ?, ?, ?, ?)",
		out.ID, out.Name, out.Location, out.Capacity, string(hours),
	)
	if err != nil {
		return nil, fmt.Errorf("insert canteen: %w", err)
	}
	return &out, nil
}

func (db *DB) GetCanteen(ctx context.Context, id string) (*models.Canteen, error) {
	var c models.Canteen
	var hours string
	err := db.QueryRowContext(ctx,
		"SELECT id, name, location, capacity, working_hours FROM canteens WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Location, &c.Capacity, &hours)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan canteen: %w", err)
	}
	if err := json.Unmarshal([]byte(hours), &c.WorkingHours); err != nil {
		return nil, fmt.Errorf("unmarshal working hours: %w", err)
	}
	return &c, nil
}

func (db *DB) ListCanteens(ctx context.Context) ([]models.Canteen, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, location, capacity, working_hours FROM canteens ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query canteens: %w", err)
	}
	defer rows.Close()

	var canteens []models.Canteen
	for rows.Next() {
		var c models.Canteen
		var hours string
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.Capacity, &hours); err != nil {
			return nil, fmt.Errorf("scan canteen: %w", err)
		}
		if err := json.Unmarshal([]byte(hours), &c.WorkingHours); err != nil {
			return nil, fmt.Errorf("unmarshal working hours: %w", err)
		}
		canteens = append(canteens, c)
	}
	return canteens, rows.Err()
}

func (db *DB) UpdateCanteen(ctx context.Context, c *models.Canteen) (*models.Canteen, error) {
	hours, err := json.Marshal(c.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("marshal working hours: %w", err)
	}
	res, err := db.ExecContext(ctx,
		"UPDATE canteens SET name = ?, location = ?, capacity = ?, working_hours = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Location, c.Capacity, string(hours), time.Now(), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update canteen: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return c, nil
}

func (db *DB) DeleteCanteen(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM restrictions WHERE canteen_id = ?", id); err != nil {
		return fmt.Errorf("delete restrictions: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM canteens WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete canteen: %w", err)
	}
	return nil
}

func (db *DB) AddReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	out := *r
	out.ID = uuid.New().String()
	if out.Status == "" {
		out.Status = models.StatusActive
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO reservations (id, student_id, canteen_id, date, time, duration, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		out.ID, out.StudentID, out.CanteenID, out.Date.Format(models.DateFormat), out.Time, out.Duration, out.Status, out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	return &out, nil
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, student_id, canteen_id, date, time, duration, status, created_at FROM reservations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanReservation(rows)
}

func (db *DB) ListReservationsByStudent(ctx context.Context, studentID string) ([]models.Reservation, error) {
	return db.queryReservations(ctx,
		"SELECT id, student_id, canteen_id, date, time, duration, status, created_at FROM reservations WHERE student_id = ? ORDER BY date, time",
		studentID)
}

func (db *DB) ListActiveReservationsByCanteenAndDate(ctx context.Context, canteenID string, date time.Time) ([]models.Reservation, error) {
	return db.queryReservations(ctx,
		"SELECT id, student_id, canteen_id, date, time, duration, status, created_at FROM reservations WHERE canteen_id = ? AND date = ? AND status = ? ORDER BY time",
		canteenID, models.DateOf(date).Format(models.DateFormat), models.StatusActive)
}

func (db *DB) CancelReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE reservations SET status = ? WHERE id = ?", models.StatusCancelled, id)
	if err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return db.GetReservation(ctx, id)
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...interface{}) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

func scanReservation(rows *sql.Rows) (*models.Reservation, error) {
	var r models.Reservation
	var date string
	if err := rows.Scan(&r.ID, &r.StudentID, &r.CanteenID, &date, &r.Time, &r.Duration, &r.Status, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	d, err := time.ParseInLocation(models.DateFormat, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse reservation date %s: %w", date, err)
	}
	r.Date = d
	return &r, nil
}

func (db *DB) AddRestriction(ctx context.Context, r *models.Restriction) (*models.Restriction, error) {
	out := *r
	out.ID = uuid.New().String()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}
	hours, err := json.Marshal(out.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("marshal working hours: %w", err)
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO restrictions (id, canteen_id, start_date, end_date, working_hours, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		out.ID, out.CanteenID, out.StartDate.Format(models.DateFormat), out.EndDate.Format(models.DateFormat), string(hours), out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert restriction: %w", err)
	}
	return &out, nil
}

func (db *DB) ListRestrictionsByCanteen(ctx context.Context, canteenID string) ([]models.Restriction, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, canteen_id, start_date, end_date, working_hours, created_at FROM restrictions WHERE canteen_id = ? ORDER BY start_date",
		canteenID)
	if err != nil {
		return nil, fmt.Errorf("query restrictions: %w", err)
	}
	defer rows.Close()

	var restrictions []models.Restriction
	for rows.Next() {
		var r models.Restriction
		var start, end, hours string
		if err := rows.Scan(&r.ID, &r.CanteenID, &start, &end, &hours, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan restriction: %w", err)
		}
		if r.StartDate, err = time.ParseInLocation(models.DateFormat, start, time.UTC); err != nil {
			return nil, fmt.Errorf("parse restriction start %s: %w", start, err)
		}
		if r.EndDate, err = time.ParseInLocation(models.DateFormat, end, time.UTC); err != nil {
			return nil, fmt.Errorf("parse restriction end %s: %w", end, err)
		}
		if err := json.Unmarshal([]byte(hours), &r.WorkingHours); err != nil {
			return nil, fmt.Errorf("unmarshal working hours: %w", err)
		}
		restrictions = append(restrictions, r)
	}
	return restrictions, rows.Err()
}

func (db *DB) DeleteRestriction(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM restrictions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete restriction: %w", err)
	}
	return nil
}
