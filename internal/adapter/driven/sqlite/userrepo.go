package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, is_active, coach_id, created_at, last_login_at`

// Create inserts a new user and returns it with the assigned id.
func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	const query = `
		INSERT INTO users (email, password_hash, full_name, role, is_active, coach_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	res, err := r.db.Writer.ExecContext(ctx, query,
		strings.ToLower(user.Email), user.PasswordHash, user.FullName, string(user.Role),
		boolToInt(user.IsActive), user.CoachID, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return model.User{}, driven.ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create user %q: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("create user %q: last insert id: %w", user.Email, err)
	}

	user.ID = id
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	return user, nil
}

// GetByID returns the user, or nil, nil when it does not exist.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.queryOne(ctx, query, id)
}

// GetByEmail returns the user, or nil, nil when it does not exist.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.queryOne(ctx, query, strings.ToLower(email))
}

// ListByRole returns all active users with the given role, ordered by name.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? AND is_active = 1 ORDER BY full_name`
	return r.queryUsers(ctx, query, string(role))
}

// ListAthletes returns all athletes linked to the given coach.
func (r *UserRepo) ListAthletes(ctx context.Context, coachID int64) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE coach_id = ? AND role = 'athlete' ORDER BY full_name`
	return r.queryUsers(ctx, query, coachID)
}

// ListAll returns every user, ordered by name.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY full_name`
	return r.queryUsers(ctx, query)
}

// SetCoach links (or with nil, unlinks) an athlete to a coach.
func (r *UserRepo) SetCoach(ctx context.Context, athleteID int64, coachID *int64) error {
	const query = `UPDATE users SET coach_id = ? WHERE id = ? AND role = 'athlete'`
	if _, err := r.db.Writer.ExecContext(ctx, query, coachID, athleteID); err != nil {
		return fmt.Errorf("set coach for athlete %d: %w", athleteID, err)
	}
	return nil
}

// SetActive enables or disables an account.
func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE users SET is_active = ? WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, boolToInt(active), id); err != nil {
		return fmt.Errorf("set active for user %d: %w", id, err)
	}
	return nil
}

// TouchLastLogin records a successful login time.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64) error {
	const query = `UPDATE users SET last_login_at = ? WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch last login for user %d: %w", id, err)
	}
	return nil
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var role string
	var isActive int
	var coachID sql.NullInt64
	var createdAt string
	var lastLogin sql.NullString

	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &role, &isActive, &coachID, &createdAt, &lastLogin); err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	u.IsActive = isActive != 0
	if coachID.Valid {
		u.CoachID = &coachID.Int64
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.LastLoginAt, err = parseNullTime(lastLogin); err != nil {
		return nil, fmt.Errorf("parse last_login_at: %w", err)
	}
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
