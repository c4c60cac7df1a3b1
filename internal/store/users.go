package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateUser stores a new user with a fresh identifier
func (db *DB) CreateUser(user *User) error {
	user.ID = uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (id, username, password, role, full_name, email, phone_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		user.ID,
		user.Username,
		user.Password,
		user.Role,
		user.FullName,
		user.Email,
		nullable(user.PhoneNumber),
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q already taken: %w", user.Username, ErrConflict)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by identifier
func (db *DB) GetUser(id string) (*User, error) {
	return db.scanUser(db.conn.QueryRow(selectUser+" WHERE id = ?", id))
}

// GetUserByUsername retrieves a user by its unique username
func (db *DB) GetUserByUsername(username string) (*User, error) {
	return db.scanUser(db.conn.QueryRow(selectUser+" WHERE username = ?", username))
}

// ListUsers returns all users
func (db *DB) ListUsers() ([]*User, error) {
	rows, err := db.conn.Query(selectUser + " ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := db.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateUser applies a partial update and returns the updated user
func (db *DB) UpdateUser(id string, update UserUpdate) (*User, error) {
	user, err := db.GetUser(id)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Password != nil {
		user.Password = *update.Password
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.PhoneNumber != nil {
		user.PhoneNumber = *update.PhoneNumber
	}

	query := `
		UPDATE users
		SET username = ?, password = ?, role = ?, full_name = ?, email = ?, phone_number = ?
		WHERE id = ?
	`

	_, err = db.conn.Exec(query,
		user.Username,
		user.Password,
		user.Role,
		user.FullName,
		user.Email,
		nullable(user.PhoneNumber),
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %q already taken: %w", user.Username, ErrConflict)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes a user; the user's vehicles are removed with it
func (db *DB) DeleteUser(id string) error {
	result, err := db.conn.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

const selectUser = `
	SELECT id, username, password, role, full_name, email, phone_number, created_at
	FROM users`

func (db *DB) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var phone sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.Role,
		&user.FullName,
		&user.Email,
		&phone,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.PhoneNumber = fromNull(phone)
	return user, nil
}

func (db *DB) scanUserRow(rows *sql.Rows) (*User, error) {
	user := &User{}
	var phone sql.NullString

	err := rows.Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.Role,
		&user.FullName,
		&user.Email,
		&phone,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}

	user.PhoneNumber = fromNull(phone)
	return user, nil
}
