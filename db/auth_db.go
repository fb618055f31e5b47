package db

import (
	"database/sql"
	"errors"
	"time"

	"classcapture-api/models"
	"classcapture-api/utils"
)

// ErrInvalidCredentials covers both unknown email and wrong password, so
// callers can't distinguish which half failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

func (db *DB) CreateUser(req models.UserRequest) (*models.User, error) {
	utils.LogDB("Creating user: %s (%s)", req.Username, req.Email)
	start := time.Now()

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.LogError("Failed to hash password: %v", err)
		return nil, err
	}

	result, err := db.Exec(`
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)
	`, req.Username, req.Email, hashedPassword)

	if err != nil {
		duration := time.Since(start)
		utils.LogError("CreateUser failed: %v (%v)", err, duration)
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		utils.LogError("Failed to get LastInsertId for user: %v", err)
		return nil, err
	}

	duration := time.Since(start)
	utils.LogDB("User created with ID %d in %v", id, duration)

	return db.GetUserByID(int(id))
}

func (db *DB) GetUserByID(id int) (*models.User, error) {
	utils.LogDB("Getting user by ID: %d", id)

	var user models.User
	err := db.QueryRow(`
		SELECT id, username, email, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			utils.LogDB("User ID %d not found", id)
		} else {
			utils.LogError("GetUserByID(%d) failed: %v", id, err)
		}
		return nil, err
	}

	return &user, nil
}

// AuthenticateUser checks an email/password pair and returns the user.
// Any mismatch yields ErrInvalidCredentials.
func (db *DB) AuthenticateUser(email, password string) (*models.User, error) {
	utils.LogDB("Authenticating user: %s", email)

	var user models.User
	var passwordHash string
	err := db.QueryRow(`
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &user.Username, &user.Email, &passwordHash, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			utils.LogDB("Authentication failed: no user with email %s", email)
			return nil, ErrInvalidCredentials
		}
		utils.LogError("AuthenticateUser(%s) failed: %v", email, err)
		return nil, err
	}

	if !utils.CheckPassword(passwordHash, password) {
		utils.LogDB("Authentication failed: wrong password for %s", email)
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}
