package model

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID                              int64     `json:"id"`
	Username                        string    `json:"username"`
	Email                           string    `json:"email"`
	Password                        string    `json:"-"`
	AuthProvider                    string    `json:"auth_provider,omitempty"`
	PreferredCountry                string    `json:"preferred_country"`
	BundleCount                     int       `json:"bundle_count"`
	LoginCount                      int       `json:"login_count"`
	LastLoginAt                     NullTime  `json:"last_login_at"`
	CreatedAt                       time.Time `json:"created_at"`
	UpdatedAt                       time.Time `json:"updated_at"`
	IsEmailVerified                 bool      `json:"is_email_verified"`
	EmailVerificationToken          string    `json:"-"`
	EmailVerificationTokenExpiresAt time.Time `json:"-"`
	PasswordResetToken              string    `json:"-"`
	PasswordResetTokenExpiresAt     time.Time `json:"-"`
}

// NullTime is an alias for sql.NullTime with null-aware JSON marshalling.
type NullTime sql.NullTime

func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return nt.Time.MarshalJSON()
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.AuthProvider == "" {
		u.AuthProvider = "local"
	}
	if u.PreferredCountry == "" {
		u.PreferredCountry = "US"
	}

	query := `
	INSERT INTO users (username, email, password, auth_provider, preferred_country, is_email_verified, email_verification_token, email_verification_token_expires_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var emailTokenExpiresArg interface{}
	if !u.EmailVerificationTokenExpiresAt.IsZero() {
		emailTokenExpiresArg = u.EmailVerificationTokenExpiresAt
	}

	res, err := stmt.Exec(
		u.Username,
		u.Email,
		u.Password,
		u.AuthProvider,
		u.PreferredCountry,
		u.IsEmailVerified,
		u.EmailVerificationToken,
		emailTokenExpiresArg,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

const userColumns = `id, username, email, password, auth_provider, preferred_country,
       login_count, last_login_at, is_email_verified,
       email_verification_token, email_verification_token_expires_at,
       password_reset_token, password_reset_token_expires_at,
       created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var authProvider, emailVerificationToken, passwordResetToken sql.NullString
	var lastLoginAt, emailTokenExpiresAt, passwordResetExpiresAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&authProvider,
		&user.PreferredCountry,
		&user.LoginCount,
		&lastLoginAt,
		&user.IsEmailVerified,
		&emailVerificationToken,
		&emailTokenExpiresAt,
		&passwordResetToken,
		&passwordResetExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.AuthProvider = authProvider.String
	user.EmailVerificationToken = emailVerificationToken.String
	user.PasswordResetToken = passwordResetToken.String
	user.LastLoginAt = NullTime(lastLoginAt)
	if emailTokenExpiresAt.Valid {
		user.EmailVerificationTokenExpiresAt = emailTokenExpiresAt.Time
	}
	if passwordResetExpiresAt.Valid {
		user.PasswordResetTokenExpiresAt = passwordResetExpiresAt.Time
	}
	return &user, nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func GetUserByVerificationToken(db *sql.DB, token string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email_verification_token = ?`, token))
}

func GetUserByPasswordResetToken(db *sql.DB, token string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE password_reset_token = ?`, token))
}

func (u *User) UpdateUserVerificationStatus(db *sql.DB, isVerified bool) error {
	u.IsEmailVerified = isVerified
	u.UpdatedAt = time.Now()
	_, err := db.Exec(`
	UPDATE users
	SET is_email_verified = ?, email_verification_token = NULL, email_verification_token_expires_at = NULL, updated_at = ?
	WHERE id = ?`, isVerified, u.UpdatedAt, u.ID)
	return err
}

func (u *User) UpdateUserVerificationToken(db *sql.DB, token string, expiresAt time.Time) error {
	u.EmailVerificationToken = token
	u.EmailVerificationTokenExpiresAt = expiresAt
	u.UpdatedAt = time.Now()
	_, err := db.Exec(`
	UPDATE users
	SET email_verification_token = ?, email_verification_token_expires_at = ?, updated_at = ?
	WHERE id = ?`, token, expiresAt, u.UpdatedAt, u.ID)
	return err
}

func (u *User) SetPasswordResetToken(db *sql.DB, token string, expiresAt time.Time) error {
	u.PasswordResetToken = token
	u.PasswordResetTokenExpiresAt = expiresAt
	u.UpdatedAt = time.Now()
	_, err := db.Exec(`
	UPDATE users
	SET password_reset_token = ?, password_reset_token_expires_at = ?, updated_at = ?
	WHERE id = ?`, token, expiresAt, u.UpdatedAt, u.ID)
	return err
}

func (u *User) UpdatePassword(db *sql.DB, newPasswordHash string) error {
	u.Password = newPasswordHash
	u.PasswordResetToken = ""
	u.PasswordResetTokenExpiresAt = time.Time{}
	u.UpdatedAt = time.Now()
	_, err := db.Exec(`
	UPDATE users
	SET password = ?, password_reset_token = NULL, password_reset_token_expires_at = NULL, updated_at = ?
	WHERE id = ?`, u.Password, u.UpdatedAt, u.ID)
	return err
}

// UpdatePreferredCountry persists the builder's default exchange (US or TO).
func (u *User) UpdatePreferredCountry(db *sql.DB, country string) error {
	u.PreferredCountry = country
	u.UpdatedAt = time.Now()
	_, err := db.Exec(`UPDATE users SET preferred_country = ?, updated_at = ? WHERE id = ?`,
		country, u.UpdatedAt, u.ID)
	return err
}

func RecordUserLogin(db *sql.DB, userID int64, remoteAddr string) error {
	_, err := db.Exec(`
	UPDATE users
	SET login_count = login_count + 1, last_login_at = CURRENT_TIMESTAMP
	WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO login_history (user_id, ip_address) VALUES (?, ?)`, userID, remoteAddr)
	return err
}

type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func CreateSession(db *sql.DB, session *Session) error {
	session.CreatedAt = time.Now()
	_, err := db.Exec(`
	INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UserID,
		session.Token,
		session.RefreshToken,
		session.UserAgent,
		session.ClientIP,
		session.IsBlocked,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

func scanSession(row *sql.Row, notFoundMsg string) (*Session, error) {
	var session Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.RefreshToken,
		&session.UserAgent,
		&session.ClientIP,
		&session.IsBlocked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(notFoundMsg)
		}
		return nil, err
	}
	return &session, nil
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(`
	SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at
	FROM sessions
	WHERE token = ? AND is_blocked = FALSE AND expires_at > ?`, token, time.Now())
	return scanSession(row, "session not found, expired, or blocked")
}

func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	row := db.QueryRow(`
	SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at
	FROM sessions
	WHERE refresh_token = ? AND is_blocked = FALSE AND expires_at > ?`, refreshToken, time.Now())
	return scanSession(row, "refresh session not found, expired, or blocked")
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func DeleteSessionByRefreshToken(db *sql.DB, refreshToken string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE refresh_token = ?`, refreshToken)
	return err
}

func DeleteSessionsByUserID(db *sql.DB, userID int64) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}
