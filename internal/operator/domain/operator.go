package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type OperatorID = uuid.UUID

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"

	passwordCost = 12
)

// Operator is a human account allowed to read fleet metrics and manage the blacklist.
type Operator struct {
	ID        OperatorID
	Username  string
	Password  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

type Session struct {
	OperatorID   OperatorID
	AccessToken  string
	RefreshToken string
	IsLogin      bool
	CreatedAt    time.Time
	LoggedOutAt  *time.Time
}

func OperatorIDFromString(s string) (OperatorID, error) {
	return uuid.Parse(s)
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(bytes), err
}

// CheckPassword compares a plain password with the stored hash
func (o *Operator) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.Password), []byte(password)) == nil
}
