package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mhaddad/feedback-assistant/model"
)

var ErrEmailTaken = errors.New("email already registered")

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db}
}

// Create registers a new account with a bcrypt-hashed password.
func (us *UserStore) Create(ctx context.Context, email, password, displayName string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("store.create_user.hash: %w", err)
	}

	user := model.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  displayName,
		Role:  "User",
	}

	_, err = us.db.ExecContext(ctx, `
		INSERT INTO account (id, email, password_hash, display_name, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		string(hash),
		user.Name,
		user.Role,
		time.Now().UTC(),
	)
	if err != nil {
		// the email column carries a UNIQUE constraint
		if _, exists := us.lookup(ctx, "email", email); exists == nil {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("store.create_user: %w", err)
	}

	return user, nil
}

func (us *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return us.getUser(ctx, "email", email)
}

func (us *UserStore) GetByID(ctx context.Context, id string) (model.User, error) {
	return us.getUser(ctx, "id", id)
}

// VerifyPassword checks submitted credentials against the stored hash.
func (us *UserStore) VerifyPassword(ctx context.Context, email, password string) error {
	var hash string
	err := us.db.
		QueryRowContext(ctx, "SELECT password_hash FROM account WHERE email = ?", email).
		Scan(&hash)
	if err != nil {
		return fmt.Errorf("store.verify_password: %w", err)
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (us *UserStore) getUser(ctx context.Context, column, value string) (model.User, error) {
	user, err := us.lookup(ctx, column, value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("%w: account", ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("store.get_user: %w", err)
	}
	return user, nil
}

func (us *UserStore) lookup(ctx context.Context, column, value string) (user model.User, err error) {
	err = us.db.
		QueryRowContext(ctx,
			"SELECT id, email, display_name, role FROM account WHERE "+column+" = ?",
			value,
		).
		Scan(&user.ID, &user.Email, &user.Name, &user.Role)
	return
}
