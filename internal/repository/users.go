package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/shopnest/internal/model"
)

const userColumns = `id, name, email, password_hash, avatar, role, reset_password_token, reset_password_expire, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u      model.User
		avatar []byte
		token  *string
	)

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &avatar, &u.Role,
		&token, &u.ResetPasswordExpire, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if token != nil {
		u.ResetPasswordToken = *token
	}
	if len(avatar) > 0 {
		if err := json.Unmarshal(avatar, &u.Avatar); err != nil {
			return nil, fmt.Errorf("decode avatar: %w", err)
		}
	}

	return &u, nil
}

func nullableToken(u *model.User) *string {
	if u.ResetPasswordToken == "" {
		return nil
	}
	return &u.ResetPasswordToken
}

// CreateUser сохраняет нового пользователя. Повтор email возвращает ErrDuplicate.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	avatar, err := json.Marshal(u.Avatar)
	if err != nil {
		return fmt.Errorf("encode avatar: %w", err)
	}

	err = r.withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.Name, u.Email, u.PasswordHash, avatar, u.Role,
			nullableToken(u), u.ResetPasswordExpire, u.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", ErrDuplicate, u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *PostgresRepository) getUser(ctx context.Context, where string, args ...any) (*model.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, args...)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getUser(ctx, `id = $1`, id)
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `email = $1`, email)
}

// GetUserByResetToken ищет пользователя с действующим токеном восстановления пароля.
func (r *PostgresRepository) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.getUser(ctx, `reset_password_token = $1 AND reset_password_expire > $2`, tokenHash, now)
}

// SaveUser перезаписывает пользователя целиком.
func (r *PostgresRepository) SaveUser(ctx context.Context, u *model.User, opts SaveOptions) error {
	if opts.Validate {
		if err := u.Validate(); err != nil {
			return err
		}
	}

	avatar, err := json.Marshal(u.Avatar)
	if err != nil {
		return fmt.Errorf("encode avatar: %w", err)
	}

	var affected int64
	err = r.withRetry(ctx, func() error {
		tag, err := r.db.Exec(ctx,
			`UPDATE users
			 SET name = $2, email = $3, password_hash = $4, avatar = $5, role = $6,
			     reset_password_token = $7, reset_password_expire = $8
			 WHERE id = $1`,
			u.ID, u.Name, u.Email, u.PasswordHash, avatar, u.Role,
			nullableToken(u), u.ResetPasswordExpire,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", ErrDuplicate, u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var res []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		res = append(res, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// DeleteUser удаляет пользователя и возвращает число удалённых записей.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClearExpiredResetTokens стирает просроченные токены восстановления пароля.
func (r *PostgresRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	var affected int64
	err := r.withRetry(ctx, func() error {
		tag, err := r.db.Exec(ctx,
			`UPDATE users SET reset_password_token = NULL, reset_password_expire = NULL
			 WHERE reset_password_token IS NOT NULL AND reset_password_expire <= $1`,
			now,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear reset tokens: %w", err)
	}
	return affected, nil
}
