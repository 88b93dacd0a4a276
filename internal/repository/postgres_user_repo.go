package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/folio/internal/model"
)

const userColumns = `id, open_id, COALESCE(email, ''), COALESCE(name, ''), COALESCE(login_method, ''), role, created_at, updated_at, last_signed_in`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.OpenID, &u.Email, &u.Name, &u.LoginMethod, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// Upsert はopen_idをキーにユーザーを作成または更新する。
// 空のemail・nameは既存の値を上書きしない。既存ユーザーのロールは管理者への昇格のみ反映する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}

	u, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (open_id, email, name, login_method, role, last_signed_in)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (open_id) DO UPDATE SET
		     email = COALESCE(EXCLUDED.email, users.email),
		     name = COALESCE(EXCLUDED.name, users.name),
		     login_method = COALESCE(EXCLUDED.login_method, users.login_method),
		     role = CASE WHEN EXCLUDED.role = 'admin' THEN 'admin' ELSE users.role END,
		     last_signed_in = now(),
		     updated_at = now()
		 RETURNING `+userColumns,
		user.OpenID, nullString(user.Email), nullString(user.Name), nullString(user.LoginMethod), string(role),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
