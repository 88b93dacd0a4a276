package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/resource"
)

const essayColumns = entryColumns + `, slug, content, reading_minutes`

// PostgresEssayRepo はPostgreSQLを使用したエッセイリポジトリ。
type PostgresEssayRepo struct {
	db *sql.DB
}

// NewPostgresEssayRepo はPostgresEssayRepoを生成する。
func NewPostgresEssayRepo(db *sql.DB) *PostgresEssayRepo {
	return &PostgresEssayRepo{db: db}
}

func scanEssay(row rowScanner) (*model.Essay, error) {
	e := &model.Essay{}
	dest := append(entryDest(&e.Entry), &e.Slug, &e.Body, &e.ReadingMinutes)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return e, nil
}

// List はフィルタ条件に一致するエッセイを返す。
func (r *PostgresEssayRepo) List(ctx context.Context, filter model.ListFilter) ([]model.Essay, error) {
	query, args := buildListQuery("essays", essayColumns, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("エッセイ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	essays := []model.Essay{}
	for rows.Next() {
		e, err := scanEssay(rows)
		if err != nil {
			return nil, fmt.Errorf("エッセイ行の読み取りに失敗しました: %w", err)
		}
		essays = append(essays, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("エッセイ一覧の走査に失敗しました: %w", err)
	}

	return essays, nil
}

// Get は指定IDのエッセイを取得する。見つからない場合はnilを返す。
func (r *PostgresEssayRepo) Get(ctx context.Context, id int64) (*model.Essay, error) {
	e, err := scanEssay(r.db.QueryRowContext(ctx,
		`SELECT `+essayColumns+` FROM essays WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("エッセイの取得に失敗しました: %w", err)
	}
	return e, nil
}

// Create はエッセイを作成し、採番されたIDを返す。
// slugが既存のエッセイと重複する場合は入力エラーを返す。
func (r *PostgresEssayRepo) Create(ctx context.Context, in resource.EssayCreateInput) (int64, error) {
	var publishedAt *time.Time
	if in.IsPublished() {
		now := time.Now().UTC()
		publishedAt = &now
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO essays (title, description, tags, featured, published, sort_order, published_at,
		                     slug, content, reading_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		in.Title, in.Description, in.Tags, in.Featured, in.IsPublished(), in.SortOrder, publishedAt,
		in.Slug, in.Content, in.ReadingMinutes,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, model.NewInvalidInputError("slug は既に使用されています")
	}
	if err != nil {
		return 0, fmt.Errorf("エッセイの作成に失敗しました: %w", err)
	}
	return id, nil
}

// Update は指定されたフィールドのみ更新する。対象がない場合はfalseを返す。
func (r *PostgresEssayRepo) Update(ctx context.Context, in resource.EssayUpdateInput) (bool, error) {
	var set updateSet
	set.entry(in.Title, in.Description, in.Tags, in.Featured, in.Published, in.SortOrder)
	setIfPresent(&set, "slug", in.Slug)
	setIfPresent(&set, "content", in.Content)
	setIfPresent(&set, "reading_minutes", in.ReadingMinutes)

	query, args := set.statement("essays", in.ID)
	result, err := r.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return false, model.NewInvalidInputError("slug は既に使用されています")
	}
	if err != nil {
		return false, fmt.Errorf("エッセイの更新に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// Delete はエッセイを削除する。対象がない場合はfalseを返す。
func (r *PostgresEssayRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM essays WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("エッセイの削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// compile-time interface check
var _ EssayRepository = (*PostgresEssayRepo)(nil)
