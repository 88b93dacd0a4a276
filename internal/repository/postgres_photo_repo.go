package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/resource"
)

const photoColumns = entryColumns + `, image_url, image_key, location, camera, lens, settings`

// PostgresPhotoRepo はPostgreSQLを使用した写真リポジトリ。
type PostgresPhotoRepo struct {
	db *sql.DB
}

// NewPostgresPhotoRepo はPostgresPhotoRepoを生成する。
func NewPostgresPhotoRepo(db *sql.DB) *PostgresPhotoRepo {
	return &PostgresPhotoRepo{db: db}
}

func scanPhoto(row rowScanner) (*model.Photo, error) {
	p := &model.Photo{}
	dest := append(entryDest(&p.Entry), &p.ImageURL, &p.ImageKey, &p.Location, &p.Camera, &p.Lens, &p.Settings)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return p, nil
}

// List はフィルタ条件に一致する写真を返す。
func (r *PostgresPhotoRepo) List(ctx context.Context, filter model.ListFilter) ([]model.Photo, error) {
	query, args := buildListQuery("photos", photoColumns, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("写真一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	photos := []model.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("写真行の読み取りに失敗しました: %w", err)
		}
		photos = append(photos, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("写真一覧の走査に失敗しました: %w", err)
	}

	return photos, nil
}

// Get は指定IDの写真を取得する。見つからない場合はnilを返す。
func (r *PostgresPhotoRepo) Get(ctx context.Context, id int64) (*model.Photo, error) {
	p, err := scanPhoto(r.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("写真の取得に失敗しました: %w", err)
	}
	return p, nil
}

// Create は写真を作成し、採番されたIDを返す。
func (r *PostgresPhotoRepo) Create(ctx context.Context, in resource.PhotoCreateInput) (int64, error) {
	var publishedAt *time.Time
	if in.IsPublished() {
		now := time.Now().UTC()
		publishedAt = &now
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO photos (title, description, tags, featured, published, sort_order, published_at,
		                     image_url, image_key, location, camera, lens, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		in.Title, in.Description, in.Tags, in.Featured, in.IsPublished(), in.SortOrder, publishedAt,
		in.ImageURL, in.ImageKey, in.Location, in.Camera, in.Lens, in.Settings,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("写真の作成に失敗しました: %w", err)
	}
	return id, nil
}

// Update は指定されたフィールドのみ更新する。対象がない場合はfalseを返す。
func (r *PostgresPhotoRepo) Update(ctx context.Context, in resource.PhotoUpdateInput) (bool, error) {
	var set updateSet
	set.entry(in.Title, in.Description, in.Tags, in.Featured, in.Published, in.SortOrder)
	setIfPresent(&set, "image_url", in.ImageURL)
	setIfPresent(&set, "image_key", in.ImageKey)
	setIfPresent(&set, "location", in.Location)
	setIfPresent(&set, "camera", in.Camera)
	setIfPresent(&set, "lens", in.Lens)
	setIfPresent(&set, "settings", in.Settings)

	query, args := set.statement("photos", in.ID)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("写真の更新に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// Delete は写真を削除する。対象がない場合はfalseを返す。
func (r *PostgresPhotoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("写真の削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// compile-time interface check
var _ PhotoRepository = (*PostgresPhotoRepo)(nil)
