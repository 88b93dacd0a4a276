package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/resource"
)

const paperColumns = entryColumns + `, authors, venue, year, url, pdf_url`

// PostgresPaperRepo はPostgreSQLを使用した論文リポジトリ。
type PostgresPaperRepo struct {
	db *sql.DB
}

// NewPostgresPaperRepo はPostgresPaperRepoを生成する。
func NewPostgresPaperRepo(db *sql.DB) *PostgresPaperRepo {
	return &PostgresPaperRepo{db: db}
}

func scanPaper(row rowScanner) (*model.Paper, error) {
	p := &model.Paper{}
	dest := append(entryDest(&p.Entry), &p.Authors, &p.Venue, &p.Year, &p.URL, &p.PdfURL)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return p, nil
}

// List はフィルタ条件に一致する論文を返す。
func (r *PostgresPaperRepo) List(ctx context.Context, filter model.ListFilter) ([]model.Paper, error) {
	query, args := buildListQuery("papers", paperColumns, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("論文一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	papers := []model.Paper{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("論文行の読み取りに失敗しました: %w", err)
		}
		papers = append(papers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("論文一覧の走査に失敗しました: %w", err)
	}

	return papers, nil
}

// Get は指定IDの論文を取得する。見つからない場合はnilを返す。
func (r *PostgresPaperRepo) Get(ctx context.Context, id int64) (*model.Paper, error) {
	p, err := scanPaper(r.db.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("論文の取得に失敗しました: %w", err)
	}
	return p, nil
}

// Create は論文を作成し、採番されたIDを返す。
func (r *PostgresPaperRepo) Create(ctx context.Context, in resource.PaperCreateInput) (int64, error) {
	var publishedAt *time.Time
	if in.IsPublished() {
		now := time.Now().UTC()
		publishedAt = &now
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO papers (title, description, tags, featured, published, sort_order, published_at,
		                     authors, venue, year, url, pdf_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		in.Title, in.Description, in.Tags, in.Featured, in.IsPublished(), in.SortOrder, publishedAt,
		in.Authors, in.Venue, in.Year, in.URL, in.PdfURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("論文の作成に失敗しました: %w", err)
	}
	return id, nil
}

// Update は指定されたフィールドのみ更新する。対象がない場合はfalseを返す。
func (r *PostgresPaperRepo) Update(ctx context.Context, in resource.PaperUpdateInput) (bool, error) {
	var set updateSet
	set.entry(in.Title, in.Description, in.Tags, in.Featured, in.Published, in.SortOrder)
	setIfPresent(&set, "authors", in.Authors)
	setIfPresent(&set, "venue", in.Venue)
	setIfPresent(&set, "year", in.Year)
	setIfPresent(&set, "url", in.URL)
	setIfPresent(&set, "pdf_url", in.PdfURL)

	query, args := set.statement("papers", in.ID)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("論文の更新に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// Delete は論文を削除する。対象がない場合はfalseを返す。
func (r *PostgresPaperRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM papers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("論文の削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// compile-time interface check
var _ PaperRepository = (*PostgresPaperRepo)(nil)
