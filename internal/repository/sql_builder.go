package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/folio/internal/model"
)

// entryColumns は全コンテンツテーブル共通のカラム。scanEntryの順序と一致させること。
const entryColumns = `id, title, description, tags, featured, published, sort_order, published_at, created_at, updated_at`

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// rowScanner は *sql.Row と *sql.Rows の共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// entryDest は共通カラムのScan先を返す。NULLはnilポインタとして読み込まれる。
func entryDest(e *model.Entry) []any {
	return []any{
		&e.ID, &e.Title, &e.Description, &e.Tags, &e.Featured, &e.Published,
		&e.SortOrder, &e.PublishedAt, &e.CreatedAt, &e.UpdatedAt,
	}
}

// buildListQuery は一覧取得のSELECT文を組み立てる。
// 並び順は sort_order 昇順、created_at 降順。Limitが0以下の場合は件数を制限しない。
func buildListQuery(table, columns string, filter model.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.PublishedOnly {
		conds = append(conds, "published = true")
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conds = append(conds, fmt.Sprintf("featured = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		conds = append(conds, fmt.Sprintf("$%d = ANY(string_to_array(tags, ','))", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", columns, table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY sort_order ASC, created_at DESC, id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return query, args
}

// updateSet は部分更新のSET句を組み立てる。
type updateSet struct {
	clauses []string
	args    []any
}

func (u *updateSet) add(column string, value any) {
	u.args = append(u.args, value)
	u.clauses = append(u.clauses, fmt.Sprintf("%s = $%d", column, len(u.args)))
}

// entry は共通カラムの変更をSET句に追加する。
// 初めて公開されたときのみ published_at を設定する。
func (u *updateSet) entry(title, description, tags *string, featured, published *bool, sortOrder *int) {
	setIfPresent(u, "title", title)
	setIfPresent(u, "description", description)
	setIfPresent(u, "tags", tags)
	setIfPresent(u, "featured", featured)
	if published != nil {
		u.add("published", *published)
		if *published {
			u.clauses = append(u.clauses, "published_at = COALESCE(published_at, now())")
		}
	}
	setIfPresent(u, "sort_order", sortOrder)
}

// statement はUPDATE文を返す。updated_at は常に更新する。
func (u *updateSet) statement(table string, id int64) (string, []any) {
	clauses := append(u.clauses, "updated_at = now()")
	args := append(u.args, id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(clauses, ", "), len(args)), args
}

func setIfPresent[T any](u *updateSet, column string, v *T) {
	if v != nil {
		u.add(column, *v)
	}
}

// nullString は空文字列をNULLとして扱う。ユーザーのupsertで既存値を残すために使う。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// rowsAffected は更新・削除の対象が存在したかを返す。
func rowsAffected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
