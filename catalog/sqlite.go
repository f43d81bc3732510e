// Package catalog 实现 core.Catalog 边界契约：目录读路径与交互写路径。
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/VibhavTh/Sniftr/core"
)

// SQLiteCatalog 是 SQLite 后端的目录实现。
type SQLiteCatalog struct {
	db *sql.DB
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS bottles (
  original_index INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  brand TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  gender TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  main_accords TEXT NOT NULL DEFAULT '',
  notes_top TEXT NOT NULL DEFAULT '',
  notes_middle TEXT NOT NULL DEFAULT '',
  notes_base TEXT NOT NULL DEFAULT '',
  rating_value REAL,
  rating_count INTEGER
);
CREATE TABLE IF NOT EXISTS swipes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  bottle_id INTEGER NOT NULL,
  action TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_swipes_bottle ON swipes(bottle_id);
`

// OpenSQLite 打开（必要时初始化）目录数据库。
func OpenSQLite(path string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	// SQLite 不支持并发写
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	return &SQLiteCatalog{db: db}, nil
}

func (c *SQLiteCatalog) Close() error { return c.db.Close() }

const selectCols = `original_index, name, brand, image_url, gender, country, year,
  main_accords, notes_top, notes_middle, notes_base, rating_value, rating_count`

// FetchRandom 返回至多 limit 条随机物品。
func (c *SQLiteCatalog) FetchRandom(ctx context.Context, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM bottles ORDER BY RANDOM() LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// FetchByIDs 按 ID 列表取完整记录。返回顺序不保证与 ids 一致，
// 调用方需用 core.ReorderByIDs 重建排序。
func (c *SQLiteCatalog) FetchByIDs(ctx context.Context, ids []int64) ([]*core.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM bottles WHERE original_index IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// FetchByID 取单条记录；不存在返回 NOT_FOUND。
func (c *SQLiteCatalog) FetchByID(ctx context.Context, id int64) (*core.Item, error) {
	items, err := c.FetchByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
			fmt.Sprintf("catalog: bottle %d not found", id))
	}
	return items[0], nil
}

// LogInteraction 写入一条 like/pass 记录（fire-and-forget 语义由调用方保证）。
func (c *SQLiteCatalog) LogInteraction(ctx context.Context, itemID int64, action string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO swipes (bottle_id, action, created_at) VALUES (?, ?, ?)`,
		itemID, action, time.Now().UTC().Format(time.RFC3339))
	return err
}

// All 全量读取目录（训练器用，不属于服务期边界契约）。
func (c *SQLiteCatalog) All(ctx context.Context) ([]*core.Item, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM bottles ORDER BY original_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// Insert 批量写入目录行（导入脚本与测试用）。
func (c *SQLiteCatalog) Insert(ctx context.Context, items []*core.Item) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bottles
		  (original_index, name, brand, image_url, gender, country, year,
		   main_accords, notes_top, notes_middle, notes_base, rating_value, rating_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, it := range items {
		var value sql.NullFloat64
		var count sql.NullInt64
		if it.RatingValue != nil {
			value = sql.NullFloat64{Float64: *it.RatingValue, Valid: true}
		}
		if it.RatingCount != nil {
			count = sql.NullInt64{Int64: *it.RatingCount, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			it.ID, it.Name, it.Brand, it.ImageURL, it.Gender, it.Country, it.Year,
			joinList(it.MainAccords), joinList(it.NotesTop), joinList(it.NotesMiddle),
			joinList(it.NotesBase), value, count)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func scanItems(rows *sql.Rows) ([]*core.Item, error) {
	var out []*core.Item
	for rows.Next() {
		it := core.NewItem(0)
		var accords, top, middle, base string
		var value sql.NullFloat64
		var count sql.NullInt64
		err := rows.Scan(&it.ID, &it.Name, &it.Brand, &it.ImageURL, &it.Gender,
			&it.Country, &it.Year, &accords, &top, &middle, &base, &value, &count)
		if err != nil {
			return nil, err
		}
		it.MainAccords = splitList(accords)
		it.NotesTop = splitList(top)
		it.NotesMiddle = splitList(middle)
		it.NotesBase = splitList(base)
		if value.Valid {
			v := value.Float64
			it.RatingValue = &v
		}
		if count.Valid {
			n := count.Int64
			it.RatingCount = &n
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func joinList(parts []string) string {
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ core.Catalog = (*SQLiteCatalog)(nil)
