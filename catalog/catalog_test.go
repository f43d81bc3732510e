package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/VibhavTh/Sniftr/core"
)

func sampleItems() []*core.Item {
	mk := func(id int64, name string, accords []string, rating float64, count int64) *core.Item {
		it := core.NewItem(id)
		it.Name = name
		it.Brand = "Test Brand"
		it.MainAccords = accords
		it.NotesTop = []string{"bergamot"}
		if count > 0 {
			it.RatingValue = &rating
			it.RatingCount = &count
		}
		return it
	}
	return []*core.Item{
		mk(1, "Cedar Dream", []string{"woody"}, 4.5, 100),
		mk(2, "Rose Garden", []string{"floral"}, 4.0, 50),
		mk(3, "Citrus Splash", []string{"citrus"}, 0, 0),
	}
}

func TestSQLiteCatalogRoundTrip(t *testing.T) {
	cat, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("打开数据库失败: %v", err)
	}
	defer cat.Close()
	ctx := context.Background()

	if err := cat.Insert(ctx, sampleItems()); err != nil {
		t.Fatalf("批量写入失败: %v", err)
	}

	all, err := cat.All(ctx)
	if err != nil {
		t.Fatalf("全量读取失败: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("全量条数 = %d, 期望 3", len(all))
	}
	// All 按 ID 升序
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Error("All 应按 ID 升序返回")
		}
	}

	it, err := cat.FetchByID(ctx, 1)
	if err != nil {
		t.Fatalf("单条读取失败: %v", err)
	}
	if it.Name != "Cedar Dream" || len(it.MainAccords) != 1 || it.MainAccords[0] != "woody" {
		t.Errorf("读回字段不一致: %+v", it)
	}
	if it.RatingValue == nil || *it.RatingValue != 4.5 {
		t.Errorf("评分读回不一致: %v", it.RatingValue)
	}

	// 无评分物品保持 nil
	unrated, err := cat.FetchByID(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if unrated.RatingValue != nil || unrated.RatingCount != nil {
		t.Error("无评分物品读回应为 nil")
	}
}

func TestSQLiteCatalogFetchByIDs(t *testing.T) {
	cat, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	ctx := context.Background()

	if err := cat.Insert(ctx, sampleItems()); err != nil {
		t.Fatal(err)
	}

	rows, err := cat.FetchByIDs(ctx, []int64{3, 1, 99})
	if err != nil {
		t.Fatalf("批量读取失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("命中条数 = %d, 期望 2", len(rows))
	}

	// 读层顺序不保证，调用方用 ReorderByIDs 重建
	ordered := core.ReorderByIDs([]int64{3, 1}, rows)
	if ordered[0].ID != 3 || ordered[1].ID != 1 {
		t.Errorf("重建排序失败: %v, %v", ordered[0].ID, ordered[1].ID)
	}

	if rows, err := cat.FetchByIDs(ctx, nil); err != nil || rows != nil {
		t.Errorf("空 ID 列表应返回 nil: %v/%v", rows, err)
	}
}

func TestSQLiteCatalogNotFound(t *testing.T) {
	cat, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	_, err = cat.FetchByID(context.Background(), 42)
	if !core.IsNotFound(err) {
		t.Errorf("缺失物品应返回 NOT_FOUND, 实际 %v", err)
	}
}

func TestSQLiteCatalogFetchRandom(t *testing.T) {
	cat, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	ctx := context.Background()

	if err := cat.Insert(ctx, sampleItems()); err != nil {
		t.Fatal(err)
	}

	items, err := cat.FetchRandom(ctx, 2)
	if err != nil {
		t.Fatalf("随机读取失败: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("随机条数 = %d, 期望 2", len(items))
	}
}

func TestSQLiteCatalogLogInteraction(t *testing.T) {
	cat, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	ctx := context.Background()

	if err := cat.LogInteraction(ctx, 1, core.ActionLike); err != nil {
		t.Fatalf("记录交互失败: %v", err)
	}
	if err := cat.LogInteraction(ctx, 1, core.ActionPass); err != nil {
		t.Fatalf("记录交互失败: %v", err)
	}

	var n int
	if err := cat.db.QueryRow(`SELECT COUNT(*) FROM swipes WHERE bottle_id = 1`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("交互记录数 = %d, 期望 2", n)
	}
}

func TestMemoryCatalog(t *testing.T) {
	cat := NewMemoryCatalog(sampleItems(), 42)
	ctx := context.Background()

	if cat.Len() != 3 {
		t.Fatalf("目录大小 = %d, 期望 3", cat.Len())
	}

	items, err := cat.FetchRandom(ctx, 2)
	if err != nil || len(items) != 2 {
		t.Fatalf("随机读取 = %d/%v, 期望 2 条", len(items), err)
	}

	rows, err := cat.FetchByIDs(ctx, []int64{2, 1})
	if err != nil || len(rows) != 2 {
		t.Fatalf("批量读取 = %d/%v, 期望 2 条", len(rows), err)
	}

	if _, err := cat.FetchByID(ctx, 99); !core.IsNotFound(err) {
		t.Errorf("缺失物品应返回 NOT_FOUND, 实际 %v", err)
	}

	if err := cat.LogInteraction(ctx, 1, core.ActionLike); err != nil {
		t.Fatal(err)
	}
	logged := cat.Interactions()
	if len(logged) != 1 || logged[0].ItemID != 1 || logged[0].Action != core.ActionLike {
		t.Errorf("交互记录 = %+v", logged)
	}
}
