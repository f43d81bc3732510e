package vectorspace

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/VibhavTh/Sniftr/core"
)

func TestArtifactsSaveLoadRoundTrip(t *testing.T) {
	opts := DefaultBuilderOptions()
	opts.Vectorizer.MinDocFreq = 1

	arts, err := Build(context.Background(), testCorpus(), opts)
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}

	dir := t.TempDir()
	if err := arts.Save(dir); err != nil {
		t.Fatalf("落盘失败: %v", err)
	}

	// 全套工件文件都存在
	for _, name := range []string{FileVectorizer, FileMatrix, FileIDMap, FilePopularity, FileStats} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("工件 %s 缺失: %v", name, err)
		}
	}

	loaded, err := LoadArtifacts(dir)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	if !reflect.DeepEqual(loaded.RowToID, arts.RowToID) {
		t.Errorf("行映射不一致: %v vs %v", loaded.RowToID, arts.RowToID)
	}
	if !reflect.DeepEqual(loaded.Vectorizer.Vocab, arts.Vectorizer.Vocab) {
		t.Error("词表不一致")
	}
	if !reflect.DeepEqual(loaded.Matrix.Data, arts.Matrix.Data) {
		t.Error("矩阵数据不一致")
	}
	if !reflect.DeepEqual(loaded.Popularity, arts.Popularity) {
		t.Error("热度图不一致")
	}
	if loaded.CorpusMean == 0 || loaded.CorpusMean != arts.CorpusMean {
		t.Errorf("全局均值不一致: %v vs %v", loaded.CorpusMean, arts.CorpusMean)
	}
}

func TestLoadArtifactsRowCountMismatch(t *testing.T) {
	opts := DefaultBuilderOptions()
	opts.Vectorizer.MinDocFreq = 1

	arts, err := Build(context.Background(), testCorpus(), opts)
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}

	dir := t.TempDir()
	if err := arts.Save(dir); err != nil {
		t.Fatalf("落盘失败: %v", err)
	}

	// 行映射少一行：加载必须拒绝而不是静默接受
	if err := os.WriteFile(filepath.Join(dir, FileIDMap), []byte(`{"0":10,"1":20,"2":30}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = LoadArtifacts(dir)
	if err == nil {
		t.Fatal("行数不一致的工件应拒绝加载")
	}
	de := core.GetDomainError(err)
	if de == nil || de.Code != core.ErrorCodeInternalError {
		t.Errorf("期望 INTERNAL_ERROR, 实际 %v", err)
	}
}

func TestLoadArtifactsInvalidRowKey(t *testing.T) {
	opts := DefaultBuilderOptions()
	opts.Vectorizer.MinDocFreq = 1

	arts, err := Build(context.Background(), testCorpus(), opts)
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}

	dir := t.TempDir()
	if err := arts.Save(dir); err != nil {
		t.Fatalf("落盘失败: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileIDMap), []byte(`{"abc":10,"1":20,"2":30,"3":40}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadArtifacts(dir); err == nil {
		t.Fatal("非法行键应拒绝加载")
	}
}

func TestLoadArtifactsMissingDir(t *testing.T) {
	if _, err := LoadArtifacts(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("缺失目录应返回错误")
	}
}
