package vectorspace

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/VibhavTh/Sniftr/core"
)

// 工件文件名。三件套（词权重模型、稀疏矩阵、行映射）把训练与
// 服务解耦；popularity 与语料统计是重排用的附属工件。
const (
	FileVectorizer = "vectorizer.json"
	FileMatrix     = "tfidf_matrix.gob"
	FileIDMap      = "bottle_id_map.json"
	FilePopularity = "popularity_map.json"
	FileStats      = "corpus_stats.json"
)

// corpusStats 是落盘的语料级统计。服务侧给热度缺失的物品
// 算贝叶斯加权评分时需要训练期的全局均值，不能现场重算。
type corpusStats struct {
	MeanRating float64 `json:"mean_rating"`
}

// Artifacts 是一次训练产出的完整工件集。
// 服务进程启动时整体加载一次，此后只读。
type Artifacts struct {
	Vectorizer *Vectorizer
	Matrix     *CSRMatrix

	// RowToID 把矩阵行号映射回稳定目录 ID，是 ML 空间与目录身份
	// 之间唯一的真相来源。矩阵重建时必须同步重建；行数与矩阵
	// 不一致是正确性缺陷，加载时直接拒绝。
	RowToID []int64

	// Popularity 是训练期预计算的归一化加权评分（0-1）。
	Popularity map[int64]float64

	// CorpusMean 是训练语料里有评分物品的全局均值 C，
	// 贝叶斯收缩公式的先验，随工件一起落盘。
	CorpusMean float64
}

// Save 把工件集原子落盘：先写临时文件再 rename 替换，
// 保证服务进程任何时刻看到的都是一套完整一致的工件。
func (a *Artifacts) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	vecData, err := json.Marshal(a.Vectorizer)
	if err != nil {
		return fmt.Errorf("marshal vectorizer: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, FileVectorizer), vecData); err != nil {
		return err
	}

	// 行映射与原始实现同构：{"行号": 物品ID}
	idMap := make(map[string]int64, len(a.RowToID))
	for row, id := range a.RowToID {
		idMap[strconv.Itoa(row)] = id
	}
	mapData, err := json.Marshal(idMap)
	if err != nil {
		return fmt.Errorf("marshal id map: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, FileIDMap), mapData); err != nil {
		return err
	}

	popData, err := json.Marshal(a.Popularity)
	if err != nil {
		return fmt.Errorf("marshal popularity map: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, FilePopularity), popData); err != nil {
		return err
	}

	statsData, err := json.Marshal(corpusStats{MeanRating: a.CorpusMean})
	if err != nil {
		return fmt.Errorf("marshal corpus stats: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, FileStats), statsData); err != nil {
		return err
	}

	return writeAtomicFunc(filepath.Join(dir, FileMatrix), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(a.Matrix)
	})
}

// LoadArtifacts 从目录加载整套工件并做一致性校验。
// 这是流水线里唯一昂贵的操作（数十 MB 的反序列化），
// 每进程只允许发生一次。
func LoadArtifacts(dir string) (*Artifacts, error) {
	var vec Vectorizer
	if err := readJSON(filepath.Join(dir, FileVectorizer), &vec); err != nil {
		return nil, err
	}

	var matrix CSRMatrix
	f, err := os.Open(filepath.Join(dir, FileMatrix))
	if err != nil {
		return nil, err
	}
	err = gob.NewDecoder(f).Decode(&matrix)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}

	idMap := make(map[string]int64)
	if err := readJSON(filepath.Join(dir, FileIDMap), &idMap); err != nil {
		return nil, err
	}
	rowToID := make([]int64, len(idMap))
	for rowStr, id := range idMap {
		row, err := strconv.Atoi(rowStr)
		if err != nil || row < 0 || row >= len(rowToID) {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
				fmt.Sprintf("vectorspace: invalid row key %q in id map", rowStr))
		}
		rowToID[row] = id
	}

	// 行映射与矩阵不同步是本子系统最危险的缺陷类型，直接拒绝加载
	if matrix.Rows != len(rowToID) {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			fmt.Sprintf("vectorspace: matrix has %d rows but id map has %d entries", matrix.Rows, len(rowToID)))
	}

	popularity := make(map[int64]float64)
	if err := readJSON(filepath.Join(dir, FilePopularity), &popularity); err != nil {
		return nil, err
	}

	var stats corpusStats
	if err := readJSON(filepath.Join(dir, FileStats), &stats); err != nil {
		return nil, err
	}

	return &Artifacts{
		Vectorizer: &vec,
		Matrix:     &matrix,
		RowToID:    rowToID,
		Popularity: popularity,
		CorpusMean: stats.MeanRating,
	}, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	return writeAtomicFunc(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

func writeAtomicFunc(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
