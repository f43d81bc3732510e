// Package config 加载应用配置（YAML 文件 + 环境变量覆盖）。
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config 是服务与训练器共享的应用配置。
type Config struct {
	Server struct {
		Addr string `yaml:"addr"` // 监听地址，如 ":8000"
	} `yaml:"server"`

	Artifacts struct {
		Dir string `yaml:"dir"` // 向量空间工件目录
	} `yaml:"artifacts"`

	Catalog struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"catalog"`

	Store struct {
		// backend: memory / redis
		Backend   string `yaml:"backend"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
	} `yaml:"store"`

	Engine struct {
		PoolSize   int     `yaml:"pool_size"`   // 相似度召回池大小
		CandidateK int     `yaml:"candidate_k"` // 发现会话候选批大小
		Alpha      float64 `yaml:"alpha"`       // 相似度与热门度的混合权重
		MinVotes   int64   `yaml:"min_votes"`   // 贝叶斯收缩参考票数 m
		RuleExpr   string  `yaml:"rule_expr"`   // 可选 CEL 过滤表达式
	} `yaml:"engine"`

	Train struct {
		AccordWeight int `yaml:"accord_weight"` // 主香调重复次数
		MaxFeatures  int `yaml:"max_features"`
		MinDocFreq   int `yaml:"min_doc_freq"`
	} `yaml:"train"`

	Session struct {
		LowWater    int `yaml:"low_water"`    // 队列补货水位
		MaxQueue    int `yaml:"max_queue"`    // 队列上限
		RandomBatch int `yaml:"random_batch"` // 随机取样批大小
	} `yaml:"session"`
}

// Default 返回带默认值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8000"
	cfg.Artifacts.Dir = "artifacts"
	cfg.Catalog.SQLitePath = "sniftr.db"
	cfg.Store.Backend = "memory"
	cfg.Store.RedisAddr = "localhost:6379"
	cfg.Engine.PoolSize = 50
	cfg.Engine.CandidateK = 50
	cfg.Engine.Alpha = 0.85
	cfg.Engine.MinVotes = 50
	cfg.Train.AccordWeight = 3
	cfg.Train.MaxFeatures = 20000
	cfg.Train.MinDocFreq = 2
	cfg.Session.LowWater = 5
	cfg.Session.MaxQueue = 100
	cfg.Session.RandomBatch = 10
	return cfg
}

// Load 从 YAML 文件加载配置，缺省字段保留默认值，
// 环境变量优先级最高。path 为空时只用默认值+环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SNIFTR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SNIFTR_ARTIFACTS_DIR"); v != "" {
		c.Artifacts.Dir = v
	}
	if v := os.Getenv("SNIFTR_SQLITE_PATH"); v != "" {
		c.Catalog.SQLitePath = v
	}
	if v := os.Getenv("SNIFTR_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("SNIFTR_REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("SNIFTR_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.Alpha = f
		}
	}
	if v := os.Getenv("SNIFTR_MIN_VOTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Engine.MinVotes = n
		}
	}
}

func (c *Config) validate() error {
	if c.Engine.Alpha < 0 || c.Engine.Alpha > 1 {
		return fmt.Errorf("config: alpha must be in [0,1], got %v", c.Engine.Alpha)
	}
	if c.Engine.PoolSize <= 0 {
		return fmt.Errorf("config: pool_size must be positive, got %d", c.Engine.PoolSize)
	}
	if c.Engine.CandidateK <= 0 {
		return fmt.Errorf("config: candidate_k must be positive, got %d", c.Engine.CandidateK)
	}
	if c.Train.MinDocFreq < 1 {
		return fmt.Errorf("config: min_doc_freq must be >= 1, got %d", c.Train.MinDocFreq)
	}
	return nil
}
