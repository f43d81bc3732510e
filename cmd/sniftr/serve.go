package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/VibhavTh/Sniftr/catalog"
	"github.com/VibhavTh/Sniftr/config"
	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/feedback"
	"github.com/VibhavTh/Sniftr/recommend"
	"github.com/VibhavTh/Sniftr/server"
	"github.com/VibhavTh/Sniftr/session"
	"github.com/VibhavTh/Sniftr/store"
)

// newServeCmd 构造在线服务命令：加载一次工件，组装引擎、
// 会话管理器与 HTTP 层，收到 SIGINT/SIGTERM 优雅退出。
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动推荐 HTTP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			engine, err := recommend.NewEngine(cfg.Artifacts.Dir, recommend.Config{
				PoolSize:   cfg.Engine.PoolSize,
				CandidateK: cfg.Engine.CandidateK,
				Alpha:      cfg.Engine.Alpha,
				MinVotes:   cfg.Engine.MinVotes,
				RuleExpr:   cfg.Engine.RuleExpr,
			})
			if err != nil {
				return fmt.Errorf("loading artifacts from %s: %w", cfg.Artifacts.Dir, err)
			}

			cat, err := catalog.OpenSQLite(cfg.Catalog.SQLitePath)
			if err != nil {
				return err
			}
			defer cat.Close()

			kv, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			collector := feedback.NewCollector(kv, 0)
			defer collector.Close()

			sessions := session.NewManager(engine, cat, session.Config{
				LowWater:    cfg.Session.LowWater,
				MaxQueue:    cfg.Session.MaxQueue,
				RandomBatch: cfg.Session.RandomBatch,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg.Server.Addr, engine, cat, sessions, collector)
			return srv.Run(ctx)
		},
	}
	return cmd
}

func openStore(cfg *config.Config) (core.KeyValueStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisStore(cfg.Store.RedisAddr, cfg.Store.RedisDB)
	case "", "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
