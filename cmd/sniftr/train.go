package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/VibhavTh/Sniftr/catalog"
	"github.com/VibhavTh/Sniftr/config"
	"github.com/VibhavTh/Sniftr/recommend"
	"github.com/VibhavTh/Sniftr/vectorspace"
)

// newTrainCmd 构造离线训练命令：读目录全量语料，拟合 TF-IDF
// 向量空间并落盘工件。训练与服务分离，工件是两者之间唯一契约。
func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "从目录语料构建向量空间工件",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			cat, err := catalog.OpenSQLite(cfg.Catalog.SQLitePath)
			if err != nil {
				return err
			}
			defer cat.Close()

			items, err := cat.All(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading corpus: %w", err)
			}
			if len(items) == 0 {
				return fmt.Errorf("catalog %s is empty, nothing to train on", cfg.Catalog.SQLitePath)
			}

			opts := vectorspace.DefaultBuilderOptions()
			opts.AccordWeight = cfg.Train.AccordWeight
			opts.Vectorizer.MaxFeatures = cfg.Train.MaxFeatures
			opts.Vectorizer.MinDocFreq = cfg.Train.MinDocFreq
			opts.MinVotes = cfg.Engine.MinVotes

			start := time.Now()
			arts, err := vectorspace.Build(cmd.Context(), items, opts)
			if err != nil {
				return err
			}

			// 训练后自检：工件必须能直接喂给引擎
			if _, err := recommend.NewEngineFromArtifacts(arts, recommend.DefaultConfig()); err != nil {
				return fmt.Errorf("artifact self-check: %w", err)
			}

			if err := arts.Save(cfg.Artifacts.Dir); err != nil {
				return err
			}

			slog.Info("training complete",
				"items", len(items),
				"terms", arts.Vectorizer.NumTerms(),
				"dir", cfg.Artifacts.Dir,
				"duration", time.Since(start))
			return nil
		},
	}
	return cmd
}
