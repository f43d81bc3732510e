package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	// .env 仅在存在时加载，缺失不是错误
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:   "sniftr",
		Short: "香水推荐服务：离线训练向量空间工件，在线提供相似推荐与发现会话",
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML 配置文件路径")
	root.AddCommand(newTrainCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
