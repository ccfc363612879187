package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"clipcut/cache"
	"clipcut/config"
	"clipcut/core/timeline"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并读取当前的播放头快照。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.Connect(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		fmt.Println("Redis连接成功！")

		ctx := context.Background()
		if err := cache.Ping(ctx); err != nil {
			log.Fatalf("Redis PING 失败: %v", err)
		}

		snap, ok, err := cache.NewPlayheadCache().Load(ctx)
		if err != nil {
			log.Fatalf("读取播放头快照失败: %v", err)
		}
		if ok {
			fmt.Printf("播放头快照: %s (playing=%v, updated=%s)\n",
				timeline.FormatTimecode(snap.CurrentTime), snap.IsPlaying,
				time.UnixMilli(snap.UpdatedAt).Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("当前没有播放头快照。")
		}

		if err := cache.Close(); err != nil {
			log.Printf("关闭Redis连接时发生错误: %v", err)
		}
		fmt.Println("Redis测试完成，连接已关闭。")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
