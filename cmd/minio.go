package cmd

import (
	"context"
	"fmt"
	"log"

	"clipcut/config"
	"clipcut/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看和管理MinIO存储桶中的素材文件，支持按前缀列出和删除对象。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.Init(cfg); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		store := storage.Get()
		ctx := context.Background()

		objects, err := store.ListObjects(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("列出文件失败: %v", err)
		}

		if minioDelete {
			if minioPrefix == "" {
				log.Fatal("删除操作需要指定前缀")
			}
			fmt.Printf("\n删除前缀 %s 下的 %d 个对象\n", minioPrefix, len(objects))
			for _, obj := range objects {
				if err := store.Remove(ctx, obj.Key); err != nil {
					log.Fatalf("删除 %s 失败: %v", obj.Key, err)
				}
				fmt.Printf("  已删除 %s\n", obj.Key)
			}
		} else {
			fmt.Printf("\n列出存储桶中的文件 (前缀: %s)...\n", minioPrefix)
			var total int64
			for _, obj := range objects {
				fmt.Printf("  %s\t%d bytes\n", obj.Key, obj.Size)
				total += obj.Size
			}
			fmt.Printf("共 %d 个对象, %d bytes\n", len(objects), total)
		}

		fmt.Println("\nMinIO操作完成！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件或指定要操作的目录")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除指定前缀下的所有文件")

	minioCmd.Example = `  # 列出所有素材对象
  clipcut minio

  # 按前缀过滤
  clipcut minio -p "assets/"

  # 删除前缀下的所有对象
  clipcut minio -d -p "assets/"`
}
