package cmd

import (
	"clipcut/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动ClipCut服务器",
	Long:  `启动ClipCut视频编辑器的HTTP服务器，提供工程API、素材库和预览通道`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
