package cmd

import (
	"musiclib/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动曲库服务器",
	Long:  `启动曲库的HTTP服务器，提供REST API与 /api/events 事件推送`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
