package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"musiclib/core/importer"
	"musiclib/core/tracks"
	"musiclib/db"
	"musiclib/repository"

	"github.com/spf13/cobra"
)

var watchImport bool

var importCmd = &cobra.Command{
	Use:   "import <file.json|dir>...",
	Short: "从JSON文件批量导入曲目",
	Long: `导入一个或多个JSON文件（数组或单个对象）。参数为目录时导入其中所有 *.json 文件，
加 --watch 后持续监听目录中新写入的文件。`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}

		// 导入时不推送事件
		trackSvc := tracks.NewService(repository.NewGormTrackRepository(gdb), nil, nil)
		im := importer.New(trackSvc)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var dirs []string
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return err
			}
			if info.IsDir() {
				if err := im.ImportDir(ctx, arg); err != nil {
					return err
				}
				dirs = append(dirs, arg)
				continue
			}
			res, err := im.ImportFile(ctx, arg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d created, %d failed\n", arg, len(res.Created), len(res.Failed))
		}

		if !watchImport {
			return nil
		}
		if len(dirs) == 0 {
			return fmt.Errorf("--watch needs at least one directory")
		}
		return watchAll(ctx, im, dirs)
	},
}

func watchAll(ctx context.Context, im *importer.Importer, dirs []string) error {
	errCh := make(chan error, len(dirs))
	for _, dir := range dirs {
		go func(dir string) { errCh <- im.Watch(ctx, dir) }(dir)
	}
	for range dirs {
		if err := <-errCh; err != nil {
			return err
		}
	}
	return nil
}

func init() {
	importCmd.Flags().BoolVarP(&watchImport, "watch", "w", false, "keep watching directories for new files")
	rootCmd.AddCommand(importCmd)
}
