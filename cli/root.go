// Package cli 实现 platecut 命令行。
package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ByLCY/platecut/config"
	"github.com/ByLCY/platecut/fontcache"
	"github.com/ByLCY/platecut/fonts"
	"github.com/ByLCY/platecut/logger"
)

// Execute 运行根命令，失败时以状态码 1 退出。
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	config string
	debug  bool
	logDir string
}

// NewRootCmd 构造根命令及其子命令。
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:          "platecut",
		Short:        "将铭牌设计导出为激光切割/雕刻用的 SVG 或 PDF",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&g.config, "config", "", "YAML 配置文件路径")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "输出调试级别日志")
	cmd.PersistentFlags().StringVar(&g.logDir, "log-dir", "", "日志目录（默认输出到标准错误）")

	cmd.AddCommand(exportCmd(g, "svg", "导出矢量切割文件（SVG）"))
	cmd.AddCommand(exportCmd(g, "pdf", "导出单页 PDF"))
	cmd.AddCommand(fontsCmd(g))
	return cmd
}

// setup 读取配置并初始化日志，返回的 cleanup 必须在命令结束时调用。
func (g *globalFlags) setup() (config.Config, func(), error) {
	cfg, err := config.Load(g.config)
	if err != nil {
		return config.Config{}, func() {}, err
	}
	dir := g.logDir
	if dir == "" {
		dir = cfg.Log.Dir
	}
	cleanup, err := logger.Setup(logger.Config{Dir: dir, Debug: g.debug || cfg.Log.Debug})
	if err != nil {
		return config.Config{}, func() {}, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, func() { _ = cleanup() }, nil
}

func fontsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "列出可用的字体族及其来源",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cleanup, err := g.setup()
			defer cleanup()
			if err != nil {
				return err
			}
			registry := fontcache.DefaultRegistry().Merge(fontcache.Registry(cfg.Fonts.Registry))
			names := make([]string, 0, len(registry))
			for name := range registry {
				names = append(names, name)
			}
			sort.Strings(names)

			w := cmd.OutOrStdout()
			for _, name := range names {
				marker := ""
				if name == cfg.Fonts.Fallback {
					marker = " (fallback)"
				}
				fmt.Fprintf(w, "%-24s %s%s\n", name, registry[name], marker)
			}
			fmt.Fprintf(w, "\n内置字体: %v\n", fonts.Names())
			return nil
		},
	}
}
