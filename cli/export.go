package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/platecut/binding"
	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/export"
	"github.com/ByLCY/platecut/logger"
	"github.com/ByLCY/platecut/markup"
)

type exportFlags struct {
	in        string
	out       string
	report    string
	dump      string
	width     float64
	height    float64
	wood      bool
	woodExtra float64
	material  string
	data      string
	dataFile  string
}

func exportCmd(g *globalFlags, target, short string) *cobra.Command {
	f := &exportFlags{}
	c := &cobra.Command{
		Use:   target,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, g, f, target)
		},
	}
	c.Flags().StringVar(&f.in, "in", "", "输入文件：设计器导出的 SVG，或 YAML/JSON 设计文件（必填）")
	c.Flags().StringVar(&f.out, "out", "", "输出路径（默认 plaque_<宽>x<高>_<材质>.<扩展名>）")
	c.Flags().StringVar(&f.report, "report", "", "导出报告 JSON 输出路径")
	c.Flags().StringVar(&f.dump, "dump", "", "加工文档（全部图元）JSON 输出路径，用于调试")
	c.Flags().Float64Var(&f.width, "width", 0, "铭牌宽度（mm）")
	c.Flags().Float64Var(&f.height, "height", 0, "铭牌高度（mm）")
	c.Flags().BoolVar(&f.wood, "wood", false, "带木质底板")
	c.Flags().Float64Var(&f.woodExtra, "wood-extra", 0, "木质底板在每个方向上增加的尺寸（mm）")
	c.Flags().StringVar(&f.material, "material", "", "材质名称，用于默认文件名")
	c.Flags().StringVar(&f.data, "data", "", "填入文本占位符 ${path} 的 JSON 数据")
	c.Flags().StringVar(&f.dataFile, "data-file", "", "填入文本占位符的 YAML/JSON 数据文件")
	_ = c.MarkFlagRequired("in")
	return c
}

func runExport(cmd *cobra.Command, g *globalFlags, f *exportFlags, target string) error {
	cfg, cleanup, err := g.setup()
	defer cleanup()
	if err != nil {
		return err
	}
	log := logger.L()

	doc, physical, err := loadInput(f.in)
	if err != nil {
		return err
	}
	physical = cfg.Physical(f.apply(cmd, physical))
	if physical.Width <= 0 {
		physical.Width = doc.Width - physical.Extra()
	}
	if physical.Height <= 0 {
		physical.Height = doc.Height - physical.Extra()
	}

	data, err := f.loadData()
	if err != nil {
		return err
	}
	var unbound []string
	if data != nil {
		doc, unbound = binding.Document(doc, data)
		for _, path := range unbound {
			log.Warn("cli.placeholder_unbound", "path", path)
		}
	}

	exporter := export.New(cfg.FontCache(log), cfg.ExportOptions(log))
	var (
		out    []byte
		report *export.Report
	)
	switch target {
	case "pdf":
		out, report, err = exporter.ExportPaginatedDocument(cmd.Context(), doc, physical)
	default:
		out, report, err = exporter.ExportVectorFile(cmd.Context(), doc, physical)
	}
	if err != nil {
		return fmt.Errorf("导出 %s 失败: %w", strings.ToUpper(target), err)
	}

	outPath := f.out
	if outPath == "" {
		outPath = export.FileName(physical, target)
	}
	if err := writeFile(outPath, out); err != nil {
		return err
	}
	if f.report != "" {
		if err := writeReport(f.report, outPath, physical, report, unbound); err != nil {
			return err
		}
	}
	if f.dump != "" {
		fab, _, err := exporter.Prepare(cmd.Context(), doc, physical)
		if err != nil {
			return err
		}
		if err := export.WriteDebugJSON(fab, f.dump); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	for _, issue := range report.FontIssues {
		fmt.Fprintf(cmd.ErrOrStderr(), "警告: %v\n", issue)
	}
	for _, u := range report.Unresolved {
		fmt.Fprintf(cmd.ErrOrStderr(), "警告: 文本 %q 无法轮廓化，已用红色占位框标出: %v\n", u.Content, u.Err)
	}
	for _, d := range report.Malformed() {
		fmt.Fprintf(cmd.ErrOrStderr(), "警告: 图层 %s（%s）缺少几何数据，未输出: %v\n", d.LayerID, d.Kind, d.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已生成 %s：%s\n", strings.ToUpper(target), outPath)
	return nil
}

// apply 用命令行中显式设置的参数覆盖输入文件中的物理参数。
func (f *exportFlags) apply(cmd *cobra.Command, p design.Physical) design.Physical {
	flags := cmd.Flags()
	if flags.Changed("width") {
		p.Width = f.width
	}
	if flags.Changed("height") {
		p.Height = f.height
	}
	if flags.Changed("wood") {
		p.Wood = f.wood
	}
	if flags.Changed("wood-extra") {
		p.WoodExtra = f.woodExtra
	}
	if flags.Changed("material") {
		p.Material = f.material
	}
	return p
}

// loadInput 按扩展名读取 SVG 标记或设计文件。
func loadInput(path string) (design.Document, design.Physical, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		file, err := os.Open(path)
		if err != nil {
			return design.Document{}, design.Physical{}, fmt.Errorf("无法打开输入文件 %s: %w", path, err)
		}
		defer file.Close()
		doc, err := markup.Import(file)
		if err != nil {
			return design.Document{}, design.Physical{}, fmt.Errorf("解析 SVG 失败: %w", err)
		}
		return *doc, design.Physical{}, nil
	case ".yaml", ".yml", ".json":
		file, err := design.Load(path)
		if err != nil {
			return design.Document{}, design.Physical{}, err
		}
		return file.Document, file.Physical, nil
	default:
		return design.Document{}, design.Physical{}, fmt.Errorf("不支持的输入格式 %q（应为 .svg、.yaml 或 .json）", filepath.Ext(path))
	}
}

func (f *exportFlags) loadData() (any, error) {
	var data any
	switch {
	case f.data != "":
		if err := json.Unmarshal([]byte(f.data), &data); err != nil {
			return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
		}
	case f.dataFile != "":
		b, err := os.ReadFile(f.dataFile)
		if err != nil {
			return nil, fmt.Errorf("无法读取数据文件 %s: %w", f.dataFile, err)
		}
		// JSON 是 YAML 的子集
		if err := yaml.Unmarshal(b, &data); err != nil {
			return nil, fmt.Errorf("解析数据文件失败: %w", err)
		}
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

type reportFile struct {
	Output   string          `json:"output"`
	Physical design.Physical `json:"physical"`
	Report   *export.Report  `json:"report"`
	Issues   []string        `json:"issues,omitempty"`
	Unbound  []string        `json:"unboundPlaceholders,omitempty"`
}

// writeReport 输出导出报告，错误信息展开为字符串。
func writeReport(path, output string, physical design.Physical, report *export.Report, unbound []string) error {
	rf := reportFile{Output: output, Physical: physical, Report: report, Unbound: unbound}
	for _, issue := range report.FontIssues {
		rf.Issues = append(rf.Issues, issue.Error())
	}
	for _, u := range report.Unresolved {
		rf.Issues = append(rf.Issues, fmt.Sprintf("unresolved %q: %v", u.Content, u.Err))
	}
	for _, d := range report.Malformed() {
		rf.Issues = append(rf.Issues, fmt.Sprintf("dropped %s: %v", d.LayerID, d.Err))
	}
	b, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(b, '\n'))
}
