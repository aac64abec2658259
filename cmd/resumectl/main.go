// resumectl 在本地分析简历文件，结果以 JSON 输出到标准输出
//
//	resumectl --file a.pdf --file b.docx --xlsx report.xlsx
//	resumectl --text resume.txt
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"resume-insight/internal/config"
	"resume-insight/internal/export"
	"resume-insight/internal/logger"
	"resume-insight/internal/processor"
	"resume-insight/internal/types"
)

func main() {
	var (
		configPath string
		files      []string
		textFiles  []string
		xlsxPath   string
		compact    bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringArrayVarP(&files, "file", "f", nil, "PDF or DOCX resume to analyze (repeatable)")
	pflag.StringArrayVarP(&textFiles, "text", "t", nil, "Plain text resume to analyze (repeatable)")
	pflag.StringVar(&xlsxPath, "xlsx", "", "Also write an xlsx report to this path")
	pflag.BoolVar(&compact, "compact", false, "Print compact JSON")
	pflag.Parse()
	files = append(files, pflag.Args()...)

	if len(files) == 0 && len(textFiles) == 0 {
		fmt.Fprintln(os.Stderr, "usage: resumectl [--file resume.pdf]... [--text resume.txt]... [--xlsx report.xlsx]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	// 日志写到 stderr，stdout 只输出结果
	logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
		Output:     os.Stderr,
	})

	if err := run(context.Background(), cfg, files, textFiles, xlsxPath, compact); err != nil {
		logger.Error().Err(err).Msg("分析失败")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, files, textFiles []string, xlsxPath string, compact bool) error {
	// 本地分析不写任何外部存储
	svc, err := processor.NewResumeServiceFromConfig(ctx, cfg, nil, nil)
	if err != nil {
		return err
	}

	results := make([]*types.ResumeAnalysis, 0, len(files)+len(textFiles))
	failed := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取 %s 失败: %w", path, err)
		}
		result, err := svc.AnalyzeUpload(ctx, filepath.Base(path), data)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("跳过无法分析的文件")
			failed++
			continue
		}
		results = append(results, result)
	}
	for _, path := range textFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取 %s 失败: %w", path, err)
		}
		result, err := svc.AnalyzeText(ctx, string(data))
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("跳过无法分析的文件")
			failed++
			continue
		}
		result.SourceFilename = filepath.Base(path)
		results = append(results, result)
	}

	if err := printJSON(results, compact); err != nil {
		return err
	}

	if xlsxPath != "" {
		saved, err := export.SaveReport(results, xlsxPath)
		if err != nil {
			return err
		}
		logger.Info().Str("path", saved).Int("resumes", len(results)).Msg("报告已生成")
	}

	if failed > 0 && len(results) == 0 {
		return fmt.Errorf("全部 %d 个文件分析失败", failed)
	}
	return nil
}

func printJSON(results []*types.ResumeAnalysis, compact bool) error {
	enc := json.NewEncoder(os.Stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	// 单个输入时直接输出对象
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}
