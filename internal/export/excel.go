// Package export 把简历分析结果导出为 xlsx 报告
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"resume-insight/internal/types"
)

const (
	SummarySheet         = "Summary"
	VulnerabilitiesSheet = "Vulnerabilities"
	SectionsSheet        = "Sections"
)

// 分数段配色
const (
	colorHeader = "4472C4"
	colorStrong = "C6EFCE"
	colorFair   = "FFEB9C"
	colorWeak   = "FFC7CE"
)

// 单元格文本上限，超出 Excel 限制会写入失败
const maxCellChars = 32000

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// SaveReport 生成报告并保存到 path，缺少扩展名时补 .xlsx，返回实际路径
func SaveReport(results []*types.ResumeAnalysis, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := buildReport(results)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存报告 %s 失败: %w", path, err)
	}
	return path, nil
}

// WriteReport 生成报告写入 w
func WriteReport(w io.Writer, results []*types.ResumeAnalysis) error {
	f, err := buildReport(results)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return nil
}

func buildReport(results []*types.ResumeAnalysis) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{VulnerabilitiesSheet, SectionsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	rows := make([]*types.ResumeAnalysis, 0, len(results))
	for _, r := range results {
		if r != nil {
			rows = append(rows, r)
		}
	}

	steps := []struct {
		name string
		fn   func(*excelize.File, []*types.ResumeAnalysis) error
	}{
		{SummarySheet, writeSummary},
		{VulnerabilitiesSheet, writeVulnerabilities},
		{SectionsSheet, writeSections},
	}
	for _, s := range steps {
		if err := s.fn(f, rows); err != nil {
			f.Close()
			return nil, fmt.Errorf("生成 %s 工作表失败: %w", s.name, err)
		}
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorHeader}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func displayName(r *types.ResumeAnalysis, i int) string {
	if r.SourceFilename != "" {
		return r.SourceFilename
	}
	if r.AnalysisID != "" {
		return r.AnalysisID
	}
	return fmt.Sprintf("resume-%d", i+1)
}

// scoreColor 按总分取行底色
func scoreColor(score int) string {
	switch {
	case score >= 70:
		return colorStrong
	case score >= 40:
		return colorFair
	default:
		return colorWeak
	}
}

func writeSummary(f *excelize.File, results []*types.ResumeAnalysis) error {
	headers := []string{"Resume", "Overall", "Education", "Skills", "Projects", "Experience", "Skill Count", "Skills Found", "Vulnerabilities", "Gaps", "Analyzed At"}
	if err := writeHeader(f, SummarySheet, headers); err != nil {
		return err
	}
	f.SetColWidth(SummarySheet, "A", "A", 30)
	f.SetColWidth(SummarySheet, "B", "G", 12)
	f.SetColWidth(SummarySheet, "H", "H", 50)
	f.SetColWidth(SummarySheet, "I", "J", 15)
	f.SetColWidth(SummarySheet, "K", "K", 22)

	styles := make(map[string]int)
	for i, r := range results {
		row := i + 2
		analyzedAt := ""
		if !r.AnalyzedAt.IsZero() {
			analyzedAt = r.AnalyzedAt.Format("2006-01-02 15:04:05")
		}
		values := []any{
			displayName(r, i),
			r.OverallScore,
			r.CategoryScores.Education,
			r.CategoryScores.Skills,
			r.CategoryScores.Projects,
			r.CategoryScores.Experience,
			len(r.Skills),
			strings.Join(r.Skills, ", "),
			len(r.Vulnerabilities),
			len(r.Gaps),
			analyzedAt,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SummarySheet, start, &values); err != nil {
			return err
		}

		color := scoreColor(r.OverallScore)
		style, ok := styles[color]
		if !ok {
			var err error
			style, err = f.NewStyle(&excelize.Style{
				Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
				Border: thinBorder,
			})
			if err != nil {
				return err
			}
			styles[color] = style
		}
		end, _ := excelize.CoordinatesToCellName(len(headers), row)
		if err := f.SetCellStyle(SummarySheet, start, end, style); err != nil {
			return err
		}
	}

	if len(results) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(headers), len(results)+1)
		if err := f.AutoFilter(SummarySheet, "A1:"+end, nil); err != nil {
			return err
		}
	}
	return nil
}

func writeVulnerabilities(f *excelize.File, results []*types.ResumeAnalysis) error {
	if err := writeHeader(f, VulnerabilitiesSheet, []string{"Resume", "Category", "Description"}); err != nil {
		return err
	}
	f.SetColWidth(VulnerabilitiesSheet, "A", "A", 30)
	f.SetColWidth(VulnerabilitiesSheet, "B", "B", 15)
	f.SetColWidth(VulnerabilitiesSheet, "C", "C", 80)

	row := 2
	for i, r := range results {
		name := displayName(r, i)
		for _, v := range r.Vulnerabilities {
			start, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{name, string(v.Category), v.Description}
			if err := f.SetSheetRow(VulnerabilitiesSheet, start, &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeSections(f *excelize.File, results []*types.ResumeAnalysis) error {
	if err := writeHeader(f, SectionsSheet, []string{"Resume", "Section", "Score", "Text"}); err != nil {
		return err
	}
	f.SetColWidth(SectionsSheet, "A", "A", 30)
	f.SetColWidth(SectionsSheet, "B", "C", 12)
	f.SetColWidth(SectionsSheet, "D", "D", 100)

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	row := 2
	for i, r := range results {
		name := displayName(r, i)
		scores := r.CategoryScores.Values()
		for j, section := range types.AllSections {
			text := r.Sections.Get(section)
			if runes := []rune(text); len(runes) > maxCellChars {
				text = string(runes[:maxCellChars])
			}
			start, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{name, string(section), scores[j], text}
			if err := f.SetSheetRow(SectionsSheet, start, &values); err != nil {
				return err
			}
			end, _ := excelize.CoordinatesToCellName(4, row)
			if err := f.SetCellStyle(SectionsSheet, start, end, wrap); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}
