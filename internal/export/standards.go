// Package export renders registry contents as spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bid-docs/internal/repository"
)

const (
	standardsSheet = "标准清单"
	previewRunes   = 140
)

// Lister is satisfied by *standards.Registry.
type Lister interface {
	List(ctx context.Context, category string) ([]*repository.Standard, error)
}

type Service struct {
	lister Lister
	logger *slog.Logger
}

func NewService(lister Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{lister: lister, logger: logger}
}

// StandardsXLSX returns an XLSX workbook (as bytes) listing the standards of
// category; an empty category exports all of them.
func (s *Service) StandardsXLSX(ctx context.Context, category string) ([]byte, error) {
	start := time.Now()

	list, err := s.lister.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	// rename the default sheet instead of leaving an empty Sheet1 behind
	if err := f.SetSheetName(f.GetSheetName(0), standardsSheet); err != nil {
		return nil, err
	}

	headers := []string{"标准编号", "标准名称", "分类", "原始文件名", "文件大小(字节)", "登记时间", "内容预览"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(standardsSheet, cell, h)
	}

	for i, std := range list {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(standardsSheet, cell, v)
		}
		write(1, std.Code)
		write(2, std.Name)
		write(3, std.Category)
		write(4, std.FileName)
		write(5, std.FileSize)
		write(6, std.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		write(7, truncate(std.Preview, previewRunes))
	}

	_ = f.SetColWidth(standardsSheet, "A", "A", 22) // code
	_ = f.SetColWidth(standardsSheet, "B", "B", 36) // name
	_ = f.SetColWidth(standardsSheet, "C", "C", 12)
	_ = f.SetColWidth(standardsSheet, "D", "D", 36)
	_ = f.SetColWidth(standardsSheet, "E", "F", 20)
	_ = f.SetColWidth(standardsSheet, "G", "G", 60) // preview

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"category", category,
		"rows", len(list),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
