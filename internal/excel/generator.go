package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/signchain/signchain/internal/model"
)

const summarySheet = "Özet"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.AnchorReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range report.Groups {
		sheetName := buildSheetName(string(group.Mode), usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheetName, report, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.AnchorReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Cüzdan")
	set("B1", report.WalletAddress)
	set("A2", "Rapor tarihi")
	set("B2", formatDateTime(report.GeneratedAt))
	set("A3", "Kayıt sayısı")
	set("B3", report.Total)

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Ağ modu")
	set(fmt.Sprintf("B%d", tableRow), "Kayıt sayısı")
	set(fmt.Sprintf("C%d", tableRow), "Son kayıt")

	for i, group := range report.Groups {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), modeLabel(group.Mode))
		set(fmt.Sprintf("B%d", row), len(group.Anchors))
		set(fmt.Sprintf("C%d", row), formatDateTime(latest(group.Anchors)))
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 60)
	_ = file.SetColWidth(sheet, "C", "C", 20)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, report model.AnchorReport, group model.AnchorGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Cüzdan")
	set("B1", report.WalletAddress)
	set("A2", "Ağ modu")
	set("B2", modeLabel(group.Mode))
	set("A3", "Kayıt sayısı")
	set("B3", len(group.Anchors))

	tableRow := 5
	headers := []string{
		"Tarih",
		"Başlık",
		"Dosya",
		"CID",
		"URI",
		"İşlem ID",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, anchor := range group.Anchors {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), formatDateTime(anchor.CreatedAt))
		set(fmt.Sprintf("B%d", row), anchor.Title)
		set(fmt.Sprintf("C%d", row), anchor.FileName)
		set(fmt.Sprintf("D%d", row), anchor.CID)
		set(fmt.Sprintf("E%d", row), anchor.URI)
		set(fmt.Sprintf("F%d", row), anchor.TxID)
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "C", 32)
	_ = file.SetColWidth(sheet, "D", "E", 64)
	_ = file.SetColWidth(sheet, "F", "F", 56)
	return nil
}

func modeLabel(mode model.LedgerMode) string {
	switch mode {
	case model.LedgerModeLive:
		return "Algorand TestNet"
	case model.LedgerModeSimulated:
		return "Simülasyon"
	default:
		return "Bilinmiyor"
	}
}

func buildSheetName(mode string, used map[string]struct{}) string {
	base := sanitizeSheetName(fmt.Sprintf("Kayıtlar - %s", strings.TrimSpace(mode)))
	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sayfa"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Sayfa"
	}
	return value
}

func latest(anchors []model.Anchor) time.Time {
	var newest time.Time
	for _, anchor := range anchors {
		if anchor.CreatedAt.After(newest) {
			newest = anchor.CreatedAt
		}
	}
	return newest
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006 15:04:05")
}
