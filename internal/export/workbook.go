// Package export renders a trip's settlement as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"tripmate/internal/models"
	"tripmate/internal/settlement"
)

const (
	ExpenseSheet    = "지출"
	SettlementSheet = "정산"
)

var (
	expenseHeader    = []any{"날짜", "항목", "금액", "통화", "원화 금액", "결제자", "함께한 사람", "정산 완료"}
	settlementHeader = []any{"참여자", "쓴 돈", "남은 부담", "낸 금액", "부담할 금액", "차액", "상태"}
)

// Report is everything the workbook is built from
type Report struct {
	Trip         models.Trip
	Participants []models.Participant
	Expenses     []models.Expense
	Stats        []settlement.Stats
	Balances     []settlement.Balance
}

func statusLabel(s settlement.BalanceStatus) string {
	switch s {
	case settlement.StatusReceive:
		return "받을 돈"
	case settlement.StatusSend:
		return "보낼 돈"
	default:
		return "정산 완료"
	}
}

func names(uids []string, byUID map[string]string) string {
	out := make([]string, len(uids))
	for i, uid := range uids {
		out[i] = nameOf(uid, byUID)
	}
	return strings.Join(out, ", ")
}

func nameOf(uid string, byUID map[string]string) string {
	if name, ok := byUID[uid]; ok {
		return name
	}
	return uid
}

// Build lays out the expense list and the per-participant settlement on two sheets
func Build(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ExpenseSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name expense sheet: %w", err)
	}
	if _, err := f.NewSheet(SettlementSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create settlement sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	byUID := settlement.DisplayNames(r.Participants)

	rows := [][]any{expenseHeader}
	for _, e := range r.Expenses {
		rows = append(rows, []any{
			e.Date.Format("2006.01.02"),
			e.Item,
			e.Amount,
			string(e.Currency),
			e.CanonicalAmount(),
			nameOf(e.Payer, byUID),
			names(e.SplitWith, byUID),
			names(e.Settled, byUID),
		})
	}
	if err := writeRows(f, ExpenseSheet, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{settlementHeader}
	for i, stats := range r.Stats {
		row := []any{stats.Participant.DisplayName, stats.TotalSpent, stats.TotalDebt}
		if i < len(r.Balances) {
			b := r.Balances[i]
			row = append(row, b.Paid.InexactFloat64(), b.ShouldPay.IntPart(), b.Net.IntPart(), statusLabel(b.Status))
		}
		rows = append(rows, row)
	}
	if err := writeRows(f, SettlementSheet, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", "H", 16)
}

// Write builds the workbook and streams it to w
func Write(w io.Writer, r Report) error {
	f, err := Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename is the download name for a trip's workbook
func Filename(trip models.Trip) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, trip.Name)
	if name == "" {
		name = "trip"
	}
	return name + " 정산.xlsx"
}
