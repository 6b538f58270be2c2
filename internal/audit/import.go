package audit

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// MaxSheetRows matches the bulk request limit.
const MaxSheetRows = 1000

// SheetRow is one count line of an uploaded workbook. Row is the 1-based row
// number shown by spreadsheet apps.
type SheetRow struct {
	Row      int
	Item     string
	Quantity decimal.Decimal
	Reason   *string
}

// ParseCountSheet reads the first sheet of an xlsx count sheet. Columns are
// item (id or name), counted quantity and an optional reason. A first row
// whose quantity cell is not a number is treated as the header.
func ParseCountSheet(r io.Reader) ([]SheetRow, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "فایل اکسل قابل خواندن نیست").WithField("file", "فایل xlsx معتبر نیست")
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, sheetError("فایل اکسل هیچ برگه‌ای ندارد")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "برگه اکسل قابل خواندن نیست").WithField("file", "برگه قابل خواندن نیست")
	}

	start := 0
	if len(rows) > 0 && !isNumberCell(rows[0], 1) {
		start = 1
	}

	out := make([]SheetRow, 0, len(rows))
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		num := i + 1

		item := cell(row, 0)
		if item == "" {
			return nil, sheetError(fmt.Sprintf("ردیف %d: کالا مشخص نشده است", num))
		}
		qty, err := decimal.NewFromString(cell(row, 1))
		if err != nil {
			return nil, sheetError(fmt.Sprintf("ردیف %d: مقدار شمارش نامعتبر است", num))
		}

		sr := SheetRow{Row: num, Item: item, Quantity: qty}
		if reason := cell(row, 2); reason != "" {
			sr.Reason = &reason
		}
		out = append(out, sr)
	}

	if len(out) == 0 {
		return nil, sheetError("فایل اکسل هیچ ردیف شمارشی ندارد")
	}
	if len(out) > MaxSheetRows {
		return nil, sheetError(fmt.Sprintf("حداکثر %d ردیف مجاز است", MaxSheetRows))
	}
	return out, nil
}

// ImportCounts resolves sheet rows to catalog items and records them through
// AddBulkEntries. Errors are indexed by sheet row number.
func (s *Service) ImportCounts(ctx context.Context, actor Actor, cycleID string, rows []SheetRow) (*BulkResult, error) {
	conn := s.db.DB(ctx)
	if _, err := s.countableCycle(ctx, conn, actor.TenantID, cycleID); err != nil {
		return nil, err
	}

	items, err := s.ledger.ActiveItems(ctx, conn, actor.TenantID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string][]uuid.UUID, len(items))
	for _, it := range items {
		key := normalizeName(it.Name)
		byName[key] = append(byName[key], it.ID)
	}

	var (
		inputs     []EntryInput
		sheetRowOf []int
		unresolved []BulkItemError
	)
	for _, r := range rows {
		id, msg := resolveItem(r.Item, byName)
		if msg != "" {
			unresolved = append(unresolved, BulkItemError{Index: r.Row, ItemID: r.Item, Message: msg})
			continue
		}
		inputs = append(inputs, EntryInput{CycleID: cycleID, ItemID: id, CountedQuantity: r.Quantity, Reason: r.Reason})
		sheetRowOf = append(sheetRowOf, r.Row)
	}

	result := &BulkResult{Created: []models.AuditEntry{}, Errors: []BulkItemError{}}
	if len(inputs) > 0 {
		result, err = s.AddBulkEntries(ctx, actor, inputs)
		if err != nil {
			return nil, err
		}
		for i := range result.Errors {
			result.Errors[i].Index = sheetRowOf[result.Errors[i].Index]
		}
	}
	result.Errors = append(result.Errors, unresolved...)
	sort.SliceStable(result.Errors, func(i, j int) bool { return result.Errors[i].Index < result.Errors[j].Index })
	return result, nil
}

func resolveItem(ref string, byName map[string][]uuid.UUID) (uuid.UUID, string) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, ""
	}
	switch ids := byName[normalizeName(ref)]; len(ids) {
	case 0:
		return uuid.Nil, "کالا یافت نشد یا غیرفعال است"
	case 1:
		return ids[0], ""
	default:
		return uuid.Nil, "نام کالا تکراری است، از شناسه کالا استفاده کنید"
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func sheetError(msg string) error {
	return apperr.Validation(msg).WithField("file", msg)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isNumberCell(row []string, i int) bool {
	_, err := decimal.NewFromString(cell(row, i))
	return err == nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
