package audit

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/inventory"
	"restoran-backend/internal/models"
	"restoran-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseCountSheet(t *testing.T) {
	data := workbook(t,
		[]any{"Item", "Counted", "Reason"},
		[]any{"Flour", 17.5, "spilled"},
		[]any{},
		[]any{"salt", 3},
	)

	rows, err := ParseCountSheet(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "Flour", rows[0].Item)
	assert.True(t, rows[0].Quantity.Equal(dec("17.5")))
	require.NotNil(t, rows[0].Reason)
	assert.Equal(t, "spilled", *rows[0].Reason)

	assert.Equal(t, 4, rows[1].Row)
	assert.Nil(t, rows[1].Reason)
}

func TestParseCountSheetWithoutHeader(t *testing.T) {
	rows, err := ParseCountSheet(bytes.NewReader(workbook(t, []any{"salt", 3})))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Row)
}

func TestParseCountSheetRejectsBadInput(t *testing.T) {
	_, err := ParseCountSheet(bytes.NewReader([]byte("not a workbook")))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = ParseCountSheet(bytes.NewReader(workbook(t, []any{"Item", "Counted"})))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = ParseCountSheet(bytes.NewReader(workbook(t, []any{"Item", "Counted"}, []any{"salt", "many"})))
	require.Error(t, err)
	assert.Contains(t, apperr.As(err).Message(), "2")
}

func TestImportCountsResolvesItems(t *testing.T) {
	f := newFixture(t)
	cycle := f.startedCycle(t)
	flour := f.item(t, "Flour  Type 0", "20")
	salt := f.item(t, "salt", "3")
	f.item(t, "sugar", "")
	f.item(t, "sugar", "")

	rows := []SheetRow{
		{Row: 2, Item: "flour type 0", Quantity: dec("18")},
		{Row: 3, Item: salt.ID.String(), Quantity: dec("3")},
		{Row: 4, Item: "pepper", Quantity: dec("1")},
		{Row: 5, Item: "sugar", Quantity: dec("1")},
		{Row: 6, Item: "SALT", Quantity: dec("-1")},
	}

	res, err := f.svc.ImportCounts(f.ctx, f.actor, cycle.ID, rows)
	require.NoError(t, err)

	require.Len(t, res.Created, 2)
	assert.Equal(t, flour.ID, res.Created[0].ItemID)
	assert.True(t, res.Created[0].Discrepancy.Equal(dec("-2")))

	require.Len(t, res.Errors, 3)
	assert.Equal(t, []int{4, 5, 6}, []int{res.Errors[0].Index, res.Errors[1].Index, res.Errors[2].Index})
	assert.Equal(t, "pepper", res.Errors[0].ItemID)
}

func TestImportCountsNeedsInProgressCycle(t *testing.T) {
	f := newFixture(t)
	cycle := f.cycle(t)
	f.item(t, "salt", "3")

	_, err := f.svc.ImportCounts(f.ctx, f.actor, cycle.ID, []SheetRow{{Row: 1, Item: "salt", Quantity: dec("3")}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestHTTPImport(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.CreateTenant(t, db, "cafe")
	staff := testutil.CreateUser(t, db, tenant.ID, "s@example.com", models.RoleStaff, "x")
	manager := testutil.CreateUser(t, db, tenant.ID, "m@example.com", models.RoleManager, "x")
	rice := testutil.CreateItem(t, db, tenant.ID, "rice", true)
	testutil.Stock(t, db, tenant.ID, rice.ID, models.MovementIn, "10")

	svc := NewService(db, inventory.NewLedger(), Options{})
	m := newAPI(t, svc, manager)
	s := newAPI(t, svc, staff)

	var cycle CycleView
	status, _ := m.do("POST", "/api/audit/cycles", `{"name":"Jan","startDate":"2025-01-01","endDate":"2025-01-05"}`, &cycle)
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = m.do("POST", "/api/audit/cycles/"+cycle.ID+"/start", "", nil)
	require.Equal(t, fiber.StatusOK, status)

	upload := func(filename string, data []byte) (int, envelope) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest("POST", "/api/audit/cycles/"+cycle.ID+"/entries/import", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return s.send(req, nil)
	}

	status, env := upload("counts.csv", []byte("rice,9"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "file", env.Errors[0].Field)

	var res BulkView
	status, env = upload("counts.xlsx", workbook(t, []any{"Item", "Counted"}, []any{"Rice", 9}, []any{"beans", 2}))
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Created, 1)
	assert.Equal(t, -1.0, res.Created[0].Discrepancy)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Index)
}
