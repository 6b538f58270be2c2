package audit

import (
	"strings"
	"time"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/auth"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"
	"restoran-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCycleRequest struct {
	Name        string  `json:"name" validate:"required,max=150"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	StartDate   string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"endDate" validate:"required,datetime=2006-01-02"`
}

type CancelCycleRequest struct {
	CancelledReason string `json:"cancelledReason" validate:"required,max=500"`
}

type AddEntryRequest struct {
	AuditCycleID    string   `json:"auditCycleId" validate:"required,cuid"`
	ItemID          string   `json:"itemId" validate:"required,uuid"`
	CountedQuantity *float64 `json:"countedQuantity" validate:"required,gte=0,lt=100000000000000"`
	Reason          *string  `json:"reason" validate:"omitempty,max=500"`
}

type BulkEntriesRequest struct {
	Entries []AddEntryRequest `json:"entries" validate:"required,min=1,max=1000,dive"`
}

type ApplyCorrectionRequest struct {
	Reason string `json:"reason" validate:"required,max=400"`
}

func (r AddEntryRequest) input() EntryInput {
	return EntryInput{
		CycleID:         r.AuditCycleID,
		ItemID:          uuid.MustParse(r.ItemID),
		CountedQuantity: decimal.NewFromFloat(*r.CountedQuantity),
		Reason:          r.Reason,
	}
}

func actorFrom(c *fiber.Ctx) (Actor, error) {
	id, err := auth.IdentityFrom(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: id.UserID, TenantID: id.TenantID, Name: id.Name}, nil
}

// idParam reads a CUID path parameter.
func idParam(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if !validation.IsCUID(id) {
		return "", apperr.Validation("شناسه نامعتبر است").WithField("id", "شناسه نامعتبر است")
	}
	return id, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(validation.DateLayout, value)
	if err != nil {
		return time.Time{}, apperr.Validation("قالب تاریخ نامعتبر است").WithField(field, "قالب تاریخ باید YYYY-MM-DD باشد")
	}
	return t, nil
}

// GET /api/audit/cycles?status=IN_PROGRESS&startDate=2025-01-01&endDate=2025-03-31
func ListCyclesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}

		var f CycleFilter
		if v := c.Query("status"); v != "" {
			st, ok := models.ParseCycleStatus(strings.ToUpper(v))
			if !ok {
				return apperr.Validation("وضعیت نامعتبر است").WithField("status", "باید یکی از DRAFT IN_PROGRESS COMPLETED CANCELLED باشد")
			}
			f.Status = &st
		}
		if v := c.Query("startDate"); v != "" {
			t, err := parseDate("startDate", v)
			if err != nil {
				return err
			}
			f.StartDate = &t
		}
		if v := c.Query("endDate"); v != "" {
			t, err := parseDate("endDate", v)
			if err != nil {
				return err
			}
			f.EndDate = &t
		}

		cycles, err := svc.ListCycles(c.UserContext(), actor.TenantID, f)
		if err != nil {
			return err
		}
		res := make([]CycleView, 0, len(cycles))
		for i := range cycles {
			v := NewCycleView(&cycles[i].AuditCycle)
			n := cycles[i].EntryCount
			v.EntryCount = &n
			res = append(res, v)
		}
		return response.OK(c, "فهرست دوره‌های شمارش", res)
	}
}

// GET /api/audit/cycles/:id
func GetCycleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		cycle, err := svc.GetCycle(c.UserContext(), actor.TenantID, id)
		if err != nil {
			return err
		}
		return response.OK(c, "جزئیات دوره شمارش", NewCycleDetailView(cycle))
	}
}

// POST /api/audit/cycles
func CreateCycleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		var body CreateCycleRequest
		if err := validation.Body(c, &body); err != nil {
			return err
		}
		start, err := parseDate("startDate", body.StartDate)
		if err != nil {
			return err
		}
		end, err := parseDate("endDate", body.EndDate)
		if err != nil {
			return err
		}

		cycle, err := svc.CreateCycle(c.UserContext(), actor, CreateCycleInput{
			Name:        body.Name,
			Description: body.Description,
			StartDate:   start,
			EndDate:     end,
		})
		if err != nil {
			return err
		}
		return response.Created(c, "دوره شمارش ایجاد شد", NewCycleView(cycle))
	}
}

// POST /api/audit/cycles/:id/start
func StartCycleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		cycle, err := svc.StartCycle(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return response.OK(c, "دوره شمارش آغاز شد", NewCycleView(cycle))
	}
}

// POST /api/audit/cycles/:id/complete
func CompleteCycleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		cycle, err := svc.CompleteCycle(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return response.OK(c, "دوره شمارش تکمیل شد", NewCycleView(cycle))
	}
}

// POST /api/audit/cycles/:id/cancel
func CancelCycleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		var body CancelCycleRequest
		if err := validation.Body(c, &body); err != nil {
			return err
		}
		cycle, err := svc.CancelCycle(c.UserContext(), actor, id, body.CancelledReason)
		if err != nil {
			return err
		}
		return response.OK(c, "دوره شمارش لغو شد", NewCycleView(cycle))
	}
}

// POST /api/audit/entries
func AddEntryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		var body AddEntryRequest
		if err := validation.Body(c, &body); err != nil {
			return err
		}
		entry, err := svc.AddEntry(c.UserContext(), actor, body.input())
		if err != nil {
			return err
		}
		return response.Created(c, "شمارش ثبت شد", NewEntryView(entry))
	}
}

// POST /api/audit/entries/bulk
func AddBulkEntriesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		var body BulkEntriesRequest
		if err := validation.Body(c, &body); err != nil {
			return err
		}
		inputs := make([]EntryInput, 0, len(body.Entries))
		for _, e := range body.Entries {
			inputs = append(inputs, e.input())
		}

		result, err := svc.AddBulkEntries(c.UserContext(), actor, inputs)
		if err != nil {
			return err
		}
		return response.OK(c, "شمارش‌ها ثبت شد", newBulkView(result))
	}
}

// POST /api/audit/cycles/:id/entries/import
// multipart "file": xlsx count sheet. Error indexes are sheet row numbers.
func ImportEntriesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}

		header, err := c.FormFile("file")
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "فایل بارگذاری نشد").WithField("file", "الزامی است")
		}
		if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
			return apperr.Validation("فقط فایل xlsx پذیرفته می‌شود").WithField("file", "فقط فایل xlsx پذیرفته می‌شود")
		}
		file, err := header.Open()
		if err != nil {
			return apperr.Internal(err, "")
		}
		defer file.Close()

		rows, err := ParseCountSheet(file)
		if err != nil {
			return err
		}
		result, err := svc.ImportCounts(c.UserContext(), actor, id, rows)
		if err != nil {
			return err
		}
		return response.OK(c, "فایل شمارش ثبت شد", newBulkView(result))
	}
}

// GET /api/audit/cycles/:id/discrepancy-report
func ReportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		report, err := svc.GenerateReport(c.UserContext(), actor.TenantID, id)
		if err != nil {
			return err
		}
		return response.OK(c, "گزارش مغایرت", NewReportView(report))
	}
}

// POST /api/audit/entries/:id/apply-correction
func ApplyCorrectionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		var body ApplyCorrectionRequest
		if err := validation.Body(c, &body); err != nil {
			return err
		}
		entry, movement, err := svc.ApplyCorrection(c.UserContext(), actor, id, body.Reason)
		if err != nil {
			return err
		}
		return response.OK(c, "اصلاحیه موجودی ثبت شد", CorrectionView{
			Entry:      NewEntryView(entry),
			MovementID: movement.ID,
			Type:       string(movement.Type),
			Quantity:   movement.Quantity.InexactFloat64(),
		})
	}
}
