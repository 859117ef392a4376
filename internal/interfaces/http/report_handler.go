package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/sales"
)

// ReportHandler reportes financieros (admin).
type ReportHandler struct {
	uc  *sales.ReportUseCase
	now func() time.Time
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *sales.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc, now: time.Now}
}

// Summary godoc
// @Summary      Resumen financiero del período
// @Description  Sin parámetros usa el mes corriente (UTC).
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD inclusive o RFC3339 exclusivo)"
// @Success      200   {object}  dto.SummaryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	now := h.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if v, err := parseDateParam(c.Query("from"), false); err != nil {
		return badRequest(c, "VALIDATION", "from inválido")
	} else if v != nil {
		from = *v
	}
	if v, err := parseDateParam(c.Query("to"), true); err != nil {
		return badRequest(c, "VALIDATION", "to inválido")
	} else if v != nil {
		to = *v
	}

	out, err := h.uc.Summary(c.UserContext(), actorFrom(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
