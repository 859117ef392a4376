package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/sales"
)

// SaleHandler ciclo de vida de ventas (protegido).
type SaleHandler struct {
	coordinator *sales.Coordinator
	receipts    *sales.ReceiptUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(coordinator *sales.Coordinator, receipts *sales.ReceiptUseCase) *SaleHandler {
	return &SaleHandler{coordinator: coordinator, receipts: receipts}
}

// Create godoc
// @Summary      Crear venta
// @Description  Reserva stock de las líneas de catálogo. Reenviar el mismo draft_id devuelve la venta ya creada.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Venta"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.ClientID == "" {
		return badRequest(c, "VALIDATION", "client_id es requerido")
	}
	s, err := h.coordinator.CreateSale(c.UserContext(), actorFrom(c), sales.DraftFromCreate(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sales.ToSaleResponse(s))
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	s, err := h.coordinator.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales.ToSaleResponse(s))
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        status             query  string  false  "pendente | entregue | cancelada"
// @Param        client_id          query  string  false  "Cliente"
// @Param        requires_approval  query  bool    false  "Solo ventas que esperan aprobación"
// @Param        from               query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to                 query  string  false  "Hasta (YYYY-MM-DD inclusive o RFC3339 exclusivo)"
// @Param        limit              query  int     false  "Límite"  default(20)
// @Param        offset             query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.SaleListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	q := dto.SaleListQuery{
		Status:      c.Query("status"),
		ClientID:    c.Query("client_id"),
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)},
	}
	if v := c.Query("requires_approval"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "VALIDATION", "requires_approval debe ser true o false")
		}
		q.RequiresApproval = &b
	}
	var err error
	if q.From, err = parseDateParam(c.Query("from"), false); err != nil {
		return badRequest(c, "VALIDATION", "from inválido")
	}
	if q.To, err = parseDateParam(c.Query("to"), true); err != nil {
		return badRequest(c, "VALIDATION", "to inválido")
	}

	filter := sales.FilterFromQuery(q)
	list, err := h.coordinator.ListSales(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.SaleListResponse{
		Items: make([]dto.SaleResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}
	for _, s := range list {
		out.Items = append(out.Items, sales.ToSaleResponse(s))
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar venta pendiente (admin)
// @Description  Aplica solo la diferencia neta de reservas por producto. El cliente no puede cambiar.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "Nuevo contenido"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [put]
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	s, err := h.coordinator.EditSale(c.UserContext(), actorFrom(c), c.Params("id"), sales.DraftFromUpdate(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales.ToSaleResponse(s))
}

// Deliver godoc
// @Summary      Confirmar entrega
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/deliver [post]
func (h *SaleHandler) Deliver(c *fiber.Ctx) error {
	s, err := h.coordinator.ConfirmDelivery(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales.ToSaleResponse(s))
}

// Cancel godoc
// @Summary      Cancelar venta (admin)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	s, err := h.coordinator.CancelSale(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales.ToSaleResponse(s))
}

// Approve godoc
// @Summary      Aprobar ítems personalizados (admin)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/approve [post]
func (h *SaleHandler) Approve(c *fiber.Ctx) error {
	s, err := h.coordinator.ApproveSale(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales.ToSaleResponse(s))
}

// Receipt godoc
// @Summary      Comprobante PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	pdf, filename, err := h.receipts.Receipt(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

// parseDateParam acepta YYYY-MM-DD o RFC3339. Con endOfDay, una fecha simple
// se convierte en el inicio del día siguiente (límite exclusivo).
func parseDateParam(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
