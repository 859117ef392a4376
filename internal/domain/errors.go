package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Validación del borrador de venta.
	ErrInvalidItem       = errors.New("ítem inválido")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInvalidCustomItem = errors.New("ítem personalizado inválido")
	ErrPaymentMismatch   = errors.New("pagos no coinciden con el total")
	ErrInvalidPayment    = errors.New("pago inválido")

	// Ledger y máquina de estados.
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrApprovalRequired   = errors.New("la venta requiere aprobación")
	ErrInvalidState       = errors.New("estado inválido para la operación")
	ErrContention         = errors.New("contención de bloqueo, intente de nuevo")
	ErrInvariantViolation = errors.New("violación de invariante del ledger")
)

// Códigos estables expuestos por la API y las métricas.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeDuplicate          = "DUPLICATE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidItem        = "INVALID_ITEM"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidCustomItem  = "INVALID_CUSTOM_ITEM"
	CodePaymentMismatch    = "PAYMENT_MISMATCH"
	CodeInvalidPayment     = "INVALID_PAYMENT"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeApprovalRequired   = "APPROVAL_REQUIRED"
	CodeInvalidState       = "INVALID_STATE"
	CodeContention         = "CONTENTION"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeInternal           = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrDuplicate, CodeDuplicate},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrForbidden, CodeForbidden},
	{ErrInvalidItem, CodeInvalidItem},
	{ErrInvalidQuantity, CodeInvalidQuantity},
	{ErrInvalidCustomItem, CodeInvalidCustomItem},
	{ErrPaymentMismatch, CodePaymentMismatch},
	{ErrInvalidPayment, CodeInvalidPayment},
	{ErrInsufficientStock, CodeInsufficientStock},
	{ErrApprovalRequired, CodeApprovalRequired},
	{ErrInvalidState, CodeInvalidState},
	{ErrContention, CodeContention},
	{ErrInvariantViolation, CodeInvariantViolation},
}

// ErrorCode devuelve el código estable del primer error de dominio en la cadena; INTERNAL si no hay.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
