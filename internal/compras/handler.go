package compras

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/httpx"
)

// Handler exposes read access to the purchase ledger. Writes happen
// through the receipt conversion flow, never directly.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers purchase ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/compras", func(r chi.Router) {
		r.Get("/", h.listCompras)
		r.Get("/{id}", h.getCompra)
	})
}

var mapaErrores = []httpx.Mapping{
	{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
}

func (h *Handler) listCompras(w http.ResponseWriter, r *http.Request) {
	proveedorID, _ := strconv.ParseInt(r.URL.Query().Get("proveedor_id"), 10, 64)
	reciboID, _ := strconv.ParseInt(r.URL.Query().Get("recibo_origen_id"), 10, 64)
	filtro := Filtro{
		ProveedorID:    proveedorID,
		ReciboOrigenID: reciboID,
		Buscar:         r.URL.Query().Get("buscar"),
	}
	lista, err := h.service.ListCompras(r.Context(), filtro)
	if err != nil {
		h.respondError(w, r, "list compras", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"compras": lista, "total": len(lista)})
}

func (h *Handler) getCompra(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id de compra invalido")
		return
	}
	compra, err := h.service.GetCompra(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get compra", err)
		return
	}
	httpx.JSON(w, http.StatusOK, compra)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !errors.Is(err, ErrValidation) && !errors.Is(err, ErrNotFound) {
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, err, mapaErrores...)
}
