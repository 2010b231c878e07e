package importaciones

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/httpx"
)

// Handler wires the import receipt endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers receipt routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/recibos", func(r chi.Router) {
		r.Get("/", h.listRecibos)
		r.Post("/", h.createRecibo)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getRecibo)
			r.Put("/", h.updateRecibo)
			r.Delete("/", h.deleteRecibo)
			r.Post("/avanzar", h.avanzar)
			r.Post("/revertir", h.revertir)
			r.Post("/arribo-deposito", h.marcarArribo)
			r.Post("/recepcion", h.recepcionar)
			r.Post("/editar", h.editar)
			r.Post("/convertir", h.convertir)
		})
	})
}

func (h *Handler) listRecibos(w http.ResponseWriter, r *http.Request) {
	proveedorID, _ := strconv.ParseInt(r.URL.Query().Get("proveedor_id"), 10, 64)
	filtro := FiltroRecibos{
		Estado:      EstadoRecibo(r.URL.Query().Get("estado")),
		ProveedorID: proveedorID,
		Buscar:      r.URL.Query().Get("buscar"),
	}
	recibos, err := h.service.ListRecibos(r.Context(), filtro)
	if err != nil {
		h.respondError(w, r, "list recibos", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"recibos": recibos, "total": len(recibos)})
}

func (h *Handler) getRecibo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	recibo, err := h.service.GetRecibo(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get recibo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recibo)
}

func (h *Handler) createRecibo(w http.ResponseWriter, r *http.Request) {
	var req crearReciboRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.respondError(w, r, "create recibo", err)
		return
	}
	recibo, err := h.service.CrearRecibo(r.Context(), input)
	if err != nil {
		h.respondError(w, r, "create recibo", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, recibo)
}

func (h *Handler) updateRecibo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	var req actualizarReciboRequest
	if !h.decode(w, r, &req) {
		return
	}
	cambios, err := req.toHeaderUpdate()
	if err != nil {
		h.respondError(w, r, "update recibo", err)
		return
	}
	recibo, err := h.service.ActualizarRecibo(r.Context(), id, cambios)
	if err != nil {
		h.respondError(w, r, "update recibo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recibo)
}

func (h *Handler) deleteRecibo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	if err := h.service.EliminarRecibo(r.Context(), id); err != nil {
		h.respondError(w, r, "delete recibo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) avanzar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	recibo, err := h.service.Avanzar(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "avanzar recibo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recibo)
}

func (h *Handler) revertir(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	recibo, err := h.service.Revertir(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "revertir recibo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recibo)
}

func (h *Handler) marcarArribo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	var req arriboRequest
	if !h.decode(w, r, &req) {
		return
	}
	fecha, err := time.Parse(formatoFecha, req.Fecha)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "fecha invalida")
		return
	}
	recibo, err := h.service.MarcarArriboDepositoUSA(r.Context(), id, fecha)
	if err != nil {
		h.respondError(w, r, "marcar arribo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recibo)
}

func (h *Handler) recepcionar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	var req recepcionRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.respondError(w, r, "recepcionar recibo", err)
		return
	}
	recibo, err := h.service.Recepcionar(r.Context(), id, input)
	if err != nil {
		h.respondError(w, r, "recepcionar recibo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recibo)
}

func (h *Handler) editar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	var req edicionRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.respondError(w, r, "editar recibo", err)
		return
	}
	recibo, err := h.service.EditarRecibo(r.Context(), id, input)
	if err != nil {
		h.respondError(w, r, "editar recibo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recibo)
}

func (h *Handler) convertir(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reciboID(w, r)
	if !ok {
		return
	}
	var req conversionRequest
	if !h.decode(w, r, &req) {
		return
	}
	generadas, err := h.service.ConvertirACompra(r.Context(), id, req.PreciosEditados)
	if err != nil {
		h.respondError(w, r, "convertir recibo", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"compras": generadas})
}

func (h *Handler) reciboID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id de recibo invalido")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cuerpo JSON invalido")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fieldErrs[0].Error())
			return false
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "datos invalidos")
		return false
	}
	return true
}

// mapaErrores drives the HTTP mapping for every receipt endpoint.
// Storage rejections keep their message so the operator sees the real
// cause instead of a generic failure.
var mapaErrores = []httpx.Mapping{
	{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Err: ErrInvalidState, Status: http.StatusConflict, Title: "Invalid State"},
	{Err: ErrPersistence, Status: http.StatusInternalServerError, Title: "Storage Error"},
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !errors.Is(err, ErrValidation) && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidState) {
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, err, mapaErrores...)
}
