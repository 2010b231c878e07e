package proveedores

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/shared"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/httpx"
)

// Handler wires the supplier directory endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/proveedores", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/options", h.options)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type proveedorRequest struct {
	Nombre    string `json:"nombre" validate:"required"`
	CUIT      string `json:"cuit"`
	Email     string `json:"email" validate:"omitempty,email"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
	Notas     string `json:"notas"`
}

func (req proveedorRequest) toModel() Proveedor {
	return Proveedor{
		Nombre:    req.Nombre,
		CUIT:      req.CUIT,
		Email:     req.Email,
		Telefono:  req.Telefono,
		Direccion: req.Direccion,
		Notas:     req.Notas,
	}
}

var mapaErrores = []httpx.Mapping{
	{Err: shared.ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: shared.ErrInvalidID, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: shared.ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Err: shared.ErrDuplicate, Status: http.StatusConflict, Title: "Duplicate"},
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = shared.DefaultPage
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = shared.DefaultLimit
	}
	filters := shared.ListFilters{
		Page:    page,
		Limit:   limit,
		Buscar:  r.URL.Query().Get("buscar"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
	lista, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, "list proveedores", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"proveedores": lista, "total": total})
}

func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	opciones, err := h.service.Options(r.Context())
	if err != nil {
		h.respondError(w, "proveedor options", err)
		return
	}
	httpx.JSON(w, http.StatusOK, opciones)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get proveedor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req proveedorRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.service.Create(r.Context(), req.toModel())
	if err != nil {
		h.respondError(w, "create proveedor", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req proveedorRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Update(r.Context(), id, req.toModel()); err != nil {
		h.respondError(w, "update proveedor", err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "update proveedor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete proveedor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrNotFound) &&
		!errors.Is(err, shared.ErrInvalidID) && !errors.Is(err, shared.ErrDuplicate) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err, mapaErrores...)
}
