package httpapi

import (
	"net/http"
	"strings"
	"time"

	"lookup-values/internal/domain"
	"lookup-values/internal/repository"
	"lookup-values/internal/service"

	"go.uber.org/zap"
)

const lookupsPath = "/api/v1/lookups"

// LookupsHandler manages the lookups table the lookup values hang off.
type LookupsHandler struct {
	db      *repository.Database
	svc     *service.LookupService
	metrics *Metrics
	logger  *zap.Logger
}

func NewLookupsHandler(db *repository.Database, svc *service.LookupService, metrics *Metrics, logger *zap.Logger) *LookupsHandler {
	return &LookupsHandler{db: db, svc: svc, metrics: metrics, logger: logger}
}

func (h *LookupsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, lookupsPath), "/")
	if strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.List(w, r)
	case id == "" && r.Method == http.MethodPost:
		h.Create(w, r)
	case id != "" && r.Method == http.MethodGet:
		h.Get(w, r, id)
	case id != "" && r.Method == http.MethodDelete:
		h.Delete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *LookupsHandler) List(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	lookups, err := h.svc.Find(r.Context(), h.db.DB)
	h.metrics.Observe("lookup.find", started, err)
	if err != nil {
		h.fail(w, "find", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(lookups))
}

func (h *LookupsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	started := time.Now()
	lookup, err := h.svc.FindOne(r.Context(), h.db.DB, id)
	h.metrics.Observe("lookup.find_one", started, err)
	if err != nil {
		h.fail(w, "find_one", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(lookup))
}

func (h *LookupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var data domain.CreateLookup
	var created *domain.Lookup
	err := decodeBody(r, &data)
	if err == nil {
		err = h.db.RunInTx(r.Context(), func(q repository.Querier) error {
			var err error
			created, err = h.svc.Create(r.Context(), q, data)
			return err
		})
	}
	h.metrics.Observe("lookup.create", started, err)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(created))
}

func (h *LookupsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	started := time.Now()
	err := h.db.RunInTx(r.Context(), func(q repository.Querier) error {
		return h.svc.Delete(r.Context(), q, id)
	})
	h.metrics.Observe("lookup.delete", started, err)
	if err != nil {
		h.fail(w, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"uuid": id}))
}

func (h *LookupsHandler) fail(w http.ResponseWriter, op string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Error("lookup operation failed", zap.String("op", op), zap.Error(err))
	}
	writeError(w, err)
}
