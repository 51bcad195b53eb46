package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lookup-values/internal/domain"
	"lookup-values/internal/repository"
	"lookup-values/internal/service"

	"go.uber.org/zap"
)

const lookupValuesPath = "/api/v1/lookup-values"

// LookupValuesHandler lookup value CRUD over HTTP. Writes run in one
// transaction each; events go out after commit.
type LookupValuesHandler struct {
	db      *repository.Database
	svc     *service.LookupValueService
	events  service.EventPublisher
	metrics *Metrics
	logger  *zap.Logger
}

func NewLookupValuesHandler(db *repository.Database, svc *service.LookupValueService, events service.EventPublisher, metrics *Metrics, logger *zap.Logger) *LookupValuesHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	return &LookupValuesHandler{db: db, svc: svc, events: events, metrics: metrics, logger: logger}
}

func (h *LookupValuesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, lookupValuesPath), "/")
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
	case id != "" && r.Method == http.MethodPut:
		h.Update(w, r, id)
	case id != "" && r.Method == http.MethodDelete:
		h.Delete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *LookupValuesHandler) List(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	values, err := h.svc.Find(r.Context(), h.db.DB)
	h.metrics.Observe("lookup_value.find", started, err)
	if err != nil {
		h.fail(w, "find", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(values))
}

func (h *LookupValuesHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	started := time.Now()
	value, err := h.svc.FindOne(r.Context(), h.db.DB, id)
	h.metrics.Observe("lookup_value.find_one", started, err)
	if err != nil {
		h.fail(w, "find_one", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(value))
}

func (h *LookupValuesHandler) Create(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var data domain.CreateLookupValue
	var created *domain.LookupValue
	err := decodeBody(r, &data)
	if err == nil {
		err = h.db.RunInTx(r.Context(), func(q repository.Querier) error {
			var err error
			created, err = h.svc.Create(r.Context(), q, data)
			return err
		})
	}
	h.metrics.Observe("lookup_value.create", started, err)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	h.publish(r.Context(), service.EventCreated, created)
	writeJSON(w, http.StatusCreated, Ok(created))
}

func (h *LookupValuesHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	started := time.Now()
	var data domain.UpdateLookupValue
	var updated *domain.LookupValue
	var changed bool
	err := decodeBody(r, &data)
	if err == nil {
		err = h.db.RunInTx(r.Context(), func(q repository.Querier) error {
			var err error
			updated, changed, err = h.svc.UpdateChanged(r.Context(), q, id, data)
			return err
		})
	}
	h.metrics.Observe("lookup_value.update", started, err)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	if changed {
		h.publish(r.Context(), service.EventUpdated, updated)
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

func (h *LookupValuesHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	started := time.Now()
	var deleted *domain.LookupValue
	err := h.db.RunInTx(r.Context(), func(q repository.Querier) error {
		var err error
		if deleted, err = h.svc.FindOne(r.Context(), q, id); err != nil {
			return err
		}
		return h.svc.Delete(r.Context(), q, id)
	})
	h.metrics.Observe("lookup_value.delete", started, err)
	if err != nil {
		h.fail(w, "delete", err)
		return
	}
	h.publish(r.Context(), service.EventDeleted, deleted)
	writeJSON(w, http.StatusOK, Ok(map[string]string{"uuid": id}))
}

// Export GET /api/v1/lookup-values/export
func (h *LookupValuesHandler) Export(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	data, err := h.svc.Export(r.Context(), h.db.DB)
	h.metrics.Observe("lookup_value.export", started, err)
	if err != nil {
		h.fail(w, "export", err)
		return
	}
	filename := fmt.Sprintf("lookup_values_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *LookupValuesHandler) publish(ctx context.Context, eventType string, v *domain.LookupValue) {
	if err := h.events.Publish(ctx, service.NewLookupValueEvent(eventType, v)); err != nil {
		h.logger.Warn("failed to publish lookup value event", zap.String("type", eventType), zap.Error(err))
	}
}

func (h *LookupValuesHandler) fail(w http.ResponseWriter, op string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Error("lookup value operation failed", zap.String("op", op), zap.Error(err))
	} else {
		h.logger.Debug("lookup value operation rejected", zap.String("op", op), zap.Error(err))
	}
	writeError(w, err)
}
