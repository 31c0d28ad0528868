package cluster

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// CheckFunc verifica uma dependência; nil significa saudável.
type CheckFunc func() error

// Report é o corpo JSON do /health. Checks traz "ok" ou a mensagem de erro de cada verificação.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthy informa se todas as verificações passaram.
func (r Report) Healthy() bool {
	return r.Status == "healthy"
}

// HealthAggregator junta verificações nomeadas atrás de um único endpoint, que o Consul consulta.
type HealthAggregator struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{checks: make(map[string]CheckFunc)}
}

// AddCheck registra (ou substitui) a verificação name.
func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Names devolve os nomes registrados em ordem alfabética.
func (h *HealthAggregator) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check roda todas as verificações e monta o relatório.
func (h *HealthAggregator) Check() Report {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, fn := range h.checks {
		checks[name] = fn
	}
	h.mu.RUnlock()

	report := Report{Status: "healthy", Checks: make(map[string]string, len(checks))}
	for name, fn := range checks {
		if err := fn(); err != nil {
			report.Status = "unhealthy"
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}

// Handler responde 200 com o relatório quando tudo passa e 503 caso contrário.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check()

		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(report)
	}
}
