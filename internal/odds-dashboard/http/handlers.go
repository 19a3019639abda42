package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dashboard"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/repo"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/view"
)

// History é a leitura do histórico de refreshes (opcional)
type History interface {
	ListRefreshes(ctx context.Context, limit int) ([]repo.RefreshSummary, error)
	RecordsByRefresh(ctx context.Context, refreshID string) ([]dto.BetRecord, error)
}

// API expõe o contrato do dashboard para a camada de apresentação
type API struct {
	Log       *zap.Logger
	Dashboard *dashboard.Dashboard
	History   History          // nil desabilita /v1/refreshes
	WS        http.HandlerFunc // nil desabilita /ws
	Origins   []string         // CORS
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.Origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Post("/v1/refresh", a.refresh)         // Dispara um refresh (assíncrono)
	r.Get("/v1/status", a.status)            // Estado do último refresh
	r.Get("/v1/view", a.getView)             // View derivada do estado atual
	r.Get("/v1/stake", a.getStake)           // Cálculo avulso de stake
	r.Get("/v1/leagues", a.listLeagues)      // Ligas para o filtro
	r.Get("/v1/state", a.getState)           // Estado atual da view
	r.Put("/v1/state/sort", a.setSort)       // {"sortKey":"odds"}
	r.Put("/v1/state/league", a.setLeague)   // {"league":"Premier League"}
	r.Put("/v1/state/date-range", a.setDateRange)
	r.Delete("/v1/state/date-range", a.clearDateRange)
	r.Put("/v1/state/stake-percentage", a.setStakePercentage)
	r.Put("/v1/state/balance", a.setBalance)
	r.Get("/v1/refreshes", a.listRefreshes)
	r.Get("/v1/refreshes/{id}/records", a.refreshRecords)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// ViewResponse é a view derivada junto do stake e do status do refresh
type ViewResponse struct {
	Records     []dto.BetRecord  `json:"records"`
	Count       int              `json:"count"`
	StakeAmount string           `json:"stakeAmount"`
	State       view.State       `json:"state"`
	Status      dashboard.Status `json:"status"`
}

// refresh retorna 202 mesmo quando coalescido; started indica se um novo ciclo começou
func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	started := a.Dashboard.TriggerRefresh(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]bool{
		"started":    started,
		"refreshing": true,
	})
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Dashboard.Status())
}

// getView aceita sort, league, from e to na query para sobrepor o estado atual só nesta leitura
func (a *API) getView(w http.ResponseWriter, r *http.Request) {
	s := a.Dashboard.State()
	q := r.URL.Query()
	if q.Has("sort") {
		k, err := view.ParseSortKey(q.Get("sort"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.SortKey = k
	}
	if q.Has("league") {
		s.League = q.Get("league")
	}
	if q.Has("from") || q.Has("to") {
		rng, err := parseRange(q.Get("from"), q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.DateRange = rng
	}

	recs := a.Dashboard.GetView(s)
	writeJSON(w, http.StatusOK, ViewResponse{
		Records:     recs,
		Count:       len(recs),
		StakeAmount: view.ComputeStake(s.Balance, s.StakePercentage).StringFixed(2),
		State:       s,
		Status:      a.Dashboard.Status(),
	})
}

func (a *API) getStake(w http.ResponseWriter, r *http.Request) {
	s := a.Dashboard.State()
	balance, pct := s.Balance, s.StakePercentage
	q := r.URL.Query()
	if v := q.Get("balance"); v != "" {
		b, err := decimal.NewFromString(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid balance"))
			return
		}
		balance = b
	}
	if v := q.Get("percentage"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid percentage"))
			return
		}
		pct = p
	}
	stake, err := a.Dashboard.GetStakeAmount(balance, pct)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"balance":     balance.StringFixed(2),
		"percentage":  strconv.Itoa(pct),
		"stakeAmount": stake.StringFixed(2),
	})
}

func (a *API) listLeagues(w http.ResponseWriter, r *http.Request) {
	leagues := a.Dashboard.Leagues()
	if leagues == nil {
		leagues = []string{}
	}
	writeJSON(w, http.StatusOK, leagues)
}

func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Dashboard.State())
}

func (a *API) setSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SortKey string `json:"sortKey"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := a.Dashboard.SetSortKey(view.SortKey(req.SortKey)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Dashboard.State())
}

func (a *API) setLeague(w http.ResponseWriter, r *http.Request) {
	var req struct {
		League string `json:"league"`
	}
	if !decode(w, r, &req) {
		return
	}
	a.Dashboard.SetLeagueFilter(req.League)
	writeJSON(w, http.StatusOK, a.Dashboard.State())
}

func (a *API) setDateRange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start *time.Time `json:"start"`
		End   *time.Time `json:"end"`
	}
	if !decode(w, r, &req) {
		return
	}
	var rng *view.DateRange
	if req.Start != nil || req.End != nil {
		rng = &view.DateRange{}
		if req.Start != nil {
			rng.Start = *req.Start
		}
		if req.End != nil {
			rng.End = *req.End
		}
	}
	if err := a.Dashboard.SetDateRange(rng); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Dashboard.State())
}

func (a *API) clearDateRange(w http.ResponseWriter, r *http.Request) {
	_ = a.Dashboard.SetDateRange(nil)
	writeJSON(w, http.StatusOK, a.Dashboard.State())
}

func (a *API) setStakePercentage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StakePercentage int `json:"stakePercentage"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := a.Dashboard.SetStakePercentage(req.StakePercentage); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Dashboard.State())
}

func (a *API) setBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := a.Dashboard.SetBalance(req.Balance); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Dashboard.State())
}

func (a *API) listRefreshes(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		writeError(w, http.StatusNotFound, errors.New("history disabled"))
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be between 1 and 500"))
			return
		}
		limit = n
	}
	out, err := a.History.ListRefreshes(r.Context(), limit)
	if err != nil {
		a.Log.Warn("list refreshes failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) refreshRecords(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		writeError(w, http.StatusNotFound, errors.New("history disabled"))
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid refresh id"))
		return
	}
	recs, err := a.History.RecordsByRefresh(r.Context(), id)
	if err != nil {
		a.Log.Warn("refresh records failed", zap.String("refresh_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("bad json"))
		return false
	}
	return true
}

func parseRange(from, to string) (*view.DateRange, error) {
	var rng view.DateRange
	var err error
	if from != "" {
		if rng.Start, err = time.Parse(time.RFC3339, from); err != nil {
			return nil, errors.New("invalid from: expected RFC 3339")
		}
	}
	if to != "" {
		if rng.End, err = time.Parse(time.RFC3339, to); err != nil {
			return nil, errors.New("invalid to: expected RFC 3339")
		}
	}
	if from == "" && to == "" {
		return nil, nil
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &rng, nil
}
