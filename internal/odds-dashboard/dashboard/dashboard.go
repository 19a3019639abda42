package dashboard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/aggregator"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/provider"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/view"
)

// ErrRefreshInProgress é devolvido quando já existe um refresh em andamento
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Fetcher é a fonte dos payloads brutos (implementado por *provider.Fetcher)
type Fetcher interface {
	FetchAll(ctx context.Context, leagues []dto.League) ([]provider.Result, error)
}

// Snapshot é o dataset completo de um refresh bem-sucedido
// Substituído inteiro a cada refresh, nunca alterado depois de publicado
type Snapshot struct {
	RefreshID  string          `json:"refreshId"`
	FetchedAt  time.Time       `json:"fetchedAt"`
	Band       dto.OddsRange   `json:"band"`
	SportKeys  []string        `json:"sportKeys"`
	FailedKeys []string        `json:"failedKeys,omitempty"`
	Records    []dto.BetRecord `json:"records"`
	Took       time.Duration   `json:"-"`
}

// Status resume o ciclo de refresh para a UI
// LastError != "" com Records > 0 significa que o dataset exibido é o último bom
type Status struct {
	Refreshing    bool       `json:"refreshing"`
	RefreshID     string     `json:"refreshId,omitempty"`
	LastRefreshAt *time.Time `json:"lastRefreshAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	LastErrorAt   *time.Time `json:"lastErrorAt,omitempty"`
	FailedKeys    []string   `json:"failedKeys,omitempty"`
	Records       int        `json:"records"`
}

// Options parametriza o Dashboard
type Options struct {
	Leagues      []dto.League
	Band         dto.OddsRange
	Timeout      time.Duration // timeout de um ciclo de refresh inteiro
	InitialState view.State
}

// Dashboard mantém o dataset atual e o estado da view, e coordena os refreshes
// Um único refresh por vez; o dataset é trocado atomicamente
type Dashboard struct {
	log     *zap.Logger
	fetcher Fetcher
	leagues []dto.League
	band    dto.OddsRange
	timeout time.Duration

	refreshing atomic.Bool
	snapshot   atomic.Pointer[Snapshot]

	mu        sync.RWMutex
	state     view.State
	lastErr   error
	lastErrAt time.Time

	OnRefreshed func(ctx context.Context, snap Snapshot) // após trocar o dataset
	OnError     func(stage string)                       // métricas por fase

	now func() time.Time
}

// New cria o Dashboard com dataset vazio
func New(log *zap.Logger, f Fetcher, opts Options) (*Dashboard, error) {
	if err := opts.InitialState.Validate(); err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	d := &Dashboard{
		log:     log,
		fetcher: f,
		leagues: opts.Leagues,
		band:    opts.Band,
		timeout: opts.Timeout,
		state:   opts.InitialState,
		now:     time.Now,
	}
	d.snapshot.Store(&Snapshot{Band: opts.Band, SportKeys: sportKeys(opts.Leagues), Records: []dto.BetRecord{}})
	return d, nil
}

// Refresh executa um ciclo completo de forma síncrona
// Devolve ErrRefreshInProgress sem buscar nada se outro ciclo estiver pendente
func (d *Dashboard) Refresh(ctx context.Context) error {
	if !d.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer d.refreshing.Store(false)
	return d.refresh(ctx)
}

// TriggerRefresh inicia um ciclo em background; false se outro já estiver pendente
func (d *Dashboard) TriggerRefresh(ctx context.Context) bool {
	if !d.refreshing.CompareAndSwap(false, true) {
		return false
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer d.refreshing.Store(false)
		_ = d.refresh(ctx) // erro já registrado em refresh
	}()
	return true
}

// Refreshing informa se há um ciclo pendente
func (d *Dashboard) Refreshing() bool { return d.refreshing.Load() }

func (d *Dashboard) refresh(ctx context.Context) error {
	start := d.now()
	refreshID := uuid.NewString()
	log := d.log.With(zap.String("refresh_id", refreshID))
	log.Info("refresh started", zap.Int("sport_keys", len(d.leagues)))

	fctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results, err := d.fetcher.FetchAll(fctx, d.leagues)
	var failedKeys []string
	if err != nil {
		var batch *provider.BatchError
		if !errors.As(err, &batch) || len(results) == 0 {
			d.fail(err)
			log.Warn("refresh failed, keeping last dataset", zap.Error(err))
			return err
		}
		failedKeys = batch.Keys()
		log.Warn("refresh partially failed", zap.Strings("failed_keys", failedKeys), zap.Error(err))
	}

	snap := &Snapshot{
		RefreshID:  refreshID,
		FetchedAt:  d.now().UTC(),
		Band:       d.band,
		SportKeys:  sportKeys(d.leagues),
		FailedKeys: failedKeys,
		Records:    aggregator.Aggregate(results, d.band),
	}
	snap.Took = d.now().Sub(start)
	d.snapshot.Store(snap)

	d.mu.Lock()
	if len(failedKeys) > 0 {
		d.lastErr, d.lastErrAt = err, snap.FetchedAt
	} else {
		d.lastErr, d.lastErrAt = nil, time.Time{}
	}
	d.mu.Unlock()

	log.Info("refresh completed",
		zap.Int("records", len(snap.Records)),
		zap.Duration("took", snap.Took),
	)

	if d.OnRefreshed != nil {
		d.OnRefreshed(ctx, *snap)
	}
	return nil
}

func (d *Dashboard) fail(err error) {
	d.mu.Lock()
	d.lastErr, d.lastErrAt = err, d.now().UTC()
	d.mu.Unlock()
	if d.OnError != nil {
		d.OnError("fetch")
	}
}

// Restore semeia o dataset com um snapshot salvo (warm start)
// Só aplica se ainda não houve refresh e se o snapshot foi gerado com as mesmas
// SportKeys (na mesma ordem) e a mesma faixa de odds; devolve true se aplicou
func (d *Dashboard) Restore(snap Snapshot) bool {
	if snap.Band != d.band || !slices.Equal(snap.SportKeys, sportKeys(d.leagues)) {
		return false
	}
	cur := d.snapshot.Load()
	if cur.RefreshID != "" {
		return false
	}
	if snap.Records == nil {
		snap.Records = []dto.BetRecord{}
	}
	return d.snapshot.CompareAndSwap(cur, &snap)
}

// Snapshot devolve o dataset atual. Records é compartilhado: não altere
func (d *Dashboard) Snapshot() Snapshot { return *d.snapshot.Load() }

// Dataset devolve os registros atuais (somente leitura)
func (d *Dashboard) Dataset() []dto.BetRecord { return d.snapshot.Load().Records }

// GetView deriva a view para um estado arbitrário
func (d *Dashboard) GetView(s view.State) []dto.BetRecord {
	return view.Derive(d.Dataset(), s)
}

// CurrentView deriva a view com o estado atual e devolve também o stake
func (d *Dashboard) CurrentView() ([]dto.BetRecord, view.State, decimal.Decimal) {
	s := d.State()
	return d.GetView(s), s, view.ComputeStake(s.Balance, s.StakePercentage)
}

// GetStakeAmount valida as entradas e calcula o stake
func (d *Dashboard) GetStakeAmount(balance decimal.Decimal, pct int) (decimal.Decimal, error) {
	if balance.IsNegative() {
		return decimal.Zero, view.ErrNegativeBalance
	}
	if pct < 1 || pct > 100 {
		return decimal.Zero, view.ErrStakePercentage
	}
	return view.ComputeStake(balance, pct), nil
}

// State devolve uma cópia do estado da view
func (d *Dashboard) State() view.State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.state
	if s.DateRange != nil {
		r := *s.DateRange
		s.DateRange = &r
	}
	return s
}

func (d *Dashboard) SetSortKey(k view.SortKey) error {
	k, err := view.ParseSortKey(string(k))
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.state.SortKey = k
	d.mu.Unlock()
	return nil
}

// SetLeagueFilter aceita "" ou "all" para remover o filtro
func (d *Dashboard) SetLeagueFilter(league string) {
	d.mu.Lock()
	d.state.League = league
	d.mu.Unlock()
}

// SetDateRange com nil remove o filtro de data
func (d *Dashboard) SetDateRange(r *view.DateRange) error {
	if r != nil {
		if err := r.Validate(); err != nil {
			return err
		}
		cp := *r
		r = &cp
	}
	d.mu.Lock()
	d.state.DateRange = r
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) SetStakePercentage(pct int) error {
	if pct < 1 || pct > 100 {
		return view.ErrStakePercentage
	}
	d.mu.Lock()
	d.state.StakePercentage = pct
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) SetBalance(b decimal.Decimal) error {
	if b.IsNegative() {
		return view.ErrNegativeBalance
	}
	d.mu.Lock()
	d.state.Balance = b
	d.mu.Unlock()
	return nil
}

// Status descreve o último ciclo de refresh
func (d *Dashboard) Status() Status {
	snap := d.snapshot.Load()
	st := Status{
		Refreshing: d.refreshing.Load(),
		RefreshID:  snap.RefreshID,
		FailedKeys: snap.FailedKeys,
		Records:    len(snap.Records),
	}
	if !snap.FetchedAt.IsZero() {
		t := snap.FetchedAt
		st.LastRefreshAt = &t
	}
	d.mu.RLock()
	if d.lastErr != nil {
		st.LastError = d.lastErr.Error()
		t := d.lastErrAt
		st.LastErrorAt = &t
	}
	d.mu.RUnlock()
	return st
}

// Leagues lista os nomes para o filtro: ligas com nome fixo na ordem configurada,
// depois os nomes vindos do provedor presentes no dataset
func (d *Dashboard) Leagues() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, l := range d.leagues {
		if l.Source == dto.SourceStatic {
			add(l.Name)
		}
	}
	for _, r := range d.Dataset() {
		add(r.League)
	}
	return out
}

func sportKeys(leagues []dto.League) []string {
	keys := make([]string, len(leagues))
	for i, l := range leagues {
		keys[i] = l.Key
	}
	return keys
}
