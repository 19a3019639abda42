package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
)

// Policy define o comportamento de FetchAll quando uma SportKey falha
type Policy string

const (
	// FailFast aborta o ciclo inteiro na primeira falha e descarta resultados parciais
	FailFast Policy = "fail-fast"
	// BestEffort ignora as chaves que falharam e devolve as demais junto de um *BatchError
	BestEffort Policy = "best-effort"
)

// Parâmetros fixos da consulta
const (
	MarketHeadToHead = "h2h"
	OddsFormat       = "decimal"
)

// Options configura o cliente do provedor
type Options struct {
	BaseURL     string // ex: https://api.the-odds-api.com/v4
	APIKey      string
	Regions     string // ex: "uk"
	Policy      Policy
	Concurrency int           // requisições simultâneas por ciclo
	Timeout     time.Duration // timeout de cada requisição
	HTTP        *http.Client  // opcional
}

// Result é o payload bruto de uma liga
type Result struct {
	League dto.League
	Games  []Game
}

// Fetcher consulta o provedor de odds, uma requisição GET por SportKey
// Sem cache: cada ciclo busca novamente todas as chaves
type Fetcher struct {
	baseURL     string
	apiKey      string
	regions     string
	policy      Policy
	concurrency int
	http        *http.Client
	log         *zap.Logger

	// OnRequest é chamado ao fim de cada requisição (métricas)
	OnRequest func(sportKey string, err error, took time.Duration)
}

// New cria o Fetcher aplicando defaults para campos vazios
func New(opts Options, log *zap.Logger) *Fetcher {
	if opts.Policy == "" {
		opts.Policy = FailFast
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		regions:     opts.Regions,
		policy:      opts.Policy,
		concurrency: opts.Concurrency,
		http:        hc,
		log:         log,
	}
}

// Policy retorna a política configurada
func (f *Fetcher) Policy() Policy { return f.policy }

// FetchOne busca as odds de uma SportKey. Qualquer falha é devolvida como *FetchError
func (f *Fetcher) FetchOne(ctx context.Context, sportKey string) ([]Game, error) {
	start := time.Now()
	games, err := f.fetch(ctx, sportKey)
	f.report(sportKey, err, time.Since(start))
	return games, err
}

func (f *Fetcher) report(sportKey string, err error, took time.Duration) {
	if f.OnRequest != nil {
		f.OnRequest(sportKey, err, took)
	}
}

func (f *Fetcher) fetch(ctx context.Context, sportKey string) (games []Game, err error) {
	start := time.Now()
	q := url.Values{}
	q.Set("api_key", f.apiKey)
	q.Set("regions", f.regions)
	q.Set("markets", MarketHeadToHead)
	q.Set("oddsFormat", OddsFormat)
	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", f.baseURL, url.PathEscape(sportKey), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{SportKey: sportKey, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &FetchError{SportKey: sportKey, Err: redact(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			SportKey:   sportKey,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, &FetchError{SportKey: sportKey, Err: fmt.Errorf("decoding response: %w", err)}
	}

	f.log.Debug("odds fetched",
		zap.String("sport_key", sportKey),
		zap.Int("games", len(games)),
		zap.String("requests_remaining", resp.Header.Get("X-Requests-Remaining")),
		zap.Duration("latency", time.Since(start)),
	)
	return games, nil
}

// FetchAll busca todas as ligas em paralelo (limitado por Concurrency) com barreira de junção
// O resultado segue a ordem das ligas recebidas, independente da ordem de chegada
func (f *Fetcher) FetchAll(ctx context.Context, leagues []dto.League) ([]Result, error) {
	if f.policy == BestEffort {
		return f.fetchBestEffort(ctx, leagues)
	}
	return f.fetchFailFast(ctx, leagues)
}

func (f *Fetcher) fetchFailFast(ctx context.Context, leagues []dto.League) ([]Result, error) {
	results := make([]Result, len(leagues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, l := range leagues {
		g.Go(func() error {
			start := time.Now()
			games, err := f.fetch(gctx, l.Key)
			// requisições canceladas pela falha de outra chave não contam como falha desta
			if !canceledBySibling(ctx, gctx, err) {
				f.report(l.Key, err, time.Since(start))
			}
			if err != nil {
				return err
			}
			results[i] = Result{League: l, Games: games}
			return nil
		})
	}
	// errgroup devolve só o primeiro erro; os demais são cancelamentos derivados dele
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Fetcher) fetchBestEffort(ctx context.Context, leagues []dto.League) ([]Result, error) {
	results := make([]Result, len(leagues))
	failures := make([]*FetchError, len(leagues))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, l := range leagues {
		g.Go(func() error {
			games, err := f.FetchOne(ctx, l.Key)
			if err != nil {
				failures[i] = asFetchError(l.Key, err)
				return nil
			}
			results[i] = Result{League: l, Games: games}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(leagues))
	var failed []*FetchError
	for i := range leagues {
		if failures[i] != nil {
			failed = append(failed, failures[i])
			continue
		}
		out = append(out, results[i])
	}
	if len(failed) > 0 {
		return out, &BatchError{Failed: failed}
	}
	return out, nil
}

// canceledBySibling indica que err veio do cancelamento do grupo e não de uma falha própria.
// O net/http pode devolver context.Canceled ou a causa do cancelamento (o erro da outra chave).
func canceledBySibling(parent, group context.Context, err error) bool {
	if err == nil || parent.Err() != nil || group.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.Cause(group))
}

func asFetchError(sportKey string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{SportKey: sportKey, Err: err}
}

// redact remove a api_key da URL que o net/http inclui nos erros de transporte
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return &url.Error{Op: uerr.Op, URL: "<redacted>", Err: uerr.Err}
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}
