package simulator

import (
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/provider"
)

// Catálogo fixo de partidas simuladas por sport key
var catalog = map[string]struct {
	title string
	games [][2]string
}{
	"soccer_epl": {"EPL", [][2]string{
		{"Arsenal", "Chelsea"}, {"Liverpool", "Everton"}, {"Manchester City", "Tottenham Hotspur"},
	}},
	"soccer_spain_la_liga": {"La Liga - Spain", [][2]string{
		{"Barcelona", "Sevilla"}, {"Real Madrid", "Valencia"},
	}},
	"soccer_brazil_campeonato": {"Brazil Série A", [][2]string{
		{"Flamengo", "Palmeiras"}, {"Grêmio", "Internacional"}, {"Corinthians", "Santos"},
	}},
	"soccer_italy_serie_a": {"Serie A - Italy", [][2]string{
		{"Inter Milan", "Juventus"}, {"Napoli", "AS Roma"},
	}},
	"soccer_germany_bundesliga": {"Bundesliga - Germany", [][2]string{
		{"Bayern Munich", "Borussia Dortmund"},
	}},
}

var bookmakers = []struct{ key, title string }{
	{"williamhill", "William Hill"},
	{"betfair_ex_uk", "Betfair"},
	{"paddypower", "Paddy Power"},
	{"skybet", "Sky Bet"},
}

// Options configura o simulador
type Options struct {
	APIKey      string  // vazio aceita qualquer chave
	FailureRate float64 // fração de requisições respondidas com 500
	Seed        int64
}

// Simulator gera respostas no formato /sports/{sport}/odds com preços aleatórios
type Simulator struct {
	opts Options
	log  *zap.Logger
	mu   sync.Mutex
	rnd  *rand.Rand
	now  func() time.Time

	OnRequest func(sportKey string, status int) // métricas
}

func New(opts Options, log *zap.Logger) *Simulator {
	return &Simulator{
		opts: opts,
		log:  log,
		rnd:  rand.New(rand.NewSource(opts.Seed)),
		now:  time.Now,
	}
}

// FailureRateFromEnv lê SIMULATOR_FAILURE_RATE (0 a 1)
func FailureRateFromEnv() float64 {
	f, err := strconv.ParseFloat(os.Getenv("SIMULATOR_FAILURE_RATE"), 64)
	if err != nil || f < 0 {
		return 0
	}
	return math.Min(f, 1)
}

// Router monta as rotas públicas do simulador
func (s *Simulator) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v4/sports", s.listSports)
	mux.HandleFunc("GET /v4/sports/{sport}/odds", s.odds)
	return mux
}

func (s *Simulator) listSports(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid api key"})
		return
	}
	type sport struct {
		Key   string `json:"key"`
		Title string `json:"title"`
	}
	out := make([]sport, 0, len(catalog))
	for k, v := range catalog {
		out = append(out, sport{Key: k, Title: v.title})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Simulator) odds(w http.ResponseWriter, r *http.Request) {
	sportKey := r.PathValue("sport")
	status := http.StatusOK
	defer func() {
		if s.OnRequest != nil {
			s.OnRequest(sportKey, status)
		}
	}()

	if !s.authorized(r) {
		status = http.StatusUnauthorized
		s.log.Warn("rejected request with invalid api key", zap.String("sport_key", sportKey))
		writeJSON(w, status, map[string]string{"message": "invalid api key"})
		return
	}
	entry, ok := catalog[sportKey]
	if !ok {
		status = http.StatusNotFound
		writeJSON(w, status, map[string]string{"message": "unknown sport"})
		return
	}
	if s.fail() {
		status = http.StatusInternalServerError
		s.log.Info("simulated failure", zap.String("sport_key", sportKey))
		writeJSON(w, status, map[string]string{"message": "simulated failure"})
		return
	}

	games := s.games(sportKey, entry.title, entry.games)
	w.Header().Set("X-Requests-Remaining", "500")
	s.log.Debug("odds served", zap.String("sport_key", sportKey), zap.Int("games", len(games)))

	// dateFormat=unix devolve commence_time em epoch segundos
	if r.URL.Query().Get("dateFormat") == "unix" {
		writeJSON(w, status, unixGames(games))
		return
	}
	writeJSON(w, status, games)
}

func (s *Simulator) authorized(r *http.Request) bool {
	return s.opts.APIKey == "" || r.URL.Query().Get("api_key") == s.opts.APIKey
}

func (s *Simulator) fail() bool {
	if s.opts.FailureRate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < s.opts.FailureRate
}

// games monta o payload de uma liga; jogos começam em intervalos de 3h a partir da próxima hora
func (s *Simulator) games(sportKey, title string, matchups [][2]string) []provider.Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.now().UTC().Truncate(time.Hour).Add(time.Hour)
	out := make([]provider.Game, len(matchups))
	for i, m := range matchups {
		g := provider.Game{
			ID:           sportKey + "_" + strconv.Itoa(i+1),
			SportKey:     sportKey,
			SportTitle:   title,
			CommenceTime: provider.KickoffTime{Time: base.Add(time.Duration(3*i) * time.Hour)},
			HomeTeam:     m[0],
			AwayTeam:     m[1],
		}
		for _, b := range bookmakers {
			g.Bookmakers = append(g.Bookmakers, provider.Bookmaker{
				Key:   b.key,
				Title: b.title,
				Markets: []provider.Market{{
					Key: provider.MarketHeadToHead,
					Outcomes: []provider.Outcome{
						{Name: m[0], Price: s.price(1.15, 3.50)},
						{Name: m[1], Price: s.price(1.40, 5.00)},
						{Name: "Draw", Price: s.price(2.50, 4.50)},
					},
				}},
			})
		}
		out[i] = g
	}
	return out
}

// price gera um preço decimal com 2 casas entre min e max
func (s *Simulator) price(min, max float64) float64 {
	return math.Round((s.rnd.Float64()*(max-min)+min)*100) / 100
}

type unixGame struct {
	provider.Game
	CommenceTime int64 `json:"commence_time"`
}

func unixGames(games []provider.Game) []unixGame {
	out := make([]unixGame, len(games))
	for i, g := range games {
		out[i] = unixGame{Game: g, CommenceTime: g.CommenceTime.Unix()}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
