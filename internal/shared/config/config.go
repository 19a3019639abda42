package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	ctopics "github.com/radieske/odds-band-dashboard/pkg/contracts/topics"
)

// Políticas de coleta aceitas em FETCH_POLICY
const (
	PolicyFailFast   = "fail-fast"
	PolicyBestEffort = "best-effort"
)

// League associa uma SportKey do provedor a um nome legível.
// Name vazio significa que o nome vem do sport_title enviado pelo provedor.
type League struct {
	Key  string
	Name string
}

// Config centraliza variáveis de ambiente e parâmetros de execução dos serviços
// Inclui credencial do provedor, ligas, faixa de odds, estado inicial da view e integrações opcionais
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string // ex: "odds-dashboard", "odds-provider-simulator"
	LogLevel    string // vazio: padrão do ambiente

	// Provedor de odds
	OddsAPIKey     string
	OddsAPIBaseURL string
	Regions        string
	Leagues        []League

	// Faixa de odds (inclusiva) e estado inicial da view
	OddsRangeLow           float64
	OddsRangeHigh          float64
	InitialBalance         string // decimal em texto, ex: "1000.00"
	DefaultStakePercentage int
	DefaultSort            string

	// Coleta
	FetchPolicy      string
	FetchTimeout     time.Duration
	FetchConcurrency int

	// Integrações opcionais: vazio desabilita
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string // "a:9092,b:9092"
	SnapshotTTL  time.Duration

	// Tópicos/canais
	TopicOddsBandRefreshed string
	RedisPubSubChannel     string

	CORSAllowedOrigins []string

	// Portas do serviço atual
	HTTPPort    string // Porta pública (ex.: API REST)
	MetricsPort string // Porta exclusiva para /metrics e /healthz
}

// Load carrega variáveis de ambiente (e um .env opcional) e define defaults para cada serviço
// Resolve portas conforme o SERVICE_NAME
func Load() Config {
	_ = godotenv.Load() // .env é opcional

	svc := getEnv("SERVICE_NAME", "odds-dashboard")
	env := getEnv("ENV", "local")

	cfg := Config{
		Env:         env,
		ServiceName: svc,
		LogLevel:    getEnv("LOG_LEVEL", ""),

		OddsAPIKey:     getEnv("ODDS_API_KEY", ""),
		OddsAPIBaseURL: strings.TrimSuffix(getEnv("ODDS_API_BASE_URL", "https://api.the-odds-api.com/v4"), "/"),
		Regions:        getEnv("ODDS_REGIONS", "uk"),
		Leagues:        ParseLeagues(getEnv("SPORT_KEYS", "soccer_epl=Premier League")),

		OddsRangeLow:           getFloat("ODDS_RANGE_LOW", 1.3),
		OddsRangeHigh:          getFloat("ODDS_RANGE_HIGH", 1.6),
		InitialBalance:         getEnv("INITIAL_BALANCE", "1000"),
		DefaultStakePercentage: getInt("DEFAULT_STAKE_PERCENTAGE", 5),
		DefaultSort:            getEnv("DEFAULT_SORT", "time"),

		FetchPolicy:      getEnv("FETCH_POLICY", PolicyFailFast),
		FetchTimeout:     getDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchConcurrency: getInt("FETCH_CONCURRENCY", 4),

		PostgresDSN:  getEnv("POSTGRES_DSN", ""),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		SnapshotTTL:  getDuration("SNAPSHOT_TTL", 15*time.Minute),

		TopicOddsBandRefreshed: getEnv("KAFKA_TOPIC_ODDS_BAND", ctopics.OddsBandRefreshed),
		RedisPubSubChannel:     getEnv("REDIS_PUBSUB_CHANNEL", ctopics.OddsBandBroadcast),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	// Define portas padrão para cada serviço
	switch svc {
	case "odds-provider-simulator":
		cfg.HTTPPort = getEnv("HTTP_PORT_PROVIDER", "8081")
		cfg.MetricsPort = getEnv("METRICS_PORT_PROVIDER", "9094")
	default:
		cfg.HTTPPort = getEnv("HTTP_PORT", "8080")
		cfg.MetricsPort = getEnv("METRICS_PORT", "9095")
	}

	return cfg
}

// ParseLeagues interpreta "soccer_epl=Premier League,soccer_spain_la_liga"
// Entradas sem "=" ficam com Name vazio (nome vem do provedor)
func ParseLeagues(raw string) []League {
	var out []League
	for _, item := range splitList(raw) {
		key, name, _ := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out = append(out, League{Key: key, Name: strings.TrimSpace(name)})
	}
	return out
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
