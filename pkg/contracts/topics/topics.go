package topics

const (
	// Odds band
	OddsBandRefreshed = "odds_band_refreshed"

	// Redis Pub/Sub usado pelo hub WebSocket
	OddsBandBroadcast = "odds_band_broadcast"
)
