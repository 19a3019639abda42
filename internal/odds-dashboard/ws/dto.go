package ws

import "github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"

// AllLeagues é a chave de inscrição que recebe o dataset inteiro
const AllLeagues = "all"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// League: obrigatório para subscribe/unsubscribe ("all" para todas)
type ClientMsg struct {
	Type   string `json:"type"`
	League string `json:"league"`
}

// ServerMsg confirma comandos do cliente
type ServerMsg struct {
	Type   string `json:"type"` // subscribed | unsubscribed | pong | error
	League string `json:"league,omitempty"`
}

// LeagueUpdate é enviado aos inscritos de uma liga após cada refresh bem-sucedido
type LeagueUpdate struct {
	League    string          `json:"league"`
	RefreshID string          `json:"refreshId"`
	Records   []dto.BetRecord `json:"records"`
}

// BuildUpdates agrupa o dataset por liga e inclui uma atualização "all"
// A ordem dos registros dentro de cada liga é a do dataset
func BuildUpdates(refreshID string, records []dto.BetRecord) []LeagueUpdate {
	byLeague := make(map[string][]dto.BetRecord)
	var order []string
	for _, r := range records {
		if _, ok := byLeague[r.League]; !ok {
			order = append(order, r.League)
		}
		byLeague[r.League] = append(byLeague[r.League], r)
	}
	out := make([]LeagueUpdate, 0, len(order)+1)
	out = append(out, LeagueUpdate{League: AllLeagues, RefreshID: refreshID, Records: records})
	for _, l := range order {
		out = append(out, LeagueUpdate{League: l, RefreshID: refreshID, Records: byLeague[l]})
	}
	return out
}
