package aggregator

import (
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/provider"
)

// Flatten converte o payload de uma liga em BetRecords, mantendo só as odds dentro da faixa
// Ordem de emissão: jogo, casa, mercado, seleção, exatamente como o provedor enviou.
// Sem deduplicação: a mesma seleção em casas diferentes gera registros distintos.
func Flatten(games []provider.Game, league dto.League, band dto.OddsRange) []dto.BetRecord {
	var out []dto.BetRecord
	for _, g := range games {
		matchup := g.HomeTeam + " vs " + g.AwayTeam
		leagueName := league.DisplayName(g.SportTitle)
		for _, b := range g.Bookmakers {
			for _, m := range b.Markets {
				for _, o := range m.Outcomes {
					if !band.Contains(o.Price) {
						continue
					}
					out = append(out, dto.BetRecord{
						Matchup:      matchup,
						Team:         o.Name,
						Odds:         o.Price,
						Bookmaker:    b.Title,
						League:       leagueName,
						CommenceTime: g.CommenceTime.Time,
					})
				}
			}
		}
	}
	return out
}

// Aggregate concatena o resultado de Flatten para cada liga, na ordem recebida
func Aggregate(results []provider.Result, band dto.OddsRange) []dto.BetRecord {
	out := make([]dto.BetRecord, 0)
	for _, r := range results {
		out = append(out, Flatten(r.Games, r.League, band)...)
	}
	return out
}
