package dto

// LeagueSource define de onde vem o nome legível de uma liga
type LeagueSource int

const (
	// SourceStatic usa o nome configurado para a SportKey
	SourceStatic LeagueSource = iota
	// SourceProvider usa o sport_title enviado pelo provedor em cada jogo
	SourceProvider
)

// League é uma SportKey configurada e a origem do seu nome
type League struct {
	Key    string       `json:"key"`
	Name   string       `json:"name,omitempty"`
	Source LeagueSource `json:"-"`
}

// NewLeague cria a liga; nome vazio delega o nome ao provedor
func NewLeague(key, name string) League {
	if name == "" {
		return League{Key: key, Source: SourceProvider}
	}
	return League{Key: key, Name: name, Source: SourceStatic}
}

// DisplayName resolve o nome da liga para um jogo com o sport_title informado
func (l League) DisplayName(sportTitle string) string {
	if l.Source == SourceStatic {
		return l.Name
	}
	if sportTitle != "" {
		return sportTitle
	}
	return l.Key
}
