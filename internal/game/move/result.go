package move

// Result é o veredito de uma rodada orientado a um jogador. É o conteúdo (cifrado) da mensagem RESULT.
type Result struct {
	Round        int    `json:"round"`
	Draw         bool   `json:"draw"`
	Winner       string `json:"winner,omitempty"`
	YourMove     Move   `json:"yourMove"`
	OpponentMove Move   `json:"opponentMove"`
	WinningMove  Move   `json:"winningMove"`
	LosingMove   Move   `json:"losingMove"`
	Description  string `json:"description"`
}

// NewResult monta o resultado da rodada do ponto de vista de player.
func NewResult(round int, player, opponent string, mine, theirs Move) Result {
	v := Compare(mine, theirs)

	r := Result{
		Round:        round,
		YourMove:     mine,
		OpponentMove: theirs,
		WinningMove:  v.Winner,
		LosingMove:   v.Loser,
		Description:  v.Rationale,
	}

	switch v.Outcome {
	case FirstWins:
		r.Winner = player
	case SecondWins:
		r.Winner = opponent
	case Draw:
		r.Draw = true
	}
	return r
}

// Won informa se player venceu a rodada.
func (r Result) Won(player string) bool {
	return !r.Draw && r.Winner == player
}
