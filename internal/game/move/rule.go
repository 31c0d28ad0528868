package move

// Constantes para representar o resultado da comparação de duas jogadas.
type Outcome int

const (
	FirstWins  Outcome = 1
	SecondWins Outcome = -1
	Draw       Outcome = 0
)

// winConditions define a regra do jogo: a chave vence as duas jogadas do valor.
var winConditions = map[Move][2]Move{
	Rock:     {Scissors, Lizard},
	Paper:    {Rock, Spock},
	Scissors: {Paper, Lizard},
	Lizard:   {Paper, Spock},
	Spock:    {Rock, Scissors},
}

// rationales guarda a frase de cada vitória, indexada por (vencedor, perdedor).
var rationales = map[[2]Move]string{
	{Rock, Scissors}:   "Rock crushes Scissors",
	{Rock, Lizard}:     "Rock crushes Lizard",
	{Paper, Rock}:      "Paper covers Rock",
	{Paper, Spock}:     "Paper disproves Spock",
	{Scissors, Paper}:  "Scissors cuts Paper",
	{Scissors, Lizard}: "Scissors decapitates Lizard",
	{Lizard, Paper}:    "Lizard eats Paper",
	{Lizard, Spock}:    "Lizard poisons Spock",
	{Spock, Rock}:      "Spock vaporizes Rock",
	{Spock, Scissors}:  "Spock smashes Scissors",
}

// Verdict é o resultado de Compare. Em empate Winner e Loser carregam a mesma jogada.
type Verdict struct {
	Outcome   Outcome
	Winner    Move
	Loser     Move
	Rationale string
}

// Beats informa se a vence b.
func Beats(a, b Move) bool {
	beaten, ok := winConditions[a]
	if !ok {
		return false
	}
	return beaten[0] == b || beaten[1] == b
}

// Compare executa a regra entre a jogada do primeiro jogador (a) e a do segundo (b).
// Jogadas inválidas são erro de programação: devem ser filtradas por Parse antes.
func Compare(a, b Move) Verdict {
	if !a.Valid() || !b.Valid() {
		panic("move: compare called with an invalid move")
	}

	if a == b {
		return Verdict{
			Outcome:   Draw,
			Winner:    a,
			Loser:     b,
			Rationale: "Draw - both players chose " + a.String(),
		}
	}

	if Beats(a, b) {
		return Verdict{Outcome: FirstWins, Winner: a, Loser: b, Rationale: rationales[[2]Move{a, b}]}
	}

	return Verdict{Outcome: SecondWins, Winner: b, Loser: a, Rationale: rationales[[2]Move{b, a}]}
}
