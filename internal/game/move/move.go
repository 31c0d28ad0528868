package move

import (
	"strings"

	"github.com/pkg/errors"
)

// Move é uma das cinco jogadas possíveis. O valor da string é a forma usada no fio ("ROCK").
type Move string

const (
	Rock     Move = "ROCK"
	Paper    Move = "PAPER"
	Scissors Move = "SCISSORS"
	Lizard   Move = "LIZARD"
	Spock    Move = "SPOCK"
)

// ErrUnknownMove é retornado por Parse quando o texto não corresponde a nenhuma jogada.
var ErrUnknownMove = errors.New("unknown move")

var displayNames = map[Move]string{
	Rock:     "Rock",
	Paper:    "Paper",
	Scissors: "Scissors",
	Lizard:   "Lizard",
	Spock:    "Spock",
}

// All retorna as cinco jogadas na ordem canônica.
func All() []Move {
	return []Move{Rock, Paper, Scissors, Lizard, Spock}
}

// Parse converte texto (sem diferenciar maiúsculas) numa jogada válida.
func Parse(s string) (Move, error) {
	m := Move(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", errors.Wrapf(ErrUnknownMove, "%q", s)
	}
	return m, nil
}

// Valid informa se m é uma das cinco jogadas.
func (m Move) Valid() bool {
	_, ok := displayNames[m]
	return ok
}

// String devolve o nome de exibição ("Rock"), usado nas descrições de resultado.
func (m Move) String() string {
	if name, ok := displayNames[m]; ok {
		return name
	}
	return string(m)
}
