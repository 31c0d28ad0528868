package session

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"rpsls/internal/game/move"
)

// Fases da rodada.
const (
	RoundEmpty     = "empty"       // Nenhuma jogada registrada.
	RoundOneMoveIn = "one_move_in" // Um jogador já jogou, aguardando o outro.
	RoundSettled   = "settled"     // As duas jogadas chegaram; o resultado pode ser lido.
)

var (
	ErrMoveAlreadyRegistered = errors.New("move already registered this round")
	ErrRoomEnded             = errors.New("game room has ended")
	ErrRoundNotSettled       = errors.New("round not settled")
)

// GameRoom é a partida entre dois jogadores. Sincroniza as jogadas simultâneas de cada rodada.
// Todo método é uma única seção crítica que não faz I/O; quem notifica os jogadores é o chamador.
type GameRoom struct {
	ID string

	players [2]string

	mu      sync.Mutex
	round   int
	moves   map[string]move.Move
	settled bool
	results map[string]move.Result
	ready   map[string]struct{}
	ended   bool
}

// NewGameRoom cria a sala já na rodada 1.
func NewGameRoom(id, p1, p2 string) *GameRoom {
	return &GameRoom{
		ID:      id,
		players: [2]string{p1, p2},
		round:   1,
		moves:   make(map[string]move.Move, 2),
		results: make(map[string]move.Result, 2),
		ready:   make(map[string]struct{}, 2),
	}
}

// Players devolve os dois jogadores na ordem de pareamento.
func (gr *GameRoom) Players() []string {
	return []string{gr.players[0], gr.players[1]}
}

// Opponent devolve o adversário de player.
func (gr *GameRoom) Opponent(player string) string {
	switch player {
	case gr.players[0]:
		return gr.players[1]
	case gr.players[1]:
		return gr.players[0]
	}
	panic(fmt.Sprintf("session: %q is not a member of room %s", player, gr.ID))
}

func (gr *GameRoom) mustBeMember(player string) {
	if player != gr.players[0] && player != gr.players[1] {
		panic(fmt.Sprintf("session: %q is not a member of room %s", player, gr.ID))
	}
}

// RegisterMove registra a jogada da rodada atual. settled é true somente para a chamada
// que completou a rodada, exatamente uma vez por rodada.
func (gr *GameRoom) RegisterMove(player string, m move.Move) (settled bool, err error) {
	gr.mustBeMember(player)

	gr.mu.Lock()
	defer gr.mu.Unlock()

	if gr.ended {
		return false, ErrRoomEnded
	}
	if _, alreadyPlayed := gr.moves[player]; alreadyPlayed {
		return false, ErrMoveAlreadyRegistered
	}

	gr.moves[player] = m
	if len(gr.moves) < len(gr.players) {
		return false, nil
	}

	gr.settled = true
	return true, nil
}

// ResultFor devolve o resultado da rodada do ponto de vista de player.
// Pedir antes da rodada estar decidida é erro de programação.
func (gr *GameRoom) ResultFor(player string) move.Result {
	gr.mustBeMember(player)

	gr.mu.Lock()
	defer gr.mu.Unlock()

	if !gr.settled {
		panic(fmt.Sprintf("session: result for %q requested before room %s settled", player, gr.ID))
	}

	if r, ok := gr.results[player]; ok {
		return r
	}

	opponent := gr.opponentLocked(player)
	r := move.NewResult(gr.round, player, opponent, gr.moves[player], gr.moves[opponent])
	gr.results[player] = r
	return r
}

func (gr *GameRoom) opponentLocked(player string) string {
	if gr.players[0] == player {
		return gr.players[1]
	}
	return gr.players[0]
}

// MarkReady marca player como pronto. Quando os dois estão prontos a rodada é reiniciada
// na mesma seção crítica e reset volta true; o chamador então anuncia GAME_START.
func (gr *GameRoom) MarkReady(player string) (reset bool, err error) {
	gr.mustBeMember(player)

	gr.mu.Lock()
	defer gr.mu.Unlock()

	if gr.ended {
		return false, ErrRoomEnded
	}
	if !gr.settled {
		return false, ErrRoundNotSettled
	}

	gr.ready[player] = struct{}{}
	if len(gr.ready) < len(gr.players) {
		return false, nil
	}

	gr.resetLocked()
	return true, nil
}

// ResetRound limpa jogadas, resultado e prontidão e avança o contador de rodadas.
func (gr *GameRoom) ResetRound() {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	gr.resetLocked()
}

func (gr *GameRoom) resetLocked() {
	gr.moves = make(map[string]move.Move, 2)
	gr.results = make(map[string]move.Result, 2)
	gr.ready = make(map[string]struct{}, 2)
	gr.settled = false
	gr.round++
}

// End encerra a sala de vez. Jogadas e prontidão posteriores são recusadas com ErrRoomEnded.
// Devolve false se a sala já estava encerrada.
func (gr *GameRoom) End() bool {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	if gr.ended {
		return false
	}
	gr.ended = true
	return true
}

func (gr *GameRoom) Ended() bool {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.ended
}

func (gr *GameRoom) Round() int {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.round
}

// Phase devolve a fase atual da rodada (RoundEmpty, RoundOneMoveIn ou RoundSettled).
func (gr *GameRoom) Phase() string {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	switch {
	case gr.settled:
		return RoundSettled
	case len(gr.moves) > 0:
		return RoundOneMoveIn
	default:
		return RoundEmpty
	}
}
