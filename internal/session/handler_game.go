package session

import (
	"github.com/pkg/errors"

	"rpsls/internal/protocol"
	"rpsls/internal/session/message"
)

func (h *GameHandler) registerGameHandlers() {
	h.route(StateInRound, protocol.KindMove, handleMove)
	h.route(StateAwaitingReadiness, protocol.KindReady, handleReady)
}

// handleMove registra a jogada. Quem completa a rodada entrega os dois resultados:
// primeiro ao adversário, depois a si mesmo.
func handleMove(h *GameHandler, p *PlayerSession, msg protocol.Message) error {
	room := p.Room()
	if room == nil {
		return message.SendError(p, "no game in progress")
	}

	m, err := message.OpenMove(p.sessionKey(), msg.(protocol.Move))
	if err != nil {
		return err
	}

	settled, err := room.RegisterMove(p.Name(), m)
	switch {
	case errors.Is(err, ErrMoveAlreadyRegistered):
		p.log.Warn().Str("room", room.ID).Msg("duplicate move ignored")
		return nil
	case errors.Is(err, ErrRoomEnded):
		return message.SendError(p, "game is over")
	case err != nil:
		return err
	}

	p.log.Debug().Str("room", room.ID).Int("round", room.Round()).Msg("move registered")
	if settled {
		h.registry.DeliverResults(room, p)
	}
	return nil
}

// handleReady acumula a prontidão; quando os dois estão prontos a próxima rodada começa.
func handleReady(h *GameHandler, p *PlayerSession, msg protocol.Message) error {
	room := p.Room()
	if room == nil {
		return message.SendError(p, "no game in progress")
	}

	reset, err := room.MarkReady(p.Name())
	switch {
	case errors.Is(err, ErrRoomEnded):
		return message.SendError(p, "game is over")
	case errors.Is(err, ErrRoundNotSettled):
		return message.SendError(p, "round still in progress")
	case err != nil:
		return err
	}

	if reset {
		h.registry.StartNextRound(room)
	}
	return nil
}
