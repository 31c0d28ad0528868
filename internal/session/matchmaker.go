package session

import (
	"github.com/rs/zerolog/log"

	"rpsls/internal/events"
	"rpsls/internal/protocol"
)

// match é um par recém formado (ou uma nova rodada) cujo GAME_START ainda precisa ser enviado.
type match struct {
	room    *GameRoom
	players [2]*PlayerSession
}

// pairLocked forma pares com os dois primeiros da fila enquanto houver dois.
// Os jogadores ficam associados à sala antes de qualquer notificação, então nenhum
// deles pode ser pareado de novo. Exige r.mu.
func (r *Registry) pairLocked() []match {
	var matches []match

	for {
		r.dropClosedLocked()
		if len(r.queue) < 2 {
			return matches
		}

		// Temos um par!
		p1, p2 := r.queue[0], r.queue[1]
		r.queue = r.queue[2:]

		room := NewGameRoom(r.newID(), p1.Name(), p2.Name())
		r.rooms[room.ID] = room
		p1.bindRoom(room)
		p2.bindRoom(room)

		matches = append(matches, match{room: room, players: [2]*PlayerSession{p1, p2}})
	}
}

func (r *Registry) dropClosedLocked() {
	kept := r.queue[:0]
	for _, p := range r.queue {
		if p.State() != StateClosed {
			kept = append(kept, p)
		}
	}
	r.queue = kept
}

func (r *Registry) queuedLocked(p *PlayerSession) bool {
	for _, queued := range r.queue {
		if queued == p {
			return true
		}
	}
	return false
}

func (r *Registry) removeFromQueueLocked(p *PlayerSession) {
	for i, queued := range r.queue {
		if queued == p {
			// Removemos o jogador usando o truque de slice do Go.
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return
		}
	}
}

// announce envia GAME_START para os dois lados de cada par. Roda sem o lock do registry.
func (r *Registry) announce(matches []match) {
	for _, m := range matches {
		names := m.room.Players()
		for i, p := range m.players {
			if p == nil {
				continue
			}
			p.Send(protocol.GameStart{Opponent: names[1-i]})
		}

		if m.room.Round() == 1 {
			log.Info().Str("room", m.room.ID).Str("p1", names[0]).Str("p2", names[1]).Msg("match found")
			r.publish(events.Event{Type: events.RoomStarted, RoomID: m.room.ID, Players: names})
		}
	}
}
