// Package events publica o ciclo de vida das partidas para observadores externos.
// Sem NATS configurado o servidor usa Nop e nada sai do processo.
package events

import (
	"time"
)

// Tipos de evento. O assunto NATS é SubjectPrefix + tipo.
const (
	PlayerJoined = "player.joined"
	PlayerLeft   = "player.left"
	RoomStarted  = "room.started"
	RoundSettled = "round.settled"
	RoomEnded    = "room.ended"

	SubjectPrefix = "rpsls."
)

// Event é o corpo JSON publicado.
type Event struct {
	Type      string    `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	Players   []string  `json:"players,omitempty"`
	Round     int       `json:"round,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Draw      bool      `json:"draw,omitempty"`
	Rationale string    `json:"rationale,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher entrega eventos. Publish nunca deve bloquear por muito tempo:
// é chamado pelas goroutines das conexões, fora de qualquer lock.
type Publisher interface {
	Publish(ev Event) error
	Close()
}

// Nop descarta tudo.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close()              {}
