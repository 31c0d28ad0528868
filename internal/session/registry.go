package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rpsls/internal/events"
	"rpsls/internal/protocol"
	"rpsls/internal/session/message"
)

var (
	ErrNameInUse  = errors.New("name already in use")
	ErrServerFull = errors.New("server is full")
)

// Registry é a tabela de jogadores conectados e de salas ativas, e o pareamento entre eles.
// Existe uma instância por servidor, criada em main e passada ao GameHandler.
// Nenhuma mensagem é enviada com o lock tomado: as notificações são coletadas e
// disparadas depois do Unlock.
type Registry struct {
	mu      sync.Mutex
	players map[string]*PlayerSession
	rooms   map[string]*GameRoom
	// Fila de pareamento, em ordem de chegada.
	queue []*PlayerSession

	maxPlayers int
	events     events.Publisher
	newID      func() string
}

// Option configura um Registry.
type Option func(*Registry)

// WithMaxPlayers limita o número de jogadores conectados. 0 desliga o limite.
func WithMaxPlayers(n int) Option {
	return func(r *Registry) { r.maxPlayers = n }
}

// WithPublisher define para onde vão os eventos de ciclo de vida.
func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) { r.events = p }
}

// NewRegistry cria um registry vazio.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		players: make(map[string]*PlayerSession),
		rooms:   make(map[string]*GameRoom),
		events:  events.Nop{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register reserva o nome do jogador. Verificação e inserção acontecem na mesma seção crítica,
// então dois HELLO simultâneos com o mesmo nome nunca são aceitos juntos.
func (r *Registry) Register(p *PlayerSession) error {
	name := p.Name()

	r.mu.Lock()
	if _, taken := r.players[name]; taken {
		r.mu.Unlock()
		return errors.Wrapf(ErrNameInUse, "%q", name)
	}
	if r.maxPlayers > 0 && len(r.players) >= r.maxPlayers {
		r.mu.Unlock()
		return ErrServerFull
	}
	r.players[name] = p
	total := len(r.players)
	r.mu.Unlock()

	log.Debug().Str("player", name).Int("players", total).Msg("player joined")
	r.publish(events.Event{Type: events.PlayerJoined, Players: []string{name}})
	return nil
}

// Unregister remove o jogador, encerra sua sala e devolve o adversário sobrevivente ao pool.
// Chamado uma vez pela goroutine da conexão quando ela termina.
func (r *Registry) Unregister(p *PlayerSession) {
	name := p.Name()

	r.mu.Lock()
	if current, ok := r.players[name]; !ok || current != p {
		r.mu.Unlock()
		return
	}
	delete(r.players, name)
	r.removeFromQueueLocked(p)

	room := p.Room()
	var survivor *PlayerSession
	var matches []match
	if room != nil && room.End() {
		delete(r.rooms, room.ID)
		if s := r.players[room.Opponent(name)]; s != nil && s.unbindRoom(room) {
			survivor = s
			r.queue = append(r.queue, s)
			matches = r.pairLocked()
		}
	}
	r.mu.Unlock()

	r.publish(events.Event{Type: events.PlayerLeft, Players: []string{name}})

	if room != nil {
		log.Info().Str("room", room.ID).Str("player", name).Msg("room ended by disconnect")
		r.publish(events.Event{
			Type:    events.RoomEnded,
			RoomID:  room.ID,
			Players: room.Players(),
			Round:   room.Round(),
			Reason:  "player left",
		})
	}

	if survivor != nil {
		message.SendError(survivor, "opponent %s left the game", name)
		survivor.Send(protocol.WaitOpponent{})
	}
	r.announce(matches)
}

// Matchmake coloca o jogador no pool e forma todos os pares possíveis.
// Só entra no pool quem concluiu a troca de chaves e não está em sala.
func (r *Registry) Matchmake(p *PlayerSession) {
	r.mu.Lock()
	if r.players[p.Name()] != p || p.State() != StateWaitingForOpponent || p.Room() != nil {
		r.mu.Unlock()
		return
	}
	if !r.queuedLocked(p) {
		r.queue = append(r.queue, p)
	}
	matches := r.pairLocked()
	waiting := len(r.queue)
	r.mu.Unlock()

	log.Debug().Str("player", p.Name()).Int("waiting", waiting).Msg("player in matchmaking pool")
	r.announce(matches)
}

// StartNextRound associa os dois jogadores à nova rodada e só então envia GAME_START a cada um.
func (r *Registry) StartNextRound(room *GameRoom) {
	r.mu.Lock()
	if r.rooms[room.ID] != room {
		r.mu.Unlock()
		return
	}
	names := room.Players()
	pair := match{room: room}
	for i, name := range names {
		pair.players[i] = r.players[name]
		if pair.players[i] != nil {
			pair.players[i].bindRoom(room)
		}
	}
	r.mu.Unlock()

	log.Debug().Str("room", room.ID).Int("round", room.Round()).Msg("next round started")
	r.announce([]match{pair})
}

// DeliverResults entrega o resultado da rodada recém decidida: primeiro ao adversário de settler,
// depois ao próprio settler. Cada resultado vai cifrado com a chave de quem o recebe.
func (r *Registry) DeliverResults(room *GameRoom, settler *PlayerSession) {
	name := settler.Name()
	opponentName := room.Opponent(name)

	r.mu.Lock()
	opponent := r.players[opponentName]
	r.mu.Unlock()

	own := room.ResultFor(name)

	if opponent != nil {
		opponent.deliverResult(room, room.ResultFor(opponentName))
	}
	settler.deliverResult(room, own)

	log.Info().
		Str("room", room.ID).
		Int("round", own.Round).
		Str("winner", own.Winner).
		Str("rationale", own.Description).
		Msg("round settled")

	r.publish(events.Event{
		Type:      events.RoundSettled,
		RoomID:    room.ID,
		Players:   room.Players(),
		Round:     own.Round,
		Winner:    own.Winner,
		Draw:      own.Draw,
		Rationale: own.Description,
	})
}

// EndRoom encerra a sala id por fora do jogo (admin). Os dois jogadores recebem ERROR,
// voltam ao pool e o pareamento roda de novo. Devolve false se a sala não existe.
func (r *Registry) EndRoom(id string) bool {
	r.mu.Lock()
	room := r.rooms[id]
	if room == nil || !room.End() {
		r.mu.Unlock()
		return false
	}
	delete(r.rooms, id)

	var returned []*PlayerSession
	for _, name := range room.Players() {
		if p := r.players[name]; p != nil && p.unbindRoom(room) {
			returned = append(returned, p)
			r.queue = append(r.queue, p)
		}
	}
	matches := r.pairLocked()
	r.mu.Unlock()

	log.Info().Str("room", id).Msg("room ended by admin")
	r.publish(events.Event{
		Type:    events.RoomEnded,
		RoomID:  id,
		Players: room.Players(),
		Round:   room.Round(),
		Reason:  "ended by admin",
	})

	for _, p := range returned {
		message.SendError(p, "game ended by server")
		p.Send(protocol.WaitOpponent{})
	}
	r.announce(matches)
	return true
}

// Lookup devolve o jogador conectado com esse nome, ou nil.
func (r *Registry) Lookup(name string) *PlayerSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players[name]
}

// Stats é a fotografia de ocupação usada pelo /stats.
type Stats struct {
	Players int `json:"players"`
	Waiting int `json:"waiting"`
	Rooms   int `json:"rooms"`
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Players: len(r.players), Waiting: len(r.queue), Rooms: len(r.rooms)}
}

// PlayerInfo descreve um jogador conectado para o /players.
type PlayerInfo struct {
	Name  string `json:"name"`
	State State  `json:"state"`
	Room  string `json:"room,omitempty"`
}

// Snapshot lista os jogadores conectados em ordem alfabética.
func (r *Registry) Snapshot() []PlayerInfo {
	r.mu.Lock()
	players := make([]*PlayerSession, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	r.mu.Unlock()

	infos := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		info := PlayerInfo{Name: p.Name(), State: p.State()}
		if room := p.Room(); room != nil {
			info.Room = room.ID
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (r *Registry) publish(ev events.Event) {
	if err := r.events.Publish(ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("publish event failed")
	}
}
