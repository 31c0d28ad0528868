package protocol

// Kind identifica a variante de uma mensagem. É o campo "type" do envelope.
type Kind string

const (
	KindHello        Kind = "HELLO"
	KindPublicKey    Kind = "PUBLIC_KEY"
	KindSymmetricKey Kind = "SYMMETRIC_KEY"
	KindMove         Kind = "MOVE"
	KindResult       Kind = "RESULT"
	KindError        Kind = "ERROR"
	KindGameStart    Kind = "GAME_START"
	KindWaitOpponent Kind = "WAIT_OPPONENT"
	KindReady        Kind = "READY"
)

// Message é a união fechada de todas as mensagens do protocolo.
// Só os tipos deste pacote a implementam (isMessage não é exportado).
type Message interface {
	Kind() Kind
	isMessage()
}

// Hello: cliente -> servidor, primeira mensagem, declara o nome do jogador.
type Hello struct {
	Player string `json:"player"`
}

// PublicKey: servidor -> cliente, chave pública do servidor em base64.
type PublicKey struct {
	Key string `json:"key"`
}

// SymmetricKey: cliente -> servidor, chave simétrica selada com a chave pública.
type SymmetricKey struct {
	Key string `json:"key"`
}

// Move: cliente -> servidor, jogada cifrada com a chave da sessão.
type Move struct {
	Data string `json:"data"`
}

// Result: servidor -> cliente, resultado da rodada cifrado com a chave da sessão.
type Result struct {
	Data string `json:"data"`
}

// Error: servidor -> cliente, texto legível do erro.
type Error struct {
	Message string `json:"message"`
}

// GameStart: servidor -> cliente, uma rodada começou contra Opponent.
type GameStart struct {
	Opponent string `json:"opponent"`
}

// WaitOpponent: servidor -> cliente, troca de chaves concluída, aguardando um adversário.
type WaitOpponent struct{}

// Ready: cliente -> servidor, pronto para a próxima rodada.
type Ready struct{}

func (Hello) Kind() Kind        { return KindHello }
func (PublicKey) Kind() Kind    { return KindPublicKey }
func (SymmetricKey) Kind() Kind { return KindSymmetricKey }
func (Move) Kind() Kind         { return KindMove }
func (Result) Kind() Kind       { return KindResult }
func (Error) Kind() Kind        { return KindError }
func (GameStart) Kind() Kind    { return KindGameStart }
func (WaitOpponent) Kind() Kind { return KindWaitOpponent }
func (Ready) Kind() Kind        { return KindReady }

func (Hello) isMessage()        {}
func (PublicKey) isMessage()    {}
func (SymmetricKey) isMessage() {}
func (Move) isMessage()         {}
func (Result) isMessage()       {}
func (Error) isMessage()        {}
func (GameStart) isMessage()    {}
func (WaitOpponent) isMessage() {}
func (Ready) isMessage()        {}

// FromClient informa se k é uma mensagem que um cliente pode enviar.
func FromClient(k Kind) bool {
	switch k {
	case KindHello, KindSymmetricKey, KindMove, KindReady:
		return true
	}
	return false
}
