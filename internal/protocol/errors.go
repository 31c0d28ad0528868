package protocol

import "fmt"

// ProtocolError indica uma mensagem malformada, desconhecida ou fora de hora.
// É fatal para a conexão: o servidor responde com ERROR e fecha.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Violation cria um ProtocolError sem causa subjacente.
func Violation(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}
