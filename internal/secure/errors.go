package secure

import "fmt"

// Error é a falha de uma operação criptográfica (chave malformada, autenticação inválida).
// É fatal para a conexão que a produziu.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("crypto: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(op string, err error) error {
	return &Error{Op: op, Err: err}
}
