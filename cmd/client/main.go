// cmd/client/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rpsls/internal/client"
	"rpsls/internal/config"
	"rpsls/internal/game/move"
)

const defaultServerAddr = "localhost:12345"

var errQuit = errors.New("quit")

func main() {
	_ = godotenv.Load()
	if err := config.SetupLogger("warn", "console"); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lines := readLines(ctx)

	name := os.Getenv("PLAYER_NAME")
	for name == "" {
		fmt.Print("Seu nome: ")
		line, err := next(ctx, lines)
		if err != nil {
			return
		}
		name = line
	}

	c, err := dial(ctx, name)
	if err != nil {
		log.Fatal().Err(err).Msg("could not join the game")
	}
	defer c.Close()

	if err := play(ctx, c, name, lines); err != nil && !errors.Is(err, errQuit) && ctx.Err() == nil {
		log.Error().Err(err).Msg("game interrupted")
	}
	fmt.Println("Até a próxima!")
}

// dial usa websocket quando SERVER_WS_URL está definido e TCP caso contrário.
func dial(ctx context.Context, name string) (*client.Client, error) {
	opts := []client.Option{
		client.WithOnError(func(text string) { fmt.Printf("\n[servidor] %s\n", text) }),
	}
	if u := os.Getenv("SERVER_WS_URL"); u != "" {
		return client.DialWebsocket(ctx, u, name, opts...)
	}
	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = defaultServerAddr
	}
	return client.Dial(ctx, addr, name, opts...)
}

func play(ctx context.Context, c *client.Client, name string, lines <-chan string) error {
	for {
		fmt.Println("Aguardando adversário...")
		opponent, err := c.AwaitGameStart(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Partida contra %s!\n", opponent)

		m, err := askMove(ctx, lines)
		if err != nil {
			return err
		}

		result, err := c.SubmitMove(ctx, m)
		var serverErr *client.ServerError
		if errors.As(err, &serverErr) {
			continue
		}
		if err != nil {
			return err
		}
		printResult(name, result)

		if err := c.SignalReady(); err != nil {
			return err
		}
	}
}

func askMove(ctx context.Context, lines <-chan string) (move.Move, error) {
	names := make([]string, 0, len(move.All()))
	for _, m := range move.All() {
		names = append(names, m.String())
	}

	for {
		fmt.Printf("Sua jogada (%s, ou quit): ", strings.Join(names, ", "))
		line, err := next(ctx, lines)
		if err != nil {
			return "", err
		}
		if strings.EqualFold(line, "quit") {
			return "", errQuit
		}
		m, err := move.Parse(line)
		if err != nil {
			fmt.Printf("Jogada inválida: %q\n", line)
			continue
		}
		return m, nil
	}
}

func printResult(name string, r move.Result) {
	fmt.Printf("Rodada %d: você jogou %s, adversário jogou %s.\n", r.Round, r.YourMove, r.OpponentMove)
	switch {
	case r.Draw:
		fmt.Println("Empate!", r.Description)
	case r.Won(name):
		fmt.Println("Você venceu!", r.Description)
	default:
		fmt.Println("Você perdeu.", r.Description)
	}
}

func readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func next(ctx context.Context, lines <-chan string) (string, error) {
	select {
	case line, ok := <-lines:
		if !ok {
			return "", errQuit
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
