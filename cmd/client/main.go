package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tcpchat/wire"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const historyLimit = 50

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Nickname      string `env:"CHAT_NICKNAME"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

type nicknameRequest struct {
	Nickname string `validate:"required,min=2,max=24,printascii,excludesall=0x20"`
}

var validate = validator.New()

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the TCP client lifecycle: connect, answer the nickname
// handshake, then relay stdin lines as chat messages while rendering
// everything the server pushes.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	stdin := bufio.NewScanner(os.Stdin)
	nickname, err := resolveNickname(config.Nickname, stdin)
	if err != nil {
		return exitConfig, err
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect to the chat server.
	raw, err := net.Dial("tcp", config.ServerAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	conn := chatConn{raw}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	log.Info("Connected", "addr", config.ServerAddress, "nickname", nickname)

	// 4. Reception loop in the background; readErr closes when the
	// server side goes away.
	readErr := make(chan error, 1)
	go func() { readErr <- receive(conn, nickname) }()

	// 5. Stdin loop: every line becomes a chat message.
	input := make(chan string)
	go func() {
		defer close(input)
		for stdin.Scan() {
			if line := strings.TrimSpace(stdin.Text()); line != "" {
				input <- line
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case err := <-readErr:
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("server connection lost: %w", err)
		case line, ok := <-input:
			if !ok {
				return exitOK, nil
			}
			if err := conn.send(wire.NewChatMessage(line)); err != nil {
				return exitRuntime, err
			}
		}
	}
}

// chatConn binds frame writes to one connection so the (frame, err)
// pair of the wire constructors can be passed through directly.
type chatConn struct {
	net.Conn
}

func (c chatConn) send(frame []byte, err error) error {
	if err != nil {
		return err
	}
	_, err = c.Write(frame)
	return err
}

func resolveNickname(nickname string, stdin *bufio.Scanner) (string, error) {
	for {
		if nickname != "" {
			if err := validate.Struct(nicknameRequest{Nickname: nickname}); err == nil {
				return nickname, nil
			}
			fmt.Printf("Invalid nickname %q: 2-24 printable characters, no spaces.\n", nickname)
		}
		fmt.Print("Nickname: ")
		if !stdin.Scan() {
			return "", fmt.Errorf("no nickname provided")
		}
		nickname = strings.TrimSpace(stdin.Text())
	}
}

// receive renders every server frame until the connection fails. The
// nickname handshake and the initial roster and history requests happen
// here because the server drives them.
func receive(conn chatConn, nickname string) error {
	for {
		var env wire.Envelope
		if err := wire.ReadFrame(conn, &env); err != nil {
			return err
		}

		switch env.Type {
		case wire.TypeRequest:
			if env.Request != wire.RequestNick {
				continue
			}
			if err := conn.send(wire.NewNickname(nickname)); err != nil {
				return err
			}
			if err := conn.send(wire.NewHistoryRequest(historyLimit, 1800)); err != nil {
				return err
			}
			if err := conn.send(wire.NewRequest(wire.RequestRefreshList)); err != nil {
				return err
			}
		case wire.TypeMessage:
			printMessage(env.Nickname, env.Color, env.Content, env.Time)
		case wire.TypeMessageHistory:
			for _, m := range env.Messages {
				printMessage(m.Nickname, m.Color, m.Content, m.Time)
			}
		case wire.TypeUserList:
			printRoster(env.Users)
		}
	}
}

func printMessage(nickname, hex, content string, timestamp int64) {
	rendered := nickname
	if hex != "" {
		rendered = color.HEX(hex).Sprint(nickname)
	}
	fmt.Printf("[%s] %s: %s\n",
		time.Unix(timestamp, 0).Format(time.TimeOnly), rendered, content)
}

func printRoster(users []wire.User) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Nickname", "Color"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, u := range users {
		name := u.Nickname
		if u.Color != "" {
			name = color.HEX(u.Color).Sprint(u.Nickname)
		}
		table.Append([]string{name, u.Color})
	}
	table.Render()
}
