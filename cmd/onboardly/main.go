package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/chat"
	"github.com/onboardly/onboardly/internal/client"
	"github.com/onboardly/onboardly/internal/config"
	"github.com/onboardly/onboardly/internal/session"
)

func main() {
	cfg := config.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	var storage session.DocumentStorage
	if cfg.SessionsRedis != "" {
		storage = session.NewRedisStorage(cfg.SessionsRedis, "", 0)
	} else {
		storage = session.NewFileStorage(cfg.SessionsDir)
	}

	store := session.NewStore(storage, cfg.MaxSessions, logger)
	ctx := context.Background()
	store.Load(ctx)

	username := os.Getenv("ONBOARDLY_USERNAME")
	if username == "" {
		username = "unknown"
	}
	api := client.New(cfg.ServerURL, username)

	fmt.Println(chat.WelcomeMessage)
	fmt.Println(`Commands: /new, /sessions, /select <n>, /quit`)
	printSessions(store)

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/new":
			store.CreateSession(ctx, nil)
			fmt.Println("started a new chat")
		case line == "/sessions":
			printSessions(store)
		case strings.HasPrefix(line, "/select "):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/select ")))
			sessions := store.Sessions()
			if err != nil || n < 1 || n > len(sessions) {
				fmt.Println("no such session")
				continue
			}
			store.SelectSession(sessions[n-1].ID)
			active, _ := store.Active()
			fmt.Printf("switched to %s\n", active.Title)
		default:
			runTurn(ctx, store, api, line)
		}
	}
}

// runTurn sends one user message and reduces the response stream into the
// active session. Ctrl+C aborts the in-flight stream, keeping whatever
// partial reply arrived.
func runTurn(ctx context.Context, store *session.Store, api *client.Client, text string) {
	active, ok := store.Active()
	if !ok {
		active = store.CreateSession(ctx, nil)
	}

	messages := append(active.Messages, chat.Message{
		ID:    uuid.NewString(),
		Role:  chat.RoleUser,
		Parts: []chat.Part{{Type: chat.PartText, Text: text}},
	})
	store.SetActiveConversation(ctx, messages)

	turnCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT)
	defer stop()

	events, errs := api.Stream(turnCtx, messages)
	reducer := client.NewReducer(uuid.NewString())

	for ev := range events {
		reducer.Apply(ev)
		switch ev.Type {
		case chat.EventTextDelta:
			fmt.Print(ev.Delta)
		case chat.EventToolCall:
			fmt.Printf("\n[calling %s]\n", ev.ToolName)
		case chat.EventReasoningEnd:
			fmt.Print("\n[thought about it]\n")
		}
	}
	fmt.Println()

	if err, ok := <-errs; ok && err != nil {
		fmt.Fprintln(os.Stderr, "Something went wrong. Please try again.")
		return
	}

	assistant := reducer.Message()
	if len(assistant.Parts) > 0 {
		messages = append(messages, assistant)
		store.SetActiveConversation(ctx, messages)
		for key, ms := range reducer.Durations {
			store.SetDuration(ctx, key, ms)
		}
	}

	switch {
	case reducer.Err() != "" && reducer.RateLimited():
		fmt.Fprintln(os.Stderr, "We're getting a lot of traffic right now. Please retry in a few seconds.")
	case reducer.Err() != "":
		fmt.Fprintln(os.Stderr, "Something went wrong. Please try again.")
	case !reducer.Finished() && turnCtx.Err() == nil:
		// the stream died without a finish event
		fmt.Fprintln(os.Stderr, "Something went wrong. Please try again.")
	}
}

func printSessions(store *session.Store) {
	sessions := store.Sessions()
	for i, s := range sessions {
		marker := " "
		if s.ID == store.ActiveID() {
			marker = "*"
		}
		fmt.Printf("%s %d. %s | %s\n", marker, i+1, s.Title, session.Preview(s))
	}
}
