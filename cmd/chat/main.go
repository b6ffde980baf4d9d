package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/convosphere/convosphere-server/internal/client"
	"github.com/convosphere/convosphere-server/internal/log"
	"github.com/convosphere/convosphere-server/internal/proto"
	"github.com/convosphere/convosphere-server/internal/storage/sqlite"
)

var (
	addr        string
	name        string
	displayName string
	dataDir     string
	logLevel    string
)

func main() {
	root := &cobra.Command{
		Use:   "chat",
		Short: "Terminal client for the convosphere relay",
		Long: "Connects to a convosphere relay, keeps conversation logs in a local\n" +
			"database and reconciles them against the relay's event stream.",
		RunE: run,
	}

	root.Flags().StringVar(&addr, "addr", "ws://localhost:3001/ws", "relay websocket URL")
	root.Flags().StringVar(&name, "name", "", "user name (required)")
	root.Flags().StringVar(&displayName, "display-name", "", "display name, defaults to the user name")
	root.Flags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for the local database")
	root.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	_ = root.MarkFlagRequired("name")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "convosphere")
	}
	return ".convosphere"
}

func run(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	logger := log.New(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := sqlite.New(filepath.Join(dataDir, "chat.db"))
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer store.Close()

	self, err := client.Login(ctx, store, name, displayName)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	socket, err := client.Dial(ctx, addr, logger)
	if err != nil {
		return err
	}
	defer socket.Close()

	rec, err := client.NewReconciler(ctx, self, store, socket.Emit, logger)
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	if err := socket.Register(ctx, self); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	// Rejoin every known room; the relay forgets membership between runs.
	for _, room := range rec.Rooms() {
		if err := socket.Join(ctx, room); err != nil {
			return fmt.Errorf("join %s: %w", room, err)
		}
	}

	listenErr := make(chan error, 1)
	go func() { listenErr <- socket.Listen(ctx, rec) }()

	fmt.Printf("connected to %s as %s — type /help for commands\n", addr, self.Name)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-listenErr:
			if err != nil {
				return fmt.Errorf("connection lost: %w", err)
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(ctx, rec, line); quit {
				return nil
			}
		}
	}
}

// handleLine interprets one line of input; a leading slash is a
// command, everything else goes to the active room as a message.
func handleLine(ctx context.Context, rec *client.Reconciler, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if _, err := rec.SendMessage(ctx, line, ""); err != nil {
			fmt.Println("error:", err)
		}
		return false
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	switch cmd {
	case "help":
		printHelp()
	case "quit", "exit":
		return true
	case "global":
		rec.SelectGlobal()
		fmt.Println("switched to Global Chat")
	case "dm":
		peer := strings.TrimSpace(rest)
		if peer == "" {
			fmt.Println("usage: /dm <name>")
			return false
		}
		room := rec.SelectConversation(ctx, proto.User{Name: peer})
		fmt.Println("switched to", room)
	case "show":
		printConversation(rec)
	case "who":
		for _, u := range rec.Users() {
			fmt.Printf("  %s (%s)\n", u.Name, u.DisplayName)
		}
	case "rooms":
		for _, s := range rec.DMConversations() {
			fmt.Printf("  %s — %s: %s\n", s.RoomID, s.DisplayName, s.LastMessage)
		}
	case "edit":
		id, text, ok := splitIDArg(rest)
		if !ok {
			fmt.Println("usage: /edit <id> <new text>")
			return false
		}
		if err := rec.EditMessage(ctx, id, text); err != nil {
			fmt.Println("error:", err)
		}
	case "react":
		id, emoji, ok := splitIDArg(rest)
		if !ok {
			fmt.Println("usage: /react <id> <emoji>")
			return false
		}
		if err := rec.React(ctx, id, emoji); err != nil {
			fmt.Println("error:", err)
		}
	case "delete":
		id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			fmt.Println("usage: /delete <id>")
			return false
		}
		rec.DeleteMessage(ctx, id)
	case "profile":
		display := strings.TrimSpace(rest)
		if display == "" {
			fmt.Println("usage: /profile <display name>")
			return false
		}
		self := rec.Self()
		self.DisplayName = display
		if err := rec.UpdateProfile(ctx, self); err != nil {
			fmt.Println("error:", err)
		}
	case "read":
		rec.MarkRead(ctx)
	case "clear":
		rec.ClearChat(ctx)
	default:
		fmt.Println("unknown command, try /help")
	}
	return false
}

func splitIDArg(rest string) (int64, string, bool) {
	idStr, tail, _ := strings.Cut(strings.TrimSpace(rest), " ")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || strings.TrimSpace(tail) == "" {
		return 0, "", false
	}
	return id, strings.TrimSpace(tail), true
}

func printConversation(rec *client.Reconciler) {
	active := rec.Active()
	fmt.Printf("-- %s --\n", active.DisplayName)
	for _, msg := range rec.ActiveMessages() {
		label := msg.Text
		if label == "" && msg.HasMedia() {
			label = "[media]"
		}
		suffix := ""
		if msg.Edited {
			suffix = " (edited)"
		}
		fmt.Printf("  [%d] %s: %s%s (%s)\n", msg.ID, msg.User.Name, label, suffix, msg.Status)
	}
	if typing := rec.Typing(active.ID); len(typing) > 0 {
		fmt.Printf("  %s typing...\n", strings.Join(typing, ", "))
	}
}

func printHelp() {
	fmt.Print(`commands:
  /global            switch to the global room
  /dm <name>         open a direct conversation
  /show              print the active conversation
  /who               list known users
  /rooms             list direct conversations
  /edit <id> <text>  edit one of your messages
  /react <id> <e>    react to a message
  /delete <id>       remove a message locally
  /profile <name>    change your display name
  /read              mark the active room read
  /clear             ask the room to clear its logs
  /quit              exit
anything else is sent to the active room
`)
}
