package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"streamchat/internal/auth"
	"streamchat/internal/chatclient"
	"streamchat/internal/config"
	"streamchat/internal/models"
	"streamchat/internal/report"
	"streamchat/internal/session"
	"streamchat/internal/storage"
	"streamchat/internal/streamapi"

	"github.com/redis/go-redis/v9"
)

func main() {
	streamID := flag.String("stream", "", "stream id to join")
	name := flag.String("name", "", "log in on the dev server with this display name")
	token := flag.String("token", "", "use this bearer token instead of the stored one")
	logout := flag.Bool("logout", false, "forget the stored session and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openSessionStore(ctx, cfg)
	if *logout {
		if store == nil {
			log.Fatal("No session store available")
		}
		if err := store.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear session: %v", err)
		}
		fmt.Println("Logged out.")
		return
	}
	if *streamID == "" {
		fmt.Println("Usage: streamchat -stream <stream_id> [-name <display_name> | -token <token>]")
		os.Exit(1)
	}

	tok, user, err := resolveSession(ctx, cfg, store, *token, *name)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	out := newPrinter()

	opts := chatclient.DefaultOptions()
	opts.ReconnectAttempts = cfg.ReconnectAttempts
	opts.ReconnectDelay = cfg.ReconnectDelay
	conn := chatclient.NewManager(chatclient.NewWebSocketDialer(cfg.SocketURL()), opts)

	notify := session.NotifierFunc(func(title, message string) {
		out.println(renderNotice(title, message))
	})
	sess := session.New(conn, report.New(cfg.ChatServiceURL), notify, session.Options{
		ReportTimeout: cfg.ReportTimeout,
		OnChange:      out.onChange,
	})

	streams := streamapi.New(cfg.StreamAPIURL)
	streams.Token = tok
	watcher := streamapi.NewWatcher(streams, *streamID, streamapi.WatcherOptions{
		CountdownInterval: cfg.CountdownInterval,
		RefreshInterval:   cfg.RefreshInterval,
	}, out.onSnapshot)
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("WARNING: stream watcher stopped: %v", err)
		}
	}()

	if err := sess.Mount(ctx, *streamID, tok, user); err != nil {
		log.Fatalf("Failed to open chat: %v", err)
	}
	defer sess.Unmount()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(sess, watcher, line); quit {
				return
			}
		}
	}
}

// handleLine runs one line of user input and reports whether to exit.
func handleLine(sess *session.Session, watcher *streamapi.Watcher, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit":
		return true
	case line == "/refresh":
		watcher.Refresh()
	case strings.HasPrefix(line, "/report"):
		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 3 {
			fmt.Println("Usage: /report <message_id> <spam|harassment|inappropriate|other> [description]")
			return false
		}
		reason, err := models.ParseReportReason(parts[2])
		if err != nil {
			fmt.Println(err)
			return false
		}
		desc := ""
		if len(parts) == 4 {
			desc = parts[3]
		}
		if err := sess.Report(parts[1], reason, desc); err != nil {
			log.Printf("Report not sent: %v", err)
		}
	default:
		sess.SetInput(line)
		// Validation failures are already shown by the notifier.
		_ = sess.Submit()
	}
	return false
}

func openSessionStore(ctx context.Context, cfg *config.Config) *auth.SessionStore {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: invalid REDIS_URL, sessions will not be stored: %v", err)
		return nil
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: redis unavailable, sessions will not be stored: %v", err)
		rdb.Close()
		return nil
	}
	return auth.NewSessionStore(storage.NewRedisKV(rdb, "streamchat:client:"))
}

// resolveSession picks the token from the flags, a dev-server login or the
// stored session, in that order. An empty token is allowed: the chat then
// shows its login prompt.
func resolveSession(ctx context.Context, cfg *config.Config, store *auth.SessionStore, token, name string) (string, models.User, error) {
	var (
		user models.User
		err  error
	)
	switch {
	case token != "":
		user, err = auth.DecodeUser(token)
		if err != nil {
			return "", models.User{}, err
		}
	case name != "":
		token, user, err = devLogin(ctx, cfg.ChatServiceURL, name)
		if err != nil {
			return "", models.User{}, err
		}
	case store != nil:
		return store.Load(ctx)
	default:
		return "", models.User{}, nil
	}

	if store != nil {
		if err := store.Save(ctx, token, user); err != nil {
			log.Printf("WARNING: could not store session: %v", err)
		}
	}
	return token, user, nil
}

func devLogin(ctx context.Context, baseURL, name string) (string, models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/token?name="+url.QueryEscape(name), nil)
	if err != nil {
		return "", models.User{}, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", models.User{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", models.User{}, fmt.Errorf("token endpoint returned %s", res.Status)
	}
	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", models.User{}, fmt.Errorf("decode token response: %w", err)
	}
	return body.Token, body.User, nil
}

// printer writes session and stream updates to stdout, printing each chat
// message once.
type printer struct {
	mu       sync.Mutex
	seen     map[string]bool
	pinnedID string
	status   chatclient.Status
	header   string
}

func newPrinter() *printer {
	return &printer{seen: make(map[string]bool)}
}

func (p *printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Println(s)
}

func (p *printer) onChange(v session.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v.Status != p.status {
		p.status = v.Status
		fmt.Println(metaStyle.Render(fmt.Sprintf("[%s] %d online", v.Status, v.OnlineCount)))
	}
	for _, m := range v.Messages {
		if !p.seen[m.ID] {
			p.seen[m.ID] = true
			fmt.Println(renderMessage(m))
		}
	}

	pinnedID := ""
	if v.Pinned != nil {
		pinnedID = v.Pinned.ID
	}
	if pinnedID != p.pinnedID {
		p.pinnedID = pinnedID
		fmt.Println(renderPinned(v.Pinned))
	}
}

func (p *printer) onSnapshot(snap streamapi.Snapshot) {
	header := renderHeader(snap)
	p.mu.Lock()
	defer p.mu.Unlock()
	// The countdown ticks every second; only print when the line changes.
	if header != p.header {
		p.header = header
		fmt.Println(header)
	}
}
