// Eira CLI - drives the session, chat, and account core from a terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/account"
	"github.com/josephvutrinh/eira/internal/cache"
	"github.com/josephvutrinh/eira/internal/chat"
	"github.com/josephvutrinh/eira/internal/config"
	"github.com/josephvutrinh/eira/internal/identity"
	"github.com/josephvutrinh/eira/internal/models"
	"github.com/josephvutrinh/eira/internal/reply"
	"github.com/josephvutrinh/eira/internal/session"
	"github.com/josephvutrinh/eira/internal/store"
)

// app bundles the client core the commands operate on.
type app struct {
	cfg      *config.Config
	cache    cache.Cache
	resolver *session.Resolver
	sync     *chat.Synchronizer
	manager  *account.Manager
	logger   zerolog.Logger
}

func newApp(ctx context.Context) (*app, func(), error) {
	cfg := config.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	localCache, err := cache.NewSQLiteCache(cfg.CachePath)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { localCache.Close() }}
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var idClient *identity.Client
	var provider session.Provider
	var accountIdentity account.IdentityClient
	if cfg.IdentityConfigured() {
		idClient = identity.NewClient(cfg.IdentityURL, cfg.IdentityAnonKey)
		restoreToken(localCache, idClient)
		provider = idClient
		accountIdentity = idClient
	}

	var remote chat.RemoteStore
	var profiles account.ProfileStore
	if cfg.StoreConfigured() {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pgStore.Close)
		remote = pgStore
		profiles = pgStore
	}

	sessionID := chat.GetOrCreateSessionID(localCache)

	return &app{
		cfg:      cfg,
		cache:    localCache,
		resolver: session.NewResolver(provider, localCache, logger),
		sync:     chat.NewSynchronizer(sessionID, remote, localCache, logger),
		manager:  account.NewManager(accountIdentity, profiles, localCache, logger),
		logger:   logger,
	}, cleanup, nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	a, cleanup, err := newApp(ctx)
	exitOnError(err)
	defer cleanup()

	switch os.Args[1] {
	case "login":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: eira login <email> <password>")
			os.Exit(1)
		}
		sess, err := a.resolver.SignInWithPassword(ctx, os.Args[2], os.Args[3])
		exitOnError(err)
		persistSession(a.cache, sess)
		fmt.Printf("Signed in as %s", sess.User.Email)
		if sess.UsedFallback {
			fmt.Print(" (local fallback)")
		}
		fmt.Println()

	case "signup":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: eira signup <email> <password> [full name]")
			os.Exit(1)
		}
		fullName := ""
		if len(os.Args) > 4 {
			fullName = strings.Join(os.Args[4:], " ")
		}
		sess, err := a.resolver.SignUp(ctx, os.Args[2], os.Args[3], fullName)
		exitOnError(err)
		if sess == nil {
			fmt.Println("Check your inbox to confirm your email address.")
			return
		}
		persistSession(a.cache, sess)
		fmt.Printf("Signed up as %s\n", sess.User.Email)

	case "logout":
		exitOnError(a.resolver.SignOut(ctx))
		a.cache.Remove(cache.KeySession)
		fmt.Println("Signed out.")

	case "whoami":
		sess := a.resolver.GetSession(ctx)
		if sess == nil {
			fmt.Println("Not signed in.")
			return
		}
		printJSON(sess)

	case "chat":
		a.runChat(ctx)

	case "history":
		limit := 50
		if len(os.Args) > 2 {
			if n, err := strconv.Atoi(os.Args[2]); err == nil {
				limit = n
			}
		}
		messages := a.sync.Load(ctx, limit)
		if len(messages) == 0 {
			messages = a.sync.Messages()
		}
		printMessages(messages)

	case "clear":
		a.sync.Clear(ctx)
		fmt.Println("Chat cleared.")

	case "delete-account":
		result, err := a.manager.DeleteAccount(ctx)
		exitOnError(err)
		a.cache.Remove(cache.KeySession)
		printJSON(result)

	default:
		usage()
		os.Exit(1)
	}
}

// runChat is a minimal REPL over the synchronizer: each user line is
// appended optimistically, answered by the canned support reply, and both
// turns mirrored to the remote store when one is configured.
func (a *app) runChat(ctx context.Context) {
	if existing := a.sync.Load(ctx, 50); len(existing) > 0 {
		printMessages(existing)
	} else {
		printMessages(a.sync.Messages())
	}

	fmt.Println(`Type a message ("/clear" to reset, "/quit" to exit).`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/quit":
			return
		case "/clear":
			a.sync.Clear(ctx)
			fmt.Println("Chat cleared.")
			continue
		}

		if _, err := a.sync.Append(ctx, models.RoleUser, text); err != nil {
			fmt.Fprintln(os.Stderr, "send failed:", err)
			continue
		}

		answer := reply.BuildSupportReply(text)
		msg, err := a.sync.Append(ctx, models.RoleSupport, answer)
		if err != nil {
			fmt.Fprintln(os.Stderr, "reply failed:", err)
			continue
		}
		fmt.Printf("[%s] support: %s\n", msg.CreatedAt.Format("15:04"), msg.Text)
	}
}

// restoreToken rehydrates the identity client from the session persisted
// on this device, so a signed-in user stays signed in across invocations.
func restoreToken(c cache.Cache, client *identity.Client) {
	raw, err := c.Get(cache.KeySession)
	if err != nil {
		return
	}
	var sess models.Session
	if json.Unmarshal([]byte(raw), &sess) == nil && sess.AccessToken != "" {
		client.RestoreToken(sess.AccessToken)
	}
}

func persistSession(c cache.Cache, sess *models.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := c.Set(cache.KeySession, string(data)); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not persist session:", err)
	}
}

func printMessages(messages []models.Message) {
	for _, msg := range messages {
		fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.Role, msg.Text)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Eira - support chat and account tool

Usage: eira <command> [args]

Commands:
  login <email> <password>            Sign in
  signup <email> <password> [name]    Create an account
  logout                              Sign out
  whoami                              Show the current session
  chat                                Interactive support chat
  history [limit]                     Show chat history
  clear                               Clear chat history
  delete-account                      Delete the current account`)
}
