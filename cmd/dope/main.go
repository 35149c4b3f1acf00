// Command dope is a small terminal client used to exercise the SDK against a
// running API, typically the bundled dev server. It signs in, prints the
// feed and walks a comment thread.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dope-network/dope-go"
	"github.com/dope-network/dope-go/internal/domain/feed"
	"github.com/dope-network/dope-go/internal/domain/session"
	"github.com/dope-network/dope-go/internal/infra/config"
	"github.com/dope-network/dope-go/pkg/logger"
)

func main() {
	var (
		email    = flag.String("email", "", "account email for password sign-in")
		password = flag.String("password", "", "account password")
		post     = flag.String("post", "", "optional content to publish as a new post")
		comment  = flag.String("comment", "", "optional reply to leave on the newest post")
		logout   = flag.Bool("logout", false, "sign out and clear the stored session before exiting")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	client, err := dope.New(cfg, logger.New())
	if err != nil {
		log.Fatalf("build client: %v", err)
	}

	if err := run(ctx, client, *email, *password, *post, *comment, *logout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *dope.Client, email, password, post, comment string, logout bool) error {
	if err := client.Sessions.WaitForInitialization(ctx); err != nil {
		return err
	}

	if !client.Sessions.IsAuthenticated() {
		if email == "" || password == "" {
			return fmt.Errorf("no stored session, pass -email and -password to sign in")
		}
		if _, err := client.Sessions.Login(ctx, session.LoginRequest{Email: email, Password: password}); err != nil {
			return err
		}
	}

	user, err := client.Sessions.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", user.Username, user.UID)

	if post != "" {
		created, err := client.Posts.Create(ctx, feed.CreatePostRequest{Content: post})
		if err != nil {
			return err
		}
		fmt.Printf("published post %s\n", created.ID)
	}

	page, err := client.Posts.ListFeed(ctx, feed.FeedParams{Limit: 10})
	if err != nil {
		return err
	}
	fmt.Printf("\nfeed (%d posts)\n", len(page.Posts))
	for _, p := range page.Posts {
		fmt.Printf("  %s  @%-16s %s  [%d likes, %d comments]\n",
			p.ID, p.Author.Username, truncate(p.Content, 60), p.Stats.Likes, p.Stats.Comments)
	}

	if len(page.Posts) > 0 {
		newest := page.Posts[0]
		if comment != "" {
			if _, err := client.Comments.Create(ctx, newest.ID, feed.CreateCommentRequest{Content: comment}); err != nil {
				return err
			}
			fmt.Printf("replied to post %s\n", newest.ID)
		}
		thread, err := client.Comments.Thread(ctx, newest.ID)
		if err != nil {
			return err
		}
		if len(thread) > 0 {
			fmt.Printf("\nthread for post %s\n", newest.ID)
			printThread(thread)
		}
	}

	if logout {
		if err := client.Sessions.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("signed out")
	}
	return nil
}

func printThread(nodes []*feed.ThreadNode) {
	for _, n := range nodes {
		indent := strings.Repeat("  ", n.Depth)
		fmt.Printf("  %s@%s: %s\n", indent, n.Author.Username, truncate(n.Content, 70))
		printThread(n.Replies)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
