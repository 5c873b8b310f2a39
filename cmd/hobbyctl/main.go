// Command hobbyctl runs maintenance tasks against the HobbyHub database.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"hobbyhub/internal/config"
	"hobbyhub/internal/database"
	"hobbyhub/internal/model"
	"hobbyhub/internal/queue"
	internalredis "hobbyhub/internal/redis"
	"hobbyhub/internal/repository"
	"hobbyhub/internal/service"
)

const usage = `usage: hobbyctl <command> [flags]

commands:
  init-db          create the users, posts and likes tables
  create-admin     create an admin account (-email, -password, -name)
  reconcile-likes  recount every post's likes and repair drifted counters
                   (-queue hands the recount to the workers via Redis)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	var err error

	switch os.Args[1] {
	case "init-db":
		err = runInitDB(ctx)
	case "create-admin":
		err = runCreateAdmin(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "reconcile-likes":
		err = runReconcileLikes(ctx, os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func openDB(ctx context.Context) (*sqlx.DB, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, cfg, nil
}

func runInitDB(ctx context.Context) error {
	db, _, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Schema is up to date")
	return nil
}

func runCreateAdmin(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	email := fs.String("email", "", "admin email address")
	password := fs.String("password", "", "admin password")
	name := fs.String("name", "", "display name (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// An explicit -name "" skips the prompt; an omitted -name asks for one.
	var namePtr *string
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "name" {
			namePtr = name
		}
	})

	req, err := promptAdmin(bufio.NewReader(in), out, *email, *password, namePtr)
	if err != nil {
		return err
	}

	db, _, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	users := service.NewUserService(repository.NewUserRepository(db))
	user, err := users.CreateAdmin(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created admin %s (id=%d)\n", user.Email, user.ID)
	return nil
}

// promptAdmin fills in missing values from the reader, one line each. A nil
// name is prompted for too; an empty answer leaves the account unnamed.
func promptAdmin(in *bufio.Reader, out io.Writer, email, password string, name *string) (*model.RegisterRequest, error) {
	var err error
	if strings.TrimSpace(email) == "" {
		if email, err = prompt(in, out, "Email: "); err != nil {
			return nil, err
		}
	}
	if password == "" {
		if password, err = prompt(in, out, "Password: "); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	var displayName string
	if name != nil {
		displayName = *name
	} else if displayName, err = prompt(in, out, "Name (optional): "); err != nil {
		return nil, err
	}

	return &model.RegisterRequest{Email: email, Password: password, Name: strings.TrimSpace(displayName)}, nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runReconcileLikes(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reconcile-likes", flag.ContinueOnError)
	queued := fs.Bool("queue", false, "publish reconcile events for the workers instead of recounting here")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, cfg, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	posts := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	if *queued {
		if cfg.RedisURL == "" {
			return fmt.Errorf("-queue needs REDIS_URL")
		}
		rdb, err := internalredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		publisher := queue.NewPublisher(rdb.Client, queue.StreamLikes, 0)
		n, err := service.NewLikeService(db, posts, likeRepo, publisher).QueueReconcileAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d post(s) queued for reconciliation\n", n)
		return nil
	}

	fixed, err := service.NewLikeService(db, posts, likeRepo, nil).ReconcileAll(ctx)
	if err != nil {
		return err
	}

	for _, r := range fixed {
		fmt.Fprintf(out, "post %d: %d -> %d\n", r.PostID, r.Before, r.After)
	}
	fmt.Fprintf(out, "%d post(s) repaired\n", len(fixed))
	return nil
}
