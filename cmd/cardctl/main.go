// Command cardctl administers a cardkeeper database: schema migrations and accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/and161185/cardkeeper/internal/config"
	"github.com/and161185/cardkeeper/internal/limiter"
	"github.com/and161185/cardkeeper/internal/migrate"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/repository/postgres"
	"github.com/and161185/cardkeeper/internal/service"
	"github.com/gofrs/uuid/v5"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// registrar creates accounts.
type registrar interface {
	Register(ctx context.Context, email, password string, role model.Role) (uuid.UUID, error)
}

const usageText = `usage: cardctl <command> [flags]

commands:
  version                                  print build info
  migrate                                  apply pending schema migrations
  useradd -email E -password P [-role R]   create an account (role MEMBER or ADMIN)

configuration is read from config/.env and the environment (POSTGRES_DSN, AUTH_JWT_KEY, ...)
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code. Every
// resource a command opens is released before run returns.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cardctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch cmd := fs.Arg(0); cmd {
	case "version":
		fmt.Fprintf(stdout, "cardctl %s (%s)\n", version, buildDate)
	case "migrate":
		err = migrateUp(ctx, stdout)
	case "useradd":
		err = userAdd(ctx, fs.Args()[1:], stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func migrateUp(ctx context.Context, out io.Writer) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	ver, err := migrate.Up(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema at version %d\n", ver)
	return nil
}

// openAuth connects to the configured database and returns a registrar
// with the function that releases its pool.
var openAuth = func(ctx context.Context) (registrar, func(), error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, err
	}
	pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, postgres.PoolOptions{ConnectTimeout: cfg.Postgres.ConnectTimeout})
	if err != nil {
		return nil, nil, err
	}
	db := &postgres.DB{Pool: pool}

	lim := limiter.NewPG(pool, limiter.Policy{Window: cfg.Limiter.Window, MaxFails: cfg.Limiter.MaxFails, BlockFor: cfg.Limiter.BlockFor})
	auth, err := service.NewAuthService(postgres.NewUserRepo(db), []byte(cfg.Auth.JWTKey), cfg.Auth.AccessTTL, lim, 1)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return auth, db.Close, nil
}

func userAdd(ctx context.Context, args []string, out io.Writer) error {
	reg, closeDB, err := openAuth(ctx)
	if err != nil {
		return err
	}
	defer closeDB()
	return cmdUserAdd(ctx, reg, args, out)
}

var errUsage = errors.New("need -email and -password")

func cmdUserAdd(ctx context.Context, reg registrar, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	pwd := fs.String("password", "", "password, at least 8 characters")
	roleName := fs.String("role", model.RoleMember.String(), "MEMBER or ADMIN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *pwd == "" {
		return errUsage
	}
	role, err := model.ParseRole(*roleName)
	if err != nil {
		return err
	}
	id, err := reg.Register(ctx, *email, *pwd, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", id, role)
	return nil
}
