// Command cli is operator tooling for the shop database: it applies
// migrations and manages the admin account without starting the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wichananm65/deko-shop-backend/internal/config"
	"github.com/wichananm65/deko-shop-backend/internal/password"
	"github.com/wichananm65/deko-shop-backend/internal/store"
	"github.com/wichananm65/deko-shop-backend/internal/user"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	"go.uber.org/zap"
)

const usage = `usage: cli <command> [flags]

commands:
  migrate                                  apply pending schema migrations
  seed-admin   [-username u] [-password p] create the admin account if missing
  set-password -username u -password p     replace a user's password
`

func main() {
	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env); err != nil {
		panic(err)
	}
	defer util.SyncLogger()

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout, util.GetLogger()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		util.SyncLogger()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer, log *zap.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate", "seed-admin", "set-password":
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", cfg.Auth.AdminUsername, "account name")
	plain := fs.String("password", "", "new password")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	users := user.NewService(user.NewSQLRepository(st.DB), password.NewHasher(password.DefaultParams), log)

	switch cmd {
	case "migrate":
		fmt.Fprintln(out, "migrations applied")
		return nil

	case "seed-admin":
		if *plain == "" {
			*plain = cfg.Auth.AdminPassword
		}
		created, err := users.EnsureAdmin(ctx, *username, *plain)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "admin %q created\n", *username)
		} else {
			fmt.Fprintf(out, "admin %q already exists\n", *username)
		}
		return nil

	case "set-password":
		if *plain == "" {
			return errors.New("set-password: -password is required")
		}
		if len(*plain) < 8 {
			return errors.New("set-password: password must be at least 8 characters")
		}
		if err := users.SetPasswordByUsername(ctx, *username, *plain); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return fmt.Errorf("set-password: no user named %q", *username)
			}
			return err
		}
		fmt.Fprintf(out, "password of %q updated\n", *username)
		return nil
	}
	return nil
}
