/*
main.go - Administrative command line

USAGE:
  admin [-env .env] [-db URL] <command> [flags]

COMMANDS:
  migrate                                  create or update tables
  createsuperuser -email E [-name N] [-password P]
  resetpassword   -email E [-password P]
  seed            [-scenario sample-school]

  Passwords are prompted for without echo when stdin is a terminal;
  otherwise -password is required.

SEE ALSO:
  - cmd/server: the API server, which shares config and store
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/warp/schooladmin/api"
	"github.com/warp/schooladmin/auth"
	"github.com/warp/schooladmin/config"
	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/store/sqlstore"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Config, store *sqlstore.Store, args []string) error
}

var commands = []command{
	{"migrate", "create or update tables", runMigrate},
	{"createsuperuser", "create an active superuser", runCreateSuperuser},
	{"resetpassword", "set a user's password", runResetPassword},
	{"seed", "reset the database and load a scenario", runSeed},
}

func main() {
	log.SetFlags(0)

	global := flag.NewFlagSet("admin", flag.ExitOnError)
	envFile := global.String("env", "", "Path to .env file")
	dbURL := global.String("db", "", "Database path or URL (overrides DATABASE_URL)")
	global.Usage = usage(global)
	global.Parse(os.Args[1:])

	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}
	name, args := global.Arg(0), global.Args()[1:]

	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		log.Printf("unknown command %q", name)
		global.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}

	store, err := sqlstore.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if err := cmd.run(context.Background(), cfg, store, args); err != nil {
		log.Fatalf("%s: %v", cmd.name, err)
	}
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(fs.Output(), "usage: admin [-env file] [-db url] <command> [flags]")
		fmt.Fprintln(fs.Output(), "\ncommands:")
		for _, c := range commands {
			fmt.Fprintf(fs.Output(), "  %-16s %s\n", c.name, c.usage)
		}
		fmt.Fprintln(fs.Output(), "\nglobal flags:")
		fs.PrintDefaults()
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func runMigrate(_ context.Context, cfg *config.Config, store *sqlstore.Store, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Parse(args)
	if err := store.Migrate(); err != nil {
		return err
	}
	log.Printf("Migrated %s database", cfg.Dialect())
	return nil
}

func runCreateSuperuser(ctx context.Context, _ *config.Config, store *sqlstore.Store, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	email := fs.String("email", "", "Email address (required)")
	name := fs.String("name", "", "Full name")
	password := fs.String("password", "", "Password (prompted when omitted on a terminal)")
	fs.Parse(args)

	if *email == "" {
		return errors.New("-email is required")
	}
	pw, err := readPassword(*password)
	if err != nil {
		return err
	}
	user, created, err := store.EnsureSuperuser(ctx, *email, pw)
	if err != nil {
		return err
	}
	if !created {
		return errors.Errorf("user %s already exists", *email)
	}
	if *name != "" {
		user.FullName = name
		if err := store.Users().Update(ctx, user); err != nil {
			return err
		}
	}
	log.Printf("Created superuser %s (id %d)", user.Email, user.ID)
	return nil
}

func runResetPassword(ctx context.Context, _ *config.Config, store *sqlstore.Store, args []string) error {
	fs := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	email := fs.String("email", "", "Email address (required)")
	password := fs.String("password", "", "New password (prompted when omitted on a terminal)")
	fs.Parse(args)

	if *email == "" {
		return errors.New("-email is required")
	}
	users, err := store.Users().List(ctx, domain.UserFilter{Email: email})
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return domain.NotFound("User", *email)
	}
	pw, err := readPassword(*password)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return err
	}
	user := users[0]
	user.HashedPassword = hash
	if err := store.Users().Update(ctx, &user); err != nil {
		return err
	}
	log.Printf("Password updated for %s", user.Email)
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, store *sqlstore.Store, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	scenario := fs.String("scenario", api.SampleSchool, "Scenario id")
	fs.Parse(args)

	h := api.NewHandler(store, cfg)
	if err := h.LoadScenarioByID(ctx, *scenario); err != nil {
		return err
	}
	log.Printf("Loaded scenario %s", *scenario)
	return nil
}

// readPassword returns flagValue, or prompts twice on a terminal.
func readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("-password is required when stdin is not a terminal")
	}

	prompt := func(label string) (string, error) {
		fmt.Fprint(os.Stderr, label)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(string(b)), errors.Wrap(err, "read password")
	}
	pw, err := prompt("Password: ")
	if err != nil {
		return "", err
	}
	if len(pw) < 4 {
		return "", errors.New("password must be at least 4 characters")
	}
	again, err := prompt("Password (again): ")
	if err != nil {
		return "", err
	}
	if again != pw {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
