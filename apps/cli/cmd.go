package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/savedq"
	"github.com/examprep/portal/core/session"
)

// tokenKey holds the backend token next to the saved questions.
const tokenKey = "token"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	auth      session.Authenticator
	saved     savedq.Service
	questions *question.Service
	store     core.Storage
	validate  *validator.Validate
	out       io.Writer
	migrate   func(command string) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login --email EMAIL                  - log in; the password is prompted")
	fmt.Fprintln(cli.out, "  logout                               - forget the session")
	fmt.Fprintln(cli.out, "  saved list|add ID|remove ID          - manage saved questions")
	fmt.Fprintln(cli.out, "  questions [--subtopic S] [--search Q] [--difficulty D] [--page N]")
	fmt.Fprintln(cli.out, "  migrate up|down|redo                 - migrate the visitor storage database")
	fmt.Fprintln(cli.out, "Every command accepts -o text|json|yaml.")
}

func (cli *commandLine) newFlagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(cli.out)
	output := fs.StringP("output", "o", formatText, "Output format: text, json or yaml.")
	return fs, output
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	fs, output := cli.newFlagSet(args[1])
	var (
		email      = new(string)
		subtopic   = new(string)
		search     = new(string)
		difficulty = new(string)
		page       = new(int)
		limit      = new(int)
	)
	switch args[1] {
	case "login":
		email = fs.StringP("email", "e", "", "The student's email. The password will be prompted next.")
	case "questions":
		subtopic = fs.String("subtopic", "", "Only list the questions of this subtopic.")
		search = fs.StringP("search", "s", "", "Search the questions and their options.")
		difficulty = fs.String("difficulty", "", "easy, medium or hard.")
		page = fs.IntP("page", "p", 1, "Page number.")
		limit = fs.IntP("limit", "l", question.DefaultLimit, "Questions per page.")
	case "logout", "saved", "migrate":
	default:
		cli.printUsage()
		return errHelp
	}

	if err := fs.Parse(args[2:]); err != nil {
		if err == pflag.ErrHelp {
			return errHelp
		}
		return err
	}
	p, err := newPrinter(cli.out, *output)
	if err != nil {
		return err
	}
	rest := fs.Args()

	switch args[1] {
	case "login":
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			fs.Usage()
			return errHelp
		}
		return cli.login(ctx, p, *email, string(pwd))
	case "logout":
		return cli.logout(ctx)
	case "saved":
		return cli.runSaved(ctx, p, rest)
	case "questions":
		filter := question.Filter{
			SubtopicID: *subtopic,
			Search:     *search,
			Difficulty: *difficulty,
			Page:       *page,
			Limit:      *limit,
		}
		return cli.listQuestions(ctx, p, filter)
	default: // migrate
		if len(rest) != 1 {
			fs.Usage()
			return errHelp
		}
		return cli.migrate(rest[0])
	}
}

func (cli *commandLine) runSaved(ctx context.Context, p printer, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	switch args[0] {
	case "list":
		return cli.listSaved(ctx, p)
	case "add", "remove":
		if len(args) != 2 {
			cli.printUsage()
			return errHelp
		}
		return cli.mutateSaved(ctx, p, args[0], args[1])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) session(ctx context.Context) (session.Session, error) {
	token, _, err := cli.store.GetItem(ctx, tokenKey)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "reading session")
	}
	return session.New(token), nil
}

func (cli *commandLine) login(ctx context.Context, p printer, email, pwd string) error {
	req := session.LoginRequest{Email: email, Password: pwd}
	if err := req.Validate(cli.validate); err != nil {
		return err
	}
	token, profile, err := cli.auth.Login(ctx, req)
	if err != nil {
		if errors.Cause(err) == core.ErrUnauthorized {
			return errors.New("invalid email or password")
		}
		return errors.Wrap(err, "logging in")
	}
	if err := cli.store.SetItem(ctx, tokenKey, token); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return p.print(profile, func(w io.Writer) {
		fmt.Fprintf(w, "Logged in as %s <%s>\n", profile.Name, profile.Email)
	})
}

func (cli *commandLine) logout(ctx context.Context) error {
	return errors.Wrap(cli.store.RemoveItem(ctx, tokenKey), "clearing session")
}

func (cli *commandLine) listSaved(ctx context.Context, p printer) error {
	sess, err := cli.session(ctx)
	if err != nil {
		return err
	}
	view, err := cli.saved.List(ctx, cli.store, sess)
	if err != nil {
		return errors.Wrap(err, "listing saved questions")
	}
	return p.print(view, func(w io.Writer) {
		if view.State == savedq.Empty {
			fmt.Fprintln(w, "No saved questions.")
			return
		}
		printRecords(w, view.Questions)
		if missing := len(view.IDs) - len(view.Questions); missing > 0 {
			fmt.Fprintf(w, "(%d saved question(s) could not be loaded)\n", missing)
		}
	})
}

func (cli *commandLine) mutateSaved(ctx context.Context, p printer, op, id string) error {
	sess, err := cli.session(ctx)
	if err != nil {
		return err
	}
	var set *savedq.IDSet
	if op == "add" {
		set, err = cli.saved.Add(ctx, cli.store, sess, id)
	} else {
		set, err = cli.saved.Remove(ctx, cli.store, sess, id)
	}
	if err != nil {
		return err
	}
	ids := set.IDs()
	return p.print(ids, func(w io.Writer) {
		fmt.Fprintf(w, "%d saved question(s)\n", len(ids))
	})
}

func (cli *commandLine) listQuestions(ctx context.Context, p printer, filter question.Filter) error {
	if err := filter.Validate(cli.validate); err != nil {
		return err
	}
	sess, err := cli.session(ctx)
	if err != nil {
		return err
	}
	var isSaved func(string) bool
	if set, err := cli.saved.IDs(ctx, cli.store); err == nil {
		isSaved = set.Has
	}
	page, err := cli.questions.Practice(ctx, sess.Token, filter, isSaved)
	if err != nil {
		return err
	}
	return p.print(page, func(w io.Writer) {
		printRecords(w, page.Items)
		fmt.Fprintf(w, "page %d/%d (%d questions)\n", page.Page, page.TotalPages, page.Total)
	})
}

func printRecords(w io.Writer, records []question.Record) {
	for _, rec := range records {
		mark := " "
		if rec.Saved {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-12s %s\n", mark, rec.ID, plainText(rec.QuestionHTML))
	}
}

// plainText strips tags from a question for terminal display.
func plainText(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
