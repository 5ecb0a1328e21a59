package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/codemap/internal/client/services"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, username string) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Call(ctx context.Context, method, path, body string, query []string) error
	ListCodes(ctx context.Context, p services.ListParams) error
	SearchCodes(ctx context.Context, term string, p services.ListParams) error
	GetCode(ctx context.Context, id string) error
	CodeMappings(ctx context.Context, id string) error
}

// runREPL starts a simple read–eval–print loop for the codemap CLI.
//
// It reads a line from reader, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on EOF,
// when the user types "exit" or "quit", or when ctx is done.
//
// Commands:
//
//	help                       show available commands
//	login [username]           authenticate
//	logout                     forget the session
//	status                     show the session
//	call METHOD PATH [name=value...]
//	                           send a request; POST/PUT/PATCH prompt for a JSON body
//	list [system] [page]       list codes
//	search TERM                search codes
//	get ID                     show one code
//	mappings ID                show the mappings of a code
//	exit | quit                leave the shell
//
// Command errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, body func() (string, error), w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(w, "codemap %s> ", statusFn())
		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: list, search, get, mappings, call, status, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: login, status, call, exit")
			}

		case "login":
			user := ""
			if len(args) > 0 {
				user = args[0]
			}
			err = a.Login(ctx, user)

		case "logout":
			err = a.Logout(ctx)

		case "status":
			err = a.Status(ctx)

		case "call":
			if len(args) < 2 {
				fmt.Fprintln(w, "Usage: call METHOD PATH [name=value...]")
				continue
			}
			method := strings.ToUpper(args[0])
			var b string
			if method == "POST" || method == "PUT" || method == "PATCH" {
				if b, err = body(); err != nil {
					break
				}
			}
			err = a.Call(ctx, method, args[1], b, args[2:])

		case "l", "list":
			var p services.ListParams
			if len(args) > 0 {
				p.System = args[0]
			}
			if len(args) > 1 {
				if p.Page, err = strconv.Atoi(args[1]); err != nil {
					err = fmt.Errorf("invalid page %q", args[1])
					break
				}
			}
			err = a.ListCodes(ctx, p)

		case "search":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: search TERM")
				continue
			}
			err = a.SearchCodes(ctx, strings.Join(args, " "), services.ListParams{})

		case "get", "mappings":
			if len(args) == 0 {
				fmt.Fprintf(w, "Usage: %s ID\n", cmd)
				continue
			}
			if cmd == "get" {
				err = a.GetCode(ctx, args[0])
			} else {
				err = a.CodeMappings(ctx, args[0])
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(w, "error:", describeError(err))
		}
	}
}

// Shell runs the interactive loop on the app's input.
func (a *App) Shell(ctx context.Context) error {
	fmt.Fprintln(a.out, "codemap shell (type 'help' for commands)")
	body := func() (string, error) {
		return GetMultiline(a.reader, "Enter JSON body", a.out)
	}
	runREPL(ctx, a, a.getStatus, a.reader, body, a.out)
	return nil
}
