package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Tree(ctx context.Context) error
	Remote(ctx context.Context) error
	Select(ctx context.Context) error
	Add(ctx context.Context) error
	Extract(ctx context.Context) error
	History(ctx context.Context) error
	Describe(ctx context.Context) error
	Remove(ctx context.Context) error
	Push(ctx context.Context) error
	Clone(ctx context.Context) error
}

// runREPL starts a read-eval-print loop for the ModelVault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands while logged in: tree, remote, select, add, extract, history,
// describe, remove, push, clone, logout. Before login only register, login
// and exit are offered.
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("mv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (t)ree, remote, select, add, extract, history, describe, remove, push, clone, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "t", "tree":
			_ = a.Tree(ctx)

		case "remote":
			_ = a.Remote(ctx)

		case "select":
			_ = a.Select(ctx)

		case "add":
			_ = a.Add(ctx)

		case "extract":
			_ = a.Extract(ctx)

		case "history":
			_ = a.History(ctx)

		case "describe":
			_ = a.Describe(ctx)

		case "remove":
			_ = a.Remove(ctx)

		case "push":
			_ = a.Push(ctx)

		case "clone":
			_ = a.Clone(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
