package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
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
	Me(ctx context.Context) error
	Sessions(ctx context.Context) error
	Users(ctx context.Context) error
	Projects(ctx context.Context) error
	Project(ctx context.Context, args []string) error
	SetRole(ctx context.Context, args []string) error
	LogoutAll(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF or on "exit" / "quit". Command errors are printed and
// the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("taskhub %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, sessions, projects, project, users, set-role, logout-all, attach, download, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "me":
			cmdErr = a.Me(ctx)
		case "sessions":
			cmdErr = a.Sessions(ctx)
		case "users":
			cmdErr = a.Users(ctx)
		case "projects", "ls":
			cmdErr = a.Projects(ctx)
		case "project":
			cmdErr = a.Project(ctx, args)
		case "set-role":
			cmdErr = a.SetRole(ctx, args)
		case "logout-all":
			cmdErr = a.LogoutAll(ctx, args)
		case "attach":
			cmdErr = a.Attach(ctx, args)
		case "download":
			cmdErr = a.Download(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
