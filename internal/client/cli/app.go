package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/taskhub/internal/client/client"
	"github.com/dmitrijs2005/taskhub/internal/client/config"
)

// API is the part of client.Client the commands use.
type API interface {
	Register(ctx context.Context, login, password string) (*client.User, error)
	Login(ctx context.Context, login, password string) (*client.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*client.User, error)
	Sessions(ctx context.Context) ([]client.Session, error)
	Users(ctx context.Context) ([]client.User, error)
	SetRole(ctx context.Context, userID, role string) (*client.User, error)
	LogoutEverywhere(ctx context.Context, userID string) error
	Projects(ctx context.Context) ([]client.Project, error)
	Project(ctx context.Context, projectID string) (*client.Project, error)
	Attach(ctx context.Context, projectID, taskID, name, mimeType string, content []byte) (*client.File, error)
	Download(ctx context.Context, projectID, taskID, fileID string) (*client.File, []byte, error)
}

type App struct {
	api    API
	user   *client.User
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.New(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) status() string {
	if a.user == nil {
		return ""
	}
	return a.user.Login + "@" + a.user.Role
}

// Run starts the REPL on stdin and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to TaskHub CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
	if a.isLoggedIn() {
		_ = a.Logout(ctx)
	}
}
