package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskhub/internal/client/client"
	"github.com/dmitrijs2005/taskhub/internal/shared"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type credentialsFn func(ctx context.Context, login, password string) (*client.User, error)

func (a *App) credentials() (string, []byte, error) {
	login, err := getSimpleText(a.reader, "Enter login", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return login, password, nil
}

func (a *App) authenticate(ctx context.Context, fn credentialsFn) error {
	login, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	u, err := fn(ctx, login, string(password))
	if err != nil {
		return err
	}
	a.user = u
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Login, u.Role)
	return nil
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context) error {
	return a.authenticate(ctx, a.api.Register)
}

func (a *App) Login(ctx context.Context) error {
	return a.authenticate(ctx, a.api.Login)
}

// Logout ends the session on the server. The local state is cleared even
// when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	a.user = nil
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
