package cli

import (
	"context"
	"os"
)

// Register creates an account on the server and logs the user in.
func (a *App) Register(ctx context.Context) error {
	login, err := GetSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}
	pw, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if _, err := a.api.Register(ctx, login, string(pw)); err != nil {
		printlnFn("Registration failed:", err)
		return err
	}
	a.afterLogin(ctx, login)
	printlnFn("Registered and logged in as", login)
	return nil
}

// Login authenticates against the server and loads the local tree.
func (a *App) Login(ctx context.Context) error {
	login, err := GetSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}
	pw, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if _, err := a.api.Login(ctx, login, string(pw)); err != nil {
		printlnFn("Login failed:", err)
		return err
	}
	a.afterLogin(ctx, login)
	printlnFn("Logged in as", login)
	return nil
}

func (a *App) afterLogin(ctx context.Context, login string) {
	a.userName = login
	a.orch.SetOwner(login)
	if err := a.orch.Refresh(ctx); err != nil {
		a.logger.Warn(ctx, "error loading local tree", "error", err)
	}
}

// Logout drops the token and the session state.
func (a *App) Logout(ctx context.Context) error {
	a.api.SetToken("")
	a.userName = ""
	a.orch.SetOwner("")
	printlnFn("Logged out")
	return nil
}
