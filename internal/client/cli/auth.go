package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/codemap/internal/common"
)

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

// Login authenticates against the API and stores the resulting credential.
// An empty username is prompted for. The password is always prompted for
// and wiped before returning.
func (a *App) Login(ctx context.Context, username string) error {
	if username == "" {
		var err error
		if username, err = GetSimpleText(a.reader, "Enter username", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, username, password); err != nil {
		return err
	}

	a.log.Info(ctx, "login successful", "user", username)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout forgets the local credential. A failed server-side revoke is
// reported but the session is gone either way.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Status prints the session state without contacting the server.
func (a *App) Status(_ context.Context) error {
	st := a.auth.Status()
	switch {
	case !st.HasCredential:
		fmt.Fprintln(a.out, "Not logged in")
	case st.Authenticated:
		fmt.Fprintf(a.out, "Logged in, token valid until %s\n", st.ExpiresAt.Local().Format(time.RFC3339))
	default:
		fmt.Fprintf(a.out, "Token expired at %s, it will be refreshed on the next request\n", st.ExpiresAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(a.out, "API: %s\n", a.api.Config().BaseURL)
	return nil
}
