package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/anonymous"
	"github.com/jrsteele09/go-auth-client/container"
	"github.com/jrsteele09/go-auth-client/httpapi"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/rs/zerolog"
)

const appName = "authdemo"

func main() {
	endpoint := flag.String("endpoint", "", "base URL of the authorization server")
	clientID := flag.String("client-id", "", "OAuth client ID")
	listenAddr := flag.String("listen", "127.0.0.1:8976", "loopback address for the redirect")
	anonymousLogin := flag.Bool("anonymous", false, "sign in anonymously instead of interactively")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *endpoint == "" || *clientID == "" {
		flag.Usage()
		os.Exit(2)
	}

	displayAppname(appName)
	if err := run(logger, *endpoint, *clientID, *listenAddr, *anonymousLogin); err != nil {
		logger.Fatal().Err(err).Msg("demo failed")
	}
}

func run(logger zerolog.Logger, endpoint, clientID, listenAddr string, anonymousLogin bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	apiClient, err := httpapi.New(endpoint)
	if err != nil {
		return err
	}

	store := storage.NewContainerStorage(storage.NewInMemoryDriver())
	c, err := container.New(apiClient, store,
		container.WithURLOpener(&loopbackOpener{addr: listenAddr, logger: logger}),
		container.WithKeyProvider(anonymous.NewInMemoryKeyProvider()),
		container.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	c.AddSessionStateListener(&stateLogger{logger: logger})

	if err := c.Configure(ctx, container.ConfigureOptions{ClientID: clientID}); err != nil {
		return err
	}

	var result *container.AuthorizeResult
	if anonymousLogin {
		result, err = c.AuthenticateAnonymously(ctx)
	} else {
		result, err = c.Authorize(ctx, container.AuthorizeOptions{
			RedirectURI: "http://" + listenAddr + "/callback",
			State:       fmt.Sprintf("demo-%d", time.Now().UnixNano()),
		})
	}
	if err != nil {
		return err
	}
	logger.Info().Str("sub", result.UserInfo.Sub).Msg("signed in")

	info, err := c.FetchUserInfo(ctx)
	if err != nil {
		return err
	}
	logger.Info().
		Bool("anonymous", info.IsAnonymous).
		Bool("verified", info.IsVerified).
		Strs("roles", info.Roles).
		Msg("userinfo")

	if err := c.Logout(ctx, container.LogoutOptions{}); err != nil {
		return err
	}
	logger.Info().Msg("signed out")
	return nil
}

// stateLogger prints every session state transition.
type stateLogger struct {
	logger zerolog.Logger
}

func (s *stateLogger) OnSessionStateChanged(c *container.Container, reason container.SessionStateChangeReason) {
	s.logger.Info().
		Str("state", string(c.SessionState())).
		Str("reason", string(reason)).
		Msg("session state changed")
}

// loopbackOpener completes interactive flows through a loopback redirect:
// it prints the authorization URL for the user to open and waits for the
// provider to redirect the browser back to the local listener.
type loopbackOpener struct {
	addr   string
	logger zerolog.Logger
}

func (o *loopbackOpener) OpenAuthorizeURL(ctx context.Context, authorizeURL, redirectURI string) (string, error) {
	listener, err := net.Listen("tcp", o.addr)
	if err != nil {
		return "", err
	}

	redirected := make(chan string, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirected <- redirectURI + "?" + r.URL.RawQuery
		fmt.Fprintln(w, "You can close this window and return to the terminal.")
	})}
	go server.Serve(listener)
	defer server.Shutdown(context.Background())

	o.logger.Info().Msg("open this URL in your browser:")
	fmt.Println(authorizeURL)

	select {
	case redirectURL := <-redirected:
		return redirectURL, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (o *loopbackOpener) OpenURL(_ context.Context, url string) error {
	o.logger.Info().Msg("open this URL in your browser:")
	fmt.Println(url)
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
