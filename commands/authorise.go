package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var AuthoriseCmd = Authorise{
	workdir:     "",
	credentials: "",
	port:        8080,
}

// Authorise runs the OAuth2 consent flow for OAuth client credentials and saves the
// resulting token in the work directory. Not required for service accounts.
type Authorise struct {
	workdir     string
	credentials string
	port        uint
	debug       bool
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises sheets-publish to read Google Sheets spreadsheets"
}

func (cmd *Authorise) Usage() string {
	return "[--credentials <file>] [--port <port>]"
}

func (cmd *Authorise) Flags(flagset *pflag.FlagSet) {
	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, fmt.Sprintf("Directory for working files (tokens, task list, layout). Defaults to %v", DEFAULT_WORKDIR))
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the OAuth client 'credentials.json' file")
	flagset.UintVar(&cmd.port, "port", cmd.port, "Local port for the OAuth2 redirect")
}

func (cmd *Authorise) Execute(ctx context.Context, options *Options) error {
	cmd.debug = options.Debug

	workdir := resolve(cmd.workdir, options.Config.Google.Workdir, DEFAULT_WORKDIR)
	credentials := resolve(cmd.credentials, options.Config.Google.Credentials, DEFAULT_CREDENTIALS)

	b, err := os.ReadFile(credentials)
	if err != nil {
		return err
	}

	if isServiceAccount(b) {
		infof("%v is a service account - no authorisation required", credentials)
		return nil
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	token, err := cmd.authenticate(ctx, config)
	if err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	} else if token == nil {
		return nil
	}

	tokens := tokenFile(credentials, workdir)
	if err := saveToken(tokens, token); err != nil {
		return err
	}

	infof("Saved authorisation token to %v", tokens)

	return nil
}

// authenticate starts a local HTTP server for the OAuth2 redirect and waits for the
// authorisation code. Returns a nil token if cancelled.
func (cmd *Authorise) authenticate(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state := uuid.NewString()
	authorised := make(chan string, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%v", cmd.port))
	if err != nil {
		return nil, err
	}

	config.RedirectURL = fmt.Sprintf("http://localhost:%v/", cmd.port)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		code := rq.FormValue("code")

		if cmd.debug {
			debugf("RQ %v", rq.URL.Path)
		}

		if rq.FormValue("state") != state || code == "" {
			http.Error(w, "Invalid authorisation response", http.StatusBadRequest)
			return
		}

		fmt.Fprintln(w, "Authorised - you can close this window")

		select {
		case authorised <- code:
		default:
		}
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorf("%v", err)
		}
	}()

	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			warnf("%v", err)
		}
	}()

	url := config.AuthCodeURL(state, oauth2.AccessTypeOffline)

	fmt.Println()
	fmt.Println("  Open the following link in your browser to authorise access to Google Sheets:")
	fmt.Println()
	fmt.Printf("    %v\n", strings.TrimSpace(url))
	fmt.Println()

	select {
	case <-ctx.Done():
		fmt.Printf("\n.. cancelled\n\n")
		return nil, nil

	case code := <-authorised:
		return config.Exchange(ctx, code)
	}
}
