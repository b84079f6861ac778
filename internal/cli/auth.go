package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	stravaAuthorizeURL = "https://www.strava.com/oauth/authorize"
	stravaTokenURL     = "https://www.strava.com/oauth/token"

	// callbackAddr hosts the one-shot OAuth redirect target. Strava only
	// allows loopback redirects for localhost development apps.
	callbackAddr = "localhost:8723"

	// authTimeout bounds the whole browser round-trip.
	authTimeout = 5 * time.Minute
)

// authCommand creates the auth command with subcommands.
func (c *CLI) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize data providers",
	}
	cmd.AddCommand(c.authStravaCommand())
	return cmd
}

// authStravaCommand creates the "auth strava" subcommand. It walks the
// authorization-code flow once and prints the long-lived refresh token to
// put in the config file; the pipeline then refreshes access tokens on its
// own from there.
func (c *CLI) authStravaCommand() *cobra.Command {
	var clientID, clientSecret string

	cmd := &cobra.Command{
		Use:   "strava",
		Short: "Obtain a Strava refresh token",
		Long: `Authorize paperdash against your Strava application.

Create an API application at https://www.strava.com/settings/api with
"localhost" as the authorization callback domain, then run this command
with the application's client id and secret. The resulting refresh token
goes into the [strava] config section (or STRAVA_REFRESH_TOKEN).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" {
				clientID = os.Getenv("STRAVA_CLIENT_ID")
			}
			if clientSecret == "" {
				clientSecret = os.Getenv("STRAVA_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("client id and secret required (flags or STRAVA_CLIENT_ID/STRAVA_CLIENT_SECRET)")
			}
			return c.runStravaAuth(cmd.Context(), clientID, clientSecret)
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Strava application client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Strava application client secret")
	return cmd
}

// callbackResult carries the redirect parameters out of the HTTP handler.
type callbackResult struct {
	code string
	err  error
}

func (c *CLI) runStravaAuth(ctx context.Context, clientID, clientSecret string) error {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	state := uuid.NewString()
	redirectURI := "http://" + callbackAddr + "/callback"

	listener, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", callbackAddr, err)
	}
	defer listener.Close()

	results := make(chan callbackResult, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callbackResult{err: fmt.Errorf("authorization state mismatch")}
		case q.Get("error") != "":
			fmt.Fprintln(w, "Authorization denied. You can close this tab.")
			results <- callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))}
		default:
			fmt.Fprintln(w, "Authorized. You can close this tab and return to the terminal.")
			results <- callbackResult{code: q.Get("code")}
		}
	})}
	go srv.Serve(listener)
	defer srv.Close()

	authURL := stravaAuthorizeURL + "?" + url.Values{
		"client_id":     {clientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {"activity:read_all,profile:read_all"},
		"state":         {state},
	}.Encode()

	printNewline()
	fmt.Println(StyleTitle.Render("Strava Authorization"))
	printNewline()
	printKeyValue("URL", StyleLink.Render(authURL))
	printNewline()
	if err := openBrowser(authURL); err != nil {
		printDetail("Copy the URL above and paste it in your browser")
	} else {
		printDetail("Opening browser...")
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return fmt.Errorf("authorization timed out")
	}
	if result.err != nil {
		return result.err
	}

	token, err := exchangeStravaCode(ctx, clientID, clientSecret, result.code)
	if err != nil {
		return err
	}

	printNewline()
	printSuccess("Authorized as %s", token.Name())
	printKeyValue("Refresh", StyleNumber.Render(token.RefreshToken))
	printNewline()
	printDetail("Add to ~/.config/paperdash/config.toml:")
	printDetail("  [strava]")
	printDetail("  client_id = %q", clientID)
	printDetail("  client_secret = %q", clientSecret)
	printDetail("  refresh_token = %q", token.RefreshToken)
	return nil
}

type stravaToken struct {
	RefreshToken string `json:"refresh_token"`
	Athlete      struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
	} `json:"athlete"`
}

func (t *stravaToken) Name() string {
	name := strings.TrimSpace(t.Athlete.FirstName + " " + t.Athlete.LastName)
	if name == "" {
		return "your Strava account"
	}
	return name
}

func exchangeStravaCode(ctx context.Context, clientID, clientSecret, code string) (*stravaToken, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, stravaTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed: %s", resp.Status)
	}

	var token stravaToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, fmt.Errorf("token response missing refresh_token")
	}
	return &token, nil
}

func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
