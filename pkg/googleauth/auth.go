package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
)

// Authenticator runs the installed-app OAuth flow for a desktop client:
// credentials come from a downloaded client secret file, tokens are cached
// in a local file, and the consent redirect lands on a short-lived loopback
// server.
type Authenticator struct {
	credentialsFile string
	tokenFile       string
	port            string
	logger          *log.Logger
}

func New(credentialsFile, tokenFile, port string, logger *log.Logger) *Authenticator {
	return &Authenticator{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		port:            port,
		logger:          logger.WithPrefix("oauth"),
	}
}

// Client returns an authenticated HTTP client covering Gmail and Sheets.
// A cached token is reused when present; otherwise the browser consent flow
// runs once and the resulting token is saved.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	b, err := os.ReadFile(a.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b,
		gmail.GmailModifyScope,
		gmail.GmailComposeScope,
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth/callback", a.port)

	tok, err := a.tokenFromFile()
	if err != nil {
		tok, err = a.tokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := a.saveToken(tok); err != nil {
			a.logger.Warn("could not cache token", "err", err)
		}
	}
	return config.Client(ctx, tok), nil
}

func (a *Authenticator) tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state := uuid.NewString()
	codeCh := make(chan string, 1)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/oauth/callback", func(c *gin.Context) {
		if c.Query("state") != state {
			c.String(http.StatusBadRequest, "state mismatch")
			return
		}
		if errMsg := c.Query("error"); errMsg != "" {
			c.String(http.StatusBadRequest, "authorization failed: %s", errMsg)
			codeCh <- ""
			return
		}
		c.String(http.StatusOK, "Authorized. You can close this tab and return to the terminal.")
		codeCh <- c.Query("code")
	})

	srv := &http.Server{Addr: ":" + a.port, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("callback server failed", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	a.logger.Info("open this link in your browser to authorize", "url", authURL)

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if code == "" {
		return nil, fmt.Errorf("authorization was denied")
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func (a *Authenticator) tokenFromFile() (*oauth2.Token, error) {
	f, err := os.Open(a.tokenFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func (a *Authenticator) saveToken(token *oauth2.Token) error {
	a.logger.Info("caching oauth token", "file", a.tokenFile)
	f, err := os.OpenFile(a.tokenFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
