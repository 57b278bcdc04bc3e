package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vmunix/archivist/internal/auth"
	"github.com/vmunix/archivist/internal/upload"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorise YouTube uploads",
	Long: `Run the OAuth consent flow and cache the token.

Open the printed URL in a browser and approve access. The browser is sent
back to a short-lived listener on 127.0.0.1, which completes the exchange.`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().Duration("timeout", 5*time.Minute, "How long to wait for the browser callback")
}

type callbackResult struct {
	code string
	err  error
}

func runAuth(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	base := upload.NewHTTPClient(upload.TransportConfig{
		Network: cfg.YouTube.Network,
		Timeout: cfg.YouTube.Timeout,
	})
	provider := auth.NewProvider(cfg.YouTube.ClientSecrets, cfg.YouTube.TokenFile, base, log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for callback: %w", err)
	}
	redirectURL := fmt.Sprintf("http://%s/callback", ln.Addr().String())
	state := uuid.NewString()

	authURL, err := provider.AuthCodeURL(state, redirectURL)
	if err != nil {
		_ = ln.Close()
		return err
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Close() }()

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, "Open this URL in your browser to authorise uploads:")
	_, _ = fmt.Fprintf(w, "\n  %s\n\n", authURL)
	_, _ = fmt.Fprintln(w, "Waiting for the callback...")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return errors.New("timed out waiting for authorisation")
	}
	if res.err != nil {
		return res.err
	}

	if err := provider.Exchange(ctx, res.code, redirectURL); err != nil {
		return err
	}
	_, _ = okColor.Fprintf(w, "Token saved to %s\n", cfg.YouTube.TokenFile)
	return nil
}

// callbackHandler accepts one redirect and reports its code or error.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("state mismatch in callback")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorisation denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("callback carried no code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprintln(w, "Authorised. You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})
	return mux
}
