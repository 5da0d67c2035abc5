package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexjbarnes/authkit/internal/authconfig"
	"github.com/alexjbarnes/authkit/internal/config"
	autherrors "github.com/alexjbarnes/authkit/internal/errors"
	"github.com/alexjbarnes/authkit/internal/oauth2"
	"github.com/alexjbarnes/authkit/internal/pending"
	"github.com/spf13/cobra"
)

// loadAuthConfig reads the --config file and refuses configurations
// that do not validate or are inactive.
func loadAuthConfig(cmd *cobra.Command) (*authconfig.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := authconfig.Load(path)
	if err != nil {
		return nil, err
	}

	res := authconfig.Validate(cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	if !authconfig.IsReadyForUse(res) {
		return nil, fmt.Errorf("%w: %s", autherrors.ErrConfigInvalid, authconfig.Summary(res))
	}
	if res.Type == authconfig.TypeNone {
		return nil, fmt.Errorf("authentication is not configured in %s", path)
	}

	return cfg, nil
}

// oauth2Config returns the OAuth2 block of a config already accepted by
// loadAuthConfig.
func oauth2Config(cfg *authconfig.Config) (*authconfig.OAuth2Config, error) {
	if cfg.Type != authconfig.TypeOAuth2 || cfg.OAuth2 == nil {
		return nil, fmt.Errorf("auth type is %q, not oauth2", cfg.Type)
	}

	return cfg.OAuth2, nil
}

func newFlowClient(cfg *config.Config) *oauth2.Client {
	return oauth2.NewClient(&http.Client{Timeout: cfg.HTTPTimeout})
}

// basicHeader is the RFC 7617 header value. Unlike OAuth2 client
// authentication the credentials are not form-encoded first.
func basicHeader(b *authconfig.BasicConfig) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(b.Username+":"+b.Password))
}

// describeToken writes a one-line summary of a token response for the
// operator.
func describeToken(w io.Writer, resp oauth2.TokenResponse) {
	typ := resp.TokenType()
	if typ == "" {
		typ = "unspecified"
	}

	if resp.RefreshToken() == "" {
		fmt.Fprintf(w, "token type: %s; no refresh token issued\n", typ)
		return
	}

	fmt.Fprintf(w, "token type: %s; renew with: authkit refresh <refresh_token>\n", typ)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newValidateCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the auth config and print suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if !watch {
				cfg, err := authconfig.Load(path)
				if err != nil {
					return err
				}

				res := authconfig.Validate(cfg)
				printValidation(out, cfg, res)
				if !res.IsValid {
					return autherrors.ErrConfigInvalid
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = authconfig.Watch(ctx, path, func(cfg *authconfig.Config, res authconfig.Result, err error) {
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					return
				}
				printValidation(out, cfg, res)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-validate whenever the file changes")

	return cmd
}

func printValidation(w io.Writer, cfg *authconfig.Config, res authconfig.Result) {
	fmt.Fprintln(w, authconfig.Summary(res))
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
	for _, s := range authconfig.SecuritySuggestions(cfg) {
		fmt.Fprintf(w, "  suggestion: %s\n", s)
	}
}

func newAuthorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authorize",
		Short: "Print the authorization URL and remember the attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := config.LoadClient()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := loadAuthConfig(cmd)
			if err != nil {
				return err
			}

			o, err := oauth2Config(cfg)
			if err != nil {
				return err
			}

			state, err := oauth2.GenerateState()
			if err != nil {
				return err
			}

			var authURL string

			switch o.GrantType {
			case authconfig.GrantImplicit:
				authURL, err = oauth2.BuildImplicitFlowURL(o.ImplicitRequest(state))
				if err != nil {
					return err
				}

			case authconfig.GrantAuthorizationCode:
				attempt := pending.Attempt{
					State:         state,
					ClientID:      o.ClientID,
					RedirectURI:   o.RedirectURI,
					TokenEndpoint: o.TokenEndpoint,
				}

				if o.IsPKCE {
					pair, err := oauth2.NewPKCEPair(o.ChallengeMethod())
					if err != nil {
						return err
					}
					attempt.CodeVerifier = pair.CodeVerifier
					attempt.Method = pair.Method
				}

				authURL, err = oauth2.BuildAuthorizationURL(o.AuthorizationRequest(state, attempt.CodeVerifier))
				if err != nil {
					return err
				}

				if err := savePending(env, attempt); err != nil {
					return err
				}

			default:
				return fmt.Errorf("%w: %s has no authorization step", autherrors.ErrUnsupportedGrantType, o.GrantType)
			}

			fmt.Fprintln(cmd.OutOrStdout(), authURL)
			return nil
		},
	}
}

func savePending(env *config.Config, a pending.Attempt) error {
	ps, err := pending.LoadAt(env.PendingStatePath)
	if err != nil {
		return err
	}
	defer ps.Close()

	if _, err := ps.Cleanup(); err != nil {
		return err
	}

	a.CreatedAt = time.Now()
	a.ExpiresAt = a.CreatedAt.Add(env.PendingAuthTTL)

	return ps.Save(a)
}

func newCallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "callback <redirect-url>",
		Short: "Redeem the code from an authorization redirect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadClient()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := loadAuthConfig(cmd)
			if err != nil {
				return err
			}

			o, err := oauth2Config(cfg)
			if err != nil {
				return err
			}

			u, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing redirect URL: %w", err)
			}
			q := u.Query()

			if code := q.Get("error"); code != "" {
				return fmt.Errorf("authorization failed: %w", oauth2.OAuthError{
					Code:        code,
					Description: q.Get("error_description"),
					URI:         q.Get("error_uri"),
				})
			}

			attempt, err := consumePending(env, q.Get("state"))
			if err != nil {
				return err
			}

			req := o.CodeExchangeRequest(q.Get("code"), attempt.CodeVerifier)
			if attempt.TokenEndpoint != "" {
				req.TokenEndpoint = attempt.TokenEndpoint
			}
			req.RedirectURI = attempt.RedirectURI

			resp, err := newFlowClient(env).ExchangeCodeForToken(cmd.Context(), req)
			if err != nil {
				return err
			}

			describeToken(cmd.ErrOrStderr(), resp)
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func consumePending(env *config.Config, state string) (*pending.Attempt, error) {
	if state == "" {
		return nil, fmt.Errorf("%w: state", autherrors.ErrMissingRequired)
	}

	ps, err := pending.LoadAt(env.PendingStatePath)
	if err != nil {
		return nil, err
	}
	defer ps.Close()

	attempt, err := ps.Consume(state)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, fmt.Errorf("no pending authorization for this state (unknown, already used or expired)")
	}

	return attempt, nil
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Request a token with the configured direct grant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := config.LoadClient()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := loadAuthConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if cfg.Type == authconfig.TypeBasic {
				fmt.Fprintf(out, "Authorization: %s\n", basicHeader(cfg.Basic))
				return nil
			}

			o := cfg.OAuth2
			client := newFlowClient(env)

			var resp oauth2.TokenResponse

			switch o.GrantType {
			case authconfig.GrantClientCredentials:
				resp, err = client.ClientCredentials(cmd.Context(), o.ClientCredentialsRequest())
			case authconfig.GrantPassword:
				resp, err = client.Password(cmd.Context(), o.PasswordRequest())
			default:
				return fmt.Errorf("%w: %s needs authorize and callback", autherrors.ErrUnsupportedGrantType, o.GrantType)
			}
			if err != nil {
				return err
			}

			describeToken(cmd.ErrOrStderr(), resp)
			return printJSON(out, resp)
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <refresh-token>",
		Short: "Trade a refresh token for a new access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadClient()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := loadAuthConfig(cmd)
			if err != nil {
				return err
			}

			o, err := oauth2Config(cfg)
			if err != nil {
				return err
			}

			resp, err := newFlowClient(env).Refresh(cmd.Context(), o.RefreshRequest(args[0]))
			if err != nil {
				return err
			}

			describeToken(cmd.ErrOrStderr(), resp)
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newPKCECmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "pkce",
		Short: "Generate a PKCE verifier, challenge and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := oauth2.NewPKCEPair(oauth2.CodeChallengeMethod(method))
			if err != nil {
				return err
			}

			state, err := oauth2.GenerateState()
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]string{
				"code_verifier":         pair.CodeVerifier,
				"code_challenge":        pair.CodeChallenge,
				"code_challenge_method": string(pair.Method),
				"state":                 state,
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", string(oauth2.CodeChallengeMethodS256), "Challenge method (S256 or plain)")

	return cmd
}
