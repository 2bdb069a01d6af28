package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/kairyu/notionctl/internal/config"
	"github.com/kairyu/notionctl/internal/notion/oauth"
)

const (
	defaultCallbackPort = 8080
	callbackTimeout     = 5 * time.Minute
)

type loginOptions struct {
	port    int
	tokenV2 string
	userID  string
	spaceID string
}

var loginOpts = &loginOptions{}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Notion",
	Long: `Authenticate with Notion.

Without flags this runs the OAuth flow for the official API and saves
the resulting integration token. Before running it, configure your
OAuth credentials:
  - Set NOTIONCTL_CLIENT_ID and NOTIONCTL_CLIENT_SECRET environment variables
  - Or add client_id and client_secret to ~/.config/notionctl/config.toml

With --token-v2 it instead saves a browser session, unlocking the
session backend (inline comments, page history, backlinks, activity).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginOpts.tokenV2 != "" {
			return runSessionLogin(loginOpts)
		}
		return runOAuthLogin(cmd.Context(), loginOpts)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogout()
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials and backend are active",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthStatus()
	},
}

func init() {
	authLoginCmd.Flags().IntVarP(&loginOpts.port, "port", "p", defaultCallbackPort, "Local callback server port")
	authLoginCmd.Flags().StringVar(&loginOpts.tokenV2, "token-v2", "", "Browser session token (token_v2 cookie)")
	authLoginCmd.Flags().StringVar(&loginOpts.userID, "user", "", "User id for the session backend")
	authLoginCmd.Flags().StringVar(&loginOpts.spaceID, "space", "", "Workspace id for the session backend")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runSessionLogin(opts *loginOptions) error {
	if opts.userID == "" || opts.spaceID == "" {
		return fmt.Errorf("--user and --space are required with --token-v2")
	}

	session := &config.SessionData{
		TokenV2: opts.tokenV2,
		UserID:  opts.userID,
		SpaceID: opts.spaceID,
	}
	if err := config.SaveSession(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Println("Session saved. Session backend is now active.")
	return nil
}

func runOAuthLogin(ctx context.Context, opts *loginOptions) error {
	cfg, err := config.LoadOAuthConfig()
	if err != nil {
		return fmt.Errorf("failed to load OAuth config: %w", err)
	}

	if err := cfg.ValidateOAuth(); err != nil {
		return err
	}

	// Check if token already exists
	configDir, _ := config.GetConfigDir()
	tokenPath := configDir + "/" + config.TokenFileName
	if _, err := os.Stat(tokenPath); err == nil {
		fmt.Printf("Token file already exists: %s\n", tokenPath)
		fmt.Print("Do you want to re-authenticate? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	server, err := oauth.NewCallbackServer(opts.port)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer server.Close()

	redirectURI := fmt.Sprintf("http://localhost:%d/callback", server.Port())

	// State for CSRF protection
	state, err := generateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	oauthClient := oauth.NewClient(&oauth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  redirectURI,
	})

	authURL := oauthClient.AuthCodeURL(state)

	fmt.Println("Opening browser for Notion authorization...")
	fmt.Printf("If the browser doesn't open, visit this URL:\n%s\n\n", authURL)

	if err := openBrowser(authURL); err != nil {
		fmt.Printf("Failed to open browser: %v\n", err)
	}

	fmt.Println("Waiting for authorization...")

	ctx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()

	if err := server.Start(ctx, state); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	code := server.Code()
	if code == "" {
		return fmt.Errorf("no authorization code received")
	}

	fmt.Println("Authorization received, exchanging code for token...")

	token, err := oauthClient.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	tokenData := &config.TokenData{
		AccessToken:   token.AccessToken,
		TokenType:     token.TokenType,
		BotID:         token.BotID,
		WorkspaceID:   token.WorkspaceID,
		WorkspaceName: token.WorkspaceName,
	}

	if err := config.SaveToken(tokenData); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("Authentication successful!")

	return nil
}

func runLogout() error {
	if err := config.DeleteToken(); err != nil {
		return err
	}
	if err := config.DeleteSession(); err != nil {
		return err
	}
	fmt.Println("Credentials removed.")
	return nil
}

func runAuthStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println("Not authenticated.")
		fmt.Println(err)
		return nil
	}

	fmt.Printf("Backend: %s\n", cfg.Backend)
	switch cfg.Backend {
	case config.BackendSession:
		fmt.Printf("User: %s\n", cfg.UserID)
		fmt.Printf("Workspace: %s\n", cfg.SpaceID)
	default:
		if token, err := config.LoadToken(); err == nil && token.WorkspaceName != "" {
			fmt.Printf("Workspace: %s (%s)\n", token.WorkspaceName, token.WorkspaceID)
		}
	}
	return nil
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		return fmt.Errorf("unsupported platform")
	}

	return exec.Command(cmd, args...).Start()
}
