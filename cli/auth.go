package cli

import (
	"fmt"
	"syscall"

	"github.com/binhbb2204/nocturne/cli/config"
	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	email       string
	displayName string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Register, login, logout and check who you are signed in as.`,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  `Register a new Nocturne account with email and display name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if email == "" {
			return fmt.Errorf("email is required (--email)")
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		var resp models.AuthResponse
		req := models.RegisterRequest{Email: email, Password: password, DisplayName: displayName}
		if err := client.post(cmd.Context(), "/auth/register", req, &resp); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if err := config.UpdateUserToken(resp.UserID, resp.Email, resp.DisplayName, resp.Token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		printSuccess("Account created")
		fmt.Printf("Signed in as %s (%s)\n", resp.DisplayName, resp.Email)
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your account",
	Long:  `Login with email and password. The token is stored in the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if email == "" {
			email = client.cfg.User.Email
		}
		if email == "" {
			return fmt.Errorf("email is required (--email)")
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		var resp models.AuthResponse
		req := models.LoginRequest{Email: email, Password: password}
		if err := client.post(cmd.Context(), "/auth/login", req, &resp); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := config.UpdateUserToken(resp.UserID, resp.Email, resp.DisplayName, resp.Token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		printSuccess("Login successful!")
		fmt.Printf("Welcome back, %s\n", resp.DisplayName)
		fmt.Printf("Token expires: %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your account",
	Long:  `Revoke the stored token on the server and remove it locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if client.cfg.User.Token == "" {
			printInfo("You are not logged in")
			return nil
		}

		// A revoked or expired token still gets cleared locally.
		if err := client.post(cmd.Context(), "/auth/logout", nil, nil); err != nil && !isLoginRequired(err) {
			printError(fmt.Sprintf("server logout failed: %v", err))
		}
		if err := config.ClearUserToken(); err != nil {
			return fmt.Errorf("failed to logout: %w", err)
		}

		printSuccess("Logged out successfully!")
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var resp struct {
			State string  `json:"state"`
			User  *whoami `json:"user"`
		}
		if err := client.get(cmd.Context(), "/auth/me", &resp); err != nil {
			return err
		}
		if resp.User == nil {
			printInfo("Not signed in")
			return nil
		}
		fmt.Printf("%s <%s>\n", resp.User.DisplayName, resp.User.Email)
		fmt.Printf("User ID: %s\n", resp.User.ID)
		return nil
	},
}

type whoami struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func init() {
	authRegisterCmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	authRegisterCmd.Flags().StringVar(&displayName, "name", "", "Display name")
	authLoginCmd.Flags().StringVar(&email, "email", "", "Email address (defaults to the last one used)")

	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
}
