package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"lendshelf/internal/config"
	"lendshelf/internal/domain"
	"lendshelf/internal/repos"
	"lendshelf/internal/validate"
)

// readPassword reads a password with terminal echo off.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(raw)), nil
}

func main() {
	root := &cobra.Command{
		Use:          "lendshelfctl",
		Short:        "Operator tooling for the lendshelf service",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd(), userAddCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := repos.OpenDB(cfg.DBDSN) // OpenDB migrates
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Println("database is up to date")
			return nil
		},
	}
}

func userAddCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create a user account, prompting for the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			name, okName := validate.Name(name)
			if !okName {
				return fmt.Errorf("--name must be 1-256 characters")
			}
			email, okEmail := validate.Email(email)
			if !okEmail {
				return fmt.Errorf("--email is not a valid address")
			}

			pass, err := readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if !validate.Password(pass) {
				return fmt.Errorf("password must be 8-128 characters with upper, lower, digit and symbol")
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if pass != confirm {
				return fmt.Errorf("passwords do not match")
			}

			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			users := repos.NewUserRepo(db)
			if taken, err := users.EmailExists(email); err != nil {
				return err
			} else if taken {
				return domain.ErrEmailTaken
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(pass), cfg.BcryptCost)
			if err != nil {
				return err
			}
			u := domain.User{
				ID:        uuid.NewString(),
				Name:      name,
				Email:     email,
				Hash:      string(hash),
				CreatedAt: repos.Stamp(time.Now()),
			}
			if err := users.Create(u); err != nil {
				return err
			}
			fmt.Printf("created user %s (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
