package main

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
	"github.com/dtc-ibs/borrowing-api/internal/infrastructure/db/postgres"
)

const minAdminPasswordLength = 6

func newCreateAdminCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified admin account, or promote an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				p, err := readPassword(cmd.ErrOrStderr(), "Admin password: ")
				if err != nil {
					return err
				}
				password = p
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			account, err := createAdmin(cmd.Context(), postgres.NewAccountRepository(db), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s ready (id %d)\n", account.Email, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// createAdmin validates the credentials and stores them through SaveAdmin.
func createAdmin(ctx context.Context, repo ports.AccountRepository, email, password string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validationf("email %q is not valid", email)
	}
	if len(password) < minAdminPasswordLength {
		return nil, domain.Validationf("password must be at least %d characters", minAdminPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return repo.SaveAdmin(ctx, email, string(hash))
}

// readPassword reads a password from the terminal without echoing it.
func readPassword(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
