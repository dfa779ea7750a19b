package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oneeyedreaper/onboard/internal/infra/app"
	"github.com/oneeyedreaper/onboard/internal/usecase"
)

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

func newSeedCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create bootstrap data",
	}

	var email, firstName, lastName string
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Create the administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			account := usecase.AdminAccount{
				Email:     firstNonEmpty(email, cfg.Admin.Email),
				Password:  cfg.Admin.Password,
				FirstName: firstNonEmpty(firstName, cfg.Admin.FirstName),
				LastName:  firstNonEmpty(lastName, cfg.Admin.LastName),
			}
			if account.Email == "" {
				return errors.New("admin email is required (--email or ADMIN_EMAIL)")
			}
			if account.Password == "" {
				account.Password, err = promptPassword(cmd.ErrOrStderr(), int(os.Stdin.Fd()))
				if err != nil {
					return err
				}
			}

			client, created, err := app.SeedAdmin(cmd.Context(), cfg, account)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", client.Email, client.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", client.Email)
			}
			return nil
		},
	}
	admin.Flags().StringVar(&email, "email", "", "admin email (defaults to admin.email)")
	admin.Flags().StringVar(&firstName, "first-name", "", "admin first name")
	admin.Flags().StringVar(&lastName, "last-name", "", "admin last name")

	cmd.AddCommand(admin)
	return cmd
}

// promptPassword reads the password twice from fd without echo.
func promptPassword(w io.Writer, fd int) (string, error) {
	fmt.Fprint(w, "Admin password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(w, "Confirm password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(first), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
