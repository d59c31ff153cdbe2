package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codelens-app/auth-service/app/entity"
	"github.com/codelens-app/auth-service/app/repository"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage user roles",
}

var roleAssignCmd = &cobra.Command{
	Use:   "assign <email> <role>",
	Short: "Assign a role to a user (ROLE_USER or ROLE_ADMIN)",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		email := args[0]
		role := strings.ToUpper(args[1])
		if role != entity.RoleUser && role != entity.RoleAdmin {
			return fmt.Errorf("unknown role %q, expected %s or %s", args[1], entity.RoleUser, entity.RoleAdmin)
		}

		userRepo, db, err := newUserRepositoryForRoleCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		user, err := userRepo.FindByEmail(context.Background(), email)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user found for email %q", email)
		}

		if err = userRepo.AssignRole(context.Background(), user.ID, role); err != nil {
			return err
		}

		fmt.Printf("user_id: %s\n", user.ID)
		fmt.Printf("email: %s\n", user.Email)
		fmt.Printf("role: %s\n", role)
		return nil
	},
}

func init() {
	roleCmd.AddCommand(roleAssignCmd)
	rootCmd.AddCommand(roleCmd)
}

func newUserRepositoryForRoleCommands() (*repository.UserRepository, *sql.DB, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("MYSQL_DSN environment variable is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repository.NewUserRepository(db), db, nil
}
