package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hostelhub/roomcast/internal/auth"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Mint a stream token for a registered student",
	Long: `Prints a signed token that opens the student's notification stream:

  GET /api/notifications/subscribe?token=<token>

The token is signed with auth.secret from the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, store, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		st, err := store.FindByUsername(ctx, args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		tok, err := auth.NewIssuer(cfg.Auth.Secret).Issue(st.Username, ttl)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default: auth.token_ttl)")
}
