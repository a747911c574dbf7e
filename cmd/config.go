package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hostelhub/roomcast/internal/config"
	"github.com/hostelhub/roomcast/internal/database"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and manage roomcast configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Auth.Secret != "" {
			cfg.Auth.Secret = "***"
		}
		if cfg.Notify.Webhook.Secret != "" {
			cfg.Notify.Webhook.Secret = "***"
		}
		if cfg.Database.DSN != "" {
			cfg.Database.DSN = "***"
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults and a fresh auth secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%s already exists", p)
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Auth.Secret == "" {
			secret, err := config.GenerateSecret()
			if err != nil {
				return err
			}
			cfg.Auth.Secret = secret
		}
		if err := config.Save(cfg, p); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Wrote " + p))
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify configuration and database health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		allOK := true

		fmt.Println("=== roomcast doctor ===")
		fmt.Println()

		fmt.Print("Database ................. ")
		db, err := database.New(cfg.Database)
		if err != nil {
			fmt.Printf("FAIL (%s)\n", err)
			allOK = false
		} else {
			if err := db.Ping(ctx); err != nil {
				fmt.Printf("FAIL (%s)\n", err)
				allOK = false
			} else {
				fmt.Printf("OK (%s)\n", db.Driver())
			}
			db.Close()
		}

		fmt.Print("Auth secret .............. ")
		if cfg.Auth.Secret == "" {
			fmt.Println("MISSING (run 'roomcast config init' or set ROOMCAST_AUTH_SECRET)")
			allOK = false
		} else {
			fmt.Println("OK")
		}

		fmt.Print("Webhook mirror ........... ")
		if cfg.Notify.Webhook.URL == "" {
			fmt.Println("disabled")
		} else {
			fmt.Printf("OK (%s)\n", cfg.Notify.Webhook.URL)
		}

		fmt.Printf("Gateway address .......... %s\n", cfg.Gateway.Addr())

		fmt.Println()
		if allOK {
			fmt.Println(successStyle.Render("All checks passed; roomcast is ready."))
		} else {
			fmt.Println(warnStyle.Render("Some checks failed."))
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
}
