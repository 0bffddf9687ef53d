package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/halcyondev/shellm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or edit the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.NewLoader().Path()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value and persist it",
	Long: `Supported keys: base_url, model, api_key_env, auto_exec_mode,
auto_confirm_exec, agent_max_steps.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader()
		cfg, err := loader.Load()
		if err != nil {
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "base_url":
			cfg.BaseURL = value
		case "model":
			cfg.Model = value
		case "api_key_env":
			cfg.APIKeyEnv = value
		case "auto_exec_mode":
			cfg.AutoExecMode = config.AutoExecMode(value)
		case "auto_confirm_exec":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("auto_confirm_exec wants true/false: %w", err)
			}
			cfg.AutoConfirmExec = b
		case "agent_max_steps":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("agent_max_steps wants a number: %w", err)
			}
			cfg.AgentMaxSteps = n
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := loader.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "set %s = %s\n", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
}
