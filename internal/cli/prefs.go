package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"raton/internal/app"
	"raton/internal/preferences"
)

func (c *CLI) newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage stored user preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List chats with stored preferences",
		Args:  cobra.NoArgs,
		RunE:  c.withPrefs(c.prefsList),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show CHAT_ID",
		Short: "Print the preferences of a chat as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withPrefs(c.prefsShow),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set CHAT_ID FILE",
		Short: "Validate a YAML preferences file and store it for a chat",
		Args:  cobra.ExactArgs(2),
		RunE:  c.withPrefs(c.prefsSet),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete CHAT_ID",
		Short: "Delete the preferences of a chat",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withPrefs(c.prefsDelete),
	})
	return cmd
}

type prefsFunc func(cmd *cobra.Command, store preferences.Store, args []string) error

func (c *CLI) withPrefs(fn prefsFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := c.loadConfig()
		if err != nil {
			return err
		}
		store, err := app.OpenPreferences(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q", s)
	}
	return id, nil
}

func (c *CLI) prefsList(cmd *cobra.Command, store preferences.Store, _ []string) error {
	ids, err := store.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users with stored preferences.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func (c *CLI) prefsShow(cmd *cobra.Command, store preferences.Store, args []string) error {
	id, err := parseChatID(args[0])
	if err != nil {
		return err
	}
	p, err := store.Load(cmd.Context(), id)
	if err != nil {
		return err
	}
	b, err := preferences.Encode(p)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func (c *CLI) prefsSet(cmd *cobra.Command, store preferences.Store, args []string) error {
	id, err := parseChatID(args[0])
	if err != nil {
		return err
	}
	b, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	p, err := preferences.Decode(b)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	exists, err := store.Exists(cmd.Context(), id)
	if err != nil {
		return err
	}
	if exists {
		if err := store.Update(cmd.Context(), id, p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated preferences for chat %d\n", id)
		return nil
	}
	if err := store.Save(cmd.Context(), id, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved preferences for chat %d\n", id)
	return nil
}

func (c *CLI) prefsDelete(cmd *cobra.Command, store preferences.Store, args []string) error {
	id, err := parseChatID(args[0])
	if err != nil {
		return err
	}
	if err := store.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted preferences for chat %d\n", id)
	return nil
}
