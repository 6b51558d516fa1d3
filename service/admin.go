package service

import (
	"fmt"

	"yatube/app/models"
	"yatube/app/services"

	"github.com/spf13/cobra"
)

var (
	flagGroupTitle       string
	flagGroupSlug        string
	flagGroupDescription string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	Long: `Create a group that posts can be filed under.

  yatube group create --title "Cats" --slug cats --description "All about cats"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		group := &models.Group{
			Title:       flagGroupTitle,
			Slug:        flagGroupSlug,
			Description: flagGroupDescription,
		}
		if err := services.NewGroupService(store).Create(group); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created group: %s (slug: %s, id: %d)\n", group.Title, group.Slug, group.ID)
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a group; its posts stay without a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := services.NewGroupService(store).Delete(args[0]); err != nil {
			return fmt.Errorf("delete group %q: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted group: %s\n", args[0])
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user with their posts, comments and follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := services.NewUserService(store).Delete(args[0]); err != nil {
			return fmt.Errorf("delete user %q: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted user: %s\n", args[0])
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&flagGroupTitle, "title", "", "Group title (required)")
	groupCreateCmd.Flags().StringVar(&flagGroupSlug, "slug", "", "URL slug (required)")
	groupCreateCmd.Flags().StringVar(&flagGroupDescription, "description", "", "Group description")
	groupCmd.AddCommand(groupCreateCmd, groupDeleteCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(groupCmd, userCmd)
}
