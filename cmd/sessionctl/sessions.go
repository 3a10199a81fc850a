package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	sessionsCmd := &cobra.Command{Use: "sessions", Short: "Session operations"}

	// create
	var title string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			payload := map[string]interface{}{"userId": userFlag}
			if title != "" {
				payload["title"] = title
			}
			data, err := doPostJSON(apiFlag, "/api/sessions", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&title, "title", "t", "", "Session title (defaults to New Chat)")
	sessionsCmd.AddCommand(createCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions for a user, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			data, err := doGet(apiFlag, "/api/sessions", map[string]string{"userId": userFlag})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	sessionsCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get SESSION_ID",
		Short: "Get a session with its full message log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(apiFlag, "/api/sessions/"+args[0], nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	sessionsCmd.AddCommand(getCmd)

	// append
	var role, content string
	appendCmd := &cobra.Command{
		Use:   "append SESSION_ID",
		Short: "Append a message to a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"role": role, "content": content}
			data, err := doPostJSON(apiFlag, "/api/sessions/"+args[0]+"/messages", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	appendCmd.Flags().StringVarP(&role, "role", "r", "user", "Message role (user or assistant)")
	appendCmd.Flags().StringVarP(&content, "content", "c", "", "Message content (required)")
	_ = appendCmd.MarkFlagRequired("content")
	sessionsCmd.AddCommand(appendCmd)

	// rename
	var newTitle string
	renameCmd := &cobra.Command{
		Use:   "rename SESSION_ID",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if newTitle == "" {
				return fmt.Errorf("--title required")
			}
			data, err := doPatchJSON(apiFlag, "/api/sessions/"+args[0], map[string]interface{}{"title": newTitle})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	renameCmd.Flags().StringVarP(&newTitle, "title", "t", "", "New title (required)")
	_ = renameCmd.MarkFlagRequired("title")
	sessionsCmd.AddCommand(renameCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete SESSION_ID",
		Short: "Delete a session and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := doDelete(apiFlag, "/api/sessions/"+args[0], nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	sessionsCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(sessionsCmd)
}
