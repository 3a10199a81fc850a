package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	memoriesCmd := &cobra.Command{Use: "memories", Short: "Memory operations"}

	// insert
	var content, memType, sessionID string
	var importance float64
	insertCmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a memory entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" || content == "" {
				return fmt.Errorf("--user and --content required")
			}
			payload := map[string]interface{}{
				"userId":     userFlag,
				"content":    content,
				"importance": importance,
				"type":       memType,
			}
			if sessionID != "" {
				payload["sessionId"] = sessionID
			}
			data, err := doPostJSON(apiFlag, "/api/memories", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	insertCmd.Flags().StringVarP(&content, "content", "c", "", "Memory content (required)")
	insertCmd.Flags().Float64VarP(&importance, "importance", "i", 0.5, "Importance in [0,1]")
	insertCmd.Flags().StringVarP(&memType, "type", "t", "fact", "Memory type")
	insertCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Scope to a session ID")
	_ = insertCmd.MarkFlagRequired("content")
	memoriesCmd.AddCommand(insertCmd)

	// list
	var listSession string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List memories for a user, optionally scoped to a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			query := map[string]string{"userId": userFlag}
			if listSession != "" {
				query["sessionId"] = listSession
			}
			data, err := doGet(apiFlag, "/api/memories", query)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listSession, "session", "s", "", "Session ID to include scoped memories for")
	memoriesCmd.AddCommand(listCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete MEMORY_ID",
		Short: "Delete a single memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			if _, err := doDelete(apiFlag, "/api/memories/"+args[0], map[string]string{"userId": userFlag}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	memoriesCmd.AddCommand(deleteCmd)

	// clear
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all memories for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			data, err := doDelete(apiFlag, "/api/memories", map[string]string{"userId": userFlag})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	memoriesCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(memoriesCmd)
}
