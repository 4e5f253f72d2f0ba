package commands

import (
	"fmt"
	"kilometrikisa/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(tokenCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Logs in and prints the account's profile.",
	Run: func(cmd *cobra.Command, args []string) {
		_, user, err := loggedIn(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}

		t := newTable()
		t.AppendRows([]table.Row{
			{"Nickname", user.Nickname},
			{"Name", fmt.Sprintf("%s %s", user.Firstname, user.Lastname)},
			{"Email", user.Email},
			{"Municipality", user.Municipality},
		})
		t.Render()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Prints the csrf token of a fresh login form.",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := anonymous()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		token, err := client.LoginToken(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to get login token", err)
		}
		fmt.Println(token)
	},
}
