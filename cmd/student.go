package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hostelhub/roomcast/internal/hostel"
	"github.com/hostelhub/roomcast/internal/notify"
	"github.com/spf13/cobra"
)

var studentFullName string

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage registered students",
}

var studentAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		_, store, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		st, err := store.Create(ctx, args[0], studentFullName)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Registered %s (id %d)", st.Username, st.ID)))
		return nil
	},
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered students and their current rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		_, store, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		students, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(students) == 0 {
			fmt.Println(dimStyle.Render("No students registered. Add one with 'roomcast student add <username>'."))
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROOM")
		for _, s := range students {
			room := s.RoomNo
			if room == "" {
				room = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Username, s.FullName, room)
		}
		return w.Flush()
	},
}

var studentImportCmd = &cobra.Command{
	Use:   "import <roster.yaml>",
	Short: "Create students and apply rooms from a YAML roster",
	Long: `Reads a roster of the form:

  students:
    - username: asha
      full_name: Asha K
      room_no: B-12

Existing students are kept; rooms that differ from the stored one are
reassigned. Assignments made here reach the configured webhook mirror but
not a separately running gateway's open streams.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		roster, err := hostel.LoadRoster(args[0])
		if err != nil {
			return err
		}
		cfg, store, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		disp := notify.NewDispatcher(notify.NewRegistry(),
			notify.WithMirror(notify.NewWebhookMirror(cfg.Notify.Webhook)))
		defer disp.Wait()

		created, err := hostel.NewService(store, disp).Import(ctx, roster)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Imported %d entries (%d new students)", len(roster.Students), created)))
		return nil
	},
}

func init() {
	studentAddCmd.Flags().StringVar(&studentFullName, "name", "", "student's full name")
	studentCmd.AddCommand(studentAddCmd, studentListCmd, studentImportCmd)
}
