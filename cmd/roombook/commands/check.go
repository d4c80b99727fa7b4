package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/application"
)

func newCheckCmd() *cobra.Command {
	var input application.ReservationInput

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Report whether a booking would be admitted",
		Example: `  roombook check --room room-1 --date 2025-03-10 --start 10:00 --end 11:00`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			conflicts, err := a.reservations.CheckAvailability(ctx, input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(conflicts) == 0 {
				printFree(out, "✓ %s %s %s-%s is available", input.RoomID, input.Date, input.StartTime, input.EndTime)
				return nil
			}
			for _, c := range conflicts {
				printBusy(out, "%s  %s-%s", c.ReservationID, c.StartTime, c.EndTime)
			}
			return fmt.Errorf("time is already booked by %d reservation(s)", len(conflicts))
		},
	}

	cmd.Flags().StringVar(&input.RoomID, "room", "", "room identifier")
	cmd.Flags().StringVar(&input.Date, "date", "", "booking date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&input.StartTime, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&input.EndTime, "end", "", "end time (HH:MM)")
	for _, name := range []string{"room", "date", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
