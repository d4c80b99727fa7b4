package commands

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/scheduler"
)

type slotsOptions struct {
	room   string
	date   string
	start  string
	end    string
	step   int
	asJSON bool
}

func newSlotsCmd() *cobra.Command {
	var opts slotsOptions

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the availability grid of a room for one date",
		Example: `  roombook slots --room room-1 --date 2025-03-10
  roombook slots --room room-1 --date 2025-03-10 --step 60 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.cfg.Slots
			if opts.start != "" {
				cfg.WindowStart = opts.start
			}
			if opts.end != "" {
				cfg.WindowEnd = opts.end
			}
			if opts.step != 0 {
				cfg.StepMinutes = opts.step
			}

			availability, err := a.reservations.Availability(ctx, opts.room, opts.date, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(toSlotsOutput(availability.RoomID, availability.Date, availability.Slots, availability.StartChoices))
			}

			printHeader(out, "%s %s (%s-%s every %dm)", availability.RoomID, availability.Date,
				availability.Config.WindowStart, availability.Config.WindowEnd, availability.Config.StepMinutes)
			for _, s := range availability.Slots {
				if s.Available {
					printFree(out, "%s  free", s.Time)
				} else {
					printBusy(out, "%s  busy  %s", s.Time, s.ReservationID)
				}
			}
			printPlain(out, "start choices: %s", strings.Join(availability.StartChoices, " "))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.room, "room", "", "room identifier")
	cmd.Flags().StringVar(&opts.date, "date", "", "booking date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.start, "start", "", "first grid point (HH:MM)")
	cmd.Flags().StringVar(&opts.end, "end", "", "grid end, exclusive (HH:MM)")
	cmd.Flags().IntVar(&opts.step, "step", 0, "grid step in minutes")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a coloured grid")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

type slotOutput struct {
	Time          string `json:"time"`
	Available     bool   `json:"available"`
	ReservationID string `json:"reservation_id,omitempty"`
}

type slotsOutput struct {
	RoomID       string       `json:"room_id"`
	Date         string       `json:"date"`
	Slots        []slotOutput `json:"slots"`
	StartChoices []string     `json:"start_choices"`
}

func toSlotsOutput(roomID, date string, slots []scheduler.TimeSlot, starts []string) slotsOutput {
	out := slotsOutput{RoomID: roomID, Date: date, Slots: make([]slotOutput, 0, len(slots)), StartChoices: starts}
	for _, s := range slots {
		out.Slots = append(out.Slots, slotOutput{Time: s.Time, Available: s.Available, ReservationID: s.ReservationID})
	}
	return out
}
