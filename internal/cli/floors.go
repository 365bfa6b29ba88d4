package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func addFloors(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "floors",
		Short: "Inspect and rearrange the persisted scene's floors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(floorsList(ro), floorsDelete(ro), floorsReorder(ro))
	topLevel.AddCommand(cmd)
}

func floorsList(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List floors in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(ro)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()
			store := sess.service.Store()
			byIndex := make(map[int]string)
			for _, f := range store.Floors() {
				byIndex[f.Index] = f.Name
			}
			for pos, idx := range store.FloorOrder() {
				items := len(store.ActiveItemsOnFloor(idx))
				fmt.Fprintf(cmd.OutOrStdout(), "%d: floor %d %q (%d items)\n", pos+1, idx, byIndex[idx], items)
			}
			return nil
		},
	}
}

func floorsDelete(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <floor-index>",
		Short: "Remove a floor from the scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid floor index %q", args[0])
			}
			sess, err := openSession(ro)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()
			if err := sess.service.DeleteFloor(idx); err != nil {
				return err
			}
			return sess.db.Persist(cmd.Context())
		},
	}
}

func floorsReorder(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <floor-index>...",
		Short: "Set the floor display order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order := make([]int, 0, len(args))
			for _, arg := range args {
				idx, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid floor index %q", arg)
				}
				order = append(order, idx)
			}
			sess, err := openSession(ro)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()
			if err := sess.service.ReorderFloors(order); err != nil {
				return err
			}
			return sess.db.Persist(cmd.Context())
		},
	}
}
