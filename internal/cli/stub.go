package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-netkit/internal/app"
	"github.com/samvad-hq/samvad-netkit/internal/storage"
	"github.com/samvad-hq/samvad-netkit/pkg/jsonvalue"
)

func newStubCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Manage stub responses in the bbolt store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "put NAME FILE",
			Short: "Store the JSON in FILE under NAME",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read stub file: %w", err)
				}
				if _, err := jsonvalue.Parse(data); err != nil {
					return fmt.Errorf("stub %s: %w", args[0], err)
				}
				return e.withStore(func(s storage.StubStore) error {
					return s.Put(args[0], data)
				})
			},
		},
		&cobra.Command{
			Use:   "get NAME",
			Short: "Print a stored stub",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return e.withStore(func(s storage.StubStore) error {
					data, err := s.Get(args[0])
					if err != nil {
						return fmt.Errorf("stub %s: %w", args[0], err)
					}
					_, err = fmt.Fprintln(e.out, string(data))
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored stub names",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return e.withStore(func(s storage.StubStore) error {
					names, err := s.List()
					if err != nil {
						return err
					}
					for _, n := range names {
						fmt.Fprintln(e.out, n)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Remove a stored stub",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return e.withStore(func(s storage.StubStore) error {
					return s.Delete(args[0])
				})
			},
		},
	)
	return cmd
}

func (e *env) withStore(fn func(storage.StubStore) error) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := app.OpenStubStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
