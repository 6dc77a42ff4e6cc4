package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"hse-portal/internal/storage"
)

func init() {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the default of every document that does not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(os.Stdout, func(s *storage.Store, out io.Writer) error {
				return runSeed(cmd.Context(), s, out)
			})
		},
	}
	rootCmd.AddCommand(seedCmd)

	collectionsCmd := &cobra.Command{
		Use:   "collections",
		Short: "List known documents and whether they are persisted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(os.Stdout, func(s *storage.Store, out io.Writer) error {
				return runCollections(cmd.Context(), s, out)
			})
		},
	}
	rootCmd.AddCommand(collectionsCmd)

	dumpCmd := &cobra.Command{
		Use:   "dump NAME",
		Short: "Print a document as indented JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(os.Stdout, func(s *storage.Store, out io.Writer) error {
				return runDump(cmd.Context(), s, args[0], out)
			})
		},
	}
	rootCmd.AddCommand(dumpCmd)
}

func runSeed(ctx context.Context, s *storage.Store, out io.Writer) error {
	before, err := persisted(ctx, s)
	if err != nil {
		return err
	}
	if err := s.EnsureDefaults(ctx); err != nil {
		return err
	}
	for _, name := range s.Registered() {
		if !before[name] {
			_, _ = fmt.Fprintf(out, "created %s\n", name)
		}
	}
	return nil
}

func runCollections(ctx context.Context, s *storage.Store, out io.Writer) error {
	stored, err := persisted(ctx, s)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, name := range s.Registered() {
		seen[name] = true
		state := "missing"
		if stored[name] {
			state = "stored"
		}
		_, _ = fmt.Fprintf(out, "%-10s %s\n", name, state)
	}
	names, err := s.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if !seen[name] {
			_, _ = fmt.Fprintf(out, "%-10s %s\n", name, "extra")
		}
	}
	return nil
}

// runDump prints a stored or registered document. Unknown names are refused
// so a typo does not materialize an empty document.
func runDump(ctx context.Context, s *storage.Store, name string, out io.Writer) error {
	stored, err := persisted(ctx, s)
	if err != nil {
		return err
	}
	if !stored[name] && !slices.Contains(s.Registered(), name) {
		return fmt.Errorf("%w: %s", storage.ErrNoDocument, name)
	}

	var doc any
	if err := s.Read(ctx, name, &doc); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func persisted(ctx context.Context, s *storage.Store) (map[string]bool, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set, nil
}
