package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mitaict-site/internal/client/cache"
)

// resource describes one admin collection for the generic list, get and
// delete commands. remote is resolved lazily because the API client only
// exists once PersistentPreRunE has run.
type resource[T cache.Entity[T]] struct {
	singular string
	remote   func() cache.Remote[T]
	headers  []string
	row      func(T) []string
}

// load fills a fresh cache from the server. Mutations go through the cache
// so a rejected change never leaves the listing out of step.
func (r resource[T]) load(ctx context.Context) (*cache.ResourceCache[T], error) {
	c := cache.New[T](r.remote())
	if _, err := c.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load %ss: %w", r.singular, err)
	}
	return c, nil
}

func (r resource[T]) printItems(a *App, items []T) error {
	if a.jsonOut() {
		if items == nil {
			items = []T{}
		}
		return a.printJSON(items)
	}
	if len(items) == 0 {
		fmt.Fprintf(a.out, "No %ss found\n", r.singular)
		return nil
	}
	w := a.newTable(r.headers...)
	for _, item := range items {
		fmt.Fprintln(w, strings.Join(r.row(item), "\t"))
	}
	return w.Flush()
}

func (r resource[T]) printOne(a *App, item T) error {
	if a.jsonOut() {
		return a.printJSON(item)
	}
	return r.printItems(a, []T{item})
}

func listCmd[T cache.Entity[T]](a *App, r resource[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss", r.singular),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.load(cmd.Context())
			if err != nil {
				return err
			}
			return r.printItems(a, c.Items())
		},
	}
}

func deleteCmd[T cache.Entity[T]](a *App, r resource[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", r.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.load(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s %s\n", r.singular, args[0])
			return nil
		},
	}
}

// updateCmd loads the collection, applies patch to the cached entry and
// sends the result. bind registers the flags named in fields; patch should
// only apply the flags the user set.
func updateCmd[T cache.Entity[T]](a *App, r resource[T], fields []string, bind func(*cobra.Command), patch func(*cobra.Command, T) T) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Update a %s", r.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !changed(cmd, fields...) {
				return fmt.Errorf("nothing to update: set at least one of --%s", strings.Join(fields, ", --"))
			}
			c, err := r.load(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := c.Update(cmd.Context(), args[0], func(current T) T {
				return patch(cmd, current)
			})
			if err != nil {
				return err
			}
			return r.printOne(a, updated)
		},
	}
	bind(cmd)
	return cmd
}

// changed reports whether any of the named flags were set.
func changed(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
