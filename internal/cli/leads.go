package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mitaict-site/internal/client/cache"
	"mitaict-site/internal/domain"
)

func (a *App) contactResource() resource[domain.Contact] {
	return resource[domain.Contact]{
		singular: "contact",
		remote:   func() cache.Remote[domain.Contact] { return a.client.Contacts },
		headers:  []string{"ID", "NAME", "EMAIL", "PHONE", "SERVICE", "STATUS", "RECEIVED"},
		row: func(c domain.Contact) []string {
			return []string{c.ID, c.Name, c.Email, c.Phone, c.Service, c.Status, formatTime(c.CreatedAt)}
		},
	}
}

func (a *App) contactsCmd() *cobra.Command {
	r := a.contactResource()
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Review contact form submissions",
		Long: `Review contact form submissions.

Examples:
  mitactl contacts list
  mitactl contacts get <id>
  mitactl contacts update <id> --status contacted
  mitactl contacts delete <id>`,
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one contact with its comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contact, err := a.client.Contacts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return a.printJSON(contact)
			}
			if err := r.printOne(a, contact); err != nil {
				return err
			}
			if contact.Comment != "" {
				fmt.Fprintf(a.out, "\n%s\n", contact.Comment)
			}
			return nil
		},
	}

	var status, comment string
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&status, "status", "", "new, contacted or closed")
		c.Flags().StringVar(&comment, "comment", "", "replace the comment")
	}
	update := updateCmd(a, r, []string{"status", "comment"}, bind, func(c *cobra.Command, contact domain.Contact) domain.Contact {
		if c.Flags().Changed("status") {
			contact.Status = status
		}
		if c.Flags().Changed("comment") {
			contact.Comment = comment
		}
		return contact
	})

	cmd.AddCommand(listCmd(a, r), get, update, deleteCmd(a, r))
	return cmd
}

func (a *App) chatResource() resource[domain.ChatSession] {
	return resource[domain.ChatSession]{
		singular: "chat session",
		remote:   func() cache.Remote[domain.ChatSession] { return a.client.ChatSessions },
		headers:  []string{"ID", "LEAD", "NAME", "EMAIL", "PHONE", "UPDATED"},
		row: func(s domain.ChatSession) []string {
			return []string{s.ID, yesNo(s.LeadCaptured), s.LeadName, s.LeadEmail, s.LeadPhone, formatTime(s.UpdatedAt)}
		},
	}
}

func (a *App) chatsCmd() *cobra.Command {
	r := a.chatResource()
	cmd := &cobra.Command{
		Use:     "chats",
		Aliases: []string{"chat-sessions"},
		Short:   "Review assistant conversations",
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.ChatSessions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return a.printJSON(s)
			}
			if s.LeadCaptured {
				fmt.Fprintf(a.out, "Lead: %s <%s> %s\n\n", s.LeadName, s.LeadEmail, s.LeadPhone)
			}
			for _, m := range s.Messages {
				fmt.Fprintf(a.out, "[%s] %s: %s\n", formatTime(m.Timestamp), m.Role, m.Content)
			}
			return nil
		},
	}

	cmd.AddCommand(listCmd(a, r), get, deleteCmd(a, r))
	return cmd
}

func (a *App) meetingResource() resource[domain.MeetingRequest] {
	return resource[domain.MeetingRequest]{
		singular: "meeting request",
		remote:   func() cache.Remote[domain.MeetingRequest] { return a.client.MeetingRequests },
		headers:  []string{"ID", "NAME", "EMAIL", "WHEN", "TOPIC", "STATUS"},
		row: func(m domain.MeetingRequest) []string {
			return []string{m.ID, m.Name, m.Email, m.PreferredDatetime, truncate(m.Topic, 40), m.Status}
		},
	}
}

func (a *App) meetingsCmd() *cobra.Command {
	r := a.meetingResource()
	cmd := &cobra.Command{
		Use:     "meetings",
		Aliases: []string{"meeting-requests"},
		Short:   "Handle meetings booked by the assistant",
		Long: `Handle meetings booked by the assistant.

Examples:
  mitactl meetings list
  mitactl meetings update <id> --status approved --notes "Invite sent"`,
	}

	var status, notes string
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&status, "status", "", "pending, approved or rejected")
		c.Flags().StringVar(&notes, "notes", "", "admin notes")
	}
	update := updateCmd(a, r, []string{"status", "notes"}, bind, func(c *cobra.Command, m domain.MeetingRequest) domain.MeetingRequest {
		if c.Flags().Changed("status") {
			m.Status = status
		}
		if c.Flags().Changed("notes") {
			m.AdminNotes = notes
		}
		return m
	})

	cmd.AddCommand(listCmd(a, r), update, deleteCmd(a, r))
	return cmd
}

func (a *App) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export site data",
	}

	var format, output string
	contacts := &cobra.Command{
		Use:   "contacts",
		Short: "Download every contact as a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := a.client.ExportContacts(cmd.Context(), format)
			if err != nil {
				return err
			}
			defer body.Close()

			var w io.Writer = a.out
			if output != "" && output != "-" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			n, err := io.Copy(w, body)
			if err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			if w != a.out {
				fmt.Fprintf(a.errOut, "Wrote %d bytes to %s\n", n, output)
			}
			return nil
		},
	}
	contacts.Flags().StringVar(&format, "format", "csv", "export format (csv or xlsx)")
	contacts.Flags().StringVarP(&output, "output", "o", "", "output file (default standard output)")

	cmd.AddCommand(contacts)
	return cmd
}
