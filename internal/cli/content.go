package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mitaict-site/internal/client/cache"
	"mitaict-site/internal/domain"
)

func (a *App) serviceResource() resource[domain.Service] {
	return resource[domain.Service]{
		singular: "service",
		remote:   func() cache.Remote[domain.Service] { return a.client.Services },
		headers:  []string{"ID", "TITLE", "ICON", "DESCRIPTION"},
		row: func(s domain.Service) []string {
			return []string{s.ID, s.Title, s.Icon, truncate(s.Description, 60)}
		},
	}
}

func (a *App) servicesCmd() *cobra.Command {
	r := a.serviceResource()
	cmd := &cobra.Command{
		Use:     "services",
		Aliases: []string{"service"},
		Short:   "Manage the consulting services shown on the site",
		Long: `Manage the consulting services shown on the site.

Examples:
  mitactl services list
  mitactl services create --title "Cloud Solutions" --description "Migration and operations" --icon cloud
  mitactl services update <id> --icon server
  mitactl services delete <id>`,
	}

	var title, description, icon string
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&title, "title", "", "service title")
		c.Flags().StringVar(&description, "description", "", "service description")
		c.Flags().StringVar(&icon, "icon", "", "icon name")
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.load(cmd.Context())
			if err != nil {
				return err
			}
			created, err := c.Create(cmd.Context(), domain.Service{Title: title, Description: description, Icon: icon})
			if err != nil {
				return err
			}
			return r.printOne(a, created)
		},
	}
	bind(create)

	update := updateCmd(a, r, []string{"title", "description", "icon"}, bind, func(c *cobra.Command, s domain.Service) domain.Service {
		if c.Flags().Changed("title") {
			s.Title = title
		}
		if c.Flags().Changed("description") {
			s.Description = description
		}
		if c.Flags().Changed("icon") {
			s.Icon = icon
		}
		return s
	})

	cmd.AddCommand(listCmd(a, r), create, update, deleteCmd(a, r))
	return cmd
}

func (a *App) productResource() resource[domain.SaasProduct] {
	return resource[domain.SaasProduct]{
		singular: "product",
		remote:   func() cache.Remote[domain.SaasProduct] { return a.client.SaasProducts },
		headers:  []string{"ID", "TITLE", "LINK", "FEATURES"},
		row: func(p domain.SaasProduct) []string {
			return []string{p.ID, p.Title, p.Link, truncate(strings.Join(p.Features, ", "), 50)}
		},
	}
}

func (a *App) productsCmd() *cobra.Command {
	r := a.productResource()
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "saas-products"},
		Short:   "Manage the SaaS products shown on the site",
	}

	var title, description, link string
	var features []string
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&title, "title", "", "product title")
		c.Flags().StringVar(&description, "description", "", "product description")
		c.Flags().StringVar(&link, "link", "", "product URL")
		c.Flags().StringArrayVar(&features, "feature", nil, "feature bullet (repeatable)")
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.load(cmd.Context())
			if err != nil {
				return err
			}
			created, err := c.Create(cmd.Context(), domain.SaasProduct{
				Title:       title,
				Description: description,
				Link:        link,
				Features:    features,
			})
			if err != nil {
				return err
			}
			return r.printOne(a, created)
		},
	}
	bind(create)

	update := updateCmd(a, r, []string{"title", "description", "link", "feature"}, bind, func(c *cobra.Command, p domain.SaasProduct) domain.SaasProduct {
		if c.Flags().Changed("title") {
			p.Title = title
		}
		if c.Flags().Changed("description") {
			p.Description = description
		}
		if c.Flags().Changed("link") {
			p.Link = link
		}
		if c.Flags().Changed("feature") {
			p.Features = features
		}
		return p
	})

	cmd.AddCommand(listCmd(a, r), create, update, deleteCmd(a, r))
	return cmd
}

func (a *App) aboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show or replace the about page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			about, err := a.client.About(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return a.printJSON(about)
			}
			fmt.Fprintf(a.out, "%s\n\n%s\n", about.Title, about.Content)
			for _, group := range about.Expertise {
				fmt.Fprintf(a.out, "\n%s\n", group.Title)
				for _, item := range group.Items {
					fmt.Fprintf(a.out, "  - %s\n", item)
				}
			}
			return nil
		},
	}

	var title, content, file string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the about page",
		Long: `Replace the about page. --file takes the full JSON document ("-" reads
standard input); --title and --content override fields of the current page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var about domain.AboutContent
			if file != "" {
				if err := a.readJSON(file, &about); err != nil {
					return err
				}
			} else {
				current, err := a.client.About(cmd.Context())
				if err != nil {
					return err
				}
				about = *current
			}
			if cmd.Flags().Changed("title") {
				about.Title = title
			}
			if cmd.Flags().Changed("content") {
				about.Content = content
			}

			saved, err := a.client.UpdateAbout(cmd.Context(), about)
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return a.printJSON(saved)
			}
			fmt.Fprintf(a.out, "About page updated (%s)\n", formatTime(saved.UpdatedAt))
			return nil
		},
	}
	set.Flags().StringVar(&title, "title", "", "page title")
	set.Flags().StringVar(&content, "content", "", "page body")
	set.Flags().StringVarP(&file, "file", "f", "", "JSON document to upload")

	cmd.AddCommand(set)
	return cmd
}

func (a *App) integrationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrations",
		Short: "Manage social media tracking integrations",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the integrations, including credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			integrations, err := a.client.Integrations(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return a.printJSON(integrations)
			}
			w := a.newTable("PLATFORM", "ENABLED", "PIXEL/PARTNER ID")
			fmt.Fprintf(w, "facebook\t%s\t%s\n", yesNo(integrations.Facebook.Enabled), integrations.Facebook.PixelID)
			fmt.Fprintf(w, "instagram\t%s\t%s\n", yesNo(integrations.Instagram.Enabled), integrations.Instagram.BusinessAccountID)
			fmt.Fprintf(w, "tiktok\t%s\t%s\n", yesNo(integrations.TikTok.Enabled), integrations.TikTok.PixelID)
			fmt.Fprintf(w, "linkedin\t%s\t%s\n", yesNo(integrations.LinkedIn.Enabled), integrations.LinkedIn.PartnerID)
			fmt.Fprintf(w, "youtube\t%s\t%s\n", yesNo(integrations.YouTube.Enabled), integrations.YouTube.ChannelID)
			return w.Flush()
		},
	}

	var file string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the integrations from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var integrations domain.SocialIntegrations
			if err := a.readJSON(file, &integrations); err != nil {
				return err
			}
			saved, err := a.client.UpdateIntegrations(cmd.Context(), integrations)
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return a.printJSON(saved)
			}
			fmt.Fprintln(a.out, "Integrations updated")
			return nil
		},
	}
	set.Flags().StringVarP(&file, "file", "f", "", `JSON document ("-" reads standard input)`)
	_ = set.MarkFlagRequired("file")

	cmd.AddCommand(get, set)
	return cmd
}

// readJSON decodes the file at path, or standard input for "-".
func (a *App) readJSON(path string, dest any) error {
	var r io.Reader = a.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
