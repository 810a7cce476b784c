package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	client "github.com/caarlos0/homekit-totalconnect"
	"github.com/caarlos0/homekit-totalconnect/fake"
	"github.com/caarlos0/homekit-totalconnect/panel"
	logp "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	username string
	password string
	baseURL  string
	location int
	userCode string
	script   string
	timeout  time.Duration
	debug    bool
}

// session is an open connection to either the service or a script.
type session struct {
	req       client.Requester
	locations []client.Location
	close     func(context.Context) error
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "tcctl",
		Short: "Control TotalConnect alarm panels",
		Long: `Query and control TotalConnect alarm panels.

Credentials default to the TC_USERNAME and TC_PASSWORD environment variables.
With --script, requests are answered by a YAML script instead of the service.`,
		Version:       fmt.Sprintf("%s (commit %s, built at %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.debug {
				log.SetLevel(logp.DebugLevel)
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.username, "username", os.Getenv("TC_USERNAME"), "TotalConnect username")
	flags.StringVar(&opts.password, "password", os.Getenv("TC_PASSWORD"), "TotalConnect password")
	flags.StringVar(&opts.baseURL, "base-url", client.DefaultBaseURL, "TotalConnect API URL")
	flags.IntVar(&opts.location, "location", 0, "Location id; defaults to the first location of the account")
	flags.StringVar(&opts.userCode, "user-code", "", "User code for arming and disarming; the stored code is used when empty")
	flags.StringVar(&opts.script, "script", "", "Answer requests from a YAML script instead of the service")
	flags.DurationVar(&opts.timeout, "timeout", time.Minute, "Timeout for the whole operation")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logs")

	cmd.AddCommand(
		newLocationsCmd(opts),
		newStatusCmd(opts),
		newActionCmd(opts, client.ActionArmHome),
		newActionCmd(opts, client.ActionArmAway),
		newActionCmd(opts, client.ActionArmNight),
		newActionCmd(opts, client.ActionDisarm),
	)
	return cmd
}

func (o *rootOptions) open(ctx context.Context) (*session, error) {
	if o.script != "" {
		req, err := fake.Load(o.script)
		if err != nil {
			return nil, err
		}
		id := o.location
		if id == 0 {
			id = 1
		}
		log.Debug("using script", "path", o.script)
		return &session{
			req:       req,
			locations: []client.Location{{ID: id, Name: "script"}},
			close:     func(context.Context) error { return nil },
		}, nil
	}

	if o.username == "" || o.password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	cli, err := client.New(ctx, client.Options{
		BaseURL:  o.baseURL,
		Username: o.username,
		Password: o.password,
	})
	if err != nil {
		return nil, err
	}
	return &session{
		req:       cli,
		locations: cli.Locations(),
		close:     cli.Close,
	}, nil
}

func (s *session) location(id int) (client.Location, error) {
	if len(s.locations) == 0 {
		return client.Location{}, fmt.Errorf("account has no locations")
	}
	if id == 0 {
		return s.locations[0], nil
	}
	for _, loc := range s.locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return client.Location{}, fmt.Errorf("location %d not found", id)
}

// withPanel opens a session, runs fn against the selected location, and
// logs out.
func (o *rootOptions) withPanel(cmd *cobra.Command, fn func(ctx context.Context, p *panel.Panel) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	s, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(context.Background()); err != nil {
			log.Warn("could not logout", "err", err)
		}
	}()

	loc, err := s.location(o.location)
	if err != nil {
		return err
	}
	return fn(ctx, panel.New(s.req, loc, panel.WithOnChange(func(from, to panel.State) {
		log.Debug("state changed", "from", from, "to", to)
	})))
}

func newLocationsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the locations of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.close(context.Background()) }()
			for _, loc := range s.locations {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", loc.ID, loc.Name, loc.DeviceID)
			}
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state, troubles and zones of a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withPanel(cmd, func(ctx context.Context, p *panel.Panel) error {
				if err := p.Poll(ctx); err != nil {
					return err
				}
				printPanel(cmd, p)
				return nil
			})
		},
	}
}

func newActionCmd(opts *rootOptions, action client.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action),
		Short: fmt.Sprintf("Send the %s command to a location", action.Verb()),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withPanel(cmd, func(ctx context.Context, p *panel.Panel) error {
				if err := p.Execute(ctx, action, opts.userCode); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "state: %s\n", p.State())
				return nil
			})
		},
	}
}

func printPanel(cmd *cobra.Command, p *panel.Panel) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "state: %s\n", p.State())

	attrs := p.Attributes()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v\n", k, attrs[k])
	}

	for _, zone := range p.Status().Zones {
		fmt.Fprintf(w, "zone %d\t%s\t%s\n", zone.ID, zone.Description, zone.Status)
	}
}
