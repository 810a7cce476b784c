package totalconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/sync/cio"
	logp "github.com/charmbracelet/log"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "totalconnect",
})

const (
	DefaultBaseURL    = "https://rs.alarmnet.com/TC21API/TC2.asmx"
	DefaultAppID      = 14588
	DefaultAppVersion = "1.0.34"

	// DefaultUserCode tells the service to use the code stored with the account.
	DefaultUserCode = "-1"
)

const (
	timeout     = 15 * time.Second
	maxBodySize = 1 << 20
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrNoSession      = errors.New("no session")
)

type Options struct {
	BaseURL    string
	Username   string
	Password   string
	AppID      int
	AppVersion string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a Requester backed by the TotalConnect web service.
type Client struct {
	opts Options
	http *http.Client

	lock      sync.Mutex
	session   string
	locations []Location
}

var _ Requester = (*Client)(nil)

// New logs in and loads the account locations.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.AppID == 0 {
		opts.AppID = DefaultAppID
	}
	if opts.AppVersion == "" {
		opts.AppVersion = DefaultAppVersion
	}
	if opts.Timeout == 0 {
		opts.Timeout = timeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	cli := &Client{
		opts: opts,
		http: httpClient,
	}
	return cli, cli.login(ctx)
}

// Locations returns the locations of the account.
func (c *Client) Locations() []Location {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]Location(nil), c.locations...)
}

func (c *Client) Status(ctx context.Context, locationID int) (DeviceStatus, error) {
	log.Debug("status", "location", locationID)
	var resp statusResponse
	if err := c.call(ctx, "GetPanelMetaDataAndFullStatusEx", &resp,
		"LocationID", strconv.Itoa(locationID),
		"PartitionID", "1",
		"LastSequenceNumber", "0",
		"LastUpdatedTimestampTicks", "0",
	); err != nil {
		return DeviceStatus{}, fmt.Errorf("could not gather status: %w", err)
	}
	if err := resp.err(); err != nil {
		return DeviceStatus{}, fmt.Errorf("could not gather status: %w", err)
	}
	return statusFromPanel(resp.PanelMetadataAndStatus), nil
}

func (c *Client) Command(
	ctx context.Context,
	action Action,
	locationID int,
	userCode string,
) (CommandOutcome, error) {
	log.Debug("command", "action", action, "location", locationID)
	if userCode == "" {
		userCode = DefaultUserCode
	}
	deviceID := strconv.Itoa(c.deviceID(locationID))

	var resp result
	var err error
	switch action {
	case ActionDisarm:
		err = c.call(ctx, "DisarmSecuritySystem", &resp,
			"LocationID", strconv.Itoa(locationID),
			"DeviceID", deviceID,
			"UserCode", userCode,
		)
	default:
		kind, aerr := armType(action)
		if aerr != nil {
			return CommandOutcome{}, aerr
		}
		err = c.call(ctx, "ArmSecuritySystem", &resp,
			"LocationID", strconv.Itoa(locationID),
			"DeviceID", deviceID,
			"ArmType", strconv.Itoa(kind),
			"UserCode", userCode,
		)
	}
	if err != nil {
		return CommandOutcome{}, fmt.Errorf("could not %s: %w", action.Verb(), err)
	}

	outcome := OutcomeFor(resp.ResultCode)
	if !outcome.Accepted {
		log.Warn("command rejected", "action", action, "location", locationID, "result", resp.ResultCode)
	}
	return outcome, nil
}

// Close ends the session.
func (c *Client) Close(ctx context.Context) error {
	c.lock.Lock()
	session := c.session
	c.session = ""
	c.lock.Unlock()
	if session == "" {
		return nil
	}

	var resp result
	body, err := c.do(ctx, "Logout", makeForm(session))
	if err != nil {
		return fmt.Errorf("could not logout: %w", err)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("could not logout: %w", err)
	}
	return resp.err()
}

func (c *Client) deviceID(locationID int) int {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, loc := range c.locations {
		if loc.ID == locationID {
			return loc.DeviceID
		}
	}
	return 0
}

func (c *Client) login(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	body, err := c.do(ctx, "AuthenticateUserLogin", makeForm("",
		"userName", c.opts.Username,
		"password", c.opts.Password,
		"ApplicationID", strconv.Itoa(c.opts.AppID),
		"ApplicationVersion", c.opts.AppVersion,
	))
	if err != nil {
		return fmt.Errorf("could not auth: %w", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("could not auth: %w", err)
	}
	switch resp.ResultCode {
	case ResultSuccess:
	case ResultBadUserOrPassword:
		return ErrBadCredentials
	default:
		return fmt.Errorf("could not auth: %w", &ResultError{Code: resp.ResultCode, Message: resp.ResultData})
	}
	if resp.SessionID == "" {
		return fmt.Errorf("could not auth: %w", ErrNoSession)
	}

	c.session = resp.SessionID
	c.locations = resp.locations()
	log.Debug("logged in", "locations", len(c.locations))
	return nil
}

// call performs op with the current session, logging in again once if the
// session expired.
func (c *Client) call(ctx context.Context, op string, out any, kv ...string) error {
	for attempt := 0; ; attempt++ {
		c.lock.Lock()
		session := c.session
		c.lock.Unlock()
		if session == "" {
			if err := c.login(ctx); err != nil {
				return err
			}
			continue
		}

		body, err := c.do(ctx, op, makeForm(session, kv...))
		if err != nil {
			return err
		}

		var res result
		if err := json.Unmarshal(body, &res); err != nil {
			return fmt.Errorf("invalid %s response: %w", op, err)
		}
		if res.ResultCode == ResultInvalidSession && attempt == 0 {
			log.Info("session expired, logging in again")
			if err := c.login(ctx); err != nil {
				return err
			}
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("invalid %s response: %w", op, err)
		}
		return nil
	}
}

func (c *Client) do(ctx context.Context, op string, form url.Values) ([]byte, error) {
	endpoint := strings.TrimSuffix(c.opts.BaseURL, "/") + "/" + op
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected http status: %s", op, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(cio.TimeoutReader(resp.Body, c.opts.Timeout), maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: could not read response: %w", op, err)
	}
	return body, nil
}
