package totalconnect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu       sync.Mutex
	sessions int
	calls    map[string][]map[string]string
	handlers map[string]func(form map[string]string) any
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := &fakeService{
		calls:    map[string][]map[string]string{},
		handlers: map[string]func(map[string]string) any{},
	}
	svc.handlers["AuthenticateUserLogin"] = func(form map[string]string) any {
		if form["userName"] != "user" || form["password"] != "pass" {
			return map[string]any{"ResultCode": ResultBadUserOrPassword, "ResultData": "nope"}
		}
		svc.sessions++
		return map[string]any{
			"ResultCode": 0,
			"SessionID":  sessionName(svc.sessions),
			"Locations": map[string]any{
				"LocationInfoBasic": []map[string]any{
					{
						"LocationID":   123456,
						"LocationName": "test",
						"DeviceList": map[string]any{
							"DeviceInfoBasic": []map[string]any{{"DeviceID": 7654321}},
						},
					},
				},
			},
		}
	}
	svc.handlers["Logout"] = func(map[string]string) any {
		return map[string]any{"ResultCode": 0}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		_ = r.ParseForm()
		op := r.URL.Path[1:]
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		svc.mu.Lock()
		svc.calls[op] = append(svc.calls[op], form)
		handler, ok := svc.handlers[op]
		svc.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		svc.mu.Lock()
		resp := handler(form)
		svc.mu.Unlock()
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return svc, srv
}

func (s *fakeService) handle(op string, fn func(form map[string]string) any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[op] = fn
}

func (s *fakeService) callsTo(op string) []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func sessionName(n int) string {
	return "session-" + string(rune('0'+n))
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cli, err := New(context.Background(), Options{
		BaseURL:  url,
		Username: "user",
		Password: "pass",
	})
	require.NoError(t, err)
	return cli
}

func panelPayload(state ArmingState) map[string]any {
	return map[string]any{
		"ResultCode": 0,
		"PanelMetadataAndStatus": map[string]any{
			"IsInACLoss":     true,
			"IsInLowBattery": false,
			"Partitions": map[string]any{
				"PartitionInfo": []map[string]any{
					{"PartitionID": 1, "ArmingState": state},
				},
			},
			"Zones": map[string]any{
				"ZoneInfo": []map[string]any{
					{"ZoneID": 1, "ZoneDescription": "Front Door", "ZoneStatus": 0},
					{"ZoneID": 2, "ZoneDescription": "Kitchen", "ZoneStatus": 2},
				},
			},
		},
	}
}

func TestLogin(t *testing.T) {
	svc, srv := newFakeService(t)
	cli := newTestClient(t, srv.URL)

	require.Equal(t, []Location{{ID: 123456, Name: "test", DeviceID: 7654321}}, cli.Locations())

	calls := svc.callsTo("AuthenticateUserLogin")
	require.Len(t, calls, 1)
	require.Equal(t, "14588", calls[0]["ApplicationID"])
	require.Equal(t, DefaultAppVersion, calls[0]["ApplicationVersion"])
}

func TestLoginBadCredentials(t *testing.T) {
	_, srv := newFakeService(t)
	_, err := New(context.Background(), Options{
		BaseURL:  srv.URL,
		Username: "user",
		Password: "wrong",
	})
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestStatus(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.handle("GetPanelMetaDataAndFullStatusEx", func(map[string]string) any {
		return panelPayload(ArmingStateArmedStay)
	})
	cli := newTestClient(t, srv.URL)

	status, err := cli.Status(context.Background(), 123456)
	require.NoError(t, err)
	require.Equal(t, ArmingStateArmedStay, status.ArmingState)
	require.Equal(t, TriggerNone, status.TriggerSource)
	require.True(t, status.Troubles.ACLoss)
	require.False(t, status.Troubles.LowBattery)
	require.Len(t, status.Zones, 2)

	kitchen, ok := status.Zone(2)
	require.True(t, ok)
	require.True(t, kitchen.IsOpen())
	require.Equal(t, "Kitchen", kitchen.Description)

	calls := svc.callsTo("GetPanelMetaDataAndFullStatusEx")
	require.Len(t, calls, 1)
	require.Equal(t, "123456", calls[0]["LocationID"])
	require.Equal(t, "session-1", calls[0]["SessionID"])
}

func TestStatusTriggered(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.handle("GetPanelMetaDataAndFullStatusEx", func(map[string]string) any {
		return panelPayload(ArmingStateAlarmingFireSmoke)
	})
	cli := newTestClient(t, srv.URL)

	status, err := cli.Status(context.Background(), 123456)
	require.NoError(t, err)
	require.Equal(t, TriggerFireSmoke, status.TriggerSource)
	require.True(t, status.Triggered())
}

func TestStatusNoPartitions(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.handle("GetPanelMetaDataAndFullStatusEx", func(map[string]string) any {
		return map[string]any{"ResultCode": 0}
	})
	cli := newTestClient(t, srv.URL)

	status, err := cli.Status(context.Background(), 123456)
	require.NoError(t, err)
	require.Equal(t, ArmingStateUnknown, status.ArmingState)
}

func TestStatusResultError(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.handle("GetPanelMetaDataAndFullStatusEx", func(map[string]string) any {
		return map[string]any{"ResultCode": ResultFailedToConnect, "ResultData": "panel offline"}
	})
	cli := newTestClient(t, srv.URL)

	_, err := cli.Status(context.Background(), 123456)
	var rerr *ResultError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, ResultFailedToConnect, rerr.Code)
	require.EqualError(t, err, "could not gather status: failed to connect to panel: panel offline")
}

func TestSessionRenewal(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.handle("GetPanelMetaDataAndFullStatusEx", func(form map[string]string) any {
		if form["SessionID"] == "session-1" {
			return map[string]any{"ResultCode": ResultInvalidSession}
		}
		return panelPayload(ArmingStateDisarmed)
	})
	cli := newTestClient(t, srv.URL)

	status, err := cli.Status(context.Background(), 123456)
	require.NoError(t, err)
	require.Equal(t, ArmingStateDisarmed, status.ArmingState)
	require.Len(t, svc.callsTo("AuthenticateUserLogin"), 2)
	require.Len(t, svc.callsTo("GetPanelMetaDataAndFullStatusEx"), 2)
}

func TestCommand(t *testing.T) {
	for action, armType := range map[Action]string{
		ActionArmAway:  "0",
		ActionArmHome:  "1",
		ActionArmNight: "4",
	} {
		t.Run(string(action), func(t *testing.T) {
			svc, srv := newFakeService(t)
			svc.handle("ArmSecuritySystem", func(map[string]string) any {
				return map[string]any{"ResultCode": ResultArmSuccess}
			})
			cli := newTestClient(t, srv.URL)

			outcome, err := cli.Command(context.Background(), action, 123456, "")
			require.NoError(t, err)
			require.True(t, outcome.Accepted)

			calls := svc.callsTo("ArmSecuritySystem")
			require.Len(t, calls, 1)
			require.Equal(t, armType, calls[0]["ArmType"])
			require.Equal(t, DefaultUserCode, calls[0]["UserCode"])
			require.Equal(t, "7654321", calls[0]["DeviceID"])
		})
	}

	t.Run("disarm", func(t *testing.T) {
		svc, srv := newFakeService(t)
		svc.handle("DisarmSecuritySystem", func(map[string]string) any {
			return map[string]any{"ResultCode": ResultUserCodeInvalid}
		})
		cli := newTestClient(t, srv.URL)

		outcome, err := cli.Command(context.Background(), ActionDisarm, 123456, "1234")
		require.NoError(t, err)
		require.Equal(t, CommandOutcome{
			Reason: RejectionInvalidUserCode,
			Code:   ResultUserCodeInvalid,
		}, outcome)
		require.Equal(t, "1234", svc.callsTo("DisarmSecuritySystem")[0]["UserCode"])
	})

	t.Run("invalid action", func(t *testing.T) {
		_, srv := newFakeService(t)
		cli := newTestClient(t, srv.URL)
		_, err := cli.Command(context.Background(), Action("panic"), 123456, "")
		require.Error(t, err)
	})
}

func TestCommandHTTPError(t *testing.T) {
	_, srv := newFakeService(t)
	cli := newTestClient(t, srv.URL)

	_, err := cli.Command(context.Background(), ActionArmAway, 123456, "")
	require.ErrorContains(t, err, "could not arm away")
	require.ErrorContains(t, err, "404")
}

func TestClose(t *testing.T) {
	svc, srv := newFakeService(t)
	cli := newTestClient(t, srv.URL)

	require.NoError(t, cli.Close(context.Background()))
	require.NoError(t, cli.Close(context.Background()))
	require.Len(t, svc.callsTo("Logout"), 1)
}

func TestOutcomeFor(t *testing.T) {
	require.True(t, OutcomeFor(ResultSuccess).Accepted)
	require.True(t, OutcomeFor(ResultArmSuccess).Accepted)
	require.Equal(t, RejectionInvalidUserCode, OutcomeFor(ResultUserCodeInvalid).Reason)
	require.Equal(t, RejectionInvalidUserCode, OutcomeFor(ResultUserCodeUnavailable).Reason)
	require.Equal(t, RejectionFailure, OutcomeFor(ResultCommandFailed).Reason)
	require.Equal(t, RejectionFailure, OutcomeFor(ResultFailedToConnect).Reason)
	require.Equal(t, RejectionFailure, OutcomeFor(ResultCode(-1)).Reason)
}

func TestZoneStatus(t *testing.T) {
	require.Equal(t, "normal", ZoneNormal.String())
	require.Equal(t, "bypassed,tampered", (ZoneBypassed | ZoneTampered).String())

	zone := Zone{ID: 3, Status: ZoneTriggered | ZoneLowBattery}
	require.True(t, zone.IsOpen())
	require.True(t, zone.LowBattery())
	require.False(t, zone.Bypassed())
	require.False(t, zone.Tampered())
}
