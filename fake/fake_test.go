package fake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	client "github.com/caarlos0/homekit-totalconnect"
	"github.com/stretchr/testify/require"
)

func TestRequester(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	req := New(
		Status(client.ArmingStateDisarmed),
		Result(client.ResultArmSuccess),
		Fail(boom),
	)

	status, err := req.Status(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, client.ArmingStateDisarmed, status.ArmingState)

	outcome, err := req.Command(ctx, client.ActionArmAway, 1, "1234")
	require.NoError(t, err)
	require.True(t, outcome.Accepted)

	_, err = req.Status(ctx, 1)
	require.ErrorIs(t, err, boom)

	_, err = req.Status(ctx, 1)
	require.ErrorIs(t, err, ErrExhausted)

	require.Equal(t, []Call{
		{Location: 1},
		{Action: client.ActionArmAway, Location: 1, UserCode: "1234"},
		{Location: 1},
		{Location: 1},
	}, req.Calls())
}

func TestRequesterUnexpected(t *testing.T) {
	req := New(Result(client.ResultArmSuccess), Status(client.ArmingStateDisarmed))

	_, err := req.Status(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnexpected)

	_, err = req.Command(context.Background(), client.ActionDisarm, 1, "")
	require.ErrorIs(t, err, ErrUnexpected)
	require.Equal(t, 0, req.Remaining())
}

func TestStatusTriggerSource(t *testing.T) {
	step := Status(client.ArmingStateAlarmingCarbonMonoxide)
	require.Equal(t, client.TriggerCarbonMonoxide, step.Status.TriggerSource)
}

func TestParse(t *testing.T) {
	req, err := Parse([]byte(`
- status:
    arming_state: 10200
    low_battery: true
    zones:
      - {id: 1, description: Front Door, status: 2}
- result: -4106
- error: connection reset by peer
`))
	require.NoError(t, err)
	require.Equal(t, 3, req.Remaining())

	status, err := req.Status(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, client.ArmingStateDisarmed, status.ArmingState)
	require.True(t, status.Troubles.LowBattery)
	require.Equal(t, []client.Zone{{ID: 1, Description: "Front Door", Status: client.ZoneFaulted}}, status.Zones)

	outcome, err := req.Command(context.Background(), client.ActionArmHome, 1, "")
	require.NoError(t, err)
	require.Equal(t, client.RejectionInvalidUserCode, outcome.Reason)

	_, err = req.Status(context.Background(), 1)
	require.EqualError(t, err, "connection reset by peer")
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`- {}`))
	require.ErrorContains(t, err, "step 1 is empty")

	_, err = Parse([]byte(`not: [a list`))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- result: 4500\n"), 0o600))

	req, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, req.Remaining())

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
