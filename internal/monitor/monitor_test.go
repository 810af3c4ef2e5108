package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papermoonio/credits-monitor/internal/chain"
	"github.com/papermoonio/credits-monitor/internal/config"
	"github.com/papermoonio/credits-monitor/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNetwork() config.Network {
	return config.Network{
		SS58Prefix:    42,
		TokenSymbol:   "DANCE",
		TokenDecimals: 12,
		DashboardURL:  "https://apps.tanssi.network",
		Cost: config.ChainCost{
			BlocksPerDay:              14400,
			CostPerBlock:              0.03,
			CostCollatorAssignment:    50,
			CollatorAssignmentsPerDay: 4,
			AlertThresholdDays:        7,
		},
	}
}

// fakeSource serves canned balances and credits keyed by para ID.
type fakeSource struct {
	ids        []domain.ParaID
	balances   map[domain.ParaID]*big.Int
	credits    map[domain.ParaID]*big.Int
	balanceErr map[domain.ParaID]error
	closed     bool
}

func (f *fakeSource) RegisteredParaIDs(context.Context) ([]domain.ParaID, error) {
	return f.ids, nil
}

func (f *fakeSource) FreeBalance(_ context.Context, tank [32]byte) (domain.BalanceSnapshot, error) {
	id, ok := f.idForTank(tank)
	if !ok {
		return domain.BalanceSnapshot{}, errors.New("unknown tank account")
	}
	if err := f.balanceErr[id]; err != nil {
		return domain.BalanceSnapshot{}, err
	}
	free := f.balances[id]
	if free == nil {
		free = new(big.Int)
	}
	return domain.BalanceSnapshot{Free: free, TokenDecimals: 12, TokenSymbol: "DANCE"}, nil
}

func (f *fakeSource) BlockProductionCredits(_ context.Context, id domain.ParaID) (domain.CreditSnapshot, error) {
	c := f.credits[id]
	if c == nil {
		c = new(big.Int)
	}
	return domain.CreditSnapshot{BlockProductionCredits: c}, nil
}

func (f *fakeSource) Close() { f.closed = true }

func (f *fakeSource) idForTank(tank [32]byte) (domain.ParaID, bool) {
	for _, id := range f.ids {
		if chain.DeriveTankAccount(id) == tank {
			return id, true
		}
	}
	return 0, false
}

type sentMessage struct {
	ChatID string
	Text   string
}

// fakeDispatcher records every send; chats listed in fail are rejected.
type fakeDispatcher struct {
	sends []sentMessage
	fail  map[string]bool
}

func (f *fakeDispatcher) Send(_ context.Context, chatID, text string) bool {
	f.sends = append(f.sends, sentMessage{ChatID: chatID, Text: text})
	return !f.fail[chatID]
}

func testSecrets() *config.Secrets {
	return &config.Secrets{
		BotToken: "tok",
		Teams: []domain.TeamConfig{
			{Name: "ops-broadcast", ParaID: 0, ChatID: "b1"},
			{Name: "acme", ParaID: 2000, ChatID: "owner"},
			{Name: "watchers", ParaID: 0, ChatID: "b2"},
		},
	}
}

func TestRun_AlertsOwnerThenBroadcast(t *testing.T) {
	src := &fakeSource{
		ids:     []domain.ParaID{2000, 3000},
		credits: map[domain.ParaID]*big.Int{3000: big.NewInt(10_000_000)},
	}
	disp := &fakeDispatcher{}

	mon := New("dancebox", testNetwork(), testSecrets(), src, disp, testLogger())
	sum, err := mon.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Entities)
	assert.Equal(t, 1, sum.LowCredit)
	assert.Equal(t, 3, sum.AlertsSent)
	assert.Equal(t, 0, sum.AlertsFailed)

	// Owner first, then broadcast recipients in stored order.
	require.Len(t, disp.sends, 3)
	assert.Equal(t, "owner", disp.sends[0].ChatID)
	assert.Equal(t, "b1", disp.sends[1].ChatID)
	assert.Equal(t, "b2", disp.sends[2].ChatID)
	assert.Contains(t, disp.sends[0].Text, "acme")
	assert.Equal(t, disp.sends[1].Text, disp.sends[2].Text)
	assert.NotContains(t, disp.sends[1].Text, "could not be notified")
}

func TestRun_BroadcastContinuesPastFailures(t *testing.T) {
	src := &fakeSource{ids: []domain.ParaID{2000}}
	disp := &fakeDispatcher{fail: map[string]bool{"b1": true}}

	mon := New("dancebox", testNetwork(), testSecrets(), src, disp, testLogger())
	sum, err := mon.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, disp.sends, 3, "a failed broadcast send must not stop the rest")
	assert.Equal(t, 2, sum.AlertsSent)
	assert.Equal(t, 1, sum.AlertsFailed)
}

func TestRun_OwnerFailureReflectedInBroadcast(t *testing.T) {
	src := &fakeSource{ids: []domain.ParaID{2000}}
	disp := &fakeDispatcher{fail: map[string]bool{"owner": true}}

	mon := New("dancebox", testNetwork(), testSecrets(), src, disp, testLogger())
	sum, err := mon.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, disp.sends, 3)
	assert.Contains(t, disp.sends[1].Text, "could not be notified")
	assert.Equal(t, 2, sum.AlertsSent)
	assert.Equal(t, 1, sum.AlertsFailed)
}

func TestRun_NoOwnerConfigured(t *testing.T) {
	secrets := &config.Secrets{
		BotToken: "tok",
		Teams: []domain.TeamConfig{
			{Name: "ops-broadcast", ParaID: 0, ChatID: "b1"},
		},
	}
	src := &fakeSource{ids: []domain.ParaID{42}}
	disp := &fakeDispatcher{}

	mon := New("dancebox", testNetwork(), secrets, src, disp, testLogger())
	_, err := mon.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, disp.sends, 1)
	assert.Contains(t, disp.sends[0].Text, "No team is configured")
}

func TestRun_FailureOfOneEntityDoesNotAbortOthers(t *testing.T) {
	// Both chains are low; every dispatch for the first one is rejected.
	secrets := &config.Secrets{
		BotToken: "tok",
		Teams: []domain.TeamConfig{
			{Name: "first", ParaID: 2000, ChatID: "c1"},
			{Name: "second", ParaID: 3000, ChatID: "c2"},
		},
	}
	src := &fakeSource{ids: []domain.ParaID{2000, 3000}}
	disp := &fakeDispatcher{fail: map[string]bool{"c1": true}}

	mon := New("dancebox", testNetwork(), secrets, src, disp, testLogger())
	sum, err := mon.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.LowCredit)
	require.Len(t, disp.sends, 2)
	assert.Equal(t, "c2", disp.sends[1].ChatID)
	assert.Equal(t, 1, sum.AlertsSent)
	assert.Equal(t, 1, sum.AlertsFailed)
}

func TestRun_ReportOnlyWithoutSecrets(t *testing.T) {
	src := &fakeSource{ids: []domain.ParaID{2000}}

	mon := New("dancebox", testNetwork(), nil, src, nil, testLogger())
	sum, err := mon.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Entities)
	assert.Equal(t, 1, sum.LowCredit)
	assert.Equal(t, 0, sum.AlertsSent)
}

func TestRun_QueryFailureAbortsRun(t *testing.T) {
	src := &fakeSource{
		ids:        []domain.ParaID{2000, 3000},
		balanceErr: map[domain.ParaID]error{2000: errors.New("rpc timeout")},
	}
	disp := &fakeDispatcher{}

	mon := New("dancebox", testNetwork(), testSecrets(), src, disp, testLogger())
	_, err := mon.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc timeout")
	assert.Empty(t, disp.sends)
}

func TestRun_ZeroRegisteredEntities(t *testing.T) {
	src := &fakeSource{}

	mon := New("dancebox", testNetwork(), testSecrets(), src, &fakeDispatcher{}, testLogger())
	sum, err := mon.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Entities)
	assert.Equal(t, 0, sum.LowCredit)
	assert.NotEmpty(t, sum.RunID)
}
