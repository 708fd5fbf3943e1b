package service

import (
	"context"
	"math"
	"testing"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAwardAccumulates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bal, err := f.ledger.Reset(ctx, "u1", ResetLogin)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal)

	_, err = f.ledger.Award(ctx, "u1", 10)
	require.NoError(t, err)
	bal, err = f.ledger.Award(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(57), bal)

	got, err := f.ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(57), got)
}

func TestAwardRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Award(ctx, "u1", -1)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.ledger.Award(ctx, "", 1)
	assert.ErrorIs(t, err, ErrValidation)

	bal, err := f.ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestResetValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tests := []struct {
		reason ResetReason
		want   int64
	}{
		{ResetLogin, 42},
		{ResetSignup, 0},
		{ResetLogout, 0},
	}
	for _, tt := range tests {
		t.Run(tt.reason.String(), func(t *testing.T) {
			_, err := f.ledger.Award(ctx, "u1", 7)
			require.NoError(t, err)
			bal, err := f.ledger.Reset(ctx, "u1", tt.reason)
			require.NoError(t, err)
			assert.Equal(t, tt.want, bal)
		})
	}
}

func TestCreditAppendsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bal, err := f.ledger.Credit(ctx, "u1", model.CreditEntry{Activity: "Rice cultivation", Credits: 20, Type: model.CreditTypeRice})
	require.NoError(t, err)
	assert.Equal(t, int64(20), bal)
	_, err = f.ledger.Credit(ctx, "u1", model.CreditEntry{Activity: "Tree planting", Credits: 12})
	require.NoError(t, err)

	acc, err := f.ledger.Account(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(32), acc.Balance)
	require.Len(t, acc.History, 2)
	assert.Equal(t, "Rice cultivation", acc.History[0].Activity)
	assert.Equal(t, model.CreditTypeOther, acc.History[1].Type)
	assert.NotEmpty(t, acc.History[1].ID)
	assert.Equal(t, f.clock.Now(), acc.History[1].Date)
}

func TestRedeemOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	entry := model.CreditEntry{Activity: "Certificate validation", Credits: 15}

	bal, ok, err := f.ledger.Redeem(ctx, "u1", "CERT-1", entry)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(15), bal)

	bal, ok, err = f.ledger.Redeem(ctx, "u1", "CERT-1", entry)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(15), bal)

	_, ok, err = f.ledger.Redeem(ctx, "u2", "CERT-1", entry)
	require.NoError(t, err)
	assert.True(t, ok, "another user may redeem the same certificate")
}

func TestLedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	newLedger := func(t *testing.T) (LedgerService, func()) {
		gdb := openSQLite(t, path)
		repo := repository.NewAccountRepository(repository.NewGormKVStore(gdb))
		return NewLedgerService(repo, testLedgerConfig, nil, zap.NewNop()), func() { closeDB(t, gdb) }
	}

	ledger, done := newLedger(t)
	_, err := ledger.Reset(ctx, "u1", ResetLogin)
	require.NoError(t, err)
	_, err = ledger.Award(ctx, "u1", 10)
	require.NoError(t, err)
	_, err = ledger.Award(ctx, "u1", 5)
	require.NoError(t, err)
	done()

	ledger, done = newLedger(t)
	defer done()
	bal, err := ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(57), bal)
}

func TestPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{}
	ledger := NewLedgerService(repository.NewAccountRepository(kv), testLedgerConfig, nil, zap.NewNop())

	_, err := ledger.Award(ctx, "u1", 10)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, int32(1), kv.attempts.Load(), "a failed write may have been applied and is not repeated")

	_, err = ledger.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestDomainErrorsAreNotRetried(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{KVStore: repository.NewMemoryKVStore()}
	ledger := NewLedgerService(repository.NewAccountRepository(kv), testLedgerConfig, nil, zap.NewNop())

	_, _, err := ledger.Redeem(ctx, "u1", "CERT-1", model.CreditEntry{Credits: 10})
	require.NoError(t, err)
	before := kv.writes.Load()
	_, ok, err := ledger.Redeem(ctx, "u1", "CERT-1", model.CreditEntry{Credits: 10})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, kv.writes.Load())
}

func TestConflictsAreRetried(t *testing.T) {
	ctx := context.Background()
	kv := &conflictKV{KVStore: repository.NewMemoryKVStore(), n: int32(testLedgerConfig.WriteRetries)}
	ledger := NewLedgerService(repository.NewAccountRepository(kv), testLedgerConfig, nil, zap.NewNop())

	bal, err := ledger.Credit(ctx, "u1", model.CreditEntry{Activity: "Tree planting", Credits: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(12), bal)
	assert.Equal(t, int32(testLedgerConfig.WriteRetries+1), kv.updates.Load())

	acc, err := ledger.Account(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, acc.History, 1)
}

func TestConflictRetriesAreBounded(t *testing.T) {
	ctx := context.Background()
	kv := &conflictKV{KVStore: repository.NewMemoryKVStore(), n: 100}
	ledger := NewLedgerService(repository.NewAccountRepository(kv), testLedgerConfig, nil, zap.NewNop())

	_, err := ledger.Award(ctx, "u1", 1)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, int32(testLedgerConfig.WriteRetries+1), kv.updates.Load())
}

func TestBalanceOverflowIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	big := int64(math.MaxInt64 - 10)
	bal, err := f.ledger.Award(ctx, "u1", big)
	require.NoError(t, err)
	assert.Equal(t, big, bal)

	_, err = f.ledger.Award(ctx, "u1", 11)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.ledger.Credit(ctx, "u1", model.CreditEntry{Credits: 11})
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = f.ledger.Redeem(ctx, "u1", "CERT-1", model.CreditEntry{Credits: 11})
	assert.ErrorIs(t, err, ErrValidation)

	bal, err = f.ledger.Award(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), bal)

	acc, err := f.ledger.Account(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), acc.Balance)
	assert.Empty(t, acc.History)
	assert.Empty(t, acc.Redeemed)
}
