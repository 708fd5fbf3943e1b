package main

import (
	"context"
	"testing"

	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmbeddedFixtureParses(t *testing.T) {
	fx, err := parseFixture(defaultFixture)
	require.NoError(t, err)
	require.Len(t, fx.Certificates, 3)
	assert.Equal(t, "Ravi Kumar", fx.Certificates[0].FarmerName)
	assert.Equal(t, "2024-06-10", fx.Certificates[0].VisitDate)
	assert.True(t, fx.Certificates[2].Revoked)
	require.Len(t, fx.Farmers, 1)
	assert.Len(t, fx.Farmers[0].Credits, 2)
}

func TestApplyIsIdempotentUnlessForced(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryKVStore()
	s := newSeeder(store, &config.Config{LedgerWriteRetries: 1}, zap.NewNop())
	fx, err := parseFixture(defaultFixture)
	require.NoError(t, err)

	res, err := s.apply(ctx, fx, false)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Certificates: 3, Revoked: 1, Farmers: 1}, res)

	st, err := s.certs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.CertificateStats{Total: 3, Active: 2, Revoked: 1}, st)

	bal, err := s.ledger.Get(ctx, service.UserIDForEmail("ravi@example.org"))
	require.NoError(t, err)
	assert.Equal(t, int64(32), bal)

	res, err = s.apply(ctx, fx, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	res, err = s.apply(ctx, fx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Certificates)
}

func TestParseFixtureRejectsBadYAML(t *testing.T) {
	_, err := parseFixture([]byte("certificates: [oops"))
	assert.Error(t, err)
}
