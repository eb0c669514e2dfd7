package postgres_test

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/equipment-market/internal/history"
	"github.com/cory-johannsen/equipment-market/internal/storage/postgres"
	"github.com/cory-johannsen/equipment-market/internal/testutil"
)

const (
	alice = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	bob   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func setupHistoryRepo(t *testing.T) *postgres.HistoryRepository {
	t.Helper()
	return testutil.NewStore(t).History
}

func TestHistoryRepository_RecordAndRecent(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	huge, ok := new(big.Int).SetString("123456789012345678901234567890123456789", 10)
	require.True(t, ok)

	minted := history.NewEntry(history.EventEquipmentMinted, "0xaaa1", 10, alice, 1, big.NewInt(614), base)
	bought := history.NewEntry(history.EventItemBought, "0xaaa2", 11, alice, 1, huge, base.Add(time.Minute))
	listed := history.NewEntry(history.EventItemListed, "0xbbb1", 12, bob, 2, nil, base.Add(2*time.Minute))
	for _, e := range []history.Entry{minted, bought, listed} {
		require.NoError(t, repo.Record(ctx, e))
	}

	got, err := repo.Recent(ctx, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bought.ID, got[0].ID)
	assert.Equal(t, 0, huge.Cmp(got[0].Value), "NUMERIC value must round-trip exactly")
	assert.Equal(t, minted.ID, got[1].ID)
	assert.Equal(t, int64(614), got[1].Value.Int64())
	assert.Equal(t, uint64(10), got[1].BlockNumber)
	assert.True(t, base.Equal(got[1].RecordedAt))

	all, err := repo.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, listed.ID, all[0].ID)
	assert.Nil(t, all[0].Value)
}

func TestHistoryRepository_Limit(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 5; i++ {
		e := history.NewEntry(history.EventItemRented, fmt.Sprintf("0x%d", i), uint64(i), bob, 3, big.NewInt(1), now.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Record(ctx, e))
	}

	got, err := repo.Recent(ctx, bob, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(4), got[0].BlockNumber)
	assert.Equal(t, uint64(3), got[1].BlockNumber)

	_, err = repo.Recent(ctx, bob, 0)
	assert.ErrorIs(t, err, history.ErrInvalidLimit)
}

func TestHistoryRepository_DuplicateIDRejected(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()
	e := history.NewEntry(history.EventItemDelisted, "0x1", 1, alice, 1, nil, time.Now())
	require.NoError(t, repo.Record(ctx, e))
	assert.Error(t, repo.Record(ctx, e))
}

// Property: any non-negative wei amount survives storage exactly.
func TestHistoryRepository_PropertyValueExact(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		limbs := rapid.SliceOfN(rapid.Uint64(), 1, 4).Draw(rt, "limbs")
		wei := new(big.Int)
		for _, l := range limbs {
			wei.Lsh(wei, 64)
			wei.Add(wei, new(big.Int).SetUint64(l))
		}
		account := fmt.Sprintf("0x%040x", rapid.Uint64().Draw(rt, "account"))
		e := history.NewEntry(history.EventItemBought, "0xfeed", 1, account, 1, wei, time.Now())
		if err := repo.Record(ctx, e); err != nil {
			rt.Fatalf("Record: %v", err)
		}

		got, err := repo.Recent(ctx, account, 100)
		if err != nil {
			rt.Fatalf("Recent: %v", err)
		}
		for _, g := range got {
			if g.ID == e.ID {
				if g.Value.Cmp(wei) != 0 {
					rt.Fatalf("stored %s, read %s", wei, g.Value)
				}
				return
			}
		}
		rt.Fatalf("entry %s not found", e.ID)
	})
}

func TestHistoryRepository_RejectsValuesBeyondBigint(t *testing.T) {
	repo := postgres.NewHistoryRepository(nil)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	block := history.NewEntry(history.EventItemListed, "0xccc1", math.MaxInt64+1, alice, 1, nil, at)
	require.ErrorIs(t, repo.Record(ctx, block), postgres.ErrOutOfRange)

	token := history.NewEntry(history.EventItemListed, "0xccc2", 1, alice, math.MaxUint64, nil, at)
	require.ErrorIs(t, repo.Record(ctx, token), postgres.ErrOutOfRange)
}
