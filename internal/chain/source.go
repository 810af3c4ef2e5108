package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"

	"github.com/papermoonio/credits-monitor/internal/domain"
)

// Storage locations read by the monitor. Key hashing is driven by the
// runtime metadata, so only the pallet/entry names live here.
const (
	registrarPallet = "ContainerRegistrar"
	registrarEntry  = "RegisteredParaIds"
	paymentPallet   = "ServicesPayment"
	creditsEntry    = "BlockProductionCredits"
	systemPallet    = "System"
	accountEntry    = "Account"
)

// Source reads registration, balance, and credit state from an
// orchestration-chain node over substrate RPC. It holds one connection for
// the lifetime of a run; callers must Close it on every exit path.
type Source struct {
	api           *gsrpc.SubstrateAPI
	meta          *types.Metadata
	tokenDecimals uint32
	tokenSymbol   string
	logger        *slog.Logger
}

// NewSource connects to the node at url and fetches the runtime metadata
// used to build storage keys. Token decimals and symbol come from the
// static per-network configuration rather than a second metadata query.
func NewSource(url, tokenSymbol string, tokenDecimals uint32, logger *slog.Logger) (*Source, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, fmt.Errorf("chain: connect %s: %w", url, err)
	}
	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, fmt.Errorf("chain: fetch metadata: %w", err)
	}
	return &Source{
		api:           api,
		meta:          meta,
		tokenDecimals: tokenDecimals,
		tokenSymbol:   tokenSymbol,
		logger:        logger.With(slog.String("component", "chain_source")),
	}, nil
}

// RegisteredParaIDs returns every registered container chain in chain
// order. The monitor processes them exactly in this order.
func (s *Source) RegisteredParaIDs(ctx context.Context) ([]domain.ParaID, error) {
	key, err := types.CreateStorageKey(s.meta, registrarPallet, registrarEntry)
	if err != nil {
		return nil, fmt.Errorf("chain: build %s.%s key: %w", registrarPallet, registrarEntry, err)
	}

	var raw []types.U32
	ok, err := s.api.RPC.State.GetStorageLatest(key, &raw)
	if err != nil {
		return nil, fmt.Errorf("chain: query registered para ids: %w", err)
	}
	if !ok {
		return nil, nil
	}

	ids := make([]domain.ParaID, len(raw))
	for i, v := range raw {
		ids[i] = domain.ParaID(v)
	}
	s.logger.DebugContext(ctx, "registered para ids fetched", slog.Int("count", len(ids)))
	return ids, nil
}

// FreeBalance returns the free balance of a funding-tank account. An
// account absent from storage reads as zero, which is a real on-chain state
// (never-funded tank), not a query failure.
func (s *Source) FreeBalance(ctx context.Context, tank [32]byte) (domain.BalanceSnapshot, error) {
	snap := domain.BalanceSnapshot{
		Free:          new(big.Int),
		TokenDecimals: s.tokenDecimals,
		TokenSymbol:   s.tokenSymbol,
	}

	key, err := types.CreateStorageKey(s.meta, systemPallet, accountEntry, tank[:])
	if err != nil {
		return snap, fmt.Errorf("chain: build %s.%s key: %w", systemPallet, accountEntry, err)
	}

	var info types.AccountInfo
	ok, err := s.api.RPC.State.GetStorageLatest(key, &info)
	if err != nil {
		return snap, fmt.Errorf("chain: query account balance: %w", err)
	}
	if ok && info.Data.Free.Int != nil {
		snap.Free.Set(info.Data.Free.Int)
	}
	return snap, nil
}

// BlockProductionCredits returns the prepaid credit units of a container
// chain. The value is read as raw storage and interpreted little-endian so
// u32, u64, and u128 runtimes all parse without a codec change.
func (s *Source) BlockProductionCredits(ctx context.Context, id domain.ParaID) (domain.CreditSnapshot, error) {
	snap := domain.CreditSnapshot{BlockProductionCredits: new(big.Int)}

	arg, err := codec.Encode(types.NewU32(uint32(id)))
	if err != nil {
		return snap, fmt.Errorf("chain: encode para id %d: %w", id, err)
	}
	key, err := types.CreateStorageKey(s.meta, paymentPallet, creditsEntry, arg)
	if err != nil {
		return snap, fmt.Errorf("chain: build %s.%s key: %w", paymentPallet, creditsEntry, err)
	}

	raw, err := s.api.RPC.State.GetStorageRawLatest(key)
	if err != nil {
		return snap, fmt.Errorf("chain: query block production credits for %d: %w", id, err)
	}
	if raw != nil {
		snap.BlockProductionCredits = leBigInt(*raw)
	}
	return snap, nil
}

// Close releases the RPC connection.
func (s *Source) Close() {
	s.api.Client.Close()
}

// leBigInt interprets a little-endian fixed-width storage value as an
// unsigned big integer.
func leBigInt(b []byte) *big.Int {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(rev)
}
