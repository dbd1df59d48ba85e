package treasury

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGateway struct {
	calls int
}

func (g *recordingGateway) Execute(ctx context.Context, instruction TransferInstruction) (*TransferReceipt, error) {
	g.calls++
	return &TransferReceipt{TreasuryTransactionID: "tt", TransactionHash: "0x1"}, nil
}

func TestNetworkRouter(t *testing.T) {
	crypto := &recordingGateway{}
	fiat := &recordingGateway{}
	router := NewNetworkRouter(crypto, fiat)

	_, err := router.Execute(context.Background(), TransferInstruction{DestinationNetwork: "ethereum"})
	require.NoError(t, err)
	_, err = router.Execute(context.Background(), TransferInstruction{DestinationNetwork: "solana"})
	require.NoError(t, err)
	assert.Equal(t, 2, crypto.calls)
	assert.Equal(t, 0, fiat.calls)

	_, err = router.Execute(context.Background(), TransferInstruction{DestinationNetwork: "ACH"})
	require.NoError(t, err)
	_, err = router.Execute(context.Background(), TransferInstruction{DestinationNetwork: "sepa"})
	require.NoError(t, err)
	assert.Equal(t, 2, fiat.calls)
}

func TestNetworkRouter_FiatDisabled(t *testing.T) {
	router := NewNetworkRouter(&recordingGateway{}, nil)

	_, err := router.Execute(context.Background(), TransferInstruction{DestinationNetwork: "ach"})
	assert.True(t, IsPermanent(err), "fiat payout without the rail enabled is terminal")
}
