package chain

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

type fakeEth struct {
	head uint64
}

func (f *fakeEth) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(f.head)
}

func (f *fakeEth) ChainId() *hexutil.Big {
	return (*hexutil.Big)(hexutil.MustDecodeBig("0x38"))
}

func TestCurrentTick(t *testing.T) {
	server := rpc.NewServer()
	defer server.Stop()
	if err := server.RegisterName("eth", &fakeEth{head: 4242}); err != nil {
		t.Fatalf("register: %v", err)
	}

	client := newClient(rpc.DialInProc(server))
	defer client.Close()

	ctx := context.Background()
	tick, err := client.CurrentTick(ctx)
	if err != nil {
		t.Fatalf("current tick: %v", err)
	}
	if tick != 4242 {
		t.Fatalf("tick mismatch: %d", tick)
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		t.Fatalf("chain id: %v", err)
	}
	if id.Uint64() != 56 {
		t.Fatalf("chain id mismatch: %s", id)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
}
