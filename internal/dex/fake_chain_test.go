package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"quoteScope/internal/chain"
)

type contractFunc func(method string, args []interface{}) ([]interface{}, error)

type fakeContract struct {
	abi     abi.ABI
	respond contractFunc
}

// fakeEth serves eth_call by decoding calldata against registered ABIs.
type fakeEth struct {
	mu        sync.Mutex
	contracts map[common.Address]fakeContract
	calls     map[string]int
}

func newFakeEth() *fakeEth {
	return &fakeEth{contracts: make(map[common.Address]fakeContract), calls: make(map[string]int)}
}

func (f *fakeEth) register(addr common.Address, parsed abi.ABI, respond contractFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contracts[addr] = fakeContract{abi: parsed, respond: respond}
}

func (f *fakeEth) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeEth) ChainId(ctx context.Context) (hexutil.Big, error) {
	return hexutil.Big(*big.NewInt(1)), nil
}

func (f *fakeEth) Call(ctx context.Context, args map[string]interface{}, block string) (hexutil.Bytes, error) {
	to, _ := args["to"].(string)
	raw, _ := args["input"].(string)
	if raw == "" {
		raw, _ = args["data"].(string)
	}
	data, err := hexutil.Decode(raw)
	if err != nil || len(data) < 4 {
		return nil, fmt.Errorf("bad calldata %q", raw)
	}

	f.mu.Lock()
	contract, ok := f.contracts[common.HexToAddress(to)]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to)
	}
	method, err := contract.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	inputs, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls[method.Name]++
	f.mu.Unlock()

	outputs, err := contract.respond(method.Name, inputs)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outputs...)
}

func newFakeChain(t *testing.T, fe *fakeEth) *chain.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	if err := srv.RegisterName("eth", fe); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	client := chain.NewClientFromRPC(gethrpc.DialInProc(srv))
	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client
}

func mustABI(t *testing.T, get func() (abi.ABI, error)) abi.ABI {
	t.Helper()
	parsed, err := get()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return parsed
}
