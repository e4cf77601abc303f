package dex

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/chain"
	"quoteScope/internal/model"
	"quoteScope/internal/quote"
)

var (
	quoterAddr = common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	usdcAddr   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	wethAddr   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	daiAddr    = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func TestEncodePath(t *testing.T) {
	path := model.QuotePath{
		{TokenIn: usdcAddr, TokenOut: wethAddr, FeeTier: 500},
		{TokenIn: wethAddr, TokenOut: daiAddr, FeeTier: 3000},
	}

	forward, err := EncodePath(path, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := append([]byte{}, usdcAddr.Bytes()...)
	want = append(want, 0x00, 0x01, 0xf4)
	want = append(want, wethAddr.Bytes()...)
	want = append(want, 0x00, 0x0b, 0xb8)
	want = append(want, daiAddr.Bytes()...)
	if !bytes.Equal(forward, want) {
		t.Fatalf("forward: got %x want %x", forward, want)
	}

	reversed, err := EncodePath(path, true)
	if err != nil {
		t.Fatalf("encode reversed: %v", err)
	}
	want = append([]byte{}, daiAddr.Bytes()...)
	want = append(want, 0x00, 0x0b, 0xb8)
	want = append(want, wethAddr.Bytes()...)
	want = append(want, 0x00, 0x01, 0xf4)
	want = append(want, usdcAddr.Bytes()...)
	if !bytes.Equal(reversed, want) {
		t.Fatalf("reversed: got %x want %x", reversed, want)
	}

	if _, err := EncodePath(nil, false); !errors.Is(err, model.ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
}

func newTestQuoter(t *testing.T, respond contractFunc, retry chain.RetryPolicy) (*OnchainQuoter, *fakeEth) {
	t.Helper()
	fe := newFakeEth()
	fe.register(quoterAddr, mustABI(t, QuoterV2ABI), respond)
	client := newFakeChain(t, fe)
	return NewOnchainQuoter(QuoterConfig{Address: quoterAddr, CallTimeout: 5 * time.Second, Retry: retry}, client, nil), fe
}

func TestQuoteSingleExactInput(t *testing.T) {
	after := new(big.Int).Lsh(big.NewInt(1), 97)
	var seen singleParams
	q, fe := newTestQuoter(t, func(method string, args []interface{}) ([]interface{}, error) {
		if method != "quoteExactInputSingle" {
			return nil, errors.New("unexpected method " + method)
		}
		seen = *abi.ConvertType(args[0], new(singleParams)).(*singleParams)
		return []interface{}{big.NewInt(12345), after, uint32(2), big.NewInt(90000)}, nil
	}, chain.RetryPolicy{})

	res, err := q.QuoteSingle(context.Background(), quote.SingleRequest{
		Kind:     model.ExactInput,
		TokenIn:  usdcAddr,
		TokenOut: wethAddr,
		FeeTier:  500,
		Amount:   big.NewInt(100_000_000),
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Amount.Int64() != 12345 || res.SqrtPriceAfter.Cmp(after) != 0 || res.GasEstimate.Int64() != 90000 {
		t.Fatalf("unexpected result %+v", res)
	}
	if seen.TokenIn != usdcAddr || seen.TokenOut != wethAddr || seen.Fee.Int64() != 500 || seen.AmountIn.Int64() != 100_000_000 {
		t.Fatalf("unexpected params %+v", seen)
	}
	if fe.count("quoteExactInputSingle") != 1 {
		t.Fatalf("calls: %d", fe.count("quoteExactInputSingle"))
	}
}

func TestQuoteSingleExactOutput(t *testing.T) {
	var seen singleOutputParams
	q, _ := newTestQuoter(t, func(method string, args []interface{}) ([]interface{}, error) {
		if method != "quoteExactOutputSingle" {
			return nil, errors.New("unexpected method " + method)
		}
		seen = *abi.ConvertType(args[0], new(singleOutputParams)).(*singleOutputParams)
		return []interface{}{big.NewInt(777), big.NewInt(5), uint32(0), big.NewInt(1)}, nil
	}, chain.RetryPolicy{})

	res, err := q.QuoteSingle(context.Background(), quote.SingleRequest{
		Kind:     model.ExactOutput,
		TokenIn:  daiAddr,
		TokenOut: usdcAddr,
		FeeTier:  100,
		Amount:   big.NewInt(1_000_000),
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Amount.Int64() != 777 {
		t.Fatalf("amount: got %s", res.Amount)
	}
	if seen.Amount.Int64() != 1_000_000 || seen.Fee.Int64() != 100 {
		t.Fatalf("unexpected params %+v", seen)
	}
}

func TestQuoteMultiExactOutputEncodesReversedPath(t *testing.T) {
	path := model.QuotePath{
		{TokenIn: daiAddr, TokenOut: wethAddr, FeeTier: 3000},
		{TokenIn: wethAddr, TokenOut: usdcAddr, FeeTier: 500},
	}
	wantPath, _ := EncodePath(path, true)
	afters := []*big.Int{big.NewInt(11), big.NewInt(22)}

	q, _ := newTestQuoter(t, func(method string, args []interface{}) ([]interface{}, error) {
		if method != "quoteExactOutput" {
			return nil, errors.New("unexpected method " + method)
		}
		if !bytes.Equal(args[0].([]byte), wantPath) {
			return nil, errors.New("path not reversed")
		}
		return []interface{}{big.NewInt(999), afters, []uint32{1, 1}, big.NewInt(200000)}, nil
	}, chain.RetryPolicy{})

	res, err := q.QuoteMulti(context.Background(), quote.MultiRequest{Kind: model.ExactOutput, Path: path, Amount: big.NewInt(10)})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Amount.Int64() != 999 || len(res.SqrtPricesAfter) != 2 || res.SqrtPricesAfter[0].Int64() != 11 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestQuoteRetriesThenFails(t *testing.T) {
	attempts := 0
	q, _ := newTestQuoter(t, func(method string, args []interface{}) ([]interface{}, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("execution reverted")
		}
		return []interface{}{big.NewInt(1), big.NewInt(1), uint32(0), big.NewInt(1)}, nil
	}, chain.RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond})

	req := quote.SingleRequest{Kind: model.ExactInput, TokenIn: usdcAddr, TokenOut: wethAddr, FeeTier: 500, Amount: big.NewInt(1)}
	if _, err := q.QuoteSingle(context.Background(), req); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}

	failing, _ := newTestQuoter(t, func(string, []interface{}) ([]interface{}, error) {
		return nil, errors.New("execution reverted")
	}, chain.RetryPolicy{})
	if _, err := failing.QuoteSingle(context.Background(), req); err == nil {
		t.Fatalf("expected revert to surface as error")
	}
	if _, err := failing.QuoteSingle(context.Background(), quote.SingleRequest{Amount: big.NewInt(0)}); err == nil {
		t.Fatalf("expected zero amount to be rejected")
	}
}
