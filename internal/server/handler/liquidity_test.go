package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/accounting"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/service"
)

type fakeLiquidity struct {
	depositBundle domain.DepositBundle
	depositErr    error
	plan          service.ClaimPlan
	claimErr      error
	summary       accounting.PortfolioSummary
	closeBuilt    domain.BuiltTransaction
	closeErr      error
	positions     []domain.Position

	lastDeposit domain.DepositRequest
}

func (f *fakeLiquidity) Deposit(ctx context.Context, req domain.DepositRequest) (domain.DepositBundle, error) {
	f.lastDeposit = req
	return f.depositBundle, f.depositErr
}

func (f *fakeLiquidity) Claim(ctx context.Context, req domain.ClaimRequest) (service.ClaimPlan, error) {
	return f.plan, f.claimErr
}

func (f *fakeLiquidity) Fees(ctx context.Context, wallet solana.PublicKey) (accounting.PortfolioSummary, error) {
	return f.summary, nil
}

func (f *fakeLiquidity) ClosePosition(ctx context.Context, wallet, pos solana.PublicKey) (domain.BuiltTransaction, error) {
	return f.closeBuilt, f.closeErr
}

func (f *fakeLiquidity) Positions(ctx context.Context, wallet solana.PublicKey) ([]domain.Position, error) {
	return f.positions, nil
}

func testHandlerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unsignedTestTx(t *testing.T) *solana.Transaction {
	t.Helper()
	wallet := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, wallet.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		solana.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"),
		solana.TransactionPayer(wallet.PublicKey()),
	)
	require.NoError(t, err)
	return tx
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestDepositReturnsEphemeralKeyOnce(t *testing.T) {
	ephemeral := solana.NewWallet()
	fake := &fakeLiquidity{
		depositBundle: domain.DepositBundle{
			Tx:              unsignedTestTx(t),
			PositionAddress: ephemeral.PublicKey(),
			EphemeralKey: domain.EphemeralPositionKey{
				Position: ephemeral.PublicKey(),
				Secret:   ephemeral.PrivateKey,
			},
		},
	}
	h := NewLiquidityHandler(fake, testHandlerLogger())

	// Capture before the handler zeroes the shared key material.
	wantKey := ephemeral.PrivateKey.String()
	wantPos := ephemeral.PublicKey().String()

	wallet := solana.NewWallet().PublicKey()
	rec := postJSON(t, h.Deposit, "/api/liquidity/deposit", map[string]any{
		"walletAddress": wallet.String(),
		"tokenXAmount":  "12.5",
		"strategy":      "spot",
		"binRange":      10,
		"autoFill":      true,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		SerializedTransaction string `json:"serializedTransaction"`
		PositionAddress       string `json:"positionAddress"`
		EphemeralKey          string `json:"ephemeralKey"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SerializedTransaction)
	assert.Equal(t, wantPos, resp.PositionAddress)
	assert.Equal(t, wantKey, resp.EphemeralKey)

	// The handler discards the key after writing the response; the backing
	// key material is zeroed.
	for _, b := range fake.depositBundle.EphemeralKey.Secret {
		require.Zero(t, b)
	}

	assert.Equal(t, wallet, fake.lastDeposit.Wallet)
	assert.True(t, fake.lastDeposit.AutoFill)
	assert.Equal(t, "12.5", fake.lastDeposit.AmountX.String())
}

func TestDepositRejectsBadAmount(t *testing.T) {
	h := NewLiquidityHandler(&fakeLiquidity{}, testHandlerLogger())

	rec := postJSON(t, h.Deposit, "/api/liquidity/deposit", map[string]any{
		"walletAddress": solana.NewWallet().PublicKey().String(),
		"tokenXAmount":  "a lot",
		"strategy":      "spot",
		"binRange":      10,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tokenXAmount", resp["field"])
}

func TestClaimFeesReportsPlan(t *testing.T) {
	fake := &fakeLiquidity{
		plan: service.ClaimPlan{
			Transactions: []domain.BuiltTransaction{
				{Label: domain.OpClaimSwapFees, Tx: unsignedTestTx(t)},
			},
			Amounts: service.ClaimAmounts{
				SwapFeeX: decimal.RequireFromString("0.1"),
				SwapFeeY: decimal.RequireFromString("0.06"),
			},
		},
	}
	h := NewLiquidityHandler(fake, testHandlerLogger())

	rec := postJSON(t, h.ClaimFees, "/api/liquidity/claim-fees", map[string]any{
		"walletAddress": solana.NewWallet().PublicKey().String(),
		"claimType":     "all",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Transactions []struct {
			Label                 string `json:"label"`
			SerializedTransaction string `json:"serializedTransaction"`
		} `json:"transactions"`
		ExactAmounts struct {
			SwapFeeX string `json:"swapFeeX"`
		} `json:"exactAmounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, domain.OpClaimSwapFees, resp.Transactions[0].Label)
	assert.NotEmpty(t, resp.Transactions[0].SerializedTransaction)
	assert.Equal(t, "0.1", resp.ExactAmounts.SwapFeeX)
}

func TestClaimFeesEmptyPlanIsSuccess(t *testing.T) {
	h := NewLiquidityHandler(&fakeLiquidity{}, testHandlerLogger())

	rec := postJSON(t, h.ClaimFees, "/api/liquidity/claim-fees", map[string]any{
		"walletAddress": solana.NewWallet().PublicKey().String(),
		"claimType":     "lm",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Transactions)
	assert.Empty(t, resp.Transactions)
	assert.Contains(t, rec.Body.String(), `"skipped":[]`)
}

func TestClosePositionNotEmptyIsConflict(t *testing.T) {
	pos := solana.NewWallet().PublicKey()
	fake := &fakeLiquidity{
		closeErr: &domain.PositionNotEmptyError{
			Position:   pos,
			RhunAmount: decimal.RequireFromString("0.002"),
			SolAmount:  decimal.Zero,
		},
	}
	h := NewLiquidityHandler(fake, testHandlerLogger())

	rec := postJSON(t, h.ClosePosition, "/api/liquidity/position/close", map[string]any{
		"walletAddress":   solana.NewWallet().PublicKey().String(),
		"positionAddress": pos.String(),
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp struct {
		Error           string `json:"error"`
		PositionAddress string `json:"positionAddress"`
		RhunAmount      string `json:"rhunAmount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PositionNotEmpty", resp.Error)
	assert.Equal(t, pos.String(), resp.PositionAddress)
	assert.Equal(t, "0.002", resp.RhunAmount)
}

func TestClosePositionReturnsTransaction(t *testing.T) {
	fake := &fakeLiquidity{
		closeBuilt: domain.BuiltTransaction{Label: domain.OpClosePosition, Tx: unsignedTestTx(t)},
	}
	h := NewLiquidityHandler(fake, testHandlerLogger())

	rec := postJSON(t, h.ClosePosition, "/api/liquidity/position/close", map[string]any{
		"walletAddress":   solana.NewWallet().PublicKey().String(),
		"positionAddress": solana.NewWallet().PublicKey().String(),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["serializedTransaction"])
}

func TestFeesListsAreNeverNull(t *testing.T) {
	fake := &fakeLiquidity{
		summary: accounting.PortfolioSummary{
			TotalSwapFeesUSD:  decimal.Zero,
			TotalLMRewardsUSD: decimal.Zero,
		},
	}
	h := NewLiquidityHandler(fake, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/api/liquidity/fees?wallet="+solana.NewWallet().PublicKey().String(), nil)
	rec := httptest.NewRecorder()
	h.Fees(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"positionFees":[]`)
}

func TestFeesRequiresWallet(t *testing.T) {
	h := NewLiquidityHandler(&fakeLiquidity{}, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/liquidity/fees", nil)
	rec := httptest.NewRecorder()
	h.Fees(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"wallet"`)
}
