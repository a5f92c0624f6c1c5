package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/accounting"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/service"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/txcodec"
)

// LiquidityService defines the operations the liquidity handler requires.
type LiquidityService interface {
	Deposit(ctx context.Context, req domain.DepositRequest) (domain.DepositBundle, error)
	Claim(ctx context.Context, req domain.ClaimRequest) (service.ClaimPlan, error)
	Fees(ctx context.Context, wallet solana.PublicKey) (accounting.PortfolioSummary, error)
	ClosePosition(ctx context.Context, wallet, position solana.PublicKey) (domain.BuiltTransaction, error)
	Positions(ctx context.Context, wallet solana.PublicKey) ([]domain.Position, error)
}

// LiquidityHandler serves the pool liquidity endpoints.
type LiquidityHandler struct {
	liquidity LiquidityService
	logger    *slog.Logger
}

func NewLiquidityHandler(liquidity LiquidityService, logger *slog.Logger) *LiquidityHandler {
	return &LiquidityHandler{
		liquidity: liquidity,
		logger:    logger,
	}
}

type depositRequest struct {
	WalletAddress string `json:"walletAddress"`
	TokenXAmount  string `json:"tokenXAmount"`
	TokenYAmount  string `json:"tokenYAmount,omitempty"`
	Strategy      string `json:"strategy"`
	BinRange      int    `json:"binRange"`
	AutoFill      bool   `json:"autoFill"`
}

type depositResponse struct {
	SerializedTransaction string `json:"serializedTransaction"`
	PositionAddress       string `json:"positionAddress"`

	// EphemeralKey is the single-use key for the new position account. It
	// appears in exactly this one response; the server keeps no copy.
	EphemeralKey string `json:"ephemeralKey"`
}

// Deposit builds an unsigned open-position-and-deposit transaction.
// POST /api/liquidity/deposit
func (h *LiquidityHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var body depositRequest
	if err := decodeBody(r, &body); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	req, err := body.toDomain()
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	bundle, err := h.liquidity.Deposit(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	encoded, err := txcodec.Encode(bundle.Tx)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp := depositResponse{
		SerializedTransaction: encoded,
		PositionAddress:       bundle.PositionAddress.String(),
		EphemeralKey:          bundle.EphemeralKey.Encode(),
	}
	// Single-use contract: the key leaves in this response and nowhere
	// else.
	bundle.EphemeralKey.Discard()

	writeJSON(w, http.StatusOK, resp)
}

func (b depositRequest) toDomain() (domain.DepositRequest, error) {
	wallet, err := parseAddress(b.WalletAddress, "walletAddress")
	if err != nil {
		return domain.DepositRequest{}, err
	}
	amountX, err := parseAmount(b.TokenXAmount, "tokenXAmount")
	if err != nil {
		return domain.DepositRequest{}, err
	}
	var amountY decimal.Decimal
	if b.TokenYAmount != "" {
		amountY, err = parseAmount(b.TokenYAmount, "tokenYAmount")
		if err != nil {
			return domain.DepositRequest{}, err
		}
	}
	return domain.DepositRequest{
		Wallet:   wallet,
		AmountX:  amountX,
		AmountY:  amountY,
		Strategy: domain.Strategy(b.Strategy),
		BinRange: b.BinRange,
		AutoFill: b.AutoFill,
	}, nil
}

func parseAmount(value, field string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &domain.ValidationError{Field: field, Reason: "not a decimal amount"}
	}
	return amount, nil
}

type claimRequest struct {
	WalletAddress string   `json:"walletAddress"`
	ClaimType     string   `json:"claimType"`
	Positions     []string `json:"positions,omitempty"`
}

type claimTransaction struct {
	Label                 string `json:"label"`
	SerializedTransaction string `json:"serializedTransaction"`
}

type claimResponse struct {
	Transactions []claimTransaction   `json:"transactions"`
	ExactAmounts service.ClaimAmounts `json:"exactAmounts"`
	Skipped      []string             `json:"skipped"`
}

// ClaimFees builds unsigned claim transactions and reports the exact
// amounts they would collect. An empty transaction list means nothing is
// pending; that is a success, not an error.
// POST /api/liquidity/claim-fees
func (h *LiquidityHandler) ClaimFees(w http.ResponseWriter, r *http.Request) {
	var body claimRequest
	if err := decodeBody(r, &body); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	wallet, err := parseAddress(body.WalletAddress, "walletAddress")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	positions := make([]solana.PublicKey, 0, len(body.Positions))
	for _, p := range body.Positions {
		addr, err := parseAddress(p, "positions")
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		positions = append(positions, addr)
	}

	plan, err := h.liquidity.Claim(r.Context(), domain.ClaimRequest{
		Wallet:    wallet,
		Type:      domain.ClaimType(body.ClaimType),
		Positions: positions,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp := claimResponse{
		Transactions: make([]claimTransaction, 0, len(plan.Transactions)),
		ExactAmounts: plan.Amounts,
		Skipped:      plan.Skipped,
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	for _, built := range plan.Transactions {
		encoded, err := txcodec.Encode(built.Tx)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		resp.Transactions = append(resp.Transactions, claimTransaction{
			Label:                 built.Label,
			SerializedTransaction: encoded,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Fees summarizes pending swap fees and rewards for a wallet, USD-valued.
// GET /api/liquidity/fees?wallet=...
func (h *LiquidityHandler) Fees(w http.ResponseWriter, r *http.Request) {
	wallet, err := parseAddress(r.URL.Query().Get("wallet"), "wallet")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	summary, err := h.liquidity.Fees(r.Context(), wallet)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if summary.Positions == nil {
		summary.Positions = []accounting.PositionSummary{}
	}
	writeJSON(w, http.StatusOK, summary)
}

type positionView struct {
	Address    string `json:"address"`
	LowerBinID int32  `json:"lowerBinId"`
	UpperBinID int32  `json:"upperBinId"`
	AmountX    uint64 `json:"amountX"`
	AmountY    uint64 `json:"amountY"`
	Bins       int    `json:"bins"`
}

// Positions lists the wallet's positions in the configured pool.
// GET /api/liquidity/positions?wallet=...
func (h *LiquidityHandler) Positions(w http.ResponseWriter, r *http.Request) {
	wallet, err := parseAddress(r.URL.Query().Get("wallet"), "wallet")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	positions, err := h.liquidity.Positions(r.Context(), wallet)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	views := make([]positionView, 0, len(positions))
	for _, pos := range positions {
		views = append(views, positionView{
			Address:    pos.Address.String(),
			LowerBinID: pos.LowerBinID,
			UpperBinID: pos.UpperBinID,
			AmountX:    pos.TotalAmountX(),
			AmountY:    pos.TotalAmountY(),
			Bins:       len(pos.Bins),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": views})
}

type closeRequest struct {
	WalletAddress   string `json:"walletAddress"`
	PositionAddress string `json:"positionAddress"`
}

// ClosePosition builds the unsigned close transaction for an emptied
// position. Residual funds above the dust threshold come back as a 409
// carrying the measured amounts.
// POST /api/liquidity/position/close
func (h *LiquidityHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	var body closeRequest
	if err := decodeBody(r, &body); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	wallet, err := parseAddress(body.WalletAddress, "walletAddress")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	position, err := parseAddress(body.PositionAddress, "positionAddress")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	built, err := h.liquidity.ClosePosition(r.Context(), wallet, position)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	encoded, err := txcodec.Encode(built.Tx)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"serializedTransaction": encoded})
}
