// Package oracle provides USD pricing for token mints via the Jupiter price
// API. Pricing is advisory: accounting degrades to zero-valued entries when
// a price is unavailable, so this client reports partial results instead of
// failing the whole lookup.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// JupiterClient is the REST client for the Jupiter price API.
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.PriceSource = (*JupiterClient)(nil)

// NewJupiterClient creates a price client.
//
// baseURL is the API root, e.g. "https://lite-api.jup.ag/price/v2".
func NewJupiterClient(baseURL string, logger *slog.Logger) *JupiterClient {
	return &JupiterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With(slog.String("component", "oracle")),
	}
}

// apiPriceEntry is one mint's entry in the price response. Prices arrive as
// decimal strings.
type apiPriceEntry struct {
	ID    string `json:"id"`
	Price string `json:"price"`
}

type apiPriceResponse struct {
	Data map[string]*apiPriceEntry `json:"data"`
}

// Prices returns USD prices for the given mints. Mints the API does not
// know, or whose entries fail to parse, are absent from the result; only a
// transport-level failure is an error.
func (j *JupiterClient) Prices(ctx context.Context, mints []solana.PublicKey) (map[solana.PublicKey]decimal.Decimal, error) {
	if len(mints) == 0 {
		return map[solana.PublicKey]decimal.Decimal{}, nil
	}

	ids := make([]string, 0, len(mints))
	for _, mint := range mints {
		ids = append(ids, mint.String())
	}
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))

	body, err := j.doGet(ctx, "?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("oracle: fetch prices: %w", err)
	}

	var resp apiPriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("oracle: decode prices: %w", err)
	}

	out := make(map[solana.PublicKey]decimal.Decimal, len(mints))
	for _, mint := range mints {
		entry := resp.Data[mint.String()]
		if entry == nil {
			j.logger.WarnContext(ctx, "price unavailable for mint",
				slog.String("mint", mint.String()))
			continue
		}
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			j.logger.WarnContext(ctx, "unparseable price for mint",
				slog.String("mint", mint.String()),
				slog.String("price", entry.Price),
			)
			continue
		}
		out[mint] = price
	}
	return out, nil
}

func (j *JupiterClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
