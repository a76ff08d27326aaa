package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Client is a Gateway backed by an external token-ledger service. The
// treasury address is fixed at construction; pushes are sent from it and
// pulls are executed with it as the spender.
type Client struct {
	baseURL  string
	treasury common.Address
	http     *http.Client
}

func NewClient(baseURL string, treasury common.Address) *Client {
	return &Client{
		baseURL:  baseURL,
		treasury: treasury,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

func (c *Client) BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/balance/"+addr.Hex(), nil)
	if err != nil {
		return nil, fmt.Errorf("build balance request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query balance: %s", readError(resp))
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode balance response: %w", err)
	}
	balance, err := uint256.FromDecimal(body.Balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", body.Balance, err)
	}
	return balance, nil
}

func (c *Client) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	return c.post(ctx, "/transfer", transferRequest{
		From:   c.treasury.Hex(),
		To:     to.Hex(),
		Amount: amount.Dec(),
	})
}

func (c *Client) TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	return c.post(ctx, "/transfer-from", transferRequest{
		From:   from.Hex(),
		To:     to.Hex(),
		Amount: amount.Dec(),
	})
}

func (c *Client) post(ctx context.Context, path string, body transferRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, readError(resp))
	}
	return nil
}

func readError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Sprintf("%s (status %d)", body.Error, resp.StatusCode)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
