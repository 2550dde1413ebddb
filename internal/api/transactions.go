package api

import (
	"context"
	"fmt"

	"github.com/medipal-health/appstate-service/internal/pagination"
	"github.com/medipal-health/appstate-service/internal/payment"
	"github.com/medipal-health/appstate-service/internal/transaction"
)

type transactionListResponse struct {
	Success      bool                      `json:"success"`
	Transactions []transaction.Transaction `json:"transactions"`
	Pagination   pagination.Meta           `json:"pagination"`
}

type transactionResponse struct {
	Success     bool                     `json:"success"`
	Message     string                   `json:"message"`
	Transaction *transaction.Transaction `json:"transaction"`
}

type accountResponse struct {
	Success bool    `json:"success"`
	Balance float64 `json:"balance"`
}

type initPaymentRequest struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
}

type initPaymentResponse struct {
	Success          bool   `json:"success"`
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// ListByUser fetches one user's transactions, newest first.
func (c *Client) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]transaction.Transaction, pagination.Meta, error) {
	var resp transactionListResponse
	path := fmt.Sprintf("/users/%s/transactions", userID)
	if err := c.do(ctx, "GET", path, params.Values(), nil, &resp); err != nil {
		return nil, pagination.Meta{}, err
	}
	return resp.Transactions, resp.Pagination, nil
}

// Submit sends a transaction request to the backend.
func (c *Client) Submit(ctx context.Context, req transaction.Request) (*transaction.Transaction, error) {
	var resp transactionResponse
	if err := c.do(ctx, "POST", "/transactions", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Transaction == nil || resp.Transaction.TransactionID == "" {
		return nil, ErrInvalidResponse
	}
	return resp.Transaction, nil
}

// Balance fetches the account balance for a user.
func (c *Client) Balance(ctx context.Context, userID string) (float64, error) {
	var resp accountResponse
	path := fmt.Sprintf("/users/%s/account", userID)
	if err := c.do(ctx, "GET", path, nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// InitPayment opens a gateway checkout for a top-up and returns the
// authorization URL the user must be sent to.
func (c *Client) InitPayment(ctx context.Context, accountID string, amount float64) (string, string, error) {
	var resp initPaymentResponse
	req := initPaymentRequest{AccountID: accountID, Amount: amount}
	if err := c.do(ctx, "POST", "/payments/initialize", nil, req, &resp); err != nil {
		return "", "", err
	}
	if resp.AuthorizationURL == "" {
		return "", "", ErrInvalidResponse
	}
	return resp.AuthorizationURL, resp.Reference, nil
}

// Ensure Client implements the transaction and payment API contracts
var (
	_ transaction.API = (*Client)(nil)
	_ payment.InitAPI = (*Client)(nil)
)
