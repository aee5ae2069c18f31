package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/money"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler serves transaction history.
type TransactionHandler struct {
	querySvc ports.QueryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(querySvc ports.QueryService) *TransactionHandler {
	return &TransactionHandler{querySvc: querySvc}
}

// GetHistory handles GET /api/v1/transactions.
func (h *TransactionHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	history, err := h.querySvc.GetHistory(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.HistoryResponse{
		Sent:     make([]dto.TransactionResponse, 0, len(history.Sent)),
		Received: make([]dto.TransactionResponse, 0, len(history.Received)),
	}
	for _, t := range history.Sent {
		resp.Sent = append(resp.Sent, toTransactionResponse(t))
	}
	for _, t := range history.Received {
		resp.Received = append(resp.Received, toTransactionResponse(t))
	}

	response.OK(c, resp)
}

// toTransactionResponse converts a ledger record to its wire shape.
func toTransactionResponse(t domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          t.ID.String(),
		Kind:        string(t.Kind),
		RecipientID: t.RecipientID.String(),
		Amount:      money.Format(t.Amount),
		Status:      string(t.Status),
		PayoutRef:   t.PayoutRef,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.SenderID != nil {
		s := t.SenderID.String()
		resp.SenderID = &s
	}
	return resp
}
