package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ContactHandler lists transfer targets.
type ContactHandler struct {
	contactSvc ports.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactSvc ports.ContactService) *ContactHandler {
	return &ContactHandler{contactSvc: contactSvc}
}

// ListContacts handles GET /api/v1/contacts.
func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	users, err := h.contactSvc.ListContacts(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	contacts := make([]dto.ContactResponse, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, dto.ContactResponse{
			UserID:      u.ID.String(),
			Name:        u.Name,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
		})
	}

	response.OK(c, contacts)
}
