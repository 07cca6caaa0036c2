package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

const birthdayLayout = "2006-01-02"

type contactUsecaser interface {
	CreateContact(ctx context.Context, userID string, input usecase.ContactInput) (*domain.Contact, error)
	GetContact(ctx context.Context, id, userID string) (*domain.Contact, error)
	ListContacts(ctx context.Context, input usecase.ListContactsInput) (usecase.ListContactsResult, error)
	UpdateContact(ctx context.Context, id, userID string, input usecase.ContactInput) (*domain.Contact, error)
	DeleteContact(ctx context.Context, id, userID string) error
}

type ContactHandler struct {
	contactUsecase contactUsecaser
	logger         *slog.Logger
}

func NewContactHandler(contactUsecase contactUsecaser, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contactUsecase: contactUsecase, logger: logger.With("component", "contact_handler")}
}

type contactRequest struct {
	FirstName string  `json:"first_name" binding:"required,max=50"`
	LastName  string  `json:"last_name"  binding:"required,max=50"`
	Email     string  `json:"email"      binding:"required,email,max=254"`
	Phone     string  `json:"phone"      binding:"required,max=20"`
	Birthday  *string `json:"birthday"   binding:"omitempty,datetime=2006-01-02"`
	Favorite  bool    `json:"favorite"`
}

type contactResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  *string   `json:"birthday"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listContactsResponse struct {
	Contacts   []contactResponse `json:"contacts"`
	NextCursor *string           `json:"next_cursor"`
}

func (r contactRequest) toInput() usecase.ContactInput {
	in := usecase.ContactInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Favorite:  r.Favorite,
	}
	if r.Birthday != nil {
		// already validated by the datetime binding
		if t, err := time.Parse(birthdayLayout, *r.Birthday); err == nil {
			in.Birthday = &t
		}
	}
	return in
}

func toContactResponse(c *domain.Contact) contactResponse {
	resp := contactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Favorite:  c.Favorite,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Birthday != nil {
		s := c.Birthday.Format(birthdayLayout)
		resp.Birthday = &s
	}
	return resp
}

// GET /api/contacts?limit=&cursor=
func (h *ContactHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.contactUsecase.ListContacts(c.Request.Context(), usecase.ListContactsInput{
		UserID: c.GetString("userID"),
		Cursor: c.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		respondError(c, h.logger, "list contacts", err)
		return
	}

	items := make([]contactResponse, len(result.Contacts))
	for i, ct := range result.Contacts {
		items[i] = toContactResponse(ct)
	}
	c.JSON(http.StatusOK, listContactsResponse{Contacts: items, NextCursor: result.NextCursor})
}

// POST /api/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.contactUsecase.CreateContact(c.Request.Context(), c.GetString("userID"), req.toInput())
	if err != nil {
		respondError(c, h.logger, "create contact", err)
		return
	}
	c.JSON(http.StatusCreated, toContactResponse(created))
}

// GET /api/contacts/:id
func (h *ContactHandler) GetByID(c *gin.Context) {
	ct, err := h.contactUsecase.GetContact(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		respondError(c, h.logger, "get contact", err)
		return
	}
	c.JSON(http.StatusOK, toContactResponse(ct))
}

// PUT /api/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.contactUsecase.UpdateContact(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.toInput())
	if err != nil {
		respondError(c, h.logger, "update contact", err)
		return
	}
	c.JSON(http.StatusOK, toContactResponse(updated))
}

// DELETE /api/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.contactUsecase.DeleteContact(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		respondError(c, h.logger, "delete contact", err)
		return
	}
	c.Status(http.StatusNoContent)
}
