package controllers

import (
	"net/http"
	"strings"
	"time"

	"go-buildmart/logger"
	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/services"
	"go-buildmart/utils"
)

type ContactController struct {
	Contacts repository.ContactRepository
	Notifier *services.Notifier
	Mail     *utils.EmailService
}

func NewContactController(contacts repository.ContactRepository, notifier *services.Notifier, mail *utils.EmailService) *ContactController {
	return &ContactController{Contacts: contacts, Notifier: notifier, Mail: mail}
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,min=10,max=15"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
}

func (req *contactRequest) Normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
}

// Submit stores a contact-form message and tells the admins.
func (cc *ContactController) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	c := &models.Contact{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    "new",
		CreatedAt: time.Now().UTC(),
	}
	if err := cc.Contacts.Create(ctx, c); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	cc.Notifier.NotifyAdmins(ctx, services.Notice{
		Type:     models.NotifyContact,
		Priority: models.PriorityMedium,
		Title:    "New enquiry: " + c.Subject,
		Message:  c.Name + " <" + c.Email + ">",
	})
	if cc.Mail != nil {
		if err := cc.Mail.ForwardContact(ctx, c); err != nil {
			logger.FromContext(ctx).Warn("forward contact", "error", err)
		}
	}
	utils.Created(w, "Thank you, we will get back to you shortly", c)
}

// List is the admin inbox of contact submissions.
func (cc *ContactController) List(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	ctx, cancel := requestContext(r)
	defer cancel()

	list, total, err := cc.Contacts.List(ctx, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Paginated(w, list, utils.NewPagination(page.Number, page.Limit, total))
}
