package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"go-buildmart/events"
	"go-buildmart/logger"
	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/services"
	"go-buildmart/utils"
)

// UserController handles authentication, profiles and admin user
// management.
type UserController struct {
	Users    repository.UserRepository
	Notifier *services.Notifier
	Events   events.Publisher
}

func NewUserController(users repository.UserRepository, notifier *services.Notifier, pub events.Publisher) *UserController {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &UserController{Users: users, Notifier: notifier, Events: pub}
}

type registerRequest struct {
	Name     string               `json:"name" validate:"required,min=2,max=100"`
	Email    string               `json:"email" validate:"required,email"`
	Password string               `json:"password" validate:"required,min=6,max=72"`
	Phone    string               `json:"phone" validate:"omitempty,min=10,max=15"`
	Business *models.BusinessInfo `json:"business"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (req *registerRequest) Normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
}

func (req *loginRequest) Normalize() {
	req.Email = normalizeEmail(req.Email)
}

// Register creates a registered customer and signs them in.
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	now := time.Now().UTC()
	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      models.RoleRegistered,
		Phone:     req.Phone,
		Addresses: []models.Address{},
		Business:  req.Business,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// concurrent registrations are caught by the unique email index
	if _, err := uc.Users.FindByEmail(ctx, user.Email); err == nil {
		utils.WriteError(w, r, &repository.DuplicateKeyError{Field: "email"})
		return
	}
	if err := uc.Users.Create(ctx, user); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	uc.Notifier.NotifyAdmins(ctx, services.Notice{
		Type:        models.NotifyNewUser,
		Priority:    models.PriorityLow,
		Title:       "New customer registered",
		Message:     user.Name + " (" + user.Email + ") created an account",
		RelatedUser: &user.ID,
	})
	if err := uc.Events.Publish(ctx, events.UserRegistered, map[string]string{"user_id": user.ID.Hex(), "email": user.Email}); err != nil {
		logger.FromContext(ctx).Warn("publish user event", "error", err)
	}

	utils.Created(w, "User registered successfully", authResponse{Token: token, User: user})
}

// Login exchanges credentials for a token.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds loginRequest
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	invalid := utils.Unauthorized("Invalid email or password")
	user, err := uc.Users.FindByEmail(ctx, creds.Email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.WriteError(w, r, invalid)
		return
	}
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		utils.WriteError(w, r, invalid)
		return
	}
	if !user.IsActive {
		utils.WriteError(w, r, utils.Unauthorized("Account is deactivated"))
		return
	}

	now := time.Now().UTC()
	if err := uc.Users.TouchLogin(ctx, user.ID, now); err != nil {
		logger.FromContext(ctx).Warn("record last login", "error", err)
	}
	user.LastLogin = &now

	token, err := utils.GenerateJWT(user)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Login successful", Data: authResponse{Token: token, User: user}})
}

// Me returns the authenticated user's profile.
func (uc *UserController) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	utils.OK(w, user)
}

type profileRequest struct {
	Name      *string              `json:"name" validate:"omitempty,min=2,max=100"`
	Phone     *string              `json:"phone" validate:"omitempty,min=10,max=15"`
	Addresses []models.Address     `json:"addresses" validate:"omitempty,dive"`
	Business  *models.BusinessInfo `json:"business"`
}

// UpdateProfile changes name, phone, addresses or business details. Email
// and role are not editable here.
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	updated := *user
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updated.Phone = *req.Phone
	}
	if req.Addresses != nil {
		updated.Addresses = defaultFirst(req.Addresses)
	}
	if req.Business != nil {
		updated.Business = req.Business
	}
	updated.UpdatedAt = time.Now().UTC()

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := uc.Users.Update(ctx, &updated); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Profile updated", Data: &updated})
}

// defaultFirst keeps exactly one default address.
func defaultFirst(addrs []models.Address) []models.Address {
	seen := false
	for i := range addrs {
		if addrs[i].IsDefault && !seen {
			seen = true
			continue
		}
		addrs[i].IsDefault = false
	}
	if !seen && len(addrs) > 0 {
		addrs[0].IsDefault = true
	}
	return addrs
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

func (uc *UserController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	var req passwordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		utils.WriteError(w, r, utils.BadRequest("Current password is incorrect"))
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	updated := *user
	updated.Password = string(hashed)
	updated.UpdatedAt = time.Now().UTC()

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := uc.Users.Update(ctx, &updated); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Message(w, "Password updated")
}

// ListUsers is the admin user listing, optionally filtered by ?role=.
func (uc *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		utils.WriteError(w, r, utils.BadRequest("Unknown role %q", role))
		return
	}
	page := utils.ParsePage(r)

	ctx, cancel := requestContext(r)
	defer cancel()
	users, total, err := uc.Users.List(ctx, role, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Paginated(w, users, utils.NewPagination(page.Number, page.Limit, total))
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required"`
}

// ChangeRole moves a user between pricing tiers or grants admin.
func (uc *UserController) ChangeRole(w http.ResponseWriter, r *http.Request) {
	admin, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req roleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if !req.Role.Valid() {
		utils.WriteError(w, r, utils.BadRequest("Unknown role %q", req.Role))
		return
	}
	if id == admin.ID && req.Role != models.RoleAdmin {
		utils.WriteError(w, r, utils.BadRequest("You cannot remove your own admin role"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	user, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user.Role = req.Role
	user.UpdatedAt = time.Now().UTC()
	if err := uc.Users.Update(ctx, user); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	logger.FromContext(ctx).Info("role changed", "user_id", user.ID.Hex(), "role", user.Role, "by", admin.ID.Hex())
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Role updated", Data: user})
}
