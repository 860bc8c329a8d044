package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"go-buildmart/logger"
	"go-buildmart/realtime"
	"go-buildmart/repository"
	"go-buildmart/utils"
)

// NotificationController serves the signed-in user's notifications. Every
// operation is scoped to the caller's own documents.
type NotificationController struct {
	Notifications repository.NotificationRepository
	Hub           *realtime.Hub
}

func NewNotificationController(repo repository.NotificationRepository, hub *realtime.Hub) *NotificationController {
	return &NotificationController{Notifications: repo, Hub: hub}
}

func (nc *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	page := utils.ParsePage(r)
	ctx, cancel := requestContext(r)
	defer cancel()

	list, total, err := nc.Notifications.ListForUser(ctx, user.ID, unreadOnly, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Paginated(w, list, utils.NewPagination(page.Number, page.Limit, total))
}

// UnreadCount backs the client's polling badge.
func (nc *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	n, err := nc.Notifications.CountUnread(ctx, user.ID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.OK(w, map[string]int64{"count": n})
}

func (nc *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := nc.Notifications.MarkRead(ctx, id, user.ID, time.Now().UTC()); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Message(w, "Notification marked as read")
}

func (nc *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	n, err := nc.Notifications.MarkAllRead(ctx, user.ID, time.Now().UTC())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "All notifications marked as read", Data: map[string]int64{"updated": n}})
}

func (nc *NotificationController) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := nc.Notifications.Delete(ctx, id, user.ID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Message(w, "Notification deleted")
}

// Stream upgrades to a WebSocket that receives new notifications as they
// are stored.
func (nc *NotificationController) Stream(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	if err := nc.Hub.Serve(w, r, user.ID.Hex()); err != nil {
		logger.FromContext(r.Context()).Warn("websocket upgrade", "error", err)
	}
}
