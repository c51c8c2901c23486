package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/literarylinc/literarylinc/internal/entities"
)

var notificationChannels = []entities.NotificationChannel{
	entities.ChannelScan,
	entities.ChannelCovers,
	entities.ChannelBackup,
	entities.ChannelRestore,
}

type NotificationsController struct {
	store NotificationStore
}

func NewNotificationsController(store NotificationStore) *NotificationsController {
	return &NotificationsController{store: store}
}

// ListNotifications handles GET /api/notifications?channel=&limit=
func (nc *NotificationsController) ListNotifications(c *gin.Context) {
	var channel entities.NotificationChannel
	if ch := c.Query("channel"); ch != "" {
		channel = entities.NotificationChannel(ch)
		if !validChannel(channel) {
			respondBadRequest(c, "invalid channel")
			return
		}
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	items, err := nc.store.Recent(channel, limit)
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// ClearNotifications handles DELETE /api/notifications
func (nc *NotificationsController) ClearNotifications(c *gin.Context) {
	deleted, err := nc.store.DeleteAll()
	if err != nil {
		respondInternalError(c, err, "clear notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func validChannel(ch entities.NotificationChannel) bool {
	for _, known := range notificationChannels {
		if ch == known {
			return true
		}
	}
	return false
}
