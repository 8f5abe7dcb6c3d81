package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/media"
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/service"
)

// UserHandler covers profiles and the admin role-change endpoint.
type UserHandler struct {
	users  *service.Users
	logger *zap.Logger
}

func NewUserHandler(users *service.Users, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// All handles GET /v1/users/all
func (h *UserHandler) All(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.users.ListAll()})
}

// Profile handles GET /v1/user/profile?user_id=N
func (h *UserHandler) Profile(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	profile, err := h.users.GetProfile(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type setNameRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// SetName handles PUT /v1/user/profile/setname
func (h *UserHandler) SetName(c *gin.Context) {
	var req setNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.SetName(GetUserID(c), req.FirstName, req.LastName); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type setEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// SetEmail handles PUT /v1/user/profile/setemail
func (h *UserHandler) SetEmail(c *gin.Context) {
	var req setEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.SetEmail(GetUserID(c), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type setHandleRequest struct {
	Handle string `json:"handle" binding:"required"`
}

// SetHandle handles PUT /v1/user/profile/sethandle
func (h *UserHandler) SetHandle(c *gin.Context) {
	var req setHandleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.SetHandle(GetUserID(c), req.Handle); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type uploadPhotoRequest struct {
	ImageURL    string `json:"img_url" binding:"required"`
	XStart      int    `json:"x_start"`
	YStart      int    `json:"y_start"`
	XEnd        int    `json:"x_end" binding:"required"`
	YEnd        int    `json:"y_end" binding:"required"`
	ImageWidth  int    `json:"img_width" binding:"required"`
	ImageHeight int    `json:"img_height" binding:"required"`
}

// UploadPhoto handles POST /v1/user/profile/uploadphoto
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	var req uploadPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	crop := media.CropBox{
		XStart: req.XStart,
		YStart: req.YStart,
		XEnd:   req.XEnd,
		YEnd:   req.YEnd,
	}
	err := h.users.SetProfilePhoto(c.Request.Context(), GetUserID(c), req.ImageURL, crop, req.ImageWidth, req.ImageHeight)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type changeRoleRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role" binding:"required"`
}

// ChangeRole handles POST /v1/admin/userpermission/change
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.ChangeGlobalRole(GetUserID(c), req.UserID, models.GlobalRole(req.Role)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
