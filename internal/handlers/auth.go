package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unimart/internal/middleware"
	"unimart/internal/models"
	"unimart/internal/repository"
	"unimart/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}

	_, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	respondMessage(c, http.StatusCreated, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	h.login(c, models.AccountKindUser)
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	h.login(c, models.AccountKindAdmin)
}

func (h HandlerSet) login(c *gin.Context, kind models.AccountKind) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}

	token, err := h.auth.Login(c.Request.Context(), kind, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

type updatePasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if !bind(c, &req) {
		return
	}

	if err := h.auth.UpdatePassword(c.Request.Context(), req.Email, req.Password); err != nil {
		h.fail(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Password updated successfully")
}

func (h HandlerSet) Profile(c *gin.Context) {
	h.profile(c, models.AccountKindUser)
}

func (h HandlerSet) AdminProfile(c *gin.Context) {
	h.profile(c, models.AccountKindAdmin)
}

func (h HandlerSet) profile(c *gin.Context, kind models.AccountKind) {
	account, err := h.auth.Profile(c.Request.Context(), kind, middleware.SubjectID(c))
	if err != nil {
		if kind == models.AccountKindAdmin && errors.Is(err, repository.ErrAccountNotFound) {
			respondMessage(c, http.StatusNotFound, "Admin not found")
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{Name: account.Name, Email: account.Email})
}
