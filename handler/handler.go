package handler

import (
	"go.uber.org/zap"

	"unhidden/service"
)

type Handler struct {
	Posts              *service.PostService
	Auth               *service.AuthService
	Log                *zap.Logger
	SessionSecret      string
	EnableRegistration bool
	SecureCookie       bool
}

// Locals are the page title and description shown by every layout.
type Locals struct {
	Title       string
	Description string
}
