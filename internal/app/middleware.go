package app

import (
	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/middleware"
)

type Middleware struct {
	Credential *middleware.CredentialMiddleware
}

func wireMiddleware(log *logger.Logger) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Credential: middleware.NewCredentialMiddleware(log),
	}
}
