// Package handler exposes the REST surface of the meetings service.
package handler

import (
	"log/slog"

	"github.com/attendly/backend/clients/identity"
	"github.com/attendly/backend/services/meetings/usecase"
)

type Handler struct {
	usecase   usecase.Usecase
	identity  *identity.Client
	log       *slog.Logger
	jwtSecret string
}

func New(uc usecase.Usecase, idc *identity.Client, log *slog.Logger, jwtSecret string) *Handler {
	return &Handler{
		usecase:   uc,
		identity:  idc,
		log:       log,
		jwtSecret: jwtSecret,
	}
}
