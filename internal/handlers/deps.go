package handlers

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/portfoliodash/backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	LayoutSvc       layoutService
	BatchSvc        batchService
	PriceSvc        priceService
	VisibleSet      visibleSetSource
	Hub             refreshHub
	Firebase        *auth.Client
}
