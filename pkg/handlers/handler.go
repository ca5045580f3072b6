package handlers

import (
	"blogfolio/pkg/services"

	"github.com/sirupsen/logrus"
)

// Handler serves the public and admin JSON API.
type Handler struct {
	content       *services.ContentManager
	dispatcher    *services.Dispatcher
	subscriptions *services.SubscriptionService
	contact       *services.ContactService
	media         *services.MediaStore
	photos        *services.PhotoService
	site          *services.SiteService
	git           *services.GitService
	siteURL       string
	siteTitle     string
	log           *logrus.Entry
}

type Deps struct {
	Content       *services.ContentManager
	Dispatcher    *services.Dispatcher
	Subscriptions *services.SubscriptionService
	Contact       *services.ContactService
	Media         *services.MediaStore
	Photos        *services.PhotoService
	Site          *services.SiteService
	Git           *services.GitService
	SiteURL       string
	SiteTitle     string
	Log           *logrus.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		content:       d.Content,
		dispatcher:    d.Dispatcher,
		subscriptions: d.Subscriptions,
		contact:       d.Contact,
		media:         d.Media,
		photos:        d.Photos,
		site:          d.Site,
		git:           d.Git,
		siteURL:       d.SiteURL,
		siteTitle:     d.SiteTitle,
		log:           d.Log.WithField("component", "http"),
	}
}
