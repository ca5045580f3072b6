package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blogfolio/pkg/models"

	"github.com/sirupsen/logrus"
)

const DefaultIconPath = "/win98/internet.png"

var fallbackFeaturedLinks = []models.FeaturedLink{
	{
		Title:       "Blog at Open Mainframe",
		URL:         "https://example.com/talk",
		Description: "Blog about my work during my mentorship at the Open Mainframe Project",
		IconPath:    DefaultIconPath,
	},
}

type SystemStatus struct {
	System  string `json:"system"`
	TimeISO string `json:"time_iso"`
	Uptime  string `json:"uptime"`
}

// SiteService serves the small read-only pieces of the public site.
type SiteService struct {
	dataDir   string
	publicDir string
	system    string
	started   time.Time
	now       func() time.Time
	log       *logrus.Entry
}

func NewSiteService(dataDir, publicDir, ownerName string, logger *logrus.Logger) *SiteService {
	return &SiteService{
		dataDir:   dataDir,
		publicDir: publicDir,
		system:    ownerName + "'s System",
		started:   time.Now(),
		now:       time.Now,
		log:       logger.WithField("component", "site"),
	}
}

// FeaturedLinks reads data/featured.json. Icons that do not exist under the
// public dir are replaced by the default icon; an unreadable file yields the
// built-in list.
func (s *SiteService) FeaturedLinks() []models.FeaturedLink {
	path := filepath.Join(s.dataDir, "featured.json")
	content, err := os.ReadFile(path)
	if err != nil {
		s.log.WithError(err).Warn("Failed to read featured links, using fallback")
		return append([]models.FeaturedLink(nil), fallbackFeaturedLinks...)
	}

	var links []models.FeaturedLink
	if err := json.Unmarshal(content, &links); err != nil {
		s.log.WithError(err).Warn("Failed to parse featured links, using fallback")
		return append([]models.FeaturedLink(nil), fallbackFeaturedLinks...)
	}

	for i := range links {
		links[i].IconPath = s.validateIcon(links[i].IconPath)
	}
	if links == nil {
		links = []models.FeaturedLink{}
	}
	return links
}

func (s *SiteService) validateIcon(icon string) string {
	if icon == "" {
		return DefaultIconPath
	}
	full := SafeJoin(s.publicDir, "", strings.TrimPrefix(icon, "/"))
	if full == "" {
		return DefaultIconPath
	}
	if _, err := os.Stat(full); err != nil {
		return DefaultIconPath
	}
	return icon
}

func (s *SiteService) Status() SystemStatus {
	now := s.now()
	return SystemStatus{
		System:  s.system,
		TimeISO: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Uptime:  now.Sub(s.started).Round(time.Second).String(),
	}
}
