package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"blogfolio/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 50

	defaultNotifyTitle       = "New Blog Post"
	defaultNotifyDescription = "Check out my latest blog post!"
)

var (
	ErrMissingSlug         = errors.New("blog slug is required")
	ErrNoActiveSubscribers = errors.New("no active subscribers found")
	ErrAlreadyNotified     = errors.New("subscribers were already notified about this post")
	ErrSubscriberStore     = errors.New("subscriber store unavailable")
)

type PublishedArticles interface {
	GetPublished(slug string) (*models.Article, error)
}

type SubscriberLister interface {
	ListActive(ctx context.Context) ([]models.Subscriber, error)
}

// NotificationLedger remembers which articles subscribers were told about.
type NotificationLedger interface {
	LastNotified(ctx context.Context, slug string) (*models.NotificationRecord, error)
	RecordNotification(ctx context.Context, rec models.NotificationRecord) error
}

type DispatcherConfig struct {
	SiteURL     string
	From        string
	BatchSize   int
	Concurrency int
}

type DispatchOptions struct {
	// Force sends even when the ledger shows a previous run for the slug.
	Force bool
}

// Dispatcher emails every active subscriber about a published article.
// Batches run one after another; sends inside a batch run concurrently up
// to the configured limit.
type Dispatcher struct {
	articles    PublishedArticles
	subscribers SubscriberLister
	ledger      NotificationLedger
	mailer      Mailer
	cfg         DispatcherConfig
	now         func() time.Time
	log         *logrus.Entry
}

// NewDispatcher builds a dispatcher. A nil mailer makes every dispatch fail
// with ErrMailerNotConfigured; a nil ledger disables duplicate detection.
func NewDispatcher(articles PublishedArticles, subscribers SubscriberLister, ledger NotificationLedger, mailer Mailer, cfg DispatcherConfig, logger *logrus.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		articles:    articles,
		subscribers: subscribers,
		ledger:      ledger,
		mailer:      mailer,
		cfg:         cfg,
		now:         time.Now,
		log:         logger.WithField("component", "notify"),
	}
}

type notificationEmail struct {
	Title       string
	Description string
	Date        string
	URL         string
	SiteURL     string
}

func (d *Dispatcher) Dispatch(ctx context.Context, slug string, opts DispatchOptions) (*models.NotificationResult, error) {
	if slug == "" {
		return nil, ErrMissingSlug
	}
	if d.mailer == nil {
		return nil, ErrMailerNotConfigured
	}

	article, err := d.articles.GetPublished(slug)
	if err != nil {
		return nil, err
	}

	if d.ledger != nil && !opts.Force {
		rec, err := d.ledger.LastNotified(ctx, slug)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return nil, fmt.Errorf("%w: %s on %s", ErrAlreadyNotified, slug, rec.NotifiedAt.Format(time.RFC3339))
		}
	}

	subscribers, err := d.subscribers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscriberStore, err)
	}
	if len(subscribers) == 0 {
		return nil, ErrNoActiveSubscribers
	}

	data := d.emailData(article)
	html, err := renderEmail("notification.html", data)
	if err != nil {
		return nil, err
	}
	subject := "📝 New Blog Post: " + data.Title

	result := &models.NotificationResult{
		RunID: uuid.NewString(),
		Slug:  slug,
		Total: len(subscribers),
	}
	log := d.log.WithFields(logrus.Fields{"slug": slug, "run_id": result.RunID})
	log.WithField("total", result.Total).Info("Sending post notifications")

	var sent, failed atomic.Int64
	for start := 0; start < len(subscribers); start += d.cfg.BatchSize {
		end := min(start+d.cfg.BatchSize, len(subscribers))
		batch := subscribers[start:end]
		result.Batches++

		var g errgroup.Group
		g.SetLimit(d.cfg.Concurrency)
		for _, sub := range batch {
			sub := sub
			g.Go(func() error {
				err := d.mailer.Send(ctx, Email{
					From:    d.cfg.From,
					To:      []string{sub.Email},
					Subject: subject,
					HTML:    html,
				})
				if err != nil {
					failed.Add(1)
					log.WithFields(logrus.Fields{"email": sub.Email, "error": err}).Warn("Failed to send notification")
					return nil
				}
				sent.Add(1)
				return nil
			})
		}
		_ = g.Wait()
	}

	result.Sent = int(sent.Load())
	result.Failed = int(failed.Load())
	log.WithFields(logrus.Fields{
		"sent":    result.Sent,
		"failed":  result.Failed,
		"batches": result.Batches,
	}).Info("Post notifications finished")

	if d.ledger != nil && result.Sent > 0 {
		err := d.ledger.RecordNotification(ctx, models.NotificationRecord{
			Slug:       slug,
			RunID:      result.RunID,
			NotifiedAt: d.now().UTC(),
			Sent:       result.Sent,
			Total:      result.Total,
		})
		if err != nil {
			log.WithError(err).Error("Failed to record notification run")
		}
	}

	return result, nil
}

func (d *Dispatcher) emailData(a *models.Article) notificationEmail {
	data := notificationEmail{
		Title:       a.Title,
		Description: a.Description,
		Date:        a.Date,
		URL:         d.cfg.SiteURL + "/blogs/" + a.Slug,
		SiteURL:     d.cfg.SiteURL,
	}
	if data.Title == "" {
		data.Title = defaultNotifyTitle
	}
	if data.Description == "" {
		data.Description = a.Excerpt
	}
	if data.Description == "" {
		data.Description = defaultNotifyDescription
	}
	if data.Date == "" {
		data.Date = d.now().UTC().Format("2006-01-02")
	}
	return data
}
