package services

import (
	"sync"

	"blogfolio/pkg/models"
)

// articleCache memoises the merged article list until a mutation
// invalidates it.
type articleCache struct {
	mu       sync.Mutex
	articles []models.Article
	loaded   bool
}

func (c *articleCache) get(load func() ([]models.Article, error)) ([]models.Article, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		articles, err := load()
		if err != nil {
			return nil, err
		}
		c.articles = articles
		c.loaded = true
	}
	return append([]models.Article(nil), c.articles...), nil
}

func (c *articleCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.articles = nil
}
