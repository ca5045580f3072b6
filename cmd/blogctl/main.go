// Command blogctl manages articles and subscribers from a shell, using the
// same configuration and storage as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"blogfolio/pkg/app"
	"blogfolio/pkg/config"
	"blogfolio/pkg/logging"
	"blogfolio/pkg/models"
	"blogfolio/pkg/services"

	"github.com/charmbracelet/lipgloss"
	"github.com/jessevdk/go-flags"
)

var (
	cfg config.Config

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	draftStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	liveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

func main() {
	config.LoadDotEnv()

	parser := flags.NewParser(&cfg, flags.Default)
	parser.AddCommand("list", "List articles", "List drafts and published articles, newest first.", &listCommand{})
	parser.AddCommand("save", "Save a draft", "Write an article body from a file into the draft area.", &saveCommand{})
	parser.AddCommand("toggle", "Toggle publish state", "Move an article between draft and published.", &toggleCommand{})
	parser.AddCommand("notify", "Email subscribers", "Send the new post notification for a published article.", &notifyCommand{})
	parser.AddCommand("subscribe", "Add a subscriber", "Subscribe an email address to new post notifications.", &subscribeCommand{})
	parser.AddCommand("subscribers", "Count subscribers", "Print the number of active subscribers.", &countCommand{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

// withApp finalizes the shared options and runs fn against a wired App.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	if err := cfg.Finalize(); err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.Debug)
	if !cfg.Debug {
		logger = logging.Discard()
	}

	ctx := context.Background()
	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

type listCommand struct {
	Published bool `long:"published" description:"Only list published articles"`
}

func (c *listCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		var articles []models.Article
		var err error
		if c.Published {
			articles, err = a.Content.ListPublished()
		} else {
			articles, err = a.Content.ListAll()
		}
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println(dimStyle.Render("No articles."))
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-10s %-12s %-32s %s", "STATUS", "DATE", "SLUG", "TITLE")))
		for _, art := range articles {
			status := fmt.Sprintf("%-10s", art.Status)
			if art.Status == models.StatusPublished {
				status = liveStyle.Render(status)
			} else {
				status = draftStyle.Render(status)
			}
			fmt.Printf("%s %-12s %-32s %s\n", status, art.Date, art.Slug, art.Title)
		}
		return nil
	})
}

type saveCommand struct {
	Slug    string `long:"slug" required:"true" description:"Article slug"`
	Title   string `long:"title" required:"true" description:"Article title"`
	File    string `long:"file" required:"true" description:"Path to the article body"`
	Excerpt string `long:"excerpt" description:"Short summary"`
	Author  string `long:"author" description:"Author name"`
}

func (c *saveCommand) Execute(args []string) error {
	body, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app.App) error {
		res, err := a.Content.SaveDraft(services.DraftInput{
			Title:   c.Title,
			Slug:    c.Slug,
			Body:    string(body),
			Excerpt: c.Excerpt,
			Author:  c.Author,
		})
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Saved draft ") + res.Article.Slug)
		if res.Unpublished {
			fmt.Println(draftStyle.Render("The published copy was withdrawn until you publish again."))
		}
		return nil
	})
}

type toggleCommand struct {
	Args struct {
		Slug string `positional-arg-name:"slug"`
	} `positional-args:"yes" required:"yes"`
}

func (c *toggleCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		status, err := a.Content.TogglePublish(c.Args.Slug)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", c.Args.Slug, okStyle.Render(string(status)))
		return nil
	})
}

type notifyCommand struct {
	Force bool `long:"force" description:"Send even if this article was already announced"`
	Args  struct {
		Slug string `positional-arg-name:"slug"`
	} `positional-args:"yes" required:"yes"`
}

func (c *notifyCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		res, err := a.Dispatcher.Dispatch(ctx, c.Args.Slug, services.DispatchOptions{Force: c.Force})
		if err != nil {
			return err
		}
		summary := fmt.Sprintf("Sent %d of %d emails in %d batches", res.Sent, res.Total, res.Batches)
		if res.Failed > 0 {
			fmt.Println(draftStyle.Render(summary) + dimStyle.Render(fmt.Sprintf(" (%d failed)", res.Failed)))
			return nil
		}
		fmt.Println(okStyle.Render(summary))
		return nil
	})
}

type subscribeCommand struct {
	Args struct {
		Email string `positional-arg-name:"email"`
	} `positional-args:"yes" required:"yes"`
}

func (c *subscribeCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		res, err := a.Subscriptions.Subscribe(ctx, c.Args.Email)
		if err != nil {
			return err
		}
		email := a.Subscriptions.NormalizeEmail(c.Args.Email)
		if res.AlreadySubscribed {
			fmt.Println(dimStyle.Render("Already subscribed: ") + email)
			return nil
		}
		fmt.Println(okStyle.Render("Subscribed ") + email)
		return nil
	})
}

type countCommand struct{}

func (c *countCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		n, err := a.Subscriptions.CountActive(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %d\n", headerStyle.Render("Active subscribers:"), n)
		return nil
	})
}
