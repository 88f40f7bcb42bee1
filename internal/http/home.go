package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/catalog/internal/entities"
)

// HomeController serves the catalog landing page and its statistics.
type HomeController struct {
	genres    GenreStore
	books     BookStore
	instances BookInstanceStore
}

func NewHomeController(genres GenreStore, books BookStore, instances BookInstanceStore) *HomeController {
	return &HomeController{
		genres:    genres,
		books:     books,
		instances: instances,
	}
}

// stats runs every count concurrently.
func (hc *HomeController) stats(ctx context.Context) (entities.CatalogStats, error) {
	var stats entities.CatalogStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Books, err = hc.books.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Genres, err = hc.genres.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Instances, err = hc.instances.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.AvailableCopies, err = hc.instances.CountByStatus(ctx, entities.StatusAvailable)
		return err
	})
	g.Go(func() (err error) {
		stats.LoanedCopies, err = hc.instances.CountByStatus(ctx, entities.StatusLoaned)
		return err
	})

	err := g.Wait()
	return stats, err
}

// Index handles GET / and GET /catalog.
func (hc *HomeController) Index(c *gin.Context) {
	stats, err := hc.stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	render(c, http.StatusOK, "index", gin.H{
		"Title": "Local Library Home",
		"Stats": stats,
	})
}

// Stats handles GET /api/catalog/stats.
func (hc *HomeController) Stats(c *gin.Context) {
	stats, err := hc.stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
