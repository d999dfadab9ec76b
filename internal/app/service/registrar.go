package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shrinker-io/shrinker/internal/app/model"
	"github.com/shrinker-io/shrinker/internal/app/repository"
	"github.com/shrinker-io/shrinker/internal/app/shortcode"
	infraprometheus "github.com/shrinker-io/shrinker/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Past this many discarded candidates something is off (a bug or
// adversarial input); the loop keeps going but starts warning.
const collisionWarnThreshold = 5

// Registrar implements create-or-reuse link registration with collision
// resolution. The store's unique constraints are the only serialization
// point: two racing registrations are resolved by whoever inserts first,
// and the loser rereads or retries instead of erroring.
type Registrar struct {
	links  repository.LinkRepository
	filter *CodeFilter
	logger *zap.Logger
}

// NewRegistrar builds a Registrar. filter may be nil.
func NewRegistrar(links repository.LinkRepository, filter *CodeFilter, logger *zap.Logger) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registrar{links: links, filter: filter, logger: logger}
}

// Register returns the existing link for rawURL or creates a new one.
// Idempotent per URL: the same URL always maps to the same link no matter
// how many times or by whom it is registered.
func (r *Registrar) Register(ctx context.Context, rawURL string, ownerID *int64) (*model.Link, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	existing, err := r.links.GetByURL(ctx, rawURL)
	if err == nil {
		infraprometheus.RegistrationsTotal.WithLabelValues("existing").Inc()
		return existing, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, fmt.Errorf("look up url: %w", err)
	}

	collisions := 0
	code := shortcode.Generate(rawURL, "")
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		taken, err := r.codeTaken(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			code = r.nextCandidate(rawURL, &collisions)
			continue
		}

		link := &model.Link{
			ShortCode:   code,
			OriginalURL: rawURL,
			UserID:      ownerID,
		}
		err = r.links.Create(ctx, link)
		switch {
		case err == nil:
			if r.filter != nil {
				r.filter.Add(code)
			}
			infraprometheus.RegistrationsTotal.WithLabelValues("created").Inc()
			return link, nil

		case errors.Is(err, repository.ErrDuplicateCode):
			// Another writer claimed this code between the existence check
			// and the insert. Expected under concurrency, never user-facing.
			code = r.nextCandidate(rawURL, &collisions)

		case errors.Is(err, repository.ErrDuplicateURL):
			// Concurrent registration of the same URL won; return its row.
			winner, rerr := r.links.GetByURL(ctx, rawURL)
			if rerr != nil {
				return nil, fmt.Errorf("reread after url conflict: %w", rerr)
			}
			infraprometheus.RegistrationsTotal.WithLabelValues("existing").Inc()
			return winner, nil

		default:
			return nil, fmt.Errorf("create link: %w", err)
		}
	}
}

func (r *Registrar) codeTaken(ctx context.Context, code string) (bool, error) {
	_, err := r.links.GetByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrLinkNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("check code: %w", err)
}

func (r *Registrar) nextCandidate(rawURL string, collisions *int) string {
	*collisions++
	infraprometheus.CollisionRetriesTotal.Inc()
	if *collisions > collisionWarnThreshold {
		r.logger.Warn("short code collision count unusually high",
			zap.String("url", rawURL), zap.Int("collisions", *collisions))
	}
	return shortcode.Generate(rawURL, strconv.Itoa(*collisions))
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
