package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shrinker-io/shrinker/internal/app/cache"
	"github.com/shrinker-io/shrinker/internal/app/repository"
	infraprometheus "github.com/shrinker-io/shrinker/internal/infra/prometheus"
	"go.uber.org/zap"
)

// LinkCache is the cache surface the redirect path needs. Implementations
// absorb their own failures: Get answers miss on any error and Set is
// best-effort.
type LinkCache interface {
	Get(ctx context.Context, code string) (*cache.Entry, bool)
	Set(ctx context.Context, code string, entry cache.Entry)
}

// ClickDispatcher hands a click event off for asynchronous recording. It
// must not block: the redirect response goes out before (or concurrently
// with) the click being durably recorded.
type ClickDispatcher interface {
	Dispatch(linkID int64, ip, userAgent string)
}

// RedirectService resolves a short code to its target URL: cache first,
// store on miss (repopulating the cache), with the click event dispatched
// off the response path.
type RedirectService struct {
	links  repository.LinkRepository
	cache  LinkCache
	clicks ClickDispatcher
	filter *CodeFilter
	logger *zap.Logger
}

// NewRedirectService builds a RedirectService. filter may be nil; clicks
// may be nil (redirects then go unrecorded).
func NewRedirectService(links repository.LinkRepository, linkCache LinkCache, clicks ClickDispatcher, filter *CodeFilter, logger *zap.Logger) *RedirectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectService{
		links:  links,
		cache:  linkCache,
		clicks: clicks,
		filter: filter,
		logger: logger,
	}
}

// Resolve returns the original URL for code. Unknown codes return
// repository.ErrLinkNotFound and dispatch nothing. Cache trouble never
// fails a resolve; a store failure does.
func (s *RedirectService) Resolve(ctx context.Context, code, ip, userAgent string) (string, error) {
	// A definite miss from the code filter means the cache cannot have the
	// entry; skip straight to the store, which stays authoritative for 404s.
	consultCache := s.cache != nil && (s.filter == nil || s.filter.MayContain(code))

	if consultCache {
		if entry, ok := s.cache.Get(ctx, code); ok {
			infraprometheus.RedirectsTotal.WithLabelValues("cache_hit").Inc()
			s.dispatch(entry.LinkID, ip, userAgent)
			return entry.OriginalURL, nil
		}
	}

	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			infraprometheus.RedirectsTotal.WithLabelValues("not_found").Inc()
			return "", err
		}
		infraprometheus.RedirectsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("load link: %w", err)
	}

	// A store hit for a code the filter answered no on is a false negative
	// (startup seed failed, or another instance registered the code). Teach
	// the filter so later requests get the cache back.
	if s.filter != nil {
		s.filter.Add(code)
	}

	if s.cache != nil {
		s.cache.Set(ctx, code, cache.Entry{LinkID: link.ID, OriginalURL: link.OriginalURL})
	}

	infraprometheus.RedirectsTotal.WithLabelValues("store_hit").Inc()
	s.dispatch(link.ID, ip, userAgent)
	return link.OriginalURL, nil
}

func (s *RedirectService) dispatch(linkID int64, ip, userAgent string) {
	if s.clicks == nil {
		return
	}
	s.clicks.Dispatch(linkID, ip, userAgent)
}
