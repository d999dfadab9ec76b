package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shrinker-io/shrinker/internal/app/model"
	"github.com/shrinker-io/shrinker/internal/app/repository"
	"go.uber.org/zap"
)

// AnalyticsWindowDays is the trailing window the daily click series covers.
const AnalyticsWindowDays = 30

// clickAnalytics is the reporting slice of the click repository.
type clickAnalytics interface {
	TotalClicks(ctx context.Context, linkID int64) (int64, error)
	ClicksByDay(ctx context.Context, linkID int64, since time.Time) ([]model.DailyClicks, error)
}

// LinkAnalytics is the reporting payload for one link.
type LinkAnalytics struct {
	TotalClicks int64               `json:"total_clicks"`
	ClicksByDay []model.DailyClicks `json:"clicks_by_day"`
}

// LinkService serves link reads that sit outside the redirect hot path.
type LinkService struct {
	links  repository.LinkRepository
	clicks clickAnalytics
	logger *zap.Logger
	now    func() time.Time
}

// NewLinkService returns a service backed by the given repositories.
func NewLinkService(links repository.LinkRepository, clicks clickAnalytics, logger *zap.Logger) *LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkService{links: links, clicks: clicks, logger: logger, now: time.Now}
}

// Analytics returns the link plus its click totals and trailing-30-day
// daily series. Only the link's owner may read it.
func (s *LinkService) Analytics(ctx context.Context, code string, callerID int64) (*model.Link, *LinkAnalytics, error) {
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	if link.UserID == nil || *link.UserID != callerID {
		return nil, nil, ErrForbidden
	}

	total, err := s.clicks.TotalClicks(ctx, link.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("total clicks: %w", err)
	}

	since := s.now().UTC().AddDate(0, 0, -AnalyticsWindowDays)
	byDay, err := s.clicks.ClicksByDay(ctx, link.ID, since)
	if err != nil {
		return nil, nil, fmt.Errorf("clicks by day: %w", err)
	}
	if byDay == nil {
		byDay = []model.DailyClicks{}
	}

	return link, &LinkAnalytics{TotalClicks: total, ClicksByDay: byDay}, nil
}
