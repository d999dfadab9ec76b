package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shrinker-io/shrinker/internal/app/model"
	"github.com/shrinker-io/shrinker/internal/app/repository"
)

type mockClickAnalytics struct {
	totalFn func(ctx context.Context, linkID int64) (int64, error)
	byDayFn func(ctx context.Context, linkID int64, since time.Time) ([]model.DailyClicks, error)
}

func (m *mockClickAnalytics) TotalClicks(ctx context.Context, linkID int64) (int64, error) {
	if m.totalFn != nil {
		return m.totalFn(ctx, linkID)
	}
	return 0, nil
}

func (m *mockClickAnalytics) ClicksByDay(ctx context.Context, linkID int64, since time.Time) ([]model.DailyClicks, error) {
	if m.byDayFn != nil {
		return m.byDayFn(ctx, linkID, since)
	}
	return nil, nil
}

func ownedLink(ownerID int64) *model.Link {
	return &model.Link{
		ID:          11,
		UserID:      &ownerID,
		ShortCode:   "Lc4KTFB",
		OriginalURL: "https://example.com/a",
	}
}

func TestLinkService_Analytics_OwnerOnly(t *testing.T) {
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return ownedLink(1), nil
		},
	}
	svc := NewLinkService(repo, &mockClickAnalytics{}, nil)

	if _, _, err := svc.Analytics(context.Background(), "Lc4KTFB", 2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if _, _, err := svc.Analytics(context.Background(), "Lc4KTFB", 1); err != nil {
		t.Fatalf("owner should be allowed, got %v", err)
	}
}

func TestLinkService_Analytics_AnonymousLinkHasNoOwner(t *testing.T) {
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return &model.Link{ID: 12, ShortCode: code, OriginalURL: "https://example.com/x"}, nil
		},
	}
	svc := NewLinkService(repo, &mockClickAnalytics{}, nil)

	if _, _, err := svc.Analytics(context.Background(), "abc1234", 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for ownerless link, got %v", err)
	}
}

func TestLinkService_Analytics_UnknownCode(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, &mockClickAnalytics{}, nil)
	if _, _, err := svc.Analytics(context.Background(), "zzzzzzz", 1); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestLinkService_Analytics_TrailingWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	var gotSince time.Time
	clicks := &mockClickAnalytics{
		totalFn: func(ctx context.Context, linkID int64) (int64, error) {
			return 40, nil
		},
		byDayFn: func(ctx context.Context, linkID int64, since time.Time) ([]model.DailyClicks, error) {
			gotSince = since
			return []model.DailyClicks{
				{Date: "2026-08-30", Count: 25},
				{Date: "2026-08-31", Count: 10},
			}, nil
		},
	}
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return ownedLink(1), nil
		},
	}
	svc := NewLinkService(repo, clicks, nil)
	svc.now = func() time.Time { return now }

	_, analytics, err := svc.Analytics(context.Background(), "Lc4KTFB", 1)
	if err != nil {
		t.Fatalf("Analytics returned error: %v", err)
	}

	if want := now.AddDate(0, 0, -AnalyticsWindowDays); !gotSince.Equal(want) {
		t.Fatalf("window starts at %v, want %v", gotSince, want)
	}
	if analytics.TotalClicks != 40 {
		t.Fatalf("total = %d, want 40", analytics.TotalClicks)
	}

	var windowSum int64
	for _, b := range analytics.ClicksByDay {
		windowSum += b.Count
	}
	if windowSum > analytics.TotalClicks {
		t.Fatalf("window sum %d exceeds total %d", windowSum, analytics.TotalClicks)
	}
}

func TestLinkService_Analytics_EmptySeriesNotNil(t *testing.T) {
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return ownedLink(1), nil
		},
	}
	svc := NewLinkService(repo, &mockClickAnalytics{}, nil)

	_, analytics, err := svc.Analytics(context.Background(), "Lc4KTFB", 1)
	if err != nil {
		t.Fatalf("Analytics returned error: %v", err)
	}
	if analytics.ClicksByDay == nil {
		t.Fatal("clicks_by_day must serialize as [] rather than null")
	}
}
