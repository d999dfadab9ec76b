package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shrinker-io/shrinker/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrDuplicateCode signals a unique violation on short_code: another
	// writer claimed the candidate code between the existence check and the
	// insert. Callers retry code generation with the next salt.
	ErrDuplicateCode = errors.New("short code already taken")
	// ErrDuplicateURL signals a unique violation on original_url: a
	// concurrent registration of the same URL won the race. Callers reread
	// the winning row instead of erroring.
	ErrDuplicateURL = errors.New("url already registered")
)

// LinkRepository defines the data access contract for short links.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	GetByURL(ctx context.Context, originalURL string) (*model.Link, error)
	ListCodes(ctx context.Context) ([]string, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (r *linkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) GetByURL(ctx context.Context, originalURL string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("original_url = ?", originalURL).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

// ListCodes returns every assigned short code; used to seed the code filter
// at startup.
func (r *linkRepository) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Pluck("short_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// translateUniqueViolation maps Postgres 23505 errors onto the sentinel
// errors the registrar's retry logic keys off.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "short_code"):
		return ErrDuplicateCode
	case strings.Contains(pgErr.ConstraintName, "original_url"):
		return ErrDuplicateURL
	}
	return err
}
