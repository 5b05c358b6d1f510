package service

import (
	"context"
	"iter"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/deptdocs/revisor/internal/diff"
	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

var _ domain.ComparisonService = (*ComparisonService)(nil)

// enrichConcurrency caps parallel author lookups per request.
const enrichConcurrency = 8

// ComparisonService answers read-only questions about version history.
type ComparisonService struct {
	content   domain.ContentStore
	versions  domain.VersionStore
	directory domain.UserDirectory
	policy    domain.Authorizer
	log       *logrus.Logger
}

// NewComparisonService creates a ComparisonService. directory should be a
// CachedDirectory in production.
func NewComparisonService(
	content domain.ContentStore,
	versions domain.VersionStore,
	directory domain.UserDirectory,
	policy domain.Authorizer,
	log *logrus.Logger,
) *ComparisonService {
	return &ComparisonService{
		content:   content,
		versions:  versions,
		directory: directory,
		policy:    policy,
		log:       log,
	}
}

func (s *ComparisonService) authorize(ctx context.Context, actor models.Actor, contentID string) error {
	item, err := s.content.GetContent(ctx, contentID)
	if err != nil {
		return models.NewDependencyError("content store", err)
	}

	return s.policy.CanRead(actor, item)
}

// ListVersions returns one page of enriched versions, newest first.
func (s *ComparisonService) ListVersions(
	ctx context.Context, actor models.Actor, contentID string, limit, offset int,
) ([]models.EnrichedVersion, bool, error) {
	if err := s.authorize(ctx, actor, contentID); err != nil {
		return nil, false, err
	}

	return s.page(ctx, contentID, limit, offset)
}

func (s *ComparisonService) page(
	ctx context.Context, contentID string, limit, offset int,
) ([]models.EnrichedVersion, bool, error) {
	records, hasMore, err := s.versions.ListVersions(ctx, contentID, limit, offset)
	if err != nil {
		return nil, false, models.NewDependencyError("version store", err)
	}

	return s.enrich(ctx, records), hasMore, nil
}

// enrich resolves authors in parallel. Results are written by index so the
// output order matches records regardless of completion order.
func (s *ComparisonService) enrich(ctx context.Context, records []models.VersionRecord) []models.EnrichedVersion {
	out := make([]models.EnrichedVersion, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for i := range records {
		out[i].VersionRecord = records[i]

		g.Go(func() error {
			out[i].Author = s.author(gctx, records[i].AuthorID)

			return nil
		})
	}

	_ = g.Wait() // lookups never return errors; failures yield a nil author

	return out
}

// Versions returns a lazy sequence over the whole history, newest first,
// fetched pageSize records at a time. Every range starts a fresh walk.
func (s *ComparisonService) Versions(
	ctx context.Context, actor models.Actor, contentID string, pageSize int,
) iter.Seq2[models.EnrichedVersion, error] {
	if pageSize <= 0 {
		pageSize = 50
	}

	return func(yield func(models.EnrichedVersion, error) bool) {
		if err := s.authorize(ctx, actor, contentID); err != nil {
			yield(models.EnrichedVersion{}, err)

			return
		}

		for offset := 0; ; offset += pageSize {
			page, hasMore, err := s.page(ctx, contentID, pageSize, offset)
			if err != nil {
				yield(models.EnrichedVersion{}, err)

				return
			}

			for _, v := range page {
				if !yield(v, nil) {
					return
				}
			}

			if !hasMore {
				return
			}
		}
	}
}

// GetVersion returns one enriched version.
func (s *ComparisonService) GetVersion(
	ctx context.Context, actor models.Actor, contentID string, versionNumber int,
) (*models.EnrichedVersion, error) {
	if versionNumber < 1 {
		return nil, models.ErrInvalidVersionNumber
	}

	if err := s.authorize(ctx, actor, contentID); err != nil {
		return nil, err
	}

	rec, err := s.versions.GetVersion(ctx, contentID, versionNumber)
	if err != nil {
		return nil, models.NewDependencyError("version store", err)
	}

	return &models.EnrichedVersion{
		VersionRecord: *rec,
		Author:        s.author(ctx, rec.AuthorID),
	}, nil
}

// GetVersionStats returns aggregate history statistics with the first and
// last authors resolved.
func (s *ComparisonService) GetVersionStats(
	ctx context.Context, actor models.Actor, contentID string,
) (*models.VersionStats, error) {
	if err := s.authorize(ctx, actor, contentID); err != nil {
		return nil, err
	}

	stats, err := s.versions.VersionStats(ctx, contentID)
	if err != nil {
		return nil, models.NewDependencyError("version store", err)
	}

	if stats.Count == 0 {
		return &models.VersionStats{}, nil
	}

	var g errgroup.Group

	g.Go(func() error {
		stats.FirstAuthor = s.author(ctx, stats.FirstAuthorID)

		return nil
	})
	g.Go(func() error {
		stats.LastAuthor = s.author(ctx, stats.LastAuthorID)

		return nil
	})

	_ = g.Wait()

	return stats, nil
}

// CompareVersions diffs version from against version to. Either order is
// accepted; swapping them swaps old and new values.
func (s *ComparisonService) CompareVersions(
	ctx context.Context, actor models.Actor, contentID string, from, to int,
) (*models.VersionComparison, error) {
	if from < 1 || to < 1 {
		return nil, models.ErrInvalidVersionNumber
	}

	if err := s.authorize(ctx, actor, contentID); err != nil {
		return nil, err
	}

	var fromRec, toRec *models.VersionRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fromRec, err = s.versions.GetVersion(gctx, contentID, from)

		return err
	})
	g.Go(func() error {
		var err error
		toRec, err = s.versions.GetVersion(gctx, contentID, to)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, models.NewDependencyError("version store", err)
	}

	cmp := diff.Compare(fromRec, toRec)

	enriched := s.enrich(ctx, []models.VersionRecord{*fromRec, *toRec})
	cmp.From.Author = enriched[0].Author
	cmp.To.Author = enriched[1].Author

	return cmp, nil
}
