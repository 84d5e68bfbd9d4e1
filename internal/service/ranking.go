// ranking.go — выборки игр: последние, самые просматриваемые, случайные.
// Только чтение, хранилище не изменяется.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/domain/ranking"
	"github.com/bigkaa/opengamelist/internal/repository"
)

// rankingQueriesTotal — счётчик ранжирующих запросов по режиму.
var rankingQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ogl_ranking_queries_total",
		Help: "Количество ранжирующих запросов по режиму.",
	},
	[]string{"mode"},
)

// RankingService — сервис ранжирующих выборок.
type RankingService struct {
	items  repository.ItemRepository
	logger *slog.Logger
}

// NewRankingService создаёт сервис ранжирования.
func NewRankingService(items repository.ItemRepository, logger *slog.Logger) *RankingService {
	return &RankingService{
		items:  items,
		logger: logger.With(slog.String("component", "ranking_service")),
	}
}

// Latest возвращает последние игры. n == nil — размер по умолчанию.
func (s *RankingService) Latest(ctx context.Context, n *int) ([]*model.Item, error) {
	return s.Query(ctx, ranking.Latest, n)
}

// MostViewed возвращает самые просматриваемые игры.
func (s *RankingService) MostViewed(ctx context.Context, n *int) ([]*model.Item, error) {
	return s.Query(ctx, ranking.MostViewed, n)
}

// Random возвращает случайную выборку игр без повторений.
func (s *RankingService) Random(ctx context.Context, n *int) ([]*model.Item, error) {
	return s.Query(ctx, ranking.Random, n)
}

// Query выполняет выборку в указанном режиме.
// Размер ограничивается ranking.Bound; при n <= 0 хранилище не опрашивается.
func (s *RankingService) Query(ctx context.Context, mode ranking.Mode, n *int) ([]*model.Item, error) {
	rankingQueriesTotal.WithLabelValues(string(mode)).Inc()

	limit := ranking.Bound(n)
	if limit == 0 {
		return []*model.Item{}, nil
	}

	var (
		items []*model.Item
		err   error
	)
	switch mode {
	case ranking.Latest:
		items, err = s.items.Latest(ctx, limit)
	case ranking.MostViewed:
		items, err = s.items.MostViewed(ctx, limit)
	case ranking.Random:
		items, err = s.items.Random(ctx, limit)
	default:
		return nil, fmt.Errorf("%w: неизвестный режим %q", ErrInvalidPayload, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("выборка %s: %w", mode, err)
	}

	s.logger.Debug("Ранжирующая выборка",
		slog.String("mode", string(mode)),
		slog.Int("limit", limit),
		slog.Int("count", len(items)),
	)
	return items, nil
}
