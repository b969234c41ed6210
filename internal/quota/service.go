// Package quota содержит логику решения "можно ли выполнить запрос":
// аутентифицированные пользователи без лимита, анонимные посетители
// получают фиксированное число бесплатных запросов.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/server/storage"
)

// FreeQueryLimit потолок бесплатных запросов для анонимного посетителя
const FreeQueryLimit = 3

// ReasonLoginRequired сигнал клиенту, что дальше нужен вход
const ReasonLoginRequired = "login required"

// Decision is the outcome of an authorization check.
type Decision struct {
	User             *models.User    // владелец сессии, только при Authenticated
	Session          *models.Session // активная сессия, только при Authenticated
	Reason           string          // причина отказа, пустая при Allowed
	QueriesRemaining int             // остаток бесплатных запросов, только для анонимного пути
	Allowed          bool
	Authenticated    bool
	RequireLogin     bool
}

// Service decides whether a lookup is permitted and advances the
// per-visitor free-query counter for anonymous callers.
type Service struct {
	logger   *slog.Logger
	sessions storage.SessionStorage
	visitors storage.VisitorStorage
}

// NewService создает сервис авторизации запросов
func NewService(logger *slog.Logger, sessions storage.SessionStorage, visitors storage.VisitorStorage) *Service {
	return &Service{
		logger:   logger,
		sessions: sessions,
		visitors: visitors,
	}
}

// AuthorizeQuery decides whether a lookup request is permitted.
//
// A bearer token resolving to an unexpired session authenticates the caller;
// authenticated callers are always allowed with no quota decrement
// (tier-based limiting is a declared extension point, all current tiers are
// unlimited). Otherwise the caller must present a registered visitor id and
// has FreeQueryLimit lookups before login is required.
//
// Проверка потолка и инкремент не атомарны между собой: параллельные вызовы
// за один и тот же visitor id могут проскочить за потолок. Сам инкремент
// атомарен в хранилище, так что счетчик не теряет обновлений.
func (s *Service) AuthorizeQuery(ctx context.Context, bearerToken string, visitorID int64) (*Decision, error) {
	now := time.Now()

	// Сначала пробуем аутентифицированный путь
	if bearerToken != "" {
		session, user, err := s.sessions.GetSessionByToken(ctx, bearerToken, now)
		if err == nil {
			return &Decision{
				Allowed:       true,
				Authenticated: true,
				User:          user,
				Session:       session,
			}, nil
		}
		if !errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to resolve session: %w", err)
		}
		// Невалидный или просроченный токен: падаем на анонимный путь
		s.logger.DebugContext(ctx, "bearer token did not resolve, falling back to visitor quota")
	}

	// Анонимный путь: без зарегистрированного visitor id запрос отклоняется
	if visitorID == 0 {
		return &Decision{
			RequireLogin: true,
			Reason:       ReasonLoginRequired,
		}, nil
	}

	visitor, err := s.visitors.GetVisitorByID(ctx, visitorID)
	if err != nil {
		if errors.Is(err, storage.ErrVisitorNotFound) {
			// Неизвестный id дает жесткий отказ, состояние не меняем
			return &Decision{
				RequireLogin: true,
				Reason:       ReasonLoginRequired,
			}, nil
		}
		return nil, fmt.Errorf("failed to resolve visitor: %w", err)
	}

	// Потолок достигнут: отказ без мутации состояния
	if visitor.QueryCount >= FreeQueryLimit {
		return &Decision{
			RequireLogin: true,
			Reason:       ReasonLoginRequired,
		}, nil
	}

	newCount, err := s.visitors.IncrementQueryCount(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment query count: %w", err)
	}

	remaining := FreeQueryLimit - newCount
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Allowed:          true,
		QueriesRemaining: remaining,
	}, nil
}
