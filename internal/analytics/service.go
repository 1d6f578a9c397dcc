// Package analytics aggregates dashboard metrics over a tenant's
// conversations, leads, and catalog.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// Overview summarizes a tenant's activity for the dashboard home.
type Overview struct {
	TotalConversations int     `json:"total_conversations"`
	ConversationsToday int     `json:"conversations_today"`
	TotalMessages      int     `json:"total_messages"`
	AvgMessages        float64 `json:"avg_messages_per_conversation"`
	TotalLeads         int     `json:"total_leads"`
	TotalProducts      int     `json:"total_products"`
	TotalSources       int     `json:"total_sources"`
}

// DailyPoint is one day of conversation volume.
type DailyPoint struct {
	Date          string `json:"date"`
	Conversations int    `json:"conversations"`
}

type Service struct {
	conversations *storage.ConversationRepository
	messages      *storage.MessageRepository
	leads         *storage.LeadRepository
	products      *storage.ProductRepository
	sources       *storage.SourceRepository
	logger        *observability.Logger
}

func NewService(repos *storage.Repositories, logger *observability.Logger) *Service {
	return &Service{
		conversations: repos.Conversations,
		messages:      repos.Messages,
		leads:         repos.Leads,
		products:      repos.Products,
		sources:       repos.Sources,
		logger:        logger,
	}
}

// Overview computes the tenant's headline counters.
func (s *Service) Overview(ctx context.Context, tenantID uuid.UUID) (*Overview, error) {
	var (
		overview Overview
		err      error
	)

	if overview.TotalConversations, err = s.conversations.CountByTenant(ctx, tenantID, nil); err != nil {
		return nil, fmt.Errorf("counting conversations: %w", err)
	}

	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if overview.ConversationsToday, err = s.conversations.CountByTenant(ctx, tenantID, &todayStart); err != nil {
		return nil, fmt.Errorf("counting today's conversations: %w", err)
	}

	if overview.TotalMessages, err = s.messages.CountByTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}
	if overview.TotalConversations > 0 {
		avg := float64(overview.TotalMessages) / float64(overview.TotalConversations)
		overview.AvgMessages = math.Round(avg*10) / 10
	}
	if overview.TotalLeads, err = s.leads.CountByTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("counting leads: %w", err)
	}
	if overview.TotalProducts, err = s.products.CountByTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}
	if overview.TotalSources, err = s.sources.CountByTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("counting sources: %w", err)
	}

	return &overview, nil
}

// Daily returns conversation volume per day for the last `days` days,
// oldest first, with zero-filled gaps.
func (s *Service) Daily(ctx context.Context, tenantID uuid.UUID, days int) ([]DailyPoint, error) {
	if days <= 0 {
		days = 7
	}

	points := make([]DailyPoint, 0, days)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for i := days - 1; i >= 0; i-- {
		from := today.AddDate(0, 0, -i)
		to := from.AddDate(0, 0, 1)

		count, err := s.conversations.CountByTenantBetween(ctx, tenantID, from, to)
		if err != nil {
			return nil, fmt.Errorf("counting conversations for %s: %w", from.Format("2006-01-02"), err)
		}
		points = append(points, DailyPoint{
			Date:          from.Format("2006-01-02"),
			Conversations: count,
		})
	}

	return points, nil
}
