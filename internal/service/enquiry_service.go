package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/notify"
)

// EnquiryService accepts storefront enquiries and offers and lets the back
// office work through them.
type EnquiryService struct {
	enquiries domain.EnquiryStore
	domains   domain.DomainStore
	fx        effects
	logger    *slog.Logger
}

// NewEnquiryService creates an EnquiryService. bus, audit and notifier may
// be nil.
func NewEnquiryService(
	enquiries domain.EnquiryStore,
	domains domain.DomainStore,
	bus domain.EventBus,
	audit domain.AuditStore,
	notifier Notifier,
	logger *slog.Logger,
) *EnquiryService {
	return &EnquiryService{
		enquiries: enquiries,
		domains:   domains,
		fx:        newEffects(bus, audit, notifier, logger),
		logger:    logger,
	}
}

// EnquiryInput is the public contact form.
type EnquiryInput struct {
	DomainID   string `json:"domain_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	OfferCents int64  `json:"offer_cents"`
}

// Submit records an enquiry, optionally about a specific domain.
func (s *EnquiryService) Submit(ctx context.Context, in EnquiryInput) (domain.Enquiry, error) {
	e := domain.Enquiry{
		ID:         newID(),
		DomainID:   strings.TrimSpace(in.DomainID),
		Name:       strings.TrimSpace(in.Name),
		Email:      domain.NormalizeEmail(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Message:    strings.TrimSpace(in.Message),
		OfferCents: in.OfferCents,
		Status:     domain.EnquiryStatusNew,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return domain.Enquiry{}, err
	}

	if e.DomainID != "" {
		d, err := s.domains.GetByID(ctx, e.DomainID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				v := &domain.ValidationError{}
				v.Add("domain_id", "unknown domain")
				return domain.Enquiry{}, v.Err()
			}
			return domain.Enquiry{}, fmt.Errorf("enquiry_service: get domain: %w", err)
		}
		e.DomainName = d.Name
	}

	if err := s.enquiries.Create(ctx, e); err != nil {
		return domain.Enquiry{}, fmt.Errorf("enquiry_service: create: %w", err)
	}

	s.fx.publish(ctx, domain.ChannelEnquiries, "enquiry.created", e.ID, e)
	s.fx.alert(ctx, notify.EventEnquiryCreated, "New enquiry", enquirySummary(e))
	s.logger.InfoContext(ctx, "enquiry_service: enquiry received",
		slog.String("enquiry_id", e.ID),
		slog.String("domain", e.DomainName),
	)
	return e, nil
}

func enquirySummary(e domain.Enquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>", e.Name, e.Email)
	if e.DomainName != "" {
		fmt.Fprintf(&b, " about %s", e.DomainName)
	}
	if e.OfferCents > 0 {
		fmt.Fprintf(&b, ", offering %s", catalog.FormatPrice(e.OfferCents/100))
	}
	b.WriteString("\n")
	b.WriteString(e.Message)
	return b.String()
}

// List returns enquiries for the back office.
func (s *EnquiryService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Enquiry, error) {
	es, err := s.enquiries.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("enquiry_service: list: %w", err)
	}
	return es, nil
}

// UpdateStatus marks an enquiry replied or closed.
func (s *EnquiryService) UpdateStatus(ctx context.Context, actor, id string, status domain.EnquiryStatus) (domain.Enquiry, error) {
	if !status.Valid() {
		v := &domain.ValidationError{}
		v.Add("status", "unknown status "+string(status))
		return domain.Enquiry{}, v.Err()
	}
	if err := s.enquiries.UpdateStatus(ctx, id, status); err != nil {
		return domain.Enquiry{}, fmt.Errorf("enquiry_service: update %s: %w", id, err)
	}
	e, err := s.enquiries.GetByID(ctx, id)
	if err != nil {
		return domain.Enquiry{}, fmt.Errorf("enquiry_service: get %s: %w", id, err)
	}
	s.fx.record(ctx, "enquiry.status", actor, map[string]any{"enquiry_id": id, "status": string(status)})
	return e, nil
}

// Delete removes an enquiry.
func (s *EnquiryService) Delete(ctx context.Context, actor, id string) error {
	if err := s.enquiries.Delete(ctx, id); err != nil {
		return fmt.Errorf("enquiry_service: delete %s: %w", id, err)
	}
	s.fx.record(ctx, "enquiry.delete", actor, map[string]any{"enquiry_id": id})
	return nil
}
