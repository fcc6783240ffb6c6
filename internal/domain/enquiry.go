package domain

import (
	"strings"
	"time"
)

// EnquiryStatus tracks how far the back office has handled an enquiry.
type EnquiryStatus string

const (
	EnquiryStatusNew     EnquiryStatus = "new"
	EnquiryStatusReplied EnquiryStatus = "replied"
	EnquiryStatusClosed  EnquiryStatus = "closed"
)

// Valid reports whether s is a known status.
func (s EnquiryStatus) Valid() bool {
	return s == EnquiryStatusNew || s == EnquiryStatusReplied || s == EnquiryStatusClosed
}

// Enquiry is a contact message or offer sent from the storefront.
type Enquiry struct {
	ID         string        `json:"id"`
	DomainID   string        `json:"domain_id,omitempty"`
	DomainName string        `json:"domain_name,omitempty"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone,omitempty"`
	Message    string        `json:"message"`
	OfferCents int64         `json:"offer_cents,omitempty"`
	Status     EnquiryStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

const maxEnquiryMessage = 5000

// Validate checks the storefront-supplied fields.
func (e Enquiry) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(e.Name) == "" {
		v.Add("name", "is required")
	}
	if !ValidEmail(e.Email) {
		v.Add("email", "must be a valid email address")
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		v.Add("message", "is required")
	}
	if len(msg) > maxEnquiryMessage {
		v.Add("message", "is too long")
	}
	if e.OfferCents < 0 {
		v.Add("offer_cents", "must not be negative")
	}
	return v.Err()
}
