package models

import (
	"time"

	"github.com/lib/pq"
)

// Accepted status values for a consultation record. Status is a label, not a
// workflow gate: any accepted value may replace any other at any time.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFail    = "fail"
)

var validStatuses = []string{StatusPending, StatusSuccess, StatusFail}

// ValidStatus reports whether s is a member of the accepted status set.
func ValidStatus(s string) bool {
	for _, v := range validStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Consult is a single consultation request submitted from the landing page.
// ID and CreatedAt are assigned by the store; only Status changes afterwards.
type Consult struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null"`
	Phone         string         `json:"phone" gorm:"not null"`
	Goals         pq.StringArray `json:"goals" gorm:"type:text[];not null"`
	Education     string         `json:"education" gorm:"not null"`
	ContactMethod string         `json:"contact_method" gorm:"column:contact_method;not null"`
	Status        string         `json:"status" gorm:"not null;default:pending"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (Consult) TableName() string {
	return "consults"
}

// ConsultSummary is the reduced projection returned in the daily statistics.
type ConsultSummary struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	Goals         pq.StringArray `json:"goals"`
	Education     string         `json:"education"`
	ContactMethod string         `json:"contact_method"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Summary strips a consult down to the fields the public stats widget shows.
func (c *Consult) Summary() ConsultSummary {
	return ConsultSummary{
		ID:            c.ID,
		Name:          c.Name,
		Goals:         c.Goals,
		Education:     c.Education,
		ContactMethod: c.ContactMethod,
		CreatedAt:     c.CreatedAt,
	}
}
