package models

import "time"

const (
	ProtocolTCP  = "tcp"
	ProtocolUDP  = "udp"
	ProtocolBoth = "both"

	ActionAllow = "allow"
	ActionDeny  = "deny"
)

type FirewallRule struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Port      int       `json:"port" gorm:"not null"`
	Protocol  string    `json:"protocol" gorm:"default:'tcp'"`
	Action    string    `json:"action" gorm:"default:'allow'"`
	SourceIP  string    `json:"source_ip,omitempty"`
	Enabled   bool      `json:"enabled" gorm:"default:true"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
