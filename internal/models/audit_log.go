package models

import "time"

// AuditLog is append only. Metadata holds the event payload as JSON text.
type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BarbershopID uint   `gorm:"index:ix_audit_logs_tenant_time,priority:1" json:"barbershop_id"`
	UserID       *uint  `json:"user_id"`
	Action       string `gorm:"size:50;not null;index" json:"action"`

	Entity   string `gorm:"size:50;index:ix_audit_logs_entity,priority:1" json:"entity"`
	EntityID *uint  `gorm:"index:ix_audit_logs_entity,priority:2" json:"entity_id"`
	Metadata string `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `gorm:"index:ix_audit_logs_tenant_time,priority:2" json:"created_at"`
}
