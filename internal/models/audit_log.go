package models

// AuditLog records who created claims, triggered calculations and imported
// statements. Changes holds a JSON object of the values involved.
type AuditLog struct {
	Base
	Actor        string `gorm:"not null;index" json:"actor"`
	Action       string `gorm:"size:64;not null;index" json:"action"`
	ResourceType string `gorm:"size:64;not null;index:idx_audit_resource,priority:1" json:"resource_type"`
	ResourceID   string `gorm:"index:idx_audit_resource,priority:2" json:"resource_id"`
	IPAddress    string `gorm:"size:64" json:"ip_address"`
	Changes      string `gorm:"type:text" json:"changes,omitempty"`
}
