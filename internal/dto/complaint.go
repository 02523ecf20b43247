package dto

import "github.com/noah-isme/complaint-desk-api/internal/models"

// CreateComplaintRequest is the submission form. Status and ReporterID are accepted so
// clients sending them do not fail binding, but they are always overridden.
type CreateComplaintRequest struct {
	Title       string                   `form:"title" json:"title" validate:"required,max=255"`
	Description string                   `form:"description" json:"description" validate:"required"`
	Category    string                   `form:"category" json:"category" validate:"max=100"`
	Priority    models.ComplaintPriority `form:"priority" json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      models.ComplaintStatus   `form:"status" json:"status"`
	ReporterID  string                   `form:"reporter_id" json:"reporter_id"`
}

// AdminUpdateComplaintRequest carries a partial staff update. A nil field keeps the current value.
type AdminUpdateComplaintRequest struct {
	Status       *models.ComplaintStatus   `form:"status" json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	Priority     *models.ComplaintPriority `form:"priority" json:"priority" validate:"omitempty,oneof=low medium high"`
	AdminComment *string                   `form:"admin_comment" json:"admin_comment"`
}

// AdminComplaintFilter captures the admin list query string.
type AdminComplaintFilter struct {
	Query    string
	Status   models.ComplaintStatus
	Priority models.ComplaintPriority
	Page     int
}

// DashboardSummary aggregates a reporter's own complaints.
type DashboardSummary struct {
	TotalMine               int                `json:"total_mine"`
	OpenMine                int                `json:"open_mine"`
	HighPriorityPendingMine int                `json:"high_priority_pending_mine"`
	UnreadMine              int                `json:"unread_mine"`
	RecentMine              []models.Complaint `json:"recent_mine"`
}

// UnreadCountResponse is the polling contract for the notification badge.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// AttachmentURLResponse returns a signed, expiring download link.
type AttachmentURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
