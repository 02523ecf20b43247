package models

import "time"

// ComplaintStatus tracks where a complaint is in triage.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "open"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusClosed     ComplaintStatus = "closed"
)

// Valid reports whether the status is one of the known values.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusResolved, ComplaintStatusClosed:
		return true
	}
	return false
}

// ComplaintPriority ranks complaints for staff.
type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "low"
	ComplaintPriorityMedium ComplaintPriority = "medium"
	ComplaintPriorityHigh   ComplaintPriority = "high"
)

// Valid reports whether the priority is one of the known values.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh:
		return true
	}
	return false
}

// Field limits enforced on submission.
const (
	ComplaintTitleMaxLength    = 255
	ComplaintCategoryMaxLength = 100
)

// Complaint represents a row in the complaints table joined with its reporter's username.
type Complaint struct {
	ID               int64             `db:"id" json:"id"`
	ReporterID       string            `db:"reporter_id" json:"reporter_id"`
	ReporterName     string            `db:"reporter_name" json:"reporter_name"`
	Title            string            `db:"title" json:"title"`
	Description      string            `db:"description" json:"description"`
	Category         string            `db:"category" json:"category"`
	Priority         ComplaintPriority `db:"priority" json:"priority"`
	Status           ComplaintStatus   `db:"status" json:"status"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
	Attachment       *string           `db:"attachment" json:"attachment,omitempty"`
	AdminComment     string            `db:"admin_comment" json:"admin_comment"`
	IsReadByReporter bool              `db:"is_read_by_reporter" json:"is_read_by_reporter"`
}

// IsReporter reports whether the identity owns the complaint.
func (c *Complaint) IsReporter(id *Identity) bool {
	return c != nil && id != nil && id.UserID != "" && c.ReporterID == id.UserID
}

// CanBeReadBy applies the read rule: the reporter or any staff identity.
func (c *Complaint) CanBeReadBy(id *Identity) bool {
	if id == nil {
		return false
	}
	return id.IsStaff || c.IsReporter(id)
}

// SearchField names a column a free-text term may match.
type SearchField string

const (
	SearchFieldTitle        SearchField = "title"
	SearchFieldDescription  SearchField = "description"
	SearchFieldCategory     SearchField = "category"
	SearchFieldReporterName SearchField = "reporter_name"
)

// SortDirection orders results by creation time.
type SortDirection string

const (
	SortDesc SortDirection = "DESC"
	SortAsc  SortDirection = "ASC"
)

// ComplaintQuery is the typed predicate passed to the complaint store.
// All set predicates are combined with AND; Search matches any of SearchFields.
type ComplaintQuery struct {
	ReporterID    *string
	Status        *ComplaintStatus
	ExcludeStatus *ComplaintStatus
	Priority      *ComplaintPriority
	IsRead        *bool
	Search        string
	SearchFields  []SearchField
	Order         SortDirection
	Limit         int
	Offset        int
}

// OwnedBy returns a query scoped to a single reporter.
func OwnedBy(reporterID string) ComplaintQuery {
	return ComplaintQuery{ReporterID: &reporterID}
}

// WithStatus narrows the query to one status.
func (q ComplaintQuery) WithStatus(status ComplaintStatus) ComplaintQuery {
	q.Status = &status
	return q
}

// WithoutStatus excludes one status.
func (q ComplaintQuery) WithoutStatus(status ComplaintStatus) ComplaintQuery {
	q.ExcludeStatus = &status
	return q
}

// WithPriority narrows the query to one priority.
func (q ComplaintQuery) WithPriority(priority ComplaintPriority) ComplaintQuery {
	q.Priority = &priority
	return q
}

// WithRead narrows the query on the reporter read flag.
func (q ComplaintQuery) WithRead(read bool) ComplaintQuery {
	q.IsRead = &read
	return q
}

// Matching adds a case-insensitive substring term across the given fields.
func (q ComplaintQuery) Matching(term string, fields ...SearchField) ComplaintQuery {
	q.Search = term
	q.SearchFields = fields
	return q
}

// Page limits the query to a window of rows.
func (q ComplaintQuery) Page(limit, offset int) ComplaintQuery {
	q.Limit = limit
	q.Offset = offset
	return q
}
