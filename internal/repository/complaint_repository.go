package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/complaint-desk-api/internal/models"
)

const complaintColumns = `c.id, c.reporter_id, u.username AS reporter_name, c.title, c.description, c.category, c.priority, c.status, c.created_at, c.updated_at, c.attachment, c.admin_comment, c.is_read_by_reporter`

const complaintFrom = `FROM complaints c JOIN users u ON u.id = c.reporter_id`

var searchColumns = map[models.SearchField]string{
	models.SearchFieldTitle:        "c.title",
	models.SearchFieldDescription:  "c.description",
	models.SearchFieldCategory:     "c.category",
	models.SearchFieldReporterName: "u.username",
}

// QueryObserver receives timings for individual statements.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// ComplaintRepository stores complaint rows. It applies no business rules.
type ComplaintRepository struct {
	db       *sqlx.DB
	observer QueryObserver
	now      func() time.Time
}

// NewComplaintRepository creates a new instance of ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithObserver attaches a query timing observer.
func (r *ComplaintRepository) WithObserver(observer QueryObserver) *ComplaintRepository {
	r.observer = observer
	return r
}

// Create inserts a complaint as open and read, assigning ID and timestamps.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	defer r.observe("complaints.create", time.Now())

	now := r.now()
	complaint.Status = models.ComplaintStatusOpen
	complaint.IsReadByReporter = true
	if complaint.Priority == "" {
		complaint.Priority = models.ComplaintPriorityLow
	}
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	const query = `INSERT INTO complaints (reporter_id, title, description, category, priority, status, created_at, updated_at, attachment, admin_comment, is_read_by_reporter) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query,
		complaint.ReporterID,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.CreatedAt,
		complaint.UpdatedAt,
		complaint.Attachment,
		complaint.AdminComment,
		complaint.IsReadByReporter,
	)
	if err := row.Scan(&complaint.ID); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// GetByID returns a complaint by identifier or sql.ErrNoRows.
func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	defer r.observe("complaints.get", time.Now())

	query := fmt.Sprintf("SELECT %s %s WHERE c.id = $1 LIMIT 1", complaintColumns, complaintFrom)
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	return &complaint, nil
}

// Filter returns complaints matching the query ordered by creation time.
func (r *ComplaintRepository) Filter(ctx context.Context, q models.ComplaintQuery) ([]models.Complaint, error) {
	defer r.observe("complaints.filter", time.Now())

	where, args := buildComplaintWhere(q)
	order := q.Order
	if order != models.SortAsc {
		order = models.SortDesc
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY c.created_at %s, c.id %s", complaintColumns, complaintFrom, where, order, order)
	if q.Limit > 0 {
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, offset)
	}

	complaints := make([]models.Complaint, 0)
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("filter complaints: %w", err)
	}
	return complaints, nil
}

// Count returns the number of complaints matching the query; Limit, Offset and Order are ignored.
func (r *ComplaintRepository) Count(ctx context.Context, q models.ComplaintQuery) (int, error) {
	defer r.observe("complaints.count", time.Now())

	where, args := buildComplaintWhere(q)
	query := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", complaintFrom, where)
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return total, nil
}

// Save writes the mutable columns back and refreshes updated_at.
// reporter_id and created_at are never written after insert.
func (r *ComplaintRepository) Save(ctx context.Context, complaint *models.Complaint) error {
	defer r.observe("complaints.save", time.Now())

	complaint.UpdatedAt = r.now()
	const query = `UPDATE complaints SET title = $2, description = $3, category = $4, priority = $5, status = $6, attachment = $7, admin_comment = $8, is_read_by_reporter = $9, updated_at = $10 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		complaint.ID,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.Attachment,
		complaint.AdminComment,
		complaint.IsReadByReporter,
		complaint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save complaint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ComplaintRepository) observe(label string, start time.Time) {
	if r.observer == nil {
		return
	}
	r.observer.ObserveDBQuery(label, time.Since(start))
}

func buildComplaintWhere(q models.ComplaintQuery) (string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}

	if q.ReporterID != nil {
		args = append(args, *q.ReporterID)
		conditions = append(conditions, fmt.Sprintf("c.reporter_id = $%d", len(args)))
	}
	if q.Status != nil {
		args = append(args, *q.Status)
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if q.ExcludeStatus != nil {
		args = append(args, *q.ExcludeStatus)
		conditions = append(conditions, fmt.Sprintf("c.status <> $%d", len(args)))
	}
	if q.Priority != nil {
		args = append(args, *q.Priority)
		conditions = append(conditions, fmt.Sprintf("c.priority = $%d", len(args)))
	}
	if q.IsRead != nil {
		args = append(args, *q.IsRead)
		conditions = append(conditions, fmt.Sprintf("c.is_read_by_reporter = $%d", len(args)))
	}
	if q.Search != "" && len(q.SearchFields) > 0 {
		args = append(args, "%"+escapeLike(strings.ToLower(q.Search))+"%")
		idx := len(args)
		var ors []string
		for _, field := range q.SearchFields {
			column, ok := searchColumns[field]
			if !ok {
				continue
			}
			ors = append(ors, fmt.Sprintf("LOWER(%s) LIKE $%d", column, idx))
		}
		if len(ors) > 0 {
			conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
		} else {
			args = args[:len(args)-1]
		}
	}

	return strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes the term match literally; backslash is the default LIKE escape in PostgreSQL.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
