package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk-api/internal/dto"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
	"github.com/noah-isme/complaint-desk-api/pkg/storage"
)

type complaintStore interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	Filter(ctx context.Context, q models.ComplaintQuery) ([]models.Complaint, error)
	Count(ctx context.Context, q models.ComplaintQuery) (int, error)
	Save(ctx context.Context, complaint *models.Complaint) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type attachmentStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type downloadSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (string, string, time.Time, error)
}

// AttachmentUpload is a file supplied alongside a new complaint.
type AttachmentUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// ComplaintServiceConfig tunes listing and attachment behaviour.
type ComplaintServiceConfig struct {
	PageSize           int
	AdminPageSize      int
	RecentLimit        int
	MaxAttachmentBytes int64
	AllowedMIMEs       []string
	DownloadBaseURL    string
}

// ComplaintServiceParams groups constructor dependencies.
type ComplaintServiceParams struct {
	Store     complaintStore
	Audit     auditRecorder
	Files     attachmentStorage
	Signer    downloadSigner
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    ComplaintServiceConfig
}

// ComplaintService applies authorization and notification rules around the complaint store.
type ComplaintService struct {
	store     complaintStore
	audit     auditRecorder
	files     attachmentStorage
	signer    downloadSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ComplaintServiceConfig
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(params ComplaintServiceParams) *ComplaintService {
	cfg := params.Config
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.AdminPageSize <= 0 {
		cfg.AdminPageSize = 20
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		store:     params.Store,
		audit:     params.Audit,
		files:     params.Files,
		signer:    params.Signer,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Submit creates a complaint owned by the caller. Status and reporter supplied by the
// caller are ignored: the complaint always starts open and belongs to identity.
func (s *ComplaintService) Submit(ctx context.Context, identity *models.Identity, req dto.CreateComplaintRequest, upload *AttachmentUpload) (*models.Complaint, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	req.Priority = models.ComplaintPriority(strings.TrimSpace(string(req.Priority)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid complaint")
	}
	if req.Priority == "" {
		req.Priority = models.ComplaintPriorityLow
	}

	complaint := &models.Complaint{
		ReporterID:   identity.UserID,
		ReporterName: identity.Username,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		Status:       models.ComplaintStatusOpen,
	}

	if upload != nil {
		name, err := s.storeAttachment(upload)
		if err != nil {
			return nil, err
		}
		complaint.Attachment = &name
	}

	if err := s.store.Create(ctx, complaint); err != nil {
		if complaint.Attachment != nil {
			if delErr := s.files.Delete(*complaint.Attachment); delErr != nil {
				s.logger.Warn("failed to remove orphaned attachment", zap.String("path", *complaint.Attachment), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}

	s.recordAudit(ctx, identity, models.AuditActionComplaintCreate, complaint.ID, nil, complaintSnapshot(complaint))
	s.metrics.RecordComplaintSubmitted(string(complaint.Priority))
	s.logger.Info("complaint submitted", zap.Int64("complaint_id", complaint.ID), zap.String("reporter_id", identity.UserID))
	return complaint, nil
}

// View returns a complaint to its reporter or to staff. When the reporter views an
// unread complaint the flag is cleared with a single save; already-read complaints are not written.
func (s *ComplaintService) View(ctx context.Context, identity *models.Identity, id int64) (*models.Complaint, error) {
	complaint, err := s.readable(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if complaint.IsReporter(identity) && !complaint.IsReadByReporter {
		complaint.IsReadByReporter = true
		if err := s.store.Save(ctx, complaint); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acknowledge complaint")
		}
		s.metrics.RecordReadAcknowledged()
	}
	return complaint, nil
}

// ListMine returns the caller's complaints, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, identity *models.Identity) ([]models.Complaint, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	complaints, err := s.store.Filter(ctx, models.OwnedBy(identity.UserID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, nil
}

// ListAll returns one page of every complaint, newest first.
func (s *ComplaintService) ListAll(ctx context.Context, page int) ([]models.Complaint, *models.Pagination, error) {
	return s.page(ctx, models.ComplaintQuery{}, page, s.cfg.PageSize)
}

// Search matches the trimmed term against title, description and category without
// pagination. An empty term yields no results rather than everything.
func (s *ComplaintService) Search(ctx context.Context, identity *models.Identity, query string) ([]models.Complaint, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Complaint{}, nil
	}
	q := models.ComplaintQuery{}.Matching(query, models.SearchFieldTitle, models.SearchFieldDescription, models.SearchFieldCategory)
	complaints, err := s.store.Filter(ctx, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search complaints")
	}
	return complaints, nil
}

// UnreadCount counts the caller's complaints with an unseen staff update.
func (s *ComplaintService) UnreadCount(ctx context.Context, identity *models.Identity) (int, error) {
	if err := requireIdentity(identity); err != nil {
		return 0, err
	}
	total, err := s.store.Count(ctx, models.OwnedBy(identity.UserID).WithRead(false))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread complaints")
	}
	return total, nil
}

// DashboardSummary aggregates the caller's own complaints. High priority complaints
// count as pending until resolved; closed ones are still pending.
func (s *ComplaintService) DashboardSummary(ctx context.Context, identity *models.Identity) (*dto.DashboardSummary, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	mine := models.OwnedBy(identity.UserID)
	summary := &dto.DashboardSummary{}

	type countInto struct {
		query models.ComplaintQuery
		dest  *int
	}
	counts := []countInto{
		{mine, &summary.TotalMine},
		{mine.WithStatus(models.ComplaintStatusOpen), &summary.OpenMine},
		{mine.WithPriority(models.ComplaintPriorityHigh).WithoutStatus(models.ComplaintStatusResolved), &summary.HighPriorityPendingMine},
		{mine.WithRead(false), &summary.UnreadMine},
	}
	for _, c := range counts {
		total, err := s.store.Count(ctx, c.query)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
		}
		*c.dest = total
	}

	recent, err := s.store.Filter(ctx, mine.Page(s.cfg.RecentLimit, 0))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}
	summary.RecentMine = recent
	return summary, nil
}

// AdminList returns one page of complaints for staff, filtered by free text over
// title, description and reporter name plus exact status and priority.
func (s *ComplaintService) AdminList(ctx context.Context, identity *models.Identity, filter dto.AdminComplaintFilter) ([]models.Complaint, *models.Pagination, error) {
	if err := requireStaff(identity); err != nil {
		return nil, nil, err
	}
	return s.page(ctx, adminQuery(filter), filter.Page, s.cfg.AdminPageSize)
}

// AdminUpdate applies a partial staff update. Omitted fields keep their value and the
// complaint is always marked unread for its reporter, even when nothing changed.
func (s *ComplaintService) AdminUpdate(ctx context.Context, identity *models.Identity, id int64, req dto.AdminUpdateComplaintRequest) (*models.Complaint, error) {
	if err := requireStaff(identity); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid complaint update")
	}

	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := complaintSnapshot(complaint)

	if req.Status != nil {
		complaint.Status = *req.Status
	}
	if req.Priority != nil {
		complaint.Priority = *req.Priority
	}
	if req.AdminComment != nil {
		complaint.AdminComment = *req.AdminComment
	}
	complaint.IsReadByReporter = false

	if err := s.store.Save(ctx, complaint); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update complaint")
	}

	s.recordAudit(ctx, identity, models.AuditActionComplaintUpdate, complaint.ID, before, complaintSnapshot(complaint))
	s.metrics.RecordComplaintUpdated(string(complaint.Status))
	return complaint, nil
}

// AttachmentURL issues a signed, expiring download link for the complaint's attachment.
// Access follows the read rule of View but never clears the unread flag.
func (s *ComplaintService) AttachmentURL(ctx context.Context, identity *models.Identity, id int64) (*dto.AttachmentURLResponse, error) {
	complaint, err := s.readable(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if complaint.Attachment == nil || *complaint.Attachment == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint has no attachment")
	}
	token, expiresAt, err := s.signer.Generate(strconv.FormatInt(complaint.ID, 10), *complaint.Attachment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment link")
	}
	link := fmt.Sprintf("%s/complaints/%d/attachment/download/?token=%s", strings.TrimRight(s.cfg.DownloadBaseURL, "/"), complaint.ID, url.QueryEscape(token))
	return &dto.AttachmentURLResponse{URL: link, ExpiresAt: expiresAt.UTC().Format(time.RFC3339)}, nil
}

// OpenAttachment validates a download token and opens the attachment. The caller
// must close the returned file. The second return value is a client-facing file name.
func (s *ComplaintService) OpenAttachment(ctx context.Context, identity *models.Identity, id int64, token string) (*os.File, string, error) {
	complaint, err := s.readable(ctx, identity, id)
	if err != nil {
		return nil, "", err
	}
	if complaint.Attachment == nil || *complaint.Attachment == "" {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "complaint has no attachment")
	}

	resourceID, relPath, _, err := s.signer.Parse(token)
	if err != nil || resourceID != strconv.FormatInt(complaint.ID, 10) || relPath != *complaint.Attachment {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment file missing")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}
	return file, downloadName(relPath), nil
}

// Export returns every complaint matching the admin filter, ignoring pagination.
func (s *ComplaintService) Export(ctx context.Context, identity *models.Identity, filter dto.AdminComplaintFilter) ([]models.Complaint, error) {
	if err := requireStaff(identity); err != nil {
		return nil, err
	}
	complaints, err := s.store.Filter(ctx, adminQuery(filter))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaints")
	}
	return complaints, nil
}

func (s *ComplaintService) page(ctx context.Context, q models.ComplaintQuery, page, size int) ([]models.Complaint, *models.Pagination, error) {
	total, err := s.store.Count(ctx, q)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count complaints")
	}
	pagination := models.NewPagination(page, size, total)
	complaints, err := s.store.Filter(ctx, q.Page(pagination.PageSize, pagination.Offset()))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, pagination, nil
}

func (s *ComplaintService) load(ctx context.Context, id int64) (*models.Complaint, error) {
	complaint, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	return complaint, nil
}

func (s *ComplaintService) readable(ctx context.Context, identity *models.Identity, id int64) (*models.Complaint, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !complaint.CanBeReadBy(identity) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not have access to this complaint")
	}
	return complaint, nil
}

func (s *ComplaintService) storeAttachment(upload *AttachmentUpload) (string, error) {
	if s.cfg.MaxAttachmentBytes > 0 && upload.Size > s.cfg.MaxAttachmentBytes {
		return "", appErrors.Validation("invalid complaint", map[string]string{
			"attachment": fmt.Sprintf("must be at most %d bytes", s.cfg.MaxAttachmentBytes),
		})
	}
	if len(s.cfg.AllowedMIMEs) > 0 {
		detected, err := mimetype.DetectReader(upload.Content)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect attachment")
		}
		if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment")
		}
		if !mimetype.EqualsAny(detected.String(), s.cfg.AllowedMIMEs...) {
			return "", appErrors.Validation("invalid complaint", map[string]string{
				"attachment": fmt.Sprintf("file type %s is not allowed", detected.String()),
			})
		}
	}

	name, err := s.files.SaveStream(storage.AttachmentName(upload.Filename), upload.Content)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}
	return name, nil
}

func (s *ComplaintService) recordAudit(ctx context.Context, identity *models.Identity, action string, complaintID int64, before, after []byte) {
	if s.audit == nil {
		return
	}
	userID := identity.UserID
	resourceID := strconv.FormatInt(complaintID, 10)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "complaints",
		ResourceID: &resourceID,
		OldValues:  before,
		NewValues:  after,
	}); err != nil {
		s.logger.Warn("failed to record complaint audit log", zap.String("action", action), zap.Error(err))
	}
}

func adminQuery(filter dto.AdminComplaintFilter) models.ComplaintQuery {
	var q models.ComplaintQuery
	if term := strings.TrimSpace(filter.Query); term != "" {
		q = q.Matching(term, models.SearchFieldTitle, models.SearchFieldDescription, models.SearchFieldReporterName)
	}
	if filter.Status != "" {
		q = q.WithStatus(filter.Status)
	}
	if filter.Priority != "" {
		q = q.WithPriority(filter.Priority)
	}
	return q
}

func requireIdentity(identity *models.Identity) error {
	if identity == nil || identity.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return nil
}

func requireStaff(identity *models.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if !identity.IsStaff {
		return appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	return nil
}

func complaintSnapshot(c *models.Complaint) []byte {
	payload, err := json.Marshal(map[string]interface{}{
		"status":              c.Status,
		"priority":            c.Priority,
		"admin_comment":       c.AdminComment,
		"is_read_by_reporter": c.IsReadByReporter,
	})
	if err != nil {
		return nil
	}
	return payload
}

// downloadName strips the uniqueness prefix added by storage.AttachmentName.
func downloadName(relPath string) string {
	base := path.Base(relPath)
	if idx := strings.Index(base, "_"); idx == 36 {
		return base[idx+1:]
	}
	return base
}
