package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk-api/internal/dto"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
	"github.com/noah-isme/complaint-desk-api/pkg/storage"
)

type fakeComplaintStore struct {
	rows      map[int64]*models.Complaint
	names     map[string]string
	nextID    int64
	saves     int
	createErr error
	clock     time.Time
	queries   []models.ComplaintQuery
}

func newFakeComplaintStore() *fakeComplaintStore {
	return &fakeComplaintStore{
		rows:   map[int64]*models.Complaint{},
		names:  map[string]string{"alice": "alice", "bob": "bob", "staff": "staff"},
		nextID: 1,
		clock:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeComplaintStore) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeComplaintStore) Create(ctx context.Context, c *models.Complaint) error {
	if f.createErr != nil {
		return f.createErr
	}
	now := f.tick()
	c.ID = f.nextID
	f.nextID++
	c.Status = models.ComplaintStatusOpen
	c.IsReadByReporter = true
	if c.Priority == "" {
		c.Priority = models.ComplaintPriorityLow
	}
	c.CreatedAt, c.UpdatedAt = now, now
	c.ReporterName = f.names[c.ReporterID]
	stored := *c
	f.rows[c.ID] = &stored
	return nil
}

func (f *fakeComplaintStore) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeComplaintStore) matches(c *models.Complaint, q models.ComplaintQuery) bool {
	if q.ReporterID != nil && c.ReporterID != *q.ReporterID {
		return false
	}
	if q.Status != nil && c.Status != *q.Status {
		return false
	}
	if q.ExcludeStatus != nil && c.Status == *q.ExcludeStatus {
		return false
	}
	if q.Priority != nil && c.Priority != *q.Priority {
		return false
	}
	if q.IsRead != nil && c.IsReadByReporter != *q.IsRead {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		values := map[models.SearchField]string{
			models.SearchFieldTitle:        c.Title,
			models.SearchFieldDescription:  c.Description,
			models.SearchFieldCategory:     c.Category,
			models.SearchFieldReporterName: c.ReporterName,
		}
		hit := false
		for _, field := range q.SearchFields {
			if strings.Contains(strings.ToLower(values[field]), term) {
				hit = true
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (f *fakeComplaintStore) Filter(ctx context.Context, q models.ComplaintQuery) ([]models.Complaint, error) {
	f.queries = append(f.queries, q)
	out := make([]models.Complaint, 0)
	for _, c := range f.rows {
		if f.matches(c, q) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Order == models.SortAsc {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 {
		if q.Offset >= len(out) {
			return []models.Complaint{}, nil
		}
		end := q.Offset + q.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[q.Offset:end]
	}
	return out, nil
}

func (f *fakeComplaintStore) Count(ctx context.Context, q models.ComplaintQuery) (int, error) {
	total := 0
	for _, c := range f.rows {
		if f.matches(c, q) {
			total++
		}
	}
	return total, nil
}

func (f *fakeComplaintStore) Save(ctx context.Context, c *models.Complaint) error {
	existing, ok := f.rows[c.ID]
	if !ok {
		return sql.ErrNoRows
	}
	f.saves++
	c.UpdatedAt = f.tick()
	c.CreatedAt = existing.CreatedAt
	stored := *c
	f.rows[c.ID] = &stored
	return nil
}

func (f *fakeComplaintStore) seed(reporter string, title string, priority models.ComplaintPriority, status models.ComplaintStatus, read bool) *models.Complaint {
	c := &models.Complaint{ReporterID: reporter, Title: title, Description: title + " details", Priority: priority}
	_ = f.Create(context.Background(), c)
	stored := f.rows[c.ID]
	stored.Status = status
	stored.IsReadByReporter = read
	return stored
}

type fakeAudit struct {
	logs []*models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

var (
	alice = &models.Identity{UserID: "alice", Username: "alice"}
	bob   = &models.Identity{UserID: "bob", Username: "bob"}
	staff = &models.Identity{UserID: "staff", Username: "staff", IsStaff: true}
)

func newTestComplaintService(t *testing.T, store *fakeComplaintStore) (*ComplaintService, *fakeAudit, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	audit := &fakeAudit{}
	svc := NewComplaintService(ComplaintServiceParams{
		Store:   store,
		Audit:   audit,
		Files:   files,
		Signer:  storage.NewSignedURLSigner("secret", time.Minute),
		Metrics: NewMetricsService(),
		Config: ComplaintServiceConfig{
			MaxAttachmentBytes: 1024,
			AllowedMIMEs:       []string{"text/plain", "image/png"},
			DownloadBaseURL:    "/api/v1",
		},
	})
	return svc, audit, files
}

func ptr[T any](v T) *T { return &v }

func TestSubmitForcesOpenAndReporter(t *testing.T) {
	store := newFakeComplaintStore()
	svc, audit, _ := newTestComplaintService(t, store)

	complaint, err := svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{
		Title:       "  Broken projector ",
		Description: "Room 12",
		Priority:    models.ComplaintPriorityHigh,
		Status:      models.ComplaintStatusClosed,
		ReporterID:  "bob",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusOpen, complaint.Status)
	assert.Equal(t, "alice", complaint.ReporterID)
	assert.Equal(t, "Broken projector", complaint.Title)
	assert.Equal(t, models.ComplaintPriorityHigh, complaint.Priority)
	assert.True(t, complaint.IsReadByReporter)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionComplaintCreate, audit.logs[0].Action)
}

func TestSubmitDefaultsPriority(t *testing.T) {
	svc, _, _ := newTestComplaintService(t, newFakeComplaintStore())

	complaint, err := svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{Title: "Noise", Description: "Late night"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintPriorityLow, complaint.Priority)
}

func TestSubmitValidationIsFieldByField(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)

	_, err := svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{
		Title:       "   ",
		Description: "",
		Category:    strings.Repeat("c", 101),
		Priority:    "urgent",
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "title")
	assert.Contains(t, appErr.Details, "description")
	assert.Contains(t, appErr.Details, "category")
	assert.Contains(t, appErr.Details, "priority")
	assert.Empty(t, store.rows)

	_, err = svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{Title: strings.Repeat("t", 256), Description: "d"}, nil)
	assert.Contains(t, appErrors.FromError(err).Details, "title")
}

func TestSubmitRequiresIdentity(t *testing.T) {
	svc, _, _ := newTestComplaintService(t, newFakeComplaintStore())
	_, err := svc.Submit(context.Background(), nil, dto.CreateComplaintRequest{Title: "x", Description: "y"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSubmitWithAttachmentAndDownload(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, files := newTestComplaintService(t, store)

	content := []byte("see attached notes")
	complaint, err := svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{Title: "Leak", Description: "Bathroom"}, &AttachmentUpload{
		Filename: "notes.txt",
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
	})
	require.NoError(t, err)
	require.NotNil(t, complaint.Attachment)
	assert.True(t, strings.HasPrefix(*complaint.Attachment, storage.AttachmentPrefix+"/"))

	store.rows[complaint.ID].IsReadByReporter = false

	link, err := svc.AttachmentURL(context.Background(), alice, complaint.ID)
	require.NoError(t, err)
	parsed, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/complaints/1/attachment/download/", parsed.Path)
	token := parsed.Query().Get("token")

	file, name, err := svc.OpenAttachment(context.Background(), alice, complaint.ID, token)
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	require.NoError(t, file.Close())
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, "notes.txt", name)
	assert.False(t, store.rows[complaint.ID].IsReadByReporter)

	_, _, err = svc.OpenAttachment(context.Background(), bob, complaint.ID, token)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, _, err = svc.OpenAttachment(context.Background(), alice, complaint.ID, "forged")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = files.Open(*complaint.Attachment)
	require.NoError(t, err)
}

func TestSubmitRejectsDisallowedAttachment(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)

	pdf := []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n")
	_, err := svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{Title: "Doc", Description: "d"}, &AttachmentUpload{
		Filename: "doc.pdf",
		Size:     int64(len(pdf)),
		Content:  bytes.NewReader(pdf),
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Details, "attachment")

	big := bytes.Repeat([]byte("a"), 2048)
	_, err = svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{Title: "Big", Description: "d"}, &AttachmentUpload{
		Filename: "big.txt",
		Size:     int64(len(big)),
		Content:  bytes.NewReader(big),
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Details, "attachment")
	assert.Empty(t, store.rows)
}

func TestSubmitRemovesAttachmentWhenCreateFails(t *testing.T) {
	store := newFakeComplaintStore()
	store.createErr = errors.New("db down")
	svc, _, files := newTestComplaintService(t, store)

	_, err := svc.Submit(context.Background(), alice, dto.CreateComplaintRequest{Title: "Leak", Description: "d"}, &AttachmentUpload{
		Filename: "notes.txt",
		Size:     5,
		Content:  bytes.NewReader([]byte("hello")),
	})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	entries, err := os.ReadDir(files.Path(storage.AttachmentPrefix))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestViewAcknowledgesOnceForReporter(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	seeded := store.seed("alice", "Heating", models.ComplaintPriorityMedium, models.ComplaintStatusInProgress, false)

	first, err := svc.View(context.Background(), alice, seeded.ID)
	require.NoError(t, err)
	assert.True(t, first.IsReadByReporter)
	assert.Equal(t, 1, store.saves)
	updatedAt := store.rows[seeded.ID].UpdatedAt

	second, err := svc.View(context.Background(), alice, seeded.ID)
	require.NoError(t, err)
	assert.True(t, second.IsReadByReporter)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, updatedAt, store.rows[seeded.ID].UpdatedAt)
}

func TestViewByStaffDoesNotAcknowledge(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	seeded := store.seed("alice", "Heating", models.ComplaintPriorityLow, models.ComplaintStatusOpen, false)

	complaint, err := svc.View(context.Background(), staff, seeded.ID)
	require.NoError(t, err)
	assert.False(t, complaint.IsReadByReporter)
	assert.Zero(t, store.saves)
}

func TestViewDeniedForOtherReporter(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	seeded := store.seed("alice", "Heating", models.ComplaintPriorityLow, models.ComplaintStatusOpen, false)
	before := *store.rows[seeded.ID]

	_, err := svc.View(context.Background(), bob, seeded.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Zero(t, store.saves)
	assert.Equal(t, before, *store.rows[seeded.ID])
}

func TestViewNotFound(t *testing.T) {
	svc, _, _ := newTestComplaintService(t, newFakeComplaintStore())
	_, err := svc.View(context.Background(), alice, 99)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListMineNewestFirst(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	store.seed("alice", "first", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	store.seed("bob", "other", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	store.seed("alice", "second", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)

	complaints, err := svc.ListMine(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, complaints, 2)
	assert.Equal(t, "second", complaints[0].Title)
	assert.Equal(t, "first", complaints[1].Title)
}

func TestListAllPaginatesByTen(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	for i := 0; i < 23; i++ {
		store.seed("alice", "c", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	}

	page, pagination, err := svc.ListAll(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 23, pagination.TotalCount)

	first, _, err := svc.ListAll(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.Equal(t, int64(23), first[0].ID)

	beyond, pagination, err := svc.ListAll(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, 3, pagination.Page)
	assert.Len(t, beyond, 3)
}

func TestSearch(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	store.seed("alice", "WiFi outage", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	cat := store.seed("bob", "Cold room", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	cat.Category = "Heating"

	empty, err := svc.Search(context.Background(), alice, "   ")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Empty(t, store.queries)

	none, err := svc.Search(context.Background(), alice, "printer")
	require.NoError(t, err)
	assert.Empty(t, none)

	byTitle, err := svc.Search(context.Background(), alice, "wifi")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "WiFi outage", byTitle[0].Title)

	byCategory, err := svc.Search(context.Background(), alice, "HEAT")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Cold room", byCategory[0].Title)

	byDescription, err := svc.Search(context.Background(), alice, "OUTAGE DETAILS")
	require.NoError(t, err)
	assert.Len(t, byDescription, 1)

	byReporter, err := svc.Search(context.Background(), alice, "bob")
	require.NoError(t, err)
	assert.Empty(t, byReporter)

	_, err = svc.Search(context.Background(), nil, "wifi")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestUnreadCount(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	store.seed("alice", "a", models.ComplaintPriorityLow, models.ComplaintStatusOpen, false)
	store.seed("alice", "b", models.ComplaintPriorityLow, models.ComplaintStatusOpen, false)
	store.seed("alice", "c", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	store.seed("bob", "d", models.ComplaintPriorityLow, models.ComplaintStatusOpen, false)

	count, err := svc.UnreadCount(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDashboardSummary(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	store.seed("alice", "high open", models.ComplaintPriorityHigh, models.ComplaintStatusOpen, true)
	store.seed("alice", "high resolved", models.ComplaintPriorityHigh, models.ComplaintStatusResolved, false)
	store.seed("alice", "low open", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	store.seed("bob", "other", models.ComplaintPriorityHigh, models.ComplaintStatusOpen, false)

	summary, err := svc.DashboardSummary(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalMine)
	assert.Equal(t, 2, summary.OpenMine)
	assert.Equal(t, 1, summary.HighPriorityPendingMine)
	assert.Equal(t, 1, summary.UnreadMine)
	require.Len(t, summary.RecentMine, 3)
	assert.Equal(t, "low open", summary.RecentMine[0].Title)
}

func TestDashboardCountsClosedHighPriorityAsPending(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	store.seed("alice", "closed", models.ComplaintPriorityHigh, models.ComplaintStatusClosed, true)
	for i := 0; i < 6; i++ {
		store.seed("alice", "filler", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	}

	summary, err := svc.DashboardSummary(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.HighPriorityPendingMine)
	assert.Len(t, summary.RecentMine, 5)
}

func TestAdminListRequiresStaff(t *testing.T) {
	svc, _, _ := newTestComplaintService(t, newFakeComplaintStore())
	_, _, err := svc.AdminList(context.Background(), alice, dto.AdminComplaintFilter{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAdminListFilters(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	store.seed("alice", "Projector", models.ComplaintPriorityHigh, models.ComplaintStatusResolved, true)
	store.seed("alice", "Heating", models.ComplaintPriorityHigh, models.ComplaintStatusOpen, true)
	store.seed("bob", "Noise", models.ComplaintPriorityLow, models.ComplaintStatusResolved, true)
	store.seed("bob", "Leak", models.ComplaintPriorityHigh, models.ComplaintStatusResolved, true)

	both, pagination, err := svc.AdminList(context.Background(), staff, dto.AdminComplaintFilter{
		Status:   models.ComplaintStatusResolved,
		Priority: models.ComplaintPriorityHigh,
	})
	require.NoError(t, err)
	require.Len(t, both, 2)
	for _, c := range both {
		assert.Equal(t, models.ComplaintStatusResolved, c.Status)
		assert.Equal(t, models.ComplaintPriorityHigh, c.Priority)
	}
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)

	byReporter, _, err := svc.AdminList(context.Background(), staff, dto.AdminComplaintFilter{Query: "BOB", Status: models.ComplaintStatusResolved})
	require.NoError(t, err)
	assert.Len(t, byReporter, 2)

	byText, _, err := svc.AdminList(context.Background(), staff, dto.AdminComplaintFilter{Query: "heat"})
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, "Heating", byText[0].Title)
}

func TestAdminListPaginatesByTwenty(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	for i := 0; i < 45; i++ {
		store.seed("alice", "c", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	}
	page, pagination, err := svc.AdminList(context.Background(), staff, dto.AdminComplaintFilter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page, 20)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestAdminUpdateWithoutFieldsMarksUnread(t *testing.T) {
	store := newFakeComplaintStore()
	svc, audit, _ := newTestComplaintService(t, store)
	seeded := store.seed("alice", "Heating", models.ComplaintPriorityMedium, models.ComplaintStatusInProgress, true)
	seeded.AdminComment = "looking"
	createdAt := seeded.CreatedAt

	updated, err := svc.AdminUpdate(context.Background(), staff, seeded.ID, dto.AdminUpdateComplaintRequest{})
	require.NoError(t, err)
	assert.False(t, updated.IsReadByReporter)
	assert.Equal(t, models.ComplaintStatusInProgress, updated.Status)
	assert.Equal(t, models.ComplaintPriorityMedium, updated.Priority)
	assert.Equal(t, "looking", updated.AdminComment)
	assert.Equal(t, createdAt, store.rows[seeded.ID].CreatedAt)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionComplaintUpdate, audit.logs[0].Action)
	assert.JSONEq(t, `{"status":"in_progress","priority":"medium","admin_comment":"looking","is_read_by_reporter":true}`, string(audit.logs[0].OldValues))
}

func TestAdminUpdatePartial(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	seeded := store.seed("alice", "Heating", models.ComplaintPriorityMedium, models.ComplaintStatusClosed, true)

	updated, err := svc.AdminUpdate(context.Background(), staff, seeded.ID, dto.AdminUpdateComplaintRequest{
		Status:       ptr(models.ComplaintStatusOpen),
		AdminComment: ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusOpen, updated.Status)
	assert.Equal(t, models.ComplaintPriorityMedium, updated.Priority)
	assert.Equal(t, "", updated.AdminComment)
	assert.False(t, store.rows[seeded.ID].IsReadByReporter)

	count, err := svc.UnreadCount(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAdminUpdateRejectsUnknownValues(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	seeded := store.seed("alice", "Heating", models.ComplaintPriorityMedium, models.ComplaintStatusOpen, true)

	_, err := svc.AdminUpdate(context.Background(), staff, seeded.ID, dto.AdminUpdateComplaintRequest{Status: ptr(models.ComplaintStatus("archived"))})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Details, "status")

	_, err = svc.AdminUpdate(context.Background(), staff, seeded.ID, dto.AdminUpdateComplaintRequest{Priority: ptr(models.ComplaintPriority(""))})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Details, "priority")
	assert.True(t, store.rows[seeded.ID].IsReadByReporter)
	assert.Zero(t, store.saves)
}

func TestAdminUpdateAuthorization(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	seeded := store.seed("alice", "Heating", models.ComplaintPriorityMedium, models.ComplaintStatusOpen, true)

	_, err := svc.AdminUpdate(context.Background(), alice, seeded.ID, dto.AdminUpdateComplaintRequest{Status: ptr(models.ComplaintStatusResolved)})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, models.ComplaintStatusOpen, store.rows[seeded.ID].Status)

	_, err = svc.AdminUpdate(context.Background(), staff, 404, dto.AdminUpdateComplaintRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportIgnoresPagination(t *testing.T) {
	store := newFakeComplaintStore()
	svc, _, _ := newTestComplaintService(t, store)
	for i := 0; i < 25; i++ {
		store.seed("alice", "c", models.ComplaintPriorityLow, models.ComplaintStatusOpen, true)
	}

	_, err := svc.Export(context.Background(), alice, dto.AdminComplaintFilter{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	all, err := svc.Export(context.Background(), staff, dto.AdminComplaintFilter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, all, 25)
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "photo.png", downloadName("complaint_attachments/123e4567-e89b-12d3-a456-426614174000_photo.png"))
	assert.Equal(t, "legacy_file.png", downloadName("complaint_attachments/legacy_file.png"))
}
