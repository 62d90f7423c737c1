package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"ischolar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the persistence contracts the
// services rely on (not-found errors, unique indexes, ordering) so the
// business rules can be exercised without a database.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- profiles ---

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*model.Profile
}

func newFakeProfileRepo(profiles ...*model.Profile) *fakeProfileRepo {
	repo := &fakeProfileRepo{profiles: make(map[uuid.UUID]*model.Profile)}
	for _, p := range profiles {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		repo.profiles[p.ID] = p
	}
	return repo
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.Email == profile.Email || existing.UserID == profile.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	r.profiles[profile.ID] = profile
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) ListByRoles(_ context.Context, roles []string) ([]model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(roles))
	for _, role := range roles {
		wanted[role] = true
	}
	var result []model.Profile
	for _, p := range r.profiles {
		if wanted[p.Role] {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (r *fakeProfileRepo) ListByVerificationStatus(_ context.Context, statuses []string, page, limit int) ([]model.Profile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var matched []model.Profile
	for _, p := range r.profiles {
		if wanted[p.VerificationStatus] {
			matched = append(matched, *p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Email < matched[j].Email })
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *fakeProfileRepo) UpdateVerificationStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.VerificationStatus = status
	return nil
}

// --- pending users and refresh tokens ---

type fakePendingUserRepo struct {
	mu      sync.Mutex
	pending map[uuid.UUID]*model.PendingUser
}

func newFakePendingUserRepo() *fakePendingUserRepo {
	return &fakePendingUserRepo{pending: make(map[uuid.UUID]*model.PendingUser)}
}

func (r *fakePendingUserRepo) Upsert(_ context.Context, pending *model.PendingUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.pending {
		if existing.Email == pending.Email {
			pending.ID = id
			copied := *pending
			r.pending[id] = &copied
			return nil
		}
	}
	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	copied := *pending
	r.pending[pending.ID] = &copied
	return nil
}

func (r *fakePendingUserRepo) GetByEmail(_ context.Context, email string) (*model.PendingUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pending {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePendingUserRepo) GetByToken(_ context.Context, token string) (*model.PendingUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pending {
		if p.VerificationToken == token {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePendingUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
	return nil
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	copied := *token
	r.tokens[token.Token] = &copied
	return nil
}

func (r *fakeRefreshTokenRepo) GetByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteByProfile(_ context.Context, profileID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, t := range r.tokens {
		if t.ProfileID == profileID {
			delete(r.tokens, key)
		}
	}
	return nil
}

// --- mail ---

type sentMail struct {
	To    string
	Name  string
	Token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to})
	return nil
}

func (m *fakeMailer) SendVerificationEmail(to, name, token string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Name: name, Token: token})
	return nil
}

// --- verification documents ---

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*model.VerificationDocument
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[uuid.UUID]*model.VerificationDocument)}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *model.VerificationDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.VerificationDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDocumentRepo) ListByProfile(_ context.Context, profileID uuid.UUID) ([]model.VerificationDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.VerificationDocument
	for _, d := range r.docs {
		if d.ProfileID == profileID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeDocumentRepo) Update(_ context.Context, doc *model.VerificationDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

// --- audit log ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []model.AuditLog
	for _, e := range r.entries {
		if action == "" || e.Action == action {
			matched = append(matched, e)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *fakeAuditRepo) byAction(action string) []model.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []model.AuditLog
	for _, e := range r.entries {
		if e.Action == action {
			matched = append(matched, e)
		}
	}
	return matched
}

// --- notifications ---

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	createErr     error // force failures for best-effort paths
	clock         time.Time
}

func (r *fakeNotificationRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	notification.ID = uuid.New()
	notification.CreatedAt = r.tick()
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) CreateBatch(_ context.Context, notifications []model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	at := r.tick()
	for i := range notifications {
		notifications[i].ID = uuid.New()
		notifications[i].CreatedAt = at
	}
	r.notifications = append(r.notifications, notifications...)
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			copied := n
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, profileID uuid.UUID, limit int, unreadOnly bool) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Notification
	for _, n := range r.notifications {
		if n.ProfileID != profileID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	// Unread first, then newest first, matching the SQL ordering
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].IsRead != result[j].IsRead {
			return !result[i].IsRead
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, profileID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.ProfileID == profileID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, profileID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == id && n.ProfileID == profileID {
			r.notifications[i].IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, profileID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for i, n := range r.notifications {
		if n.ProfileID == profileID && !n.IsRead {
			r.notifications[i].IsRead = true
			affected++
		}
	}
	return affected, nil
}

func (r *fakeNotificationRepo) forRecipient(profileID uuid.UUID) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Notification
	for _, n := range r.notifications {
		if n.ProfileID == profileID {
			result = append(result, n)
		}
	}
	return result
}

// --- program cycles and requirements ---

type fakeCycleRepo struct {
	mu       sync.Mutex
	cycles   map[uuid.UUID]*model.ProgramCycle
	approved map[uuid.UUID]int64
}

func newFakeCycleRepo(cycles ...*model.ProgramCycle) *fakeCycleRepo {
	repo := &fakeCycleRepo{
		cycles:   make(map[uuid.UUID]*model.ProgramCycle),
		approved: make(map[uuid.UUID]int64),
	}
	for _, c := range cycles {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		repo.cycles[c.ID] = c
	}
	return repo
}

func (r *fakeCycleRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ProgramCycle, error) {
	return r.GetByIDWithProgram(context.Background(), id)
}

func (r *fakeCycleRepo) GetByIDWithProgram(_ context.Context, id uuid.UUID) (*model.ProgramCycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cycles[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCycleRepo) ListOpen(_ context.Context, now time.Time) ([]model.ProgramCycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.ProgramCycle
	for _, c := range r.cycles {
		if !now.Before(c.OpenAt) && now.Before(c.CloseAt) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AyTerm < result[j].AyTerm })
	return result, nil
}

func (r *fakeCycleRepo) ListAllWithProgram(_ context.Context) ([]model.ProgramCycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.ProgramCycle
	for _, c := range r.cycles {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Program.Name < result[j].Program.Name })
	return result, nil
}

func (r *fakeCycleRepo) CountApprovedApplications(_ context.Context, cycleID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approved[cycleID], nil
}

func (r *fakeCycleRepo) SetLastAlertAt(_ context.Context, cycleID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cycles[cycleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	alertAt := at
	c.LastAlertAt = &alertAt
	return nil
}

type fakeRequirementRepo struct {
	requirements map[uuid.UUID]*model.Requirement
}

func newFakeRequirementRepo(requirements ...*model.Requirement) *fakeRequirementRepo {
	repo := &fakeRequirementRepo{requirements: make(map[uuid.UUID]*model.Requirement)}
	for _, req := range requirements {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		repo.requirements[req.ID] = req
	}
	return repo
}

func (r *fakeRequirementRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Requirement, error) {
	if req, ok := r.requirements[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRequirementRepo) ListByCycle(_ context.Context, cycleID uuid.UUID) ([]model.Requirement, error) {
	var result []model.Requirement
	for _, req := range r.requirements {
		if req.ProgramCycleID == cycleID {
			result = append(result, *req)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

// --- applications ---

type fakeApplicationRepo struct {
	mu    sync.Mutex
	apps  map[uuid.UUID]*model.Application
	files map[uuid.UUID]*model.ApplicationFile
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{
		apps:  make(map[uuid.UUID]*model.Application),
		files: make(map[uuid.UUID]*model.ApplicationFile),
	}
}

func (r *fakeApplicationRepo) Create(_ context.Context, app *model.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Same contract as the composite unique index on (student_id, program_cycle_id)
	for _, existing := range r.apps {
		if existing.StudentID == app.StudentID && existing.ProgramCycleID == app.ProgramCycleID {
			return gorm.ErrDuplicatedKey
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	copied := *app
	r.apps[app.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if app, ok := r.apps[id]; ok {
		copied := *app
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeApplicationRepo) GetByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeApplicationRepo) GetByStudentAndCycle(_ context.Context, studentID, cycleID uuid.UUID) (*model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.StudentID == studentID && app.ProgramCycleID == cycleID {
			copied := *app
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeApplicationRepo) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Application
	for _, app := range r.apps {
		if app.StudentID == studentID {
			result = append(result, *app)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubmittedAt.After(result[j].SubmittedAt) })
	return result, nil
}

func (r *fakeApplicationRepo) List(_ context.Context, status string, page, limit int) ([]model.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []model.Application
	for _, app := range r.apps {
		if status == "" || app.Status == status {
			matched = append(matched, *app)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].SubmittedAt.After(matched[j].SubmittedAt) })
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeApplicationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	app.Status = status
	return nil
}

func (r *fakeApplicationRepo) CreateFile(_ context.Context, file *model.ApplicationFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	copied := *file
	r.files[file.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) GetFileByID(_ context.Context, id uuid.UUID) (*model.ApplicationFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeApplicationRepo) UpdateFile(_ context.Context, file *model.ApplicationFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[file.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *file
	r.files[file.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, app := range r.apps {
		if app.Status == status {
			count++
		}
	}
	return count, nil
}

// --- storage ---

type fakeUploader struct {
	stored []string
	err    error
}

func (u *fakeUploader) Store(_ io.Reader, folder, fileName string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	path := fmt.Sprintf("%s/%s", folder, fileName)
	u.stored = append(u.stored, path)
	return path, nil
}
