package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/security"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

// memStore is an in-memory stand-in for every repository and the transaction manager.
type memStore struct {
	mu         sync.Mutex
	clients    map[string]domain.Client
	tokens     map[domain.TokenKind]map[string]domain.StoredToken
	steps      []domain.OnboardingStep
	progress   map[string]domain.OnboardingProgress
	stepRows   map[string]domain.StepProgress
	documents  map[string]domain.Document
	activity   []domain.AdminActivityLog
	failAppend error
}

func newMemStore() *memStore {
	return &memStore{
		clients: map[string]domain.Client{},
		tokens: map[domain.TokenKind]map[string]domain.StoredToken{
			domain.TokenKindRefresh:           {},
			domain.TokenKindPasswordReset:     {},
			domain.TokenKindEmailVerification: {},
		},
		steps:     defaultSteps(),
		progress:  map[string]domain.OnboardingProgress{},
		stepRows:  map[string]domain.StepProgress{},
		documents: map[string]domain.Document{},
	}
}

func defaultSteps() []domain.OnboardingStep {
	return []domain.OnboardingStep{
		{ID: "step-1", StepNumber: 1, Name: domain.StepNamePersonalInfo, Title: "Personal Information", IsRequired: true},
		{ID: "step-2", StepNumber: 2, Name: domain.StepNameDocumentUpload, Title: "Document Upload", IsRequired: true},
		{ID: "step-3", StepNumber: 3, Name: domain.StepNameVerification, Title: "Verification", IsRequired: true},
		{ID: "step-4", StepNumber: 4, Name: domain.StepNameFinalSetup, Title: "Final Setup", IsRequired: true},
	}
}

func (s *memStore) repos() port.Repositories {
	return port.Repositories{
		Clients:    memClients{s},
		Tokens:     memTokens{s},
		Onboarding: memOnboarding{s},
		Documents:  memDocuments{s},
		Activity:   memActivity{s},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return fn(ctx, s.repos())
}

func (s *memStore) Steps(context.Context) (domain.StepCatalog, error) {
	return domain.NewStepCatalog(s.steps), nil
}

func (s *memStore) refreshCount(clientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens[domain.TokenKindRefresh] {
		if t.ClientID == clientID {
			n++
		}
	}
	return n
}

func (s *memStore) addToken(kind domain.TokenKind, t domain.StoredToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[kind][t.ID] = t
}

func (s *memStore) addClient(c domain.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *memStore) addDocument(d domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[d.ID] = d
}

func (s *memStore) client(id string) domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients[id]
}

func (s *memStore) activityEntries() []domain.AdminActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AdminActivityLog(nil), s.activity...)
}

type memClients struct{ s *memStore }

func (r memClients) Create(_ context.Context, c domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.clients {
		if existing.Email == c.Email {
			return repository.ErrConflict
		}
	}
	r.s.clients[c.ID] = c
	return nil
}

func (r memClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r memClients) GetByEmail(_ context.Context, email string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clients {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memClients) UpdateProfile(_ context.Context, id string, u domain.ProfileUpdate, at time.Time) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		c.LastName = *u.LastName
	}
	if u.Company != nil {
		c.Company = u.Company
	}
	if u.Phone != nil {
		c.Phone = u.Phone
	}
	if u.AvatarURL != nil {
		c.AvatarURL = u.AvatarURL
	}
	c.UpdatedAt = at
	r.s.clients[id] = c
	return &c, nil
}

func (r memClients) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.PasswordHash = hash
	c.UpdatedAt = at
	r.s.clients[id] = c
	return nil
}

func (r memClients) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.EmailVerified = true
	c.UpdatedAt = at
	r.s.clients[id] = c
	return nil
}

// Delete mirrors the ON DELETE CASCADE foreign keys of the schema.
func (r memClients) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.clients, id)
	for _, rows := range r.s.tokens {
		for tid, t := range rows {
			if t.ClientID == id {
				delete(rows, tid)
			}
		}
	}
	if p, ok := r.s.progress[id]; ok {
		for key, row := range r.s.stepRows {
			if row.ProgressID == p.ID {
				delete(r.s.stepRows, key)
			}
		}
		delete(r.s.progress, id)
	}
	for did, d := range r.s.documents {
		if d.ClientID == id {
			delete(r.s.documents, did)
		}
	}
	return nil
}

func (r memClients) List(_ context.Context, f domain.ClientFilter) ([]domain.ClientSummary, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ClientSummary
	for _, c := range r.s.clients {
		if f.Role != "" && c.Role != f.Role {
			continue
		}
		if f.Search != "" && !strings.Contains(c.Email, f.Search) {
			continue
		}
		out = append(out, domain.ClientSummary{Client: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client.Email < out[j].Client.Email })
	return out, len(out), nil
}

type memTokens struct{ s *memStore }

func (r memTokens) Create(_ context.Context, kind domain.TokenKind, t domain.StoredToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[kind][t.ID] = t
	return nil
}

func (r memTokens) GetByHash(_ context.Context, kind domain.TokenKind, hash string) (*domain.StoredToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens[kind] {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memTokens) Delete(_ context.Context, kind domain.TokenKind, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[kind][id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tokens[kind], id)
	return nil
}

func (r memTokens) DeleteForClient(_ context.Context, kind domain.TokenKind, clientID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, t := range r.s.tokens[kind] {
		if t.ClientID == clientID {
			delete(r.s.tokens[kind], id)
			n++
		}
	}
	return n, nil
}

type memOnboarding struct{ s *memStore }

func (r memOnboarding) ListSteps(context.Context) ([]domain.OnboardingStep, error) {
	return append([]domain.OnboardingStep(nil), r.s.steps...), nil
}

func (r memOnboarding) CreateProgress(_ context.Context, p domain.OnboardingProgress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.progress[p.ClientID]; ok {
		return repository.ErrConflict
	}
	r.s.progress[p.ClientID] = p
	return nil
}

func (r memOnboarding) GetProgress(_ context.Context, clientID string) (*domain.OnboardingProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.progress[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r memOnboarding) GetProgressForUpdate(ctx context.Context, clientID string) (*domain.OnboardingProgress, error) {
	return r.GetProgress(ctx, clientID)
}

func (r memOnboarding) UpdateProgress(_ context.Context, p domain.OnboardingProgress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.progress[p.ClientID]; !ok {
		return repository.ErrNotFound
	}
	r.s.progress[p.ClientID] = p
	return nil
}

func (r memOnboarding) ListStepProgress(_ context.Context, progressID string) ([]domain.StepProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.StepProgress
	for _, row := range r.s.stepRows {
		if row.ProgressID == progressID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r memOnboarding) UpsertStepProgress(_ context.Context, row domain.StepProgress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := row.ProgressID + "/" + row.StepID
	if existing, ok := r.s.stepRows[key]; ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	}
	r.s.stepRows[key] = row
	return nil
}

type memDocuments struct{ s *memStore }

func (r memDocuments) Create(_ context.Context, d domain.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.documents[d.ID] = d
	return nil
}

func (r memDocuments) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r memDocuments) GetWithOwner(_ context.Context, id string) (*domain.DocumentWithOwner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := r.s.clients[d.ClientID]
	return &domain.DocumentWithOwner{
		Document: d,
		Owner:    domain.DocumentOwner{ClientID: c.ID, Email: c.Email, FirstName: c.FirstName, LastName: c.LastName},
	}, nil
}

func (r memDocuments) List(_ context.Context, f domain.DocumentFilter) ([]domain.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Document
	for _, d := range r.s.documents {
		if f.ClientID != "" && d.ClientID != f.ClientID {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if f.Status != "" && d.VerificationStatus != f.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r memDocuments) ListWithOwner(ctx context.Context, f domain.DocumentFilter) ([]domain.DocumentWithOwner, int, error) {
	docs, _ := r.List(ctx, f)
	out := make([]domain.DocumentWithOwner, 0, len(docs))
	for _, d := range docs {
		full, _ := r.GetWithOwner(ctx, d.ID)
		out = append(out, *full)
	}
	return out, len(out), nil
}

func (r memDocuments) DeleteOwned(_ context.Context, id, clientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok || d.ClientID != clientID {
		return repository.ErrNotFound
	}
	delete(r.s.documents, id)
	return nil
}

func (r memDocuments) ListKeysForClient(_ context.Context, clientID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var keys []string
	for _, d := range r.s.documents {
		if d.ClientID == clientID && d.FileKey != "" {
			keys = append(keys, d.FileKey)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r memDocuments) UpdateStatus(_ context.Context, id string, status domain.VerificationStatus, reason *string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.VerificationStatus = status
	d.RejectionReason = reason
	d.VerifiedAt = &at
	r.s.documents[id] = d
	return nil
}

func (r memDocuments) ApprovePending(_ context.Context, ids []string, at time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for _, id := range ids {
		d, ok := r.s.documents[id]
		if !ok || d.VerificationStatus != domain.VerificationPending {
			continue
		}
		d.VerificationStatus = domain.VerificationApproved
		d.VerifiedAt = &at
		r.s.documents[id] = d
		out = append(out, id)
	}
	return out, nil
}

func (r memDocuments) ApprovePendingForClient(_ context.Context, clientID string, at time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for id, d := range r.s.documents {
		if d.ClientID != clientID || d.VerificationStatus != domain.VerificationPending {
			continue
		}
		d.VerificationStatus = domain.VerificationApproved
		d.VerifiedAt = &at
		r.s.documents[id] = d
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

type memActivity struct{ s *memStore }

func (r memActivity) Append(_ context.Context, e domain.AdminActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAppend != nil {
		return r.s.failAppend
	}
	r.s.activity = append(r.s.activity, e)
	return nil
}

func (r memActivity) List(_ context.Context, limit, offset int) ([]domain.ActivityEntry, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := len(r.s.activity)
	var out []domain.ActivityEntry
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, domain.ActivityEntry{AdminActivityLog: r.s.activity[i]})
	}
	return out, total, nil
}

type memStats struct{ s *memStore }

func (r memStats) CountClients(_ context.Context, role domain.Role) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.clients {
		if c.Role == role {
			n++
		}
	}
	return n, nil
}

func (r memStats) CountOnboarding(_ context.Context, status domain.OnboardingStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.progress {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

func (r memStats) CountDocuments(_ context.Context, status domain.VerificationStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, d := range r.s.documents {
		if status == "" || d.VerificationStatus == status {
			n++
		}
	}
	return n, nil
}

// plainHasher keeps tests fast; Argon2 is covered in the security package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain$" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "plain$"+password, nil
}

type sentMail struct {
	kind string
	to   string
	link string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, _, link string) error {
	return m.record("verify", to, link)
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, to, _, link string) error {
	return m.record("reset", to, link)
}

func (m *recordingMailer) record(kind, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, link: link})
	return nil
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("expected an email to be sent")
	}
	return m.sent[len(m.sent)-1]
}

type recordingEvents struct {
	mu       sync.Mutex
	types    []string
	reviewed []domain.DocumentReviewedEvent
}

func (e *recordingEvents) add(kind string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, kind)
	return nil
}

func (e *recordingEvents) PublishClientRegistered(context.Context, domain.ClientRegisteredEvent) error {
	return e.add("client.registered")
}

func (e *recordingEvents) PublishStepCompleted(context.Context, domain.StepCompletedEvent) error {
	return e.add("onboarding.step.completed")
}

func (e *recordingEvents) PublishOnboardingCompleted(context.Context, domain.OnboardingCompletedEvent) error {
	return e.add("onboarding.completed")
}

func (e *recordingEvents) PublishDocumentUploaded(context.Context, domain.DocumentUploadedEvent) error {
	return e.add("document.uploaded")
}

func (e *recordingEvents) PublishDocumentReviewed(_ context.Context, ev domain.DocumentReviewedEvent) error {
	e.mu.Lock()
	e.reviewed = append(e.reviewed, ev)
	e.mu.Unlock()
	return e.add("document.reviewed")
}

func (e *recordingEvents) count(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, k := range e.types {
		if k == kind {
			n++
		}
	}
	return n
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeStorage) PresignPut(_ context.Context, key, contentType string, _ int64) (port.PresignedUpload, error) {
	if f.err != nil {
		return port.PresignedUpload{}, f.err
	}
	return port.PresignedUpload{
		URL:       "https://storage.test/" + key + "?signed=1",
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresAt: time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC),
	}, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.err
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type countingMetrics struct {
	mu       sync.Mutex
	steps    []string
	finished int
	uploaded int
	reviewed map[string]int
}

func (m *countingMetrics) StepCompleted(step string, finished bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step)
	if finished {
		m.finished++
	}
}

func (m *countingMetrics) DocumentUploaded(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded++
}

func (m *countingMetrics) DocumentReviewed(status string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reviewed == nil {
		m.reviewed = map[string]int{}
	}
	m.reviewed[status] += n
}

// harness wires every service over one memStore.
type harness struct {
	store      *memStore
	mailer     *recordingMailer
	events     *recordingEvents
	storage    *fakeStorage
	now        time.Time
	tokens     *TokenService
	auth       *AuthService
	profile    *ProfileService
	onboarding *OnboardingService
	documents  *DocumentService
	admin      *AdminService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	issuer, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  "access-secret-for-tests-0123456789abcdef",
		RefreshSecret: "refresh-secret-for-tests-0123456789abcdef",
		Issuer:        "onboard-test",
	})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	h := &harness{
		store:   newMemStore(),
		mailer:  &recordingMailer{},
		events:  &recordingEvents{},
		storage: &fakeStorage{},
		now:     time.Now().UTC(),
	}
	clock := func() time.Time { return h.now }
	policy := security.DefaultPasswordValidator()
	repos := h.store.repos()

	h.tokens = NewTokenService(issuer, repos.Tokens, h.store, nil).WithClock(clock)
	h.auth = NewAuthService(repos.Clients, h.store, h.tokens, plainHasher{}, policy, h.mailer, h.events, AuthSettings{
		FrontendURL: "https://app.test/",
	}, nil).WithClock(clock)
	h.profile = NewProfileService(repos.Clients, repos.Onboarding, repos.Documents, h.tokens, plainHasher{}, policy, h.storage, nil).WithClock(clock)
	h.onboarding = NewOnboardingService(repos.Onboarding, h.store, h.store, h.events, nil).WithClock(clock)
	h.documents = NewDocumentService(repos.Documents, h.storage, h.events, DocumentSettings{
		MaxFileSize:  10 << 20,
		AllowedTypes: []string{"application/pdf", "image/png"},
	}, nil).WithClock(clock)
	h.admin = NewAdminService(repos.Clients, repos.Onboarding, repos.Documents, repos.Activity, memStats{h.store}, h.store, h.events, nil).WithClock(clock)
	return h
}

func (h *harness) signup(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := h.auth.Signup(context.Background(), SignupInput{
		Email:     email,
		Password:  "Secure123",
		FirstName: "Test",
		LastName:  "Client",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return res
}

func (h *harness) seedDocument(clientID, id string, status domain.VerificationStatus) {
	h.store.addDocument(domain.Document{
		ID:                 id,
		ClientID:           clientID,
		FileName:           id + ".pdf",
		FileURL:            "https://cdn.test/" + id,
		FileKey:            "clients/" + clientID + "/" + id + ".pdf",
		FileType:           "application/pdf",
		FileSize:           1024,
		Category:           domain.CategoryIDDocument,
		VerificationStatus: status,
		UploadedAt:         h.now,
	})
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	idx := strings.Index(link, "token=")
	if idx < 0 {
		t.Fatalf("link %q carries no token", link)
	}
	return link[idx+len("token="):]
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

var errBoom = errors.New("boom")

func asDomainError(err error, target **domain.Error) bool {
	return errors.As(err, target)
}
