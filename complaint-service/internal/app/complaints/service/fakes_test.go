package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
	"reviewguard/complaint-service/internal/app/complaints/repository"

	"github.com/google/uuid"
)

// testClock - управляемые часы для проверок смены суток
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memDB - in-memory хранилище с теми же гарантиями compare-and-set, что и PostgreSQL репозитории
type memDB struct {
	mu         sync.Mutex
	clock      *testClock
	seq        int
	stores     map[uuid.UUID]*entity.Store
	products   map[uuid.UUID]*entity.Product
	reviews    map[uuid.UUID]*entity.Review
	complaints map[uuid.UUID]*entity.Complaint
	jobs       map[uuid.UUID]*entity.BackfillJob
	quota      map[string]int
	locks      map[string]string
}

func newMemDB(clock *testClock) *memDB {
	return &memDB{
		clock:      clock,
		stores:     make(map[uuid.UUID]*entity.Store),
		products:   make(map[uuid.UUID]*entity.Product),
		reviews:    make(map[uuid.UUID]*entity.Review),
		complaints: make(map[uuid.UUID]*entity.Complaint),
		jobs:       make(map[uuid.UUID]*entity.BackfillJob),
		quota:      make(map[string]int),
		locks:      make(map[string]string),
	}
}

// touch возвращает строго возрастающую отметку времени, как updated_at в БД
func (db *memDB) touch() time.Time {
	db.seq++
	return db.clock.Now().Add(time.Duration(db.seq) * time.Microsecond)
}

func (db *memDB) addStore(s entity.Store) *entity.Store {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	db.stores[s.ID] = &s
	return &s
}

func (db *memDB) addProduct(p entity.Product) *entity.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	db.products[p.ID] = &p
	return &p
}

func (db *memDB) addReview(r entity.Review) *entity.Review {
	db.mu.Lock()
	defer db.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = entity.ReviewStatusPending
	}
	r.UpdatedAt = db.touch()
	db.reviews[r.ID] = &r
	return &r
}

func (db *memDB) review(id uuid.UUID) entity.Review {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.reviews[id]
}

func (db *memDB) job(id uuid.UUID) entity.BackfillJob {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.jobs[id]
}

func (db *memDB) complaintCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.complaints)
}

func (db *memDB) repos() (*fakeStores, *fakeProducts, *fakeReviews, *fakeComplaints, *fakeJobs, *fakeQuota, *fakeLocks) {
	return &fakeStores{db}, &fakeProducts{db}, &fakeReviews{db}, &fakeComplaints{db}, &fakeJobs{db}, &fakeQuota{db}, &fakeLocks{db}
}

type fakeStores struct{ db *memDB }

func (f *fakeStores) GetByID(_ context.Context, id uuid.UUID) (*entity.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.stores[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStores) ListActive(_ context.Context) ([]entity.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []entity.Store
	for _, s := range f.db.stores {
		if s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStores) SetActive(_ context.Context, id uuid.UUID, active bool) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.stores[id]
	if !ok {
		return false, repository.ErrStoreNotFound
	}
	if s.IsActive == active {
		return false, nil
	}
	s.IsActive = active
	return true, nil
}

func (f *fakeStores) UpdateQuotas(_ context.Context, id uuid.UUID, daily, hourly *int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.stores[id]
	if !ok {
		return repository.ErrStoreNotFound
	}
	if daily != nil {
		s.DailyComplaintQuota = *daily
	}
	if hourly != nil {
		s.HourlyComplaintQuota = *hourly
	}
	return nil
}

func (f *fakeStores) SetExtensionKeyHash(_ context.Context, id uuid.UUID, hash string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.stores[id]
	if !ok {
		return repository.ErrStoreNotFound
	}
	s.ExtensionKeyHash = hash
	return nil
}

func (f *fakeStores) TouchReviewSync(_ context.Context, id uuid.UUID, at time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if s, ok := f.db.stores[id]; ok {
		s.LastReviewSyncAt = &at
	}
	return nil
}

type fakeProducts struct{ db *memDB }

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) GetByArticul(_ context.Context, storeID uuid.UUID, articul string) (*entity.Product, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.products {
		if p.StoreID == storeID && p.Articul == articul {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *fakeProducts) SetActive(_ context.Context, id uuid.UUID, active bool) (bool, error) {
	return f.flip(id, func(p *entity.Product) *bool { return &p.IsActive }, active)
}

func (f *fakeProducts) SetSubmitComplaints(_ context.Context, id uuid.UUID, enabled bool) (bool, error) {
	return f.flip(id, func(p *entity.Product) *bool { return &p.SubmitComplaints }, enabled)
}

func (f *fakeProducts) flip(id uuid.UUID, field func(*entity.Product) *bool, value bool) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.products[id]
	if !ok {
		return false, repository.ErrProductNotFound
	}
	flag := field(p)
	if *flag == value {
		return false, nil
	}
	*flag = value
	return true, nil
}

type fakeReviews struct{ db *memDB }

func (f *fakeReviews) InsertIfAbsent(_ context.Context, review *entity.Review) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.reviews {
		if r.StoreID == review.StoreID && r.ExternalFeedbackID == review.ExternalFeedbackID {
			return false, nil
		}
	}
	cp := *review
	cp.UpdatedAt = f.db.touch()
	f.db.reviews[cp.ID] = &cp
	return true, nil
}

func (f *fakeReviews) GetByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviews) Transition(_ context.Context, id uuid.UUID, from []entity.ReviewStatus, change entity.ReviewTransition) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reviews[id]
	if !ok || !containsStatus(from, r.Status) {
		return false, nil
	}
	r.Status = change.To
	r.IneligibleReason = change.IneligibleReason
	r.FailureReason = change.FailureReason
	r.RetryEligible = change.RetryEligible
	if change.CountAttempt {
		r.AttemptCount++
	}
	r.UpdatedAt = f.db.touch()
	return true, nil
}

func (f *fakeReviews) List(_ context.Context, filter entity.ReviewFilter, after *entity.ReviewCursor, limit int) ([]entity.Review, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	matched := f.match(filter)
	sort.Slice(matched, func(i, j int) bool { return reviewLess(matched[i], matched[j]) })

	var out []entity.Review
	for _, r := range matched {
		if after != nil && !reviewLess(entity.Review{FeedbackDate: after.FeedbackDate, ID: after.ReviewID}, r) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReviews) Count(_ context.Context, filter entity.ReviewFilter) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return int64(len(f.match(filter))), nil
}

func (f *fakeReviews) match(filter entity.ReviewFilter) []entity.Review {
	var out []entity.Review
	for _, r := range f.db.reviews {
		switch {
		case filter.StoreID != uuid.Nil && r.StoreID != filter.StoreID:
			continue
		case filter.ProductID != nil && !matchesProduct(*r, filter):
			continue
		case len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, r.Status):
			continue
		case filter.From != nil && r.FeedbackDate.Before(*filter.From):
			continue
		case filter.To != nil && !r.FeedbackDate.Before(*filter.To):
			continue
		case filter.UpdatedBefore != nil && !r.UpdatedAt.Before(*filter.UpdatedBefore):
			continue
		case filter.RetryEligibleOnly && !r.RetryEligible:
			continue
		case filter.MaxAttempts > 0 && r.AttemptCount >= filter.MaxAttempts:
			continue
		}
		out = append(out, *r)
	}
	return out
}

// matchesProduct повторяет условие (product_id = ? OR (product_id IS NULL AND articul = ?))
func matchesProduct(r entity.Review, filter entity.ReviewFilter) bool {
	if r.ProductID != nil {
		return *r.ProductID == *filter.ProductID
	}
	return filter.Articul != "" && r.Articul == filter.Articul
}

func reviewLess(a, b entity.Review) bool {
	if !a.FeedbackDate.Equal(b.FeedbackDate) {
		return a.FeedbackDate.Before(b.FeedbackDate)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func containsStatus(list []entity.ReviewStatus, s entity.ReviewStatus) bool {
	for _, st := range list {
		if st == s {
			return true
		}
	}
	return false
}

type fakeComplaints struct{ db *memDB }

func (f *fakeComplaints) CreateForReview(_ context.Context, complaint *entity.Complaint) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reviews[complaint.ReviewID]
	if !ok || r.Status != entity.ReviewStatusEligible {
		return false, nil
	}
	for _, c := range f.db.complaints {
		if c.ReviewID == complaint.ReviewID {
			return false, nil
		}
	}
	r.Status = entity.ReviewStatusComplaintGenerated
	r.UpdatedAt = f.db.touch()
	cp := *complaint
	cp.CreatedAt = f.db.touch()
	f.db.complaints[cp.ID] = &cp
	return true, nil
}

func (f *fakeComplaints) GetByID(_ context.Context, id uuid.UUID) (*entity.Complaint, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.complaints[id]
	if !ok {
		return nil, repository.ErrComplaintNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeComplaints) ListSubmittable(_ context.Context, maxAttempts, limit int) ([]entity.Complaint, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []entity.Complaint
	for _, c := range f.db.complaints {
		if c.Status == entity.ComplaintStatusDraft && c.SubmitAttempts < maxAttempts && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComplaints) MarkSubmitted(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.complaints[id]
	if !ok || c.Status != entity.ComplaintStatusDraft {
		return false, nil
	}
	c.Status = entity.ComplaintStatusSubmitted
	c.SubmittedAt = &at
	if r, ok := f.db.reviews[c.ReviewID]; ok {
		r.Status = entity.ReviewStatusComplaintSubmitted
	}
	return true, nil
}

func (f *fakeComplaints) MarkRejected(_ context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.complaints[id]
	if !ok || c.Status != entity.ComplaintStatusDraft {
		return false, nil
	}
	c.Status = entity.ComplaintStatusRejected
	c.RejectionReason = reason
	c.ResolvedAt = &at
	return true, nil
}

func (f *fakeComplaints) RecordSubmitFailure(_ context.Context, id uuid.UUID, errMsg string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if c, ok := f.db.complaints[id]; ok {
		c.SubmitAttempts++
		c.LastError = errMsg
	}
	return nil
}

func (f *fakeComplaints) Resolve(_ context.Context, id uuid.UUID, status entity.ComplaintStatus, at time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.complaints[id]
	if !ok || c.Status != entity.ComplaintStatusSubmitted {
		return false, nil
	}
	c.Status = status
	c.ResolvedAt = &at
	return true, nil
}

func (f *fakeComplaints) ExpireDrafts(_ context.Context, createdBefore time.Time) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for _, c := range f.db.complaints {
		if c.Status == entity.ComplaintStatusDraft && c.CreatedAt.Before(createdBefore) {
			c.Status = entity.ComplaintStatusExpired
			n++
		}
	}
	return n, nil
}

type fakeJobs struct{ db *memDB }

func (f *fakeJobs) Create(_ context.Context, job *entity.BackfillJob) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	job.CreatedAt = f.db.touch()
	job.UpdatedAt = job.CreatedAt
	cp := *job
	f.db.jobs[cp.ID] = &cp
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*entity.BackfillJob, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	j, ok := f.db.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobs) ListClaimable(_ context.Context, staleBefore time.Time, excludeStores []uuid.UUID, limit int) ([]entity.BackfillJob, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	busy := make(map[uuid.UUID]bool)
	for _, id := range excludeStores {
		busy[id] = true
	}
	for _, j := range f.db.jobs {
		if j.Status == entity.JobStatusRunning && !j.UpdatedAt.Before(staleBefore) {
			busy[j.StoreID] = true
		}
	}

	// DISTINCT ON (store_id): самая старая подходящая задача магазина
	oldest := make(map[uuid.UUID]entity.BackfillJob)
	for _, j := range f.db.jobs {
		claimable := j.Status == entity.JobStatusQueued || j.Status == entity.JobStatusPausedQuota ||
			(j.Status == entity.JobStatusRunning && j.UpdatedAt.Before(staleBefore))
		if !claimable || busy[j.StoreID] {
			continue
		}
		if cur, ok := oldest[j.StoreID]; !ok || j.CreatedAt.Before(cur.CreatedAt) {
			oldest[j.StoreID] = *j
		}
	}

	out := make([]entity.BackfillJob, 0, len(oldest))
	for _, j := range oldest {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeJobs) Claim(_ context.Context, job *entity.BackfillJob) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	j, ok := f.db.jobs[job.ID]
	if !ok || j.Status != job.Status || !j.UpdatedAt.Equal(job.UpdatedAt) {
		return false, nil
	}
	j.Status = entity.JobStatusRunning
	j.RunCount++
	if j.StartedAt == nil {
		now := f.db.clock.Now()
		j.StartedAt = &now
	}
	j.UpdatedAt = f.db.touch()
	return true, nil
}

func (f *fakeJobs) SaveProgress(_ context.Context, id uuid.UUID, p entity.JobProgress) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	j, ok := f.db.jobs[id]
	if !ok || j.ProcessedCount > p.ProcessedCount {
		return false, nil
	}
	j.ProcessedCount = p.ProcessedCount
	j.GeneratedCount = p.GeneratedCount
	j.SkippedCount = p.SkippedCount
	j.FailedCount = p.FailedCount
	j.LastError = p.LastError
	if p.Cursor != nil {
		date, reviewID := p.Cursor.FeedbackDate, p.Cursor.ReviewID
		j.CursorFeedbackDate = &date
		j.CursorReviewID = &reviewID
	}
	j.UpdatedAt = f.db.touch()
	return true, nil
}

func (f *fakeJobs) Transition(_ context.Context, id uuid.UUID, from []entity.JobStatus, to entity.JobStatus, lastError string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	j, ok := f.db.jobs[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, st := range from {
		if st == j.Status {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	j.Status = to
	j.LastError = lastError
	if to.IsTerminal() {
		now := f.db.clock.Now()
		j.FinishedAt = &now
	}
	j.UpdatedAt = f.db.touch()
	return true, nil
}

func (f *fakeJobs) Heartbeat(_ context.Context, id uuid.UUID) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	j, ok := f.db.jobs[id]
	if !ok || j.Status != entity.JobStatusRunning {
		return false, nil
	}
	j.UpdatedAt = f.db.touch()
	return true, nil
}

type fakeQuota struct{ db *memDB }

func quotaKeys(key entity.QuotaKey) (string, string) {
	return fmt.Sprintf("%s|day|%s", key.StoreID, key.Day.Format(time.RFC3339)),
		fmt.Sprintf("%s|hour|%s", key.StoreID, key.Hour.Format(time.RFC3339))
}

func (f *fakeQuota) Reserve(_ context.Context, key entity.QuotaKey, count, dailyLimit, hourlyLimit int) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	day, hour := quotaKeys(key)
	if f.db.quota[day]+count > dailyLimit {
		return false, nil
	}
	if hourlyLimit > 0 && f.db.quota[hour]+count > hourlyLimit {
		return false, nil
	}
	f.db.quota[day] += count
	if hourlyLimit > 0 {
		f.db.quota[hour] += count
	}
	return true, nil
}

func (f *fakeQuota) Release(_ context.Context, key entity.QuotaKey, count int, hourly bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	day, hour := quotaKeys(key)
	keys := []string{day}
	if hourly {
		keys = append(keys, hour)
	}
	for _, k := range keys {
		f.db.quota[k] -= count
		if f.db.quota[k] < 0 {
			f.db.quota[k] = 0
		}
	}
	return nil
}

func (f *fakeQuota) Usage(_ context.Context, key entity.QuotaKey) (entity.QuotaUsage, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	day, hour := quotaKeys(key)
	return entity.QuotaUsage{StoreID: key.StoreID, Day: key.Day, UsedDay: f.db.quota[day], UsedHour: f.db.quota[hour]}, nil
}

type fakeLocks struct{ db *memDB }

func (f *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, held := f.db.locks[key]; held {
		return "", false, nil
	}
	token := uuid.NewString()
	f.db.locks[key] = token
	return token, true, nil
}

func (f *fakeLocks) Release(_ context.Context, key, token string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.locks[key] == token {
		delete(f.db.locks, key)
	}
	return nil
}

func (f *fakeLocks) Extend(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.locks[key] == token, nil
}

// stubTextGen отвечает текстом либо ошибкой, выбранной по тексту отзыва
type stubTextGen struct {
	mu     sync.Mutex
	calls  int
	errFor map[string]error
}

func (g *stubTextGen) Provider() string {
	return "stub"
}

func (g *stubTextGen) GenerateComplaintText(_ context.Context, prompt infrastructure.ComplaintPrompt) (*infrastructure.GeneratedText, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if err, ok := g.errFor[prompt.ReviewText]; ok {
		return nil, err
	}
	return &infrastructure.GeneratedText{Text: "complaint for " + prompt.Articul, ModelUsed: "stub-v1"}, nil
}

// testEnv собирает генератор и backfill поверх memDB
type testEnv struct {
	clock     *testClock
	db        *memDB
	stores    *fakeStores
	products  *fakeProducts
	reviews   *fakeReviews
	jobs      *fakeJobs
	textGen   *stubTextGen
	quota     *QuotaService
	generator *GeneratorService
	backfill  *BackfillService
}

var testCutoff = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

func newTestEnv(batchSize int) *testEnv {
	clock := newTestClock(time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC))
	db := newMemDB(clock)
	stores, products, reviews, complaints, jobs, quotaRepo, locks := db.repos()

	textGen := &stubTextGen{errFor: make(map[string]error)}
	quota := NewQuotaService(quotaRepo).WithClock(clock.Now)
	generator := NewGeneratorService(
		reviews, stores, products, complaints, nil, quota,
		NewRuleValidator(testCutoff, 3), textGen, NewEventPublisher(nil),
		config.GenerationConfig{MaxAttempts: 2, RetryBackoff: time.Millisecond},
	)

	backfill := NewBackfillService(jobs, reviews, stores, products, locks, quota, generator, NewEventPublisher(nil), config.BackfillConfig{
		BatchSize:         batchSize,
		MaxBatchesPerTick: 10,
		MaxJobsPerTick:    5,
		StaleAfter:        15 * time.Minute,
		LockTTL:           10 * time.Minute,
	})
	backfill.now = clock.Now

	return &testEnv{
		clock:     clock,
		db:        db,
		stores:    stores,
		products:  products,
		reviews:   reviews,
		jobs:      jobs,
		textGen:   textGen,
		quota:     quota,
		generator: generator,
		backfill:  backfill,
	}
}

// seedStore создает активный магазин с товаром, включенным для жалоб
func (e *testEnv) seedStore(dailyQuota int) (*entity.Store, *entity.Product) {
	store := e.db.addStore(entity.Store{Name: "store", IsActive: true, DailyComplaintQuota: dailyQuota})
	product := e.db.addProduct(entity.Product{StoreID: store.ID, Articul: "A-1", Name: "Кружка", IsActive: true, SubmitComplaints: true})
	return store, product
}

// seedReviews создает n негативных отзывов с возрастающей датой
func (e *testEnv) seedReviews(store *entity.Store, product *entity.Product, n int) []*entity.Review {
	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*entity.Review, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, e.db.addReview(entity.Review{
			StoreID:            store.ID,
			ProductID:          &product.ID,
			Articul:            product.Articul,
			ExternalFeedbackID: fmt.Sprintf("fb-%d", i),
			FeedbackDate:       base.Add(time.Duration(i) * time.Hour),
			Rating:             1,
			Text:               fmt.Sprintf("review %d", i),
		}))
	}
	return out
}
