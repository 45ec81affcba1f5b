package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"learnfinity/internal/domain/course"
	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/gap"
	"learnfinity/internal/domain/position"
	"learnfinity/internal/domain/taxonomy"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/events"
	"learnfinity/internal/llm"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

var errDown = errors.New("connection refused")

type fakeEmployees struct {
	mu   sync.Mutex
	byID map[uuid.UUID]employee.Employee
}

func newFakeEmployees(es ...employee.Employee) *fakeEmployees {
	f := &fakeEmployees{byID: map[uuid.UUID]employee.Employee{}}
	for _, e := range es {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEmployees) FindByID(_ context.Context, id uuid.UUID) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return employee.Employee{}, repository.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployees) FindByUserID(_ context.Context, userID uuid.UUID) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.UserID.Valid && e.UserID.UUID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, repository.ErrEmployeeNotFound
}

func (f *fakeEmployees) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeEmployees) List(context.Context, int, int) ([]employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]employee.Employee, 0, len(f.byID))
	for _, e := range f.byID {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEmployees) Create(_ context.Context, e employee.Employee) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.byID[e.ID] = e
	return e, nil
}

func (f *fakeEmployees) SetPosition(_ context.Context, id uuid.UUID, positionID uuid.NullUUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return repository.ErrEmployeeNotFound
	}
	e.PositionID = positionID
	f.byID[id] = e
	return nil
}

func (f *fakeEmployees) SaveCVData(_ context.Context, id uuid.UUID, data json.RawMessage, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return repository.ErrEmployeeNotFound
	}
	e.CVData = data
	e.CVProcessedAt = &at
	f.byID[id] = e
	return nil
}

type fakeSkills struct {
	mu        sync.Mutex
	records   []employee.SkillRecord
	// returned once by the next AssignSkill
	assignErr error
	assigns   int
}

func (f *fakeSkills) ListByEmployee(_ context.Context, employeeID uuid.UUID) ([]employee.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]employee.SkillRecord, 0)
	for _, r := range f.records {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSkills) FindByID(_ context.Context, id uuid.UUID) (employee.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return employee.SkillRecord{}, repository.ErrSkillRecordNotFound
}

func (f *fakeSkills) FindMapped(_ context.Context, employeeID, skillID uuid.UUID) (employee.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.TaxonomySkillID.Valid && r.TaxonomySkillID.UUID == skillID {
			return r, nil
		}
	}
	return employee.SkillRecord{}, repository.ErrSkillRecordNotFound
}

func (f *fakeSkills) Create(_ context.Context, rec employee.SkillRecord) (employee.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeSkills) Update(_ context.Context, rec employee.SkillRecord) (employee.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == rec.ID && r.EmployeeID == rec.EmployeeID {
			r.Proficiency, r.Verified, r.Source = rec.Proficiency, rec.Verified, rec.Source
			f.records[i] = r
			return r, nil
		}
	}
	return employee.SkillRecord{}, repository.ErrSkillRecordNotFound
}

func (f *fakeSkills) AssignSkill(_ context.Context, id, skillID uuid.UUID) (employee.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigns++
	if err := f.assignErr; err != nil {
		f.assignErr = nil
		return employee.SkillRecord{}, err
	}
	at := -1
	for i, r := range f.records {
		if r.ID == id {
			at = i
		}
	}
	if at < 0 {
		return employee.SkillRecord{}, repository.ErrSkillRecordNotFound
	}
	incoming := f.records[at]
	for i, r := range f.records {
		if r.ID != id && r.EmployeeID == incoming.EmployeeID && r.TaxonomySkillID.Valid && r.TaxonomySkillID.UUID == skillID {
			merged, _ := r.Absorb(incoming)
			f.records[i] = merged
			f.records = append(f.records[:at], f.records[at+1:]...)
			return merged, nil
		}
	}
	f.records[at].TaxonomySkillID = uuid.NullUUID{UUID: skillID, Valid: true}
	return f.records[at], nil
}

// mapped returns the employee's records for one taxonomy skill.
func (f *fakeSkills) mapped(employeeID, skillID uuid.UUID) []employee.SkillRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []employee.SkillRecord
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.TaxonomySkillID.Valid && r.TaxonomySkillID.UUID == skillID {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSkills) Delete(_ context.Context, id, employeeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == id {
			if r.EmployeeID != employeeID {
				return repository.ErrSkillRecordForbidden
			}
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrSkillRecordNotFound
}

func (f *fakeSkills) ListUnmapped(context.Context, int, int) ([]employee.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]employee.SkillRecord, 0)
	for _, r := range f.records {
		if !r.Mapped() {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePositions struct {
	byID map[uuid.UUID]position.Position
	reqs map[uuid.UUID][]position.Requirement
}

func newFakePositions() *fakePositions {
	return &fakePositions{byID: map[uuid.UUID]position.Position{}, reqs: map[uuid.UUID][]position.Requirement{}}
}

func (f *fakePositions) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakePositions) FindByID(_ context.Context, id uuid.UUID) (position.Position, error) {
	p, ok := f.byID[id]
	if !ok {
		return position.Position{}, repository.ErrPositionNotFound
	}
	return p, nil
}

func (f *fakePositions) List(context.Context, int, int) ([]position.Position, error) {
	out := make([]position.Position, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePositions) Create(_ context.Context, p position.Position) (position.Position, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakePositions) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrPositionNotFound
	}
	delete(f.byID, id)
	delete(f.reqs, id)
	return nil
}

func (f *fakePositions) ListRequirements(_ context.Context, positionID uuid.UUID) ([]position.Requirement, error) {
	return append([]position.Requirement(nil), f.reqs[positionID]...), nil
}

func (f *fakePositions) ReplaceRequirements(_ context.Context, positionID uuid.UUID, reqs []position.Requirement) error {
	if _, ok := f.byID[positionID]; !ok {
		return repository.ErrPositionNotFound
	}
	f.reqs[positionID] = reqs
	return nil
}

type fakeTaxonomyRepo struct {
	skills    []taxonomy.Skill
	listCalls int
	imported  []taxonomy.ImportItem
}

func (f *fakeTaxonomyRepo) ListSkills(context.Context) ([]taxonomy.Skill, error) {
	f.listCalls++
	return f.skills, nil
}

func (f *fakeTaxonomyRepo) ListTreeRows(context.Context) ([]taxonomy.Row, error) {
	return nil, nil
}

func (f *fakeTaxonomyRepo) SearchSkills(_ context.Context, query string, limit int) ([]taxonomy.Skill, error) {
	out := make([]taxonomy.Skill, 0)
	for _, s := range f.skills {
		if strings.HasPrefix(strings.ToLower(s.Name), strings.ToLower(query)) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeTaxonomyRepo) FindSkillByID(_ context.Context, id uuid.UUID) (taxonomy.Skill, error) {
	for _, s := range f.skills {
		if s.ID == id {
			return s, nil
		}
	}
	return taxonomy.Skill{}, repository.ErrTaxonomySkillNotFound
}

func (f *fakeTaxonomyRepo) SkillExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	_, err := f.FindSkillByID(context.Background(), id)
	return err == nil, nil
}

func (f *fakeTaxonomyRepo) Import(_ context.Context, items []taxonomy.ImportItem) (repository.ImportStats, error) {
	f.imported = append(f.imported, items...)
	return repository.ImportStats{Items: len(items), SkillsCreated: len(items)}, nil
}

type fakeLogs struct {
	mu      sync.Mutex
	entries []repository.NormalizationLog
}

func (f *fakeLogs) Insert(_ context.Context, entry repository.NormalizationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogs) ListByEmployeeSkill(_ context.Context, id uuid.UUID) ([]repository.NormalizationLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.NormalizationLog, 0)
	for _, e := range f.entries {
		if e.EmployeeSkillID.Valid && e.EmployeeSkillID.UUID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCourses struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]course.Course
	enrollments []course.Enrollment
}

func newFakeCourses(cs ...course.Course) *fakeCourses {
	f := &fakeCourses{byID: map[uuid.UUID]course.Course{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCourses) FindByID(_ context.Context, id uuid.UUID) (course.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return course.Course{}, repository.ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeCourses) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeCourses) List(context.Context, int, int) ([]course.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]course.Course, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCourses) Create(_ context.Context, c course.Course) (course.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCourses) Enroll(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.enrollments {
		if cur.CourseID == e.CourseID && cur.EmployeeID == e.EmployeeID {
			if e.RAGStatus != "" {
				f.enrollments[i].RAGStatus = e.RAGStatus
			}
			return f.enrollments[i], nil
		}
	}
	e.EnrolledAt = time.Now()
	f.enrollments = append(f.enrollments, e)
	return e, nil
}

func (f *fakeCourses) ListEnrollments(_ context.Context, courseID uuid.UUID) ([]course.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]course.Enrollment, 0)
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCourses) ListEnrolledEmployeeIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	es, _ := f.ListEnrollments(ctx, courseID)
	out := make([]uuid.UUID, 0, len(es))
	for _, e := range es {
		out = append(out, e.EmployeeID)
	}
	return out, nil
}

type pairKey struct{ course, employee uuid.UUID }

// fakeContent keeps one row per pair plus the sequence of statuses written.
type fakeContent struct {
	mu      sync.Mutex
	rows    map[pairKey]course.GeneratedContent
	history []course.ContentStatus
}

func newFakeContent() *fakeContent {
	return &fakeContent{rows: map[pairKey]course.GeneratedContent{}}
}

func (f *fakeContent) set(courseID, employeeID uuid.UUID, mut func(*course.GeneratedContent)) course.GeneratedContent {
	k := pairKey{courseID, employeeID}
	row, ok := f.rows[k]
	if !ok {
		row = course.GeneratedContent{ID: uuid.New(), CourseID: courseID, EmployeeID: employeeID}
	}
	mut(&row)
	f.rows[k] = row
	f.history = append(f.history, row.Status)
	return row
}

func (f *fakeContent) MarkPending(_ context.Context, courseID, employeeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(courseID, employeeID, func(r *course.GeneratedContent) { r.Status = course.StatusPending })
	return nil
}

func (f *fakeContent) MarkGenerating(_ context.Context, courseID, employeeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(courseID, employeeID, func(r *course.GeneratedContent) { r.Status = course.StatusGenerating; r.Error = "" })
	return nil
}

func (f *fakeContent) MarkCompleted(_ context.Context, courseID, employeeID uuid.UUID, c repository.CompletedContent) (course.GeneratedContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(c.Content) == 0 || !json.Valid(c.Content) {
		return course.GeneratedContent{}, repository.ErrEmptyContent
	}
	return f.set(courseID, employeeID, func(r *course.GeneratedContent) {
		r.Status = course.StatusCompleted
		r.Content = c.Content
		r.RawResponse = c.RawResponse
		r.Model = c.Model
		r.PromptTokens = c.PromptTokens
		r.CompletionTokens = c.CompletionTokens
		r.Error = ""
	}), nil
}

func (f *fakeContent) MarkFailed(_ context.Context, courseID, employeeID uuid.UUID, reason, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(courseID, employeeID, func(r *course.GeneratedContent) {
		r.Status = course.StatusFailed
		r.Error = reason
		if raw != "" {
			r.RawResponse = raw
		}
	})
	return nil
}

func (f *fakeContent) FindByCourseAndEmployee(_ context.Context, courseID, employeeID uuid.UUID) (course.GeneratedContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[pairKey{courseID, employeeID}]
	if !ok {
		return course.GeneratedContent{}, repository.ErrContentNotFound
	}
	return row, nil
}

func (f *fakeContent) ListByCourse(_ context.Context, courseID uuid.UUID) ([]course.GeneratedContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]course.GeneratedContent, 0)
	for k, row := range f.rows {
		if k.course == courseID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeContent) sawStatus(s course.ContentStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.history {
		if h == s {
			return true
		}
	}
	return false
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []course.PersonalizationJob
}

func (f *fakeJobs) Enqueue(_ context.Context, courseID, employeeID uuid.UUID, gaps []gap.Gap) (course.PersonalizationJob, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.CourseID == courseID && j.EmployeeID == employeeID && (j.Status == course.JobQueued || j.Status == course.JobRunning) {
			return j, false, nil
		}
	}
	j := course.PersonalizationJob{ID: uuid.New(), CourseID: courseID, EmployeeID: employeeID, Gaps: gaps, Status: course.JobQueued}
	f.jobs = append(f.jobs, j)
	return j, true, nil
}

func (f *fakeJobs) ClaimNext(context.Context, repository.ClaimPolicy) (*course.PersonalizationJob, error) {
	return nil, nil
}

func (f *fakeJobs) MarkCompleted(_ context.Context, id uuid.UUID) error { return f.setStatus(id, course.JobCompleted) }

func (f *fakeJobs) MarkFailed(_ context.Context, id uuid.UUID, _ string) error {
	return f.setStatus(id, course.JobFailed)
}

func (f *fakeJobs) setStatus(id uuid.UUID, s course.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, j := range f.jobs {
		if j.ID == id {
			f.jobs[i].Status = s
			return nil
		}
	}
	return repository.ErrJobNotFound
}

func (f *fakeJobs) FindByID(_ context.Context, id uuid.UUID) (course.PersonalizationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return course.PersonalizationJob{}, repository.ErrJobNotFound
}

func (f *fakeJobs) CountByStatus(context.Context) (map[course.JobStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[course.JobStatus]int{}
	for _, j := range f.jobs {
		out[j.Status]++
	}
	return out, nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string][]byte
	locks  map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string][]byte{}, locks: map[string]string{}}
}

func (f *fakeCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (f *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = b
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeCache) AcquireLock(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.locks[key]; held {
		return false, nil
	}
	f.locks[key] = owner
	return true, nil
}

func (f *fakeCache) ReleaseLock(_ context.Context, key, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[key] == owner {
		delete(f.locks, key)
	}
	return nil
}

// fakeCompleter replays canned replies in order; the last one repeats.
type fakeCompleter struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	text := ""
	if len(f.replies) > 0 {
		text = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	return llm.Completion{Text: text, Model: "test-model", PromptTokens: 120, CompletionTokens: 80, TotalTokens: 200}, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) types() []events.Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.Type, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeProfiles struct {
	mu       sync.Mutex
	byUserID map[uuid.UUID]user.Profile
}

func newFakeProfiles(ps ...user.Profile) *fakeProfiles {
	f := &fakeProfiles{byUserID: map[uuid.UUID]user.Profile{}}
	for _, p := range ps {
		f.byUserID[p.UserID] = p
	}
	return f
}

func (f *fakeProfiles) FindByUserID(_ context.Context, userID uuid.UUID) (user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUserID[userID]
	if !ok {
		return user.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) FindByEmail(_ context.Context, email string) (user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byUserID {
		if p.Email == email {
			return p, nil
		}
	}
	return user.Profile{}, repository.ErrProfileNotFound
}

func (f *fakeProfiles) Upsert(_ context.Context, p user.Profile) (user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUserID[p.UserID] = p
	return p, nil
}

func (f *fakeProfiles) List(_ context.Context, limit, offset int) ([]user.Profile, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]user.Profile, 0, len(f.byUserID))
	for _, p := range f.byUserID {
		out = append(out, p)
	}
	return out, len(out), nil
}

type fakeInvites struct {
	mu   sync.Mutex
	byID map[uuid.UUID]user.Invite
}

func newFakeInvites() *fakeInvites {
	return &fakeInvites{byID: map[uuid.UUID]user.Invite{}}
}

func (f *fakeInvites) Create(_ context.Context, inv user.Invite) (user.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[inv.ID] = inv
	return inv, nil
}

func (f *fakeInvites) FindByID(_ context.Context, id uuid.UUID) (user.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return user.Invite{}, repository.ErrInviteNotFound
	}
	return inv, nil
}

func (f *fakeInvites) MarkUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return repository.ErrInviteNotFound
	}
	if inv.UsedAt != nil {
		return repository.ErrInviteUsed
	}
	inv.UsedAt = &at
	f.byID[id] = inv
	return nil
}

type fakeLearningPaths struct {
	mu    sync.Mutex
	byEmp map[uuid.UUID]course.LearningPath
	saves int
}

func newFakeLearningPaths() *fakeLearningPaths {
	return &fakeLearningPaths{byEmp: map[uuid.UUID]course.LearningPath{}}
}

func (f *fakeLearningPaths) FindByEmployee(_ context.Context, employeeID uuid.UUID) (course.LearningPath, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byEmp[employeeID]
	if !ok {
		return course.LearningPath{}, repository.ErrLearningPathNotFound
	}
	return p, nil
}

func (f *fakeLearningPaths) Save(_ context.Context, p course.LearningPath) (course.LearningPath, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.byEmp[p.EmployeeID]; ok {
		p.ID, p.CreatedAt = old.ID, old.CreatedAt
	} else {
		p.ID, p.CreatedAt = uuid.New(), time.Now()
	}
	p.UpdatedAt = time.Now()
	f.byEmp[p.EmployeeID] = p
	f.saves++
	return p, nil
}
