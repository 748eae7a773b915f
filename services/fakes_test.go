package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"

	"github.com/google/uuid"
)

var _ repository.Store = (*memStore)(nil)

// memStore is an in-memory repository.Store. Transaction runs fn against the
// same store and restores a snapshot when fn fails.
type memStore struct {
	mu sync.Mutex

	users       []models.User
	sbus        []models.SBU
	departments []models.Department
	templates   map[string]models.EmailTemplate
	failures    []models.NotificationFailure
	referrals   map[uint]models.Referral
	links       map[uint][]uint
	reviews     []models.Review
	evals       []models.HREvaluation

	nextID uint

	// beforeUpdateReferral runs under mu ahead of the revision check.
	beforeUpdateReferral func(s *memStore, referral *models.Referral)
}

func newMemStore() *memStore {
	return &memStore{
		templates: map[string]models.EmailTemplate{},
		referrals: map[uint]models.Referral{},
		links:     map[uint][]uint{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	users       []models.User
	sbus        []models.SBU
	departments []models.Department
	templates   map[string]models.EmailTemplate
	referrals   map[uint]models.Referral
	links       map[uint][]uint
	reviews     []models.Review
	evals       []models.HREvaluation
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		users:       append([]models.User(nil), s.users...),
		sbus:        append([]models.SBU(nil), s.sbus...),
		departments: append([]models.Department(nil), s.departments...),
		templates:   map[string]models.EmailTemplate{},
		referrals:   map[uint]models.Referral{},
		links:       map[uint][]uint{},
		reviews:     append([]models.Review(nil), s.reviews...),
		evals:       append([]models.HREvaluation(nil), s.evals...),
	}
	for k, v := range s.templates {
		snap.templates[k] = v
	}
	for k, v := range s.referrals {
		snap.referrals[k] = v
	}
	for k, v := range s.links {
		snap.links[k] = append([]uint(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.users, s.sbus, s.departments = snap.users, snap.sbus, snap.departments
	s.templates, s.referrals, s.links = snap.templates, snap.referrals, snap.links
	s.reviews, s.evals = snap.reviews, snap.evals
}

func (s *memStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

/* users */

func (s *memStore) FindUserByEmpID(ctx context.Context, empID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.EmpID == empID {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListHRUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.IsHR {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.EmpID == user.EmpID || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *memStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == user.ID {
			s.users[i] = *user
			return nil
		}
	}
	s.users = append(s.users, *user)
	return nil
}

/* sbus and departments */

func (s *memStore) FindSBUsByEmails(ctx context.Context, emails []string) ([]models.SBU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SBU
	for _, sbu := range s.sbus {
		for _, e := range emails {
			if strings.EqualFold(sbu.Email, e) {
				out = append(out, sbu)
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) FindSBUByEmail(ctx context.Context, email string) (*models.SBU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sbu := range s.sbus {
		if strings.EqualFold(sbu.Email, email) {
			sbu := sbu
			sbu.Departments = append([]string(nil), sbu.Departments...)
			return &sbu, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListSBUs(ctx context.Context) ([]models.SBU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SBU(nil), s.sbus...), nil
}

func (s *memStore) SaveSBU(ctx context.Context, sbu *models.SBU) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sbu.ID == 0 {
		sbu.ID = s.id()
		s.sbus = append(s.sbus, *sbu)
		return nil
	}
	for i := range s.sbus {
		if s.sbus[i].ID == sbu.ID {
			s.sbus[i] = *sbu
			return nil
		}
	}
	s.sbus = append(s.sbus, *sbu)
	return nil
}

func (s *memStore) DeleteSBU(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sbus {
		if s.sbus[i].ID == id {
			s.sbus = append(s.sbus[:i], s.sbus[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Department(nil), s.departments...), nil
}

func (s *memStore) FindDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.departments {
		if d.ID == id {
			d := d
			d.Reviewers = append([]models.Reviewer(nil), d.Reviewers...)
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) SaveDepartment(ctx context.Context, dept *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.departments {
		if s.departments[i].ID == dept.ID && dept.ID != uuid.Nil {
			s.departments[i] = *dept
			return nil
		}
		if strings.EqualFold(s.departments[i].Name, dept.Name) {
			return repository.ErrDuplicate
		}
	}
	if dept.ID == uuid.Nil {
		dept.ID = uuid.New()
	}
	s.departments = append(s.departments, *dept)
	return nil
}

/* templates */

func (s *memStore) ListEmailTemplates(ctx context.Context) ([]models.EmailTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EmailTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out, nil
}

func (s *memStore) FindEmailTemplate(ctx context.Context, purpose string) (*models.EmailTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[purpose]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *memStore) SaveEmailTemplate(ctx context.Context, tmpl *models.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tmpl.ID == 0 {
		tmpl.ID = s.id()
	}
	s.templates[tmpl.Purpose] = *tmpl
	return nil
}

func (s *memStore) CreateNotificationFailure(ctx context.Context, failure *models.NotificationFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	failure.ID = s.id()
	s.failures = append(s.failures, *failure)
	return nil
}

/* referrals */

func (s *memStore) CreateReferral(ctx context.Context, referral *models.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	referral.ID = s.id()
	ids := make([]uint, 0, len(referral.SBUs))
	for _, sbu := range referral.SBUs {
		ids = append(ids, sbu.ID)
	}
	s.links[referral.ID] = ids
	stored := *referral
	stored.SBUs = nil
	stored.Referrer = models.User{}
	s.referrals[referral.ID] = stored
	return nil
}

// hydrate must be called with mu held.
func (s *memStore) hydrate(r models.Referral) models.Referral {
	for _, u := range s.users {
		if u.EmpID == r.ReferrerEmpID {
			r.Referrer = u
		}
	}
	r.SBUs = nil
	for _, id := range s.links[r.ID] {
		for _, sbu := range s.sbus {
			if sbu.ID == id {
				r.SBUs = append(r.SBUs, sbu)
			}
		}
	}
	return r
}

func (s *memStore) FindReferral(ctx context.Context, id uint) (*models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r = s.hydrate(r)
	return &r, nil
}

func (s *memStore) UpdateReferral(ctx context.Context, referral *models.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeUpdateReferral != nil {
		s.beforeUpdateReferral(s, referral)
	}
	stored, ok := s.referrals[referral.ID]
	if !ok || stored.Revision != referral.Revision {
		return repository.ErrStaleRevision
	}
	next := *referral
	next.Revision++
	next.SBUs = nil
	next.Referrer = models.User{}
	s.referrals[referral.ID] = next
	referral.Revision++
	return nil
}

func (s *memStore) DeleteReferral(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.referrals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.referrals, id)
	delete(s.links, id)
	reviews := s.reviews[:0]
	for _, r := range s.reviews {
		if r.ReferralID != id {
			reviews = append(reviews, r)
		}
	}
	s.reviews = reviews
	evals := s.evals[:0]
	for _, e := range s.evals {
		if e.ReferralID != id {
			evals = append(evals, e)
		}
	}
	s.evals = evals
	return nil
}

func (s *memStore) ListReferrals(ctx context.Context, filter repository.ReferralFilter) ([]models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Referral
	for _, r := range s.referrals {
		if filter.ReferrerEmpID != "" && r.ReferrerEmpID != filter.ReferrerEmpID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsString(filter.Statuses, r.CurrentStatus) {
			continue
		}
		r = s.hydrate(r)
		if filter.SBUEmail != "" {
			linked := false
			for _, sbu := range r.SBUs {
				if strings.EqualFold(sbu.Email, filter.SBUEmail) {
					linked = true
				}
			}
			if !linked {
				continue
			}
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

/* decisions */

func (s *memStore) CreateReview(ctx context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	review.ID = s.id()
	stored := *review
	stored.Reviewer = nil
	s.reviews = append(s.reviews, stored)
	return nil
}

func (s *memStore) SaveReview(ctx context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == review.ID {
			stored := *review
			stored.Reviewer = nil
			s.reviews[i] = stored
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) userByID(id uuid.UUID) *models.User {
	for _, u := range s.users {
		if u.ID == id {
			u := u
			return &u
		}
	}
	return nil
}

func (s *memStore) ListReviews(ctx context.Context, referralIDs ...uint) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Review
	for _, r := range s.reviews {
		for _, id := range referralIDs {
			if r.ReferralID == id {
				r.Reviewer = s.userByID(r.ReviewerID)
				out = append(out, r)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReviewedAt.Equal(out[j].ReviewedAt) {
			return out[i].ReviewedAt.After(out[j].ReviewedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *memStore) CreateEvaluation(ctx context.Context, eval *models.HREvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	eval.ID = s.id()
	stored := *eval
	stored.UpdatedBy = nil
	s.evals = append(s.evals, stored)
	return nil
}

func (s *memStore) SaveEvaluation(ctx context.Context, eval *models.HREvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.evals {
		if s.evals[i].ID == eval.ID {
			stored := *eval
			stored.UpdatedBy = nil
			s.evals[i] = stored
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) ListEvaluations(ctx context.Context, referralIDs ...uint) ([]models.HREvaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HREvaluation
	for _, e := range s.evals {
		for _, id := range referralIDs {
			if e.ReferralID == id {
				e.UpdatedBy = s.userByID(e.UpdatedByID)
				out = append(out, e)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

/* notifier */

type sentNotice struct {
	Purpose    string
	Recipients []string
	Data       map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (n *recordingNotifier) Notify(ctx context.Context, purpose string, recipients []string, data map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotice{Purpose: purpose, Recipients: recipients, Data: data})
}

func (n *recordingNotifier) purposes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.Purpose
	}
	return out
}

func (n *recordingNotifier) count(purpose string) int {
	c := 0
	for _, p := range n.purposes() {
		if p == purpose {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	n.sent = nil
	n.mu.Unlock()
}

// fixture is a populated store with one referrer, one reviewer SBU and one HR user.
type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	workflow *ReferralWorkflow

	referrer models.User
	reviewer models.User
	hr       models.User
	sbu      models.SBU
}

func newFixture() *fixture {
	store := newMemStore()
	notifier := &recordingNotifier{}

	personal := "jane.personal@example.com"
	f := &fixture{
		store:    store,
		notifier: notifier,
		referrer: models.User{ID: uuid.New(), EmpID: "E100", Name: "Jane Doe", Email: "jane@corp.test", PersonalEmail: &personal, Role: models.RoleEmployee, IsActive: true},
		reviewer: models.User{ID: uuid.New(), EmpID: "R200", Name: "Rita Reviewer", Email: "a@x.com", Role: models.RoleReviewer, IsActive: true},
		hr:       models.User{ID: uuid.New(), EmpID: "H300", Name: "Henry HR", Email: "hr@corp.test", Role: models.RoleHR, IsActive: true, IsHR: true},
		sbu:      models.SBU{ID: 900, Name: "Rita Reviewer", Email: "a@x.com", Departments: []string{"Software Development"}},
	}
	store.users = []models.User{f.referrer, f.reviewer, f.hr}
	store.sbus = []models.SBU{f.sbu}
	store.nextID = 1000

	clock := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f.workflow = &ReferralWorkflow{
		store:     store,
		notifier:  notifier,
		portalURL: "https://portal.test",
		now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	}
	return f
}

func (f *fixture) submit(t *testing.T) *models.Referral {
	t.Helper()
	ref, err := f.workflow.Submit(context.Background(), SubmitReferralInput{
		EmpID:              f.referrer.EmpID,
		CandidateName:      "Jane Doe",
		CandidateType:      models.CandidateIntern,
		ReferralReasonType: models.ReasonTalentBased,
		SBUEmails:          []string{"a@x.com"},
		CVURL:              "https://files.test/cv.pdf",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return ref
}

func (f *fixture) stored(t *testing.T, id uint) *models.Referral {
	t.Helper()
	ref, err := f.store.FindReferral(context.Background(), id)
	if err != nil {
		t.Fatalf("FindReferral(%d): %v", id, err)
	}
	return ref
}
