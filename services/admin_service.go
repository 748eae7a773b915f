package services

import (
	"context"
	"errors"
	"strings"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
	"referral-tracking-api/utils"

	"github.com/google/uuid"
)

// AdminService maintains department rosters, SBU reviewers and email templates.
type AdminService struct {
	store repository.Store
}

func NewAdminService(store repository.Store) *AdminService {
	if store == nil {
		store = repository.NewStore(nil)
	}
	return &AdminService{store: store}
}

/* ==========================
   Departments
   ========================== */

func (s *AdminService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	depts, err := s.store.ListDepartments(ctx)
	if err != nil {
		return nil, storeErr("list departments", "department", err)
	}
	return depts, nil
}

func (s *AdminService) CreateDepartment(ctx context.Context, name string, reviewers []models.Reviewer) (*models.Department, error) {
	name = utils.SanitizeInput(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	dept := &models.Department{Name: name, Reviewers: cleanReviewers(reviewers)}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.SaveDepartment(ctx, dept); err != nil {
			return storeErr("create department", "department", err)
		}
		return syncSBUs(ctx, tx, dept.Name, nil, dept.Reviewers)
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

// UpdateReviewers replaces the roster and brings the SBU rows in line with it:
// every listed reviewer gets an SBU carrying the department, and reviewers
// dropped from the roster lose it.
func (s *AdminService) UpdateReviewers(ctx context.Context, id uuid.UUID, reviewers []models.Reviewer) (*models.Department, error) {
	var dept *models.Department
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		dept, err = tx.FindDepartment(ctx, id)
		if err != nil {
			return storeErr("find department", "department", err)
		}
		previous := dept.Reviewers
		dept.Reviewers = cleanReviewers(reviewers)
		if err := tx.SaveDepartment(ctx, dept); err != nil {
			return storeErr("update department", "department", err)
		}
		return syncSBUs(ctx, tx, dept.Name, previous, dept.Reviewers)
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

func syncSBUs(ctx context.Context, tx repository.Store, department string, previous, current []models.Reviewer) error {
	listed := make(map[string]bool, len(current))
	for _, r := range current {
		listed[strings.ToLower(r.Email)] = true

		sbu, err := tx.FindSBUByEmail(ctx, r.Email)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			name := r.Name
			if name == "" {
				name = strings.SplitN(r.Email, "@", 2)[0]
			}
			sbu = &models.SBU{Name: name, Email: r.Email, Departments: []string{department}}
		case err != nil:
			return storeErr("find sbu", "sbu", err)
		case sbu.HasDepartment(department):
			continue
		default:
			sbu.Departments = append(sbu.Departments, department)
		}
		if err := tx.SaveSBU(ctx, sbu); err != nil {
			return storeErr("save sbu", "sbu", err)
		}
	}

	for _, r := range previous {
		if listed[strings.ToLower(r.Email)] {
			continue
		}
		sbu, err := tx.FindSBUByEmail(ctx, r.Email)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return storeErr("find sbu", "sbu", err)
		}
		if !sbu.HasDepartment(department) {
			continue
		}
		sbu.Departments = withoutDepartment(sbu.Departments, department)
		if err := tx.SaveSBU(ctx, sbu); err != nil {
			return storeErr("save sbu", "sbu", err)
		}
	}
	return nil
}

func cleanReviewers(reviewers []models.Reviewer) []models.Reviewer {
	seen := make(map[string]bool, len(reviewers))
	out := make([]models.Reviewer, 0, len(reviewers))
	for _, r := range reviewers {
		r.Email = utils.SanitizeInput(r.Email)
		r.Name = utils.SanitizeInput(r.Name)
		key := strings.ToLower(r.Email)
		if r.Email == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func withoutDepartment(depts []string, name string) []string {
	out := make([]string, 0, len(depts))
	for _, d := range depts {
		if d != name {
			out = append(out, d)
		}
	}
	return out
}

/* ==========================
   SBUs
   ========================== */

type SBUInput struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"email"`
	PersonalEmail     *string  `json:"personal_email"`
	Departments       []string `json:"departments"`
	ReplaceDepartment bool     `json:"replace_departments"`
}

func (s *AdminService) ListSBUs(ctx context.Context) ([]models.SBU, error) {
	sbus, err := s.store.ListSBUs(ctx)
	if err != nil {
		return nil, storeErr("list sbus", "sbu", err)
	}
	return sbus, nil
}

func (s *AdminService) CreateSBU(ctx context.Context, in SBUInput) (*models.SBU, error) {
	var name, email string
	if in.Name != nil {
		name = utils.SanitizeInput(*in.Name)
	}
	if in.Email != nil {
		email = utils.SanitizeInput(*in.Email)
	}
	if name == "" || email == "" {
		return nil, invalid("name and email are required")
	}
	if !utils.ValidateEmail(email) {
		return nil, invalid("invalid email %q", email)
	}

	if _, err := s.store.FindSBUByEmail(ctx, email); err == nil {
		return nil, &ConflictError{Message: "Email already exists."}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("find sbu", "sbu", err)
	}

	sbu := &models.SBU{Name: name, Email: email, Departments: mergeDepartments(nil, in.Departments)}
	if in.PersonalEmail != nil {
		if personal := utils.SanitizeInput(*in.PersonalEmail); personal != "" {
			sbu.PersonalEmail = &personal
		}
	}
	if err := s.store.SaveSBU(ctx, sbu); err != nil {
		return nil, storeErr("create sbu", "sbu", err)
	}
	return sbu, nil
}

// UpdateSBU edits the SBU found by email (case-insensitive). Departments are
// merged into the existing list unless ReplaceDepartment is set.
func (s *AdminService) UpdateSBU(ctx context.Context, email string, in SBUInput) (*models.SBU, error) {
	var sbu *models.SBU
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		sbu, err = tx.FindSBUByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			return storeErr("find sbu", "sbu", err)
		}

		if in.Email != nil {
			newEmail := utils.SanitizeInput(*in.Email)
			if newEmail != "" && !strings.EqualFold(newEmail, sbu.Email) {
				if !utils.ValidateEmail(newEmail) {
					return invalid("invalid email %q", newEmail)
				}
				other, err := tx.FindSBUByEmail(ctx, newEmail)
				if err == nil && other.ID != sbu.ID {
					return &ConflictError{Message: "Email already exists."}
				}
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return storeErr("find sbu", "sbu", err)
				}
			}
			if newEmail != "" {
				sbu.Email = newEmail
			}
		}
		if in.Name != nil {
			if name := utils.SanitizeInput(*in.Name); name != "" {
				sbu.Name = name
			}
		}
		if in.PersonalEmail != nil {
			if personal := utils.SanitizeInput(*in.PersonalEmail); personal != "" {
				sbu.PersonalEmail = &personal
			} else {
				sbu.PersonalEmail = nil
			}
		}
		if in.Departments != nil {
			if in.ReplaceDepartment {
				sbu.Departments = mergeDepartments(nil, in.Departments)
			} else {
				sbu.Departments = mergeDepartments(sbu.Departments, in.Departments)
			}
		}

		if err := tx.SaveSBU(ctx, sbu); err != nil {
			return storeErr("update sbu", "sbu", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sbu, nil
}

// RemoveFromDepartment takes the reviewer off the department roster and the
// department off the SBU. An SBU left without departments is deleted.
// It reports whether the SBU was deleted.
func (s *AdminService) RemoveFromDepartment(ctx context.Context, email string, departmentID uuid.UUID) (bool, error) {
	if departmentID == uuid.Nil {
		return false, invalid("Department ID required")
	}
	var deleted bool
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		sbu, err := tx.FindSBUByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			return storeErr("find sbu", "sbu", err)
		}
		dept, err := tx.FindDepartment(ctx, departmentID)
		if err != nil {
			return storeErr("find department", "department", err)
		}

		roster := make([]models.Reviewer, 0, len(dept.Reviewers))
		for _, r := range dept.Reviewers {
			if !strings.EqualFold(r.Email, sbu.Email) {
				roster = append(roster, r)
			}
		}
		dept.Reviewers = roster
		if err := tx.SaveDepartment(ctx, dept); err != nil {
			return storeErr("update department", "department", err)
		}

		sbu.Departments = withoutDepartment(sbu.Departments, dept.Name)
		if len(sbu.Departments) > 0 {
			return storeErr("update sbu", "sbu", tx.SaveSBU(ctx, sbu))
		}
		deleted = true
		return storeErr("delete sbu", "sbu", tx.DeleteSBU(ctx, sbu.ID))
	})
	return deleted, err
}

func mergeDepartments(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, cap(out))
	for _, list := range [][]string{existing, incoming} {
		for _, d := range list {
			d = strings.TrimSpace(d)
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

/* ==========================
   Email templates
   ========================== */

type TemplateInput struct {
	Subject  *string `json:"subject"`
	HTMLBody *string `json:"html_body"`
}

func (s *AdminService) ListEmailTemplates(ctx context.Context) ([]models.EmailTemplate, error) {
	rows, err := s.store.ListEmailTemplates(ctx)
	if err != nil {
		return nil, storeErr("list email templates", "template", err)
	}
	return rows, nil
}

func (s *AdminService) GetEmailTemplate(ctx context.Context, purpose string) (*models.EmailTemplate, error) {
	tmpl, err := s.store.FindEmailTemplate(ctx, strings.TrimSpace(purpose))
	if err != nil {
		return nil, storeErr("find email template", "template", err)
	}
	return tmpl, nil
}

func (s *AdminService) UpdateEmailTemplate(ctx context.Context, purpose string, in TemplateInput) (*models.EmailTemplate, error) {
	tmpl, err := s.GetEmailTemplate(ctx, purpose)
	if err != nil {
		return nil, err
	}
	if in.Subject != nil {
		subject := strings.TrimSpace(*in.Subject)
		if subject == "" {
			return nil, invalid("subject cannot be empty")
		}
		tmpl.Subject = subject
	}
	if in.HTMLBody != nil {
		tmpl.HTMLBody = *in.HTMLBody
	}
	if err := s.store.SaveEmailTemplate(ctx, tmpl); err != nil {
		return nil, storeErr("update email template", "template", err)
	}
	return tmpl, nil
}
