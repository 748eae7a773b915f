package services

import (
	"context"
	"errors"
	"strings"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
	"referral-tracking-api/utils"
)

type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	if store == nil {
		store = repository.NewStore(nil)
	}
	return &UserService{store: store}
}

type RegisterInput struct {
	EmpID         string `json:"emp_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	PersonalEmail string `json:"personal_email"`
}

// BulkFailure is one row BulkRegister could not create.
type BulkFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type ProfileInput struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	PersonalEmail *string `json:"personal_email"`
	Password      *string `json:"password"`
}

// DeriveRole maps an email to its role, the departments it reviews and the HR
// flag, using the department rosters.
func DeriveRole(depts []models.Department, email string) (role string, departments []string, isHR bool) {
	role = models.RoleEmployee
	departments = []string{}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, d := range depts {
		for _, r := range d.Reviewers {
			if strings.ToLower(strings.TrimSpace(r.Email)) != email {
				continue
			}
			departments = append(departments, d.Name)
			if role == models.RoleEmployee {
				role = models.RoleReviewer
			}
			if strings.Contains(strings.ToLower(d.Name), "human resource") {
				role = models.RoleHR
				isHR = true
			}
			break
		}
	}
	return role, departments, isHR
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.EmpID = utils.SanitizeInput(in.EmpID)
	in.Name = utils.SanitizeInput(in.Name)
	in.Email = strings.ToLower(utils.SanitizeInput(in.Email))
	in.PersonalEmail = strings.ToLower(utils.SanitizeInput(in.PersonalEmail))

	if in.EmpID == "" || in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, invalid("emp_id, name, email and password are required")
	}
	if !utils.ValidateEmail(in.Email) {
		return nil, invalid("invalid email %q", in.Email)
	}
	if in.PersonalEmail != "" && !utils.ValidateEmail(in.PersonalEmail) {
		return nil, invalid("invalid personal_email %q", in.PersonalEmail)
	}
	if ok, msg := utils.ValidatePassword(in.Password); !ok {
		return nil, invalid("%s", msg)
	}

	if _, err := s.store.FindUserByEmpID(ctx, in.EmpID); err == nil {
		return nil, &ConflictError{Message: "emp_id " + in.EmpID + " already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("find user", "user", err)
	}
	if _, err := s.store.FindUserByEmail(ctx, in.Email); err == nil {
		return nil, &ConflictError{Message: "email " + in.Email + " already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("find user", "user", err)
	}

	depts, err := s.store.ListDepartments(ctx)
	if err != nil {
		return nil, storeErr("list departments", "department", err)
	}
	role, departments, isHR := DeriveRole(depts, in.Email)

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, &PersistenceError{Op: "hash password", Err: err}
	}

	user := &models.User{
		EmpID:        in.EmpID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		Departments:  departments,
		IsHR:         isHR,
	}
	if in.PersonalEmail != "" {
		user.PersonalEmail = &in.PersonalEmail
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeErr("create user", "user", err)
	}
	return user, nil
}

// BulkRegister registers each row independently.
func (s *UserService) BulkRegister(ctx context.Context, rows []RegisterInput) ([]string, []BulkFailure) {
	created := []string{}
	failed := []BulkFailure{}
	for _, row := range rows {
		user, err := s.Register(ctx, row)
		if err != nil {
			failed = append(failed, BulkFailure{Email: row.Email, Error: err.Error()})
			continue
		}
		created = append(created, user.Email)
	}
	return created, failed
}

// Authenticate checks the employee's password.
func (s *UserService) Authenticate(ctx context.Context, empID, password string) (*models.User, error) {
	empID = strings.TrimSpace(empID)
	if empID == "" || password == "" {
		return nil, invalid("emp_id and password are required")
	}
	user, err := s.store.FindUserByEmpID(ctx, empID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("find user", "user", err)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, &AuthorizationError{Message: "Account is inactive"}
	}
	return user, nil
}

// ErrInvalidCredentials is returned for an unknown emp_id or a wrong password.
var ErrInvalidCredentials = errors.New("Invalid credentials")

func (s *UserService) GetByEmpID(ctx context.Context, empID string) (*models.User, error) {
	empID = strings.TrimSpace(empID)
	if empID == "" {
		return nil, invalid("emp_id is required")
	}
	user, err := s.store.FindUserByEmpID(ctx, empID)
	if err != nil {
		return nil, storeErr("find user", "user", err)
	}
	return user, nil
}

// UpdateProfile changes the fields that are set. An empty password is ignored.
func (s *UserService) UpdateProfile(ctx context.Context, empID string, in ProfileInput) (*models.User, error) {
	user, err := s.GetByEmpID(ctx, empID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if name := utils.SanitizeInput(*in.Name); name != "" {
			user.Name = name
		}
	}
	if in.Email != nil {
		email := strings.ToLower(utils.SanitizeInput(*in.Email))
		if email != "" && email != user.Email {
			if !utils.ValidateEmail(email) {
				return nil, invalid("invalid email %q", email)
			}
			other, err := s.store.FindUserByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return nil, &ConflictError{Message: "email " + email + " already exists"}
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, storeErr("find user", "user", err)
			}
			user.Email = email
		}
	}
	if in.PersonalEmail != nil {
		personal := strings.ToLower(utils.SanitizeInput(*in.PersonalEmail))
		if personal == "" {
			user.PersonalEmail = nil
		} else {
			if !utils.ValidateEmail(personal) {
				return nil, invalid("invalid personal_email %q", personal)
			}
			user.PersonalEmail = &personal
		}
	}
	if in.Password != nil && *in.Password != "" {
		if ok, msg := utils.ValidatePassword(*in.Password); !ok {
			return nil, invalid("%s", msg)
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, &PersistenceError{Op: "hash password", Err: err}
		}
		user.PasswordHash = hash
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, storeErr("update user", "user", err)
	}
	return user, nil
}
