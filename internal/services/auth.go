package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"academicevents/internal/domain"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	// Self-service sign-up always receives this role; elevation goes through AssignRole.
	defaultRole = domain.RoleAttendee
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo       domain.UserRepository
	roleRepo       domain.RoleRepository
	hasher         domain.PasswordHasher
	tokenIssuer    domain.TokenIssuer
	tokenExpiry    time.Duration
	activity       domain.ActivityLogger
	emails         domain.EmailDispatcher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAuthService creates an AuthService with the given repositories and credential ports.
func NewAuthService(
	userRepo domain.UserRepository,
	roleRepo domain.RoleRepository,
	hasher domain.PasswordHasher,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	activity domain.ActivityLogger,
	emails domain.EmailDispatcher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		hasher:         hasher,
		tokenIssuer:    tokenIssuer,
		tokenExpiry:    tokenExpiry,
		activity:       activity,
		emails:         emails,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = normalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return nil, domain.InvalidInputError("invalid email format")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidInputError("name is required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	roleRecord, err := s.roleRepo.GetByCode(ctx, defaultRole)
	if err != nil {
		return nil, fmt.Errorf("get role %q: %w", defaultRole, err)
	}

	now := s.now()
	user := domain.NewUser(email, name, hash, now, now)
	if err := s.userRepo.Create(ctx, user, roleRecord.ID); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Roles = []string{roleRecord.Code}

	s.activity.Log(ctx, domain.NewUserActivity(user.ID, domain.ActivityUserRegistered, "Account created", domain.EntityUser, user.ID, nil, now))
	dispatchEmail(ctx, s.emails, s.logger, domain.EmailWelcome, user.Email, &domain.WelcomeMessageEmailData{Email: user.Email, Name: user.Name})

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	roleCodes, err := s.roleCodes(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	user.Roles = roleCodes

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, roleCodes, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *authService) AssignRole(ctx context.Context, actor domain.Principal, userID, roleCode string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.Authorize(domain.ActionAssignRole, actor); err != nil {
		return nil, err
	}
	roleCode = strings.ToLower(strings.TrimSpace(roleCode))
	switch roleCode {
	case domain.RoleAdmin, domain.RoleOrganizer, domain.RoleAttendee:
	default:
		return nil, domain.InvalidInputError("unknown role %q", roleCode)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	role, err := s.roleRepo.GetByCode(ctx, roleCode)
	if err != nil {
		return nil, fmt.Errorf("get role %q: %w", roleCode, err)
	}
	if err := s.userRepo.AssignRole(ctx, user.ID, role.ID); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	if user.Roles, err = s.roleCodes(ctx, user.ID); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, domain.NewUserActivity(actor.UserID, domain.ActivityRoleAssigned, "Assigned role "+roleCode, domain.EntityUser, user.ID, map[string]any{"role": roleCode}, s.now()))
	return user, nil
}

func (s *authService) roleCodes(ctx context.Context, userID string) ([]string, error) {
	roles, err := s.roleRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	codes := make([]string, len(roles))
	for i, r := range roles {
		codes[i] = r.Code
	}
	return codes, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword requires 8 to 128 characters with a lowercase letter, an uppercase letter and a digit.
func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return domain.InvalidInputError("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return domain.InvalidInputError("password must contain a lowercase letter, an uppercase letter and a digit")
	}
	return nil
}
