package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"academicevents/internal/domain"
)

type profileService struct {
	userRepo       domain.UserRepository
	roleRepo       domain.RoleRepository
	profileRepo    domain.ProfileRepository
	activityRepo   domain.ActivityRepository
	hasher         domain.PasswordHasher
	activity       domain.ActivityLogger
	notifications  domain.NotificationService
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewProfileService returns the ProfileService for the caller's own account.
func NewProfileService(
	userRepo domain.UserRepository,
	roleRepo domain.RoleRepository,
	profileRepo domain.ProfileRepository,
	activityRepo domain.ActivityRepository,
	hasher domain.PasswordHasher,
	activity domain.ActivityLogger,
	notifications domain.NotificationService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ProfileService {
	return &profileService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		profileRepo:    profileRepo,
		activityRepo:   activityRepo,
		hasher:         hasher,
		activity:       activity,
		notifications:  notifications,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *profileService) GetProfile(ctx context.Context, actor domain.Principal) (*domain.ProfileView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	roles, err := s.roleRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	user.Roles = make([]string, 0, len(roles))
	for _, r := range roles {
		user.Roles = append(user.Roles, r.Code)
	}

	profile, err := s.profileRepo.GetProfile(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get profile: %w", err)
		}
		profile = &domain.UserProfile{UserID: user.ID, UpdatedAt: user.UpdatedAt}
	}
	prefs, err := s.profileRepo.GetPreferences(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get notification preferences: %w", err)
		}
		prefs = domain.DefaultNotificationPreferences(user.ID)
	}
	stats, err := s.profileRepo.Statistics(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("profile statistics: %w", err)
	}
	return &domain.ProfileView{User: user, Profile: profile, Preferences: prefs, Statistics: stats}, nil
}

func (s *profileService) UpdatePersonalData(ctx context.Context, actor domain.Principal, profile *domain.UserProfile) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if profile.DateOfBirth != nil && profile.DateOfBirth.After(s.now()) {
		return nil, domain.InvalidInputError("date of birth cannot be in the future")
	}
	now := s.now()
	profile.UserID = actor.UserID
	profile.UpdatedAt = now
	if err := s.profileRepo.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.activity.Log(ctx, domain.NewUserActivity(actor.UserID, domain.ActivityProfileUpdated, "Updated personal data",
		domain.EntityUser, actor.UserID, nil, now))
	return profile, nil
}

func (s *profileService) ChangePassword(ctx context.Context, actor domain.Principal, currentPassword, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return domain.InvalidInputError("new password must differ from the current one")
	}
	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return domain.InvalidInputError("current password is incorrect")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.activity.Log(ctx, domain.NewUserActivity(user.ID, domain.ActivityPasswordChanged, "Changed password",
		domain.EntityUser, user.ID, nil, now))
	notifyQuietly(ctx, s.notifications, s.logger, user.ID, domain.NotificationSecurity,
		"Password changed", "Your password was changed. If this was not you, contact support.",
		domain.EntityUser, user.ID)
	return nil
}

func (s *profileService) ChangeEmail(ctx context.Context, actor domain.Principal, newEmail, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	newEmail = normalizeEmail(newEmail)
	if !emailRegexp.MatchString(newEmail) {
		return nil, domain.InvalidInputError("invalid email address")
	}
	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, domain.InvalidInputError("password is incorrect")
	}
	if newEmail == user.Email {
		return nil, domain.InvalidInputError("new email must differ from the current one")
	}
	if _, err := s.userRepo.GetByEmail(ctx, newEmail); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	now := s.now()
	if err := s.userRepo.UpdateEmail(ctx, user.ID, newEmail, now); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("update email: %w", err)
	}
	oldEmail := user.Email
	user.Email = newEmail
	user.UpdatedAt = now

	s.activity.Log(ctx, domain.NewUserActivity(user.ID, domain.ActivityEmailChanged, "Changed email address",
		domain.EntityUser, user.ID, map[string]any{"previous_email": oldEmail}, now))
	notifyQuietly(ctx, s.notifications, s.logger, user.ID, domain.NotificationSecurity,
		"Email changed", "Your account email was changed to "+newEmail+".",
		domain.EntityUser, user.ID)
	return user, nil
}

func (s *profileService) UpdateNotificationPreferences(ctx context.Context, actor domain.Principal, prefs *domain.NotificationPreferences) (*domain.NotificationPreferences, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	prefs.UserID = actor.UserID
	prefs.UpdatedAt = s.now()
	if err := s.profileRepo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, fmt.Errorf("update notification preferences: %w", err)
	}
	return prefs, nil
}

func (s *profileService) ListActivity(ctx context.Context, actor domain.Principal, params domain.PaginationParams) ([]*domain.UserActivity, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, total, err := s.activityRepo.ListByUser(ctx, actor.UserID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	if items == nil {
		items = []*domain.UserActivity{}
	}
	return items, total, nil
}

func (s *profileService) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
