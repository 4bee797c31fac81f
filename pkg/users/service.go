package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/lending/pkg/auth"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/models"
	"github.com/uptrace/bun"
)

const msgUsernameTaken = "A user with that username already exists."

// Service handles user operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateUserOptions contains options for creating a user. Users created
// without a password can't obtain tokens until one is set.
type CreateUserOptions struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Password    string
	IsStaff     bool
	IsSuperuser bool
}

// Create creates a new user.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	if err := s.checkUsernameAvailable(ctx, opts.Username, 0); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    opts.Username,
		Email:       opts.Email,
		FirstName:   opts.FirstName,
		LastName:    opts.LastName,
		IsStaff:     opts.IsStaff,
		IsSuperuser: opts.IsSuperuser,
		IsActive:    true,
	}

	if opts.Password != "" {
		hashedPassword, err := auth.HashPassword(opts.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashedPassword
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(user).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Retrieve gets a user by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// UserExists reports whether a user with the given ID exists. It's what the
// borrowing engine uses to resolve the acting user.
func (s *Service) UserExists(ctx context.Context, id int) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("u.id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// ListOptions contains options for listing users.
type ListOptions struct {
	Limit  int
	Offset int
}

// List returns a page of users and the total number of users.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Order("u.id ASC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

// UpdateOptions contains options for updating a user.
type UpdateOptions struct {
	Columns []string
}

// Update writes the given columns of the user.
func (s *Service) Update(ctx context.Context, user *models.User, opts UpdateOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, col := range opts.Columns {
		if col == "username" {
			if err := s.checkUsernameAvailable(ctx, user.Username, user.ID); err != nil {
				return err
			}
		}
	}

	user.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// SetPassword changes a user's password.
func (s *Service) SetPassword(ctx context.Context, userID int, password string) error {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hashedPassword).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return errors.WithStack(err)
}

// Delete removes the user. Books they have borrowed stay in the catalogue
// with their loan cleared.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Both loan columns are cleared together so the books keep satisfying
		// the loan CHECK constraint. ON DELETE SET NULL alone would only clear
		// borrowed_by_id.
		_, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("borrowed_on = NULL").
			Set("borrowed_by_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("borrowed_by_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.User)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("User")
		}
		return nil
	})
}

// EnsureSuperuser makes sure a user with the given username exists and can
// log in with the given password. A new user is created as a staff superuser;
// an existing user keeps their flags and only gets the new password.
func (s *Service) EnsureSuperuser(ctx context.Context, username, password string) (*models.User, bool, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.username = ?", username).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, errors.WithStack(err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		user, err = s.Create(ctx, CreateUserOptions{
			Username:    username,
			Password:    password,
			IsStaff:     true,
			IsSuperuser: true,
		})
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	}

	if err := s.SetPassword(ctx, user.ID, password); err != nil {
		return nil, false, err
	}
	return user, false, nil
}

func (s *Service) checkUsernameAvailable(ctx context.Context, username string, exceptID int) error {
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("u.username = ?", username).
		Where("u.id != ?", exceptID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.FieldError("username", msgUsernameTaken)
	}
	return nil
}
