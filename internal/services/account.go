package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dutyroster/apiserver/internal/store"
	"github.com/dutyroster/apiserver/types"
	"go.uber.org/zap"
)

// AccountService encapsulates account use-cases.
type AccountService struct {
	tx     Transactor
	hasher PasswordHasher
	events notifier
	log    *zap.Logger
}

func NewAccountService(tx Transactor, hasher PasswordHasher, pub Publisher, log *zap.Logger) *AccountService {
	log = loggerOrNop(log)
	return &AccountService{
		tx:     tx,
		hasher: hasher,
		events: newNotifier(pub, log),
		log:    log,
	}
}

// Create registers a new account. Only admins may create accounts.
// The password is admin-issued, so IsPasswordSet starts false.
func (s *AccountService) Create(ctx context.Context, actor types.Account, input types.NewAccount) (types.Account, error) {
	if err := AccountPolicy.Check(actor, ActionCreate, Subject{}); err != nil {
		return types.Account{}, err
	}
	return s.create(ctx, input, false)
}

// SeedAdmin creates the bootstrap admin unless the login already exists,
// in which case the existing account is returned unchanged.
func (s *AccountService) SeedAdmin(ctx context.Context, input types.NewAccount) (types.Account, bool, error) {
	input.IsAdmin = true
	acc, err := s.create(ctx, input, true)
	if errors.Is(err, ErrConflict) {
		var existing types.Account
		err = s.tx.InTx(ctx, func(repos Repositories) error {
			found, err := repos.Accounts.GetByLogin(ctx, strings.TrimSpace(input.Login))
			existing = found
			return translate(err, "Student")
		})
		return existing, false, err
	}
	return acc, err == nil, err
}

func (s *AccountService) create(ctx context.Context, input types.NewAccount, passwordSet bool) (types.Account, error) {
	input.Login = strings.TrimSpace(input.Login)
	input.Name = strings.TrimSpace(input.Name)
	if input.Login == "" {
		return types.Account{}, invalidInput("Username is required")
	}
	if input.Name == "" {
		return types.Account{}, invalidInput("Name is required")
	}
	if input.Password == "" {
		return types.Account{}, invalidInput("Password cannot be empty")
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.Account{}, err
	}

	acc := types.Account{
		Name:          input.Name,
		Login:         input.Login,
		PasswordHash:  digest,
		IsAdmin:       input.IsAdmin,
		IsPasswordSet: passwordSet,
		Phone:         input.Profile.Phone,
		Email:         input.Profile.Email,
		Department:    input.Profile.Department,
		ClassName:     input.Profile.ClassName,
		Gender:        input.Profile.Gender,
	}

	err = s.tx.InTx(ctx, func(repos Repositories) error {
		if _, err := repos.Accounts.GetByLogin(ctx, acc.Login); err == nil {
			return usernameTaken()
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		created, err := repos.Accounts.Create(ctx, acc)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return usernameTaken()
			}
			return err
		}
		acc = created
		return nil
	})
	if err != nil {
		return types.Account{}, err
	}

	s.log.Info("account created",
		zap.Int("account_id", acc.ID),
		zap.String("login", acc.Login),
		zap.Bool("is_admin", acc.IsAdmin),
	)
	return acc, nil
}

// List returns accounts ordered by login. search matches the login
// exactly or any substring of the name.
func (s *AccountService) List(ctx context.Context, actor types.Account, search string) ([]types.Account, error) {
	if err := AccountPolicy.Check(actor, ActionList, Subject{}); err != nil {
		return nil, err
	}

	var accounts []types.Account
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		var err error
		accounts, err = repos.Accounts.List(ctx, strings.TrimSpace(search))
		return err
	})
	return accounts, err
}

func (s *AccountService) Get(ctx context.Context, actor types.Account, id int) (types.Account, error) {
	var acc types.Account
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		found, err := repos.Accounts.GetByID(ctx, id)
		if err != nil {
			return translate(err, "Student")
		}
		if err := AccountPolicy.Check(actor, ActionRead, Subject{OwnerID: found.ID}); err != nil {
			return err
		}
		acc = found
		return nil
	})
	return acc, err
}

// Update applies the supplied profile fields. Role and password-set flags
// can only be changed by admins.
func (s *AccountService) Update(ctx context.Context, actor types.Account, id int, patch types.AccountPatch) (types.Account, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return types.Account{}, invalidInput("Name cannot be empty")
	}

	var acc types.Account
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		found, err := repos.Accounts.GetByID(ctx, id)
		if err != nil {
			return translate(err, "Student")
		}
		if err := AccountPolicy.Check(actor, ActionUpdate, Subject{OwnerID: found.ID}); err != nil {
			return err
		}
		if (patch.IsAdmin != nil || patch.IsPasswordSet != nil) && !actor.IsAdmin {
			return forbidden()
		}

		patch.Apply(&found)
		updated, err := repos.Accounts.Update(ctx, found)
		if err != nil {
			return translate(err, "Student")
		}
		acc = updated
		return nil
	})
	return acc, err
}

// ResetPassword sets an admin-issued password, so the owner is asked to
// choose a new one on next login.
func (s *AccountService) ResetPassword(ctx context.Context, actor types.Account, id int, password string) error {
	if err := AccountPolicy.Check(actor, ActionResetPassword, Subject{}); err != nil {
		return err
	}
	if password == "" {
		return invalidInput("Password cannot be empty")
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, id, func(acc *types.Account) {
		acc.PasswordHash = digest
		acc.IsPasswordSet = false
	})
	if err != nil {
		return err
	}
	s.log.Info("password reset", zap.Int("account_id", id), zap.Int("actor_id", actor.ID))
	return nil
}

func (s *AccountService) SetAdmin(ctx context.Context, actor types.Account, id int, isAdmin bool) (types.Account, error) {
	if err := AccountPolicy.Check(actor, ActionSetAdmin, Subject{}); err != nil {
		return types.Account{}, err
	}

	var acc types.Account
	err := s.mutateInto(ctx, id, &acc, func(a *types.Account) {
		a.IsAdmin = isAdmin
	})
	if err != nil {
		return types.Account{}, err
	}
	s.log.Info("admin flag changed",
		zap.Int("account_id", id),
		zap.Bool("is_admin", isAdmin),
		zap.Int("actor_id", actor.ID),
	)
	return acc, nil
}

// ChangeOwnPassword replaces the actor's password and marks it as chosen
// by the owner.
func (s *AccountService) ChangeOwnPassword(ctx context.Context, actor types.Account, password string) error {
	if err := AccountPolicy.Check(actor, ActionChangePassword, Subject{OwnerID: actor.ID}); err != nil {
		return err
	}
	if password == "" {
		return invalidInput("Password cannot be empty")
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	return s.mutate(ctx, actor.ID, func(acc *types.Account) {
		acc.PasswordHash = digest
		acc.IsPasswordSet = true
	})
}

// Delete removes a non-admin account together with its work records,
// todos (as creator or assignee) and schedules, all in one transaction.
func (s *AccountService) Delete(ctx context.Context, actor types.Account, id int) (types.CascadeResult, error) {
	if err := AccountPolicy.Check(actor, ActionDelete, Subject{}); err != nil {
		return types.CascadeResult{}, err
	}

	var result types.CascadeResult
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		target, err := repos.Accounts.GetByID(ctx, id)
		if err != nil {
			return translate(err, "Student")
		}
		if target.IsAdmin {
			return newError(ErrForbidden, "Cannot delete admin user")
		}

		if result.WorkRecords, err = repos.WorkRecords.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if result.Todos, err = repos.Todos.DeleteByAccount(ctx, id); err != nil {
			return err
		}
		if result.Schedules, err = repos.Schedules.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		return translate(repos.Accounts.Delete(ctx, id), "Student")
	})
	if err != nil {
		return types.CascadeResult{}, err
	}

	s.log.Info("account deleted",
		zap.Int("account_id", id),
		zap.Int("actor_id", actor.ID),
		zap.Int64("work_records", result.WorkRecords),
		zap.Int64("todos", result.Todos),
		zap.Int64("schedules", result.Schedules),
	)
	s.events.emit(ctx, types.EventAccountDeleted, actor.ID, map[string]any{
		"account_id": id,
		"removed":    result,
	})
	return result, nil
}

// Names maps account ids to display names for response enrichment.
// Ids that no longer resolve are left out.
func (s *AccountService) Names(ctx context.Context, ids []int) (map[int]string, error) {
	unique := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var names map[int]string
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		var err error
		names, err = repos.Accounts.Names(ctx, unique)
		return err
	})
	return names, err
}

func (s *AccountService) mutate(ctx context.Context, id int, fn func(*types.Account)) error {
	var discard types.Account
	return s.mutateInto(ctx, id, &discard, fn)
}

func (s *AccountService) mutateInto(ctx context.Context, id int, out *types.Account, fn func(*types.Account)) error {
	return s.tx.InTx(ctx, func(repos Repositories) error {
		acc, err := repos.Accounts.GetByID(ctx, id)
		if err != nil {
			return translate(err, "Student")
		}
		fn(&acc)
		updated, err := repos.Accounts.Update(ctx, acc)
		if err != nil {
			return translate(err, "Student")
		}
		*out = updated
		return nil
	})
}

func usernameTaken() error {
	return newError(ErrConflict, "Username already registered")
}
