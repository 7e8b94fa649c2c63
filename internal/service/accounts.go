// Package service implements account, study, group and ranking operations
// on top of the shard store
package service

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"tickr/study-api/internal/model"
	"tickr/study-api/internal/store"
	"tickr/study-api/pkg/security"
	"tickr/study-api/pkg/validators"

	"go.uber.org/zap"
)

type Accounts struct {
	Store  *store.Store
	Argon  *security.ArgonHash
	Codes  *security.CodeStore
	Mailer Mailer
	Groups *Groups
	// Resends throttles ResendSignupCode
	Resends *ResendLimiter
	Now     func() time.Time
}

func loadUsers(ctx context.Context, s *store.Store) ([]model.User, error) {
	return store.Load[model.User](ctx, s, store.KindUsers, store.AccountsOwner)
}

func updateUsers(ctx context.Context, s *store.Store, fn func([]model.User) ([]model.User, error)) error {
	return store.Update(ctx, s, store.KindUsers, store.AccountsOwner, fn)
}

func indexOfUser(users []model.User, match func(u *model.User) bool) int {
	return slices.IndexFunc(users, func(u model.User) bool {
		return match(&u)
	})
}

func byID(id int64) func(u *model.User) bool {
	return func(u *model.User) bool { return u.ID == id }
}

// userExists reports whether an account with the id is registered
func userExists(ctx context.Context, s *store.Store, id int64) error {
	users, err := loadUsers(ctx, s)
	if err != nil {
		return err
	}

	if indexOfUser(users, byID(id)) == -1 {
		return notFound("User not found")
	}

	return nil
}

func (a *Accounts) Get(ctx context.Context, id int64) (*model.User, error) {
	users, err := loadUsers(ctx, a.Store)
	if err != nil {
		return nil, err
	}

	i := indexOfUser(users, byID(id))
	if i == -1 {
		return nil, notFound("User not found")
	}

	return &users[i], nil
}

// CheckUsername reports whether a username is valid and still free
func (a *Accounts) CheckUsername(ctx context.Context, username string) (bool, string, error) {
	if err := validators.UsernameValidator(username); err != nil {
		return false, err.Error(), nil
	}

	users, err := loadUsers(ctx, a.Store)
	if err != nil {
		return false, "", err
	}

	if indexOfUser(users, func(u *model.User) bool { return u.Username == username }) != -1 {
		return false, "This username is already taken", nil
	}

	return true, "This username is available", nil
}

func (a *Accounts) Register(ctx context.Context, username, password, email string) (*model.User, error) {
	if err := validators.UsernameValidator(username); err != nil {
		return nil, badRequest(err.Error())
	}

	if err := validators.PasswordValidator(password); err != nil {
		return nil, badRequest(err.Error())
	}

	if err := validators.EmailValidator(email); err != nil {
		return nil, badRequest(err.Error())
	}

	hash, err := a.Argon.GenerateFromPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	var created model.User

	err = updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		var maxID int64
		for _, u := range users {
			if u.Username == username {
				return nil, conflict("This username already exists")
			}
			if u.Email == email {
				return nil, conflict("This email is already registered")
			}
			maxID = max(maxID, u.ID)
		}

		created = model.User{
			ID:        maxID + 1,
			Username:  username,
			Password:  hash,
			Email:     email,
			CreatedAt: a.Now().UTC(),
		}

		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}

	if err := a.sendCode(ctx, security.PurposeSignup, email, email); err != nil {
		return &created, mailUndelivered("Account created but the verification email could not be sent", err)
	}

	return &created, nil
}

func (a *Accounts) sendCode(ctx context.Context, p security.Purpose, key, to string) error {
	code, err := a.Codes.Issue(p, key)
	if err != nil {
		return fmt.Errorf("failed to generate verification code, %w", err)
	}

	subject, text, html := codeMail(p, code, a.Codes.TTL())
	return a.Mailer.Send(ctx, to, subject, text, html)
}

func (a *Accounts) checkCode(p security.Purpose, key, code string) error {
	switch a.Codes.Check(p, key, code) {
	case security.CodeOK:
		return nil
	case security.CodeExpired:
		return badRequest("The verification code has expired. Please request a new one")
	default:
		return badRequest("The verification code is incorrect")
	}
}

// ConfirmSignup marks the account verified. Confirming an already verified
// account succeeds without touching anything.
func (a *Accounts) ConfirmSignup(ctx context.Context, email, code string) (alreadyVerified bool, err error) {
	if email == "" || code == "" {
		return false, badRequest("Email and verification code are required")
	}

	users, err := loadUsers(ctx, a.Store)
	if err != nil {
		return false, err
	}

	i := indexOfUser(users, func(u *model.User) bool { return u.Email == email })
	if i != -1 && users[i].Verified {
		return true, nil
	}

	if err := a.checkCode(security.PurposeSignup, email, code); err != nil {
		return false, err
	}

	if i == -1 {
		return false, notFound("User not found")
	}

	err = updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		i := indexOfUser(users, func(u *model.User) bool { return u.Email == email })
		if i == -1 {
			return nil, notFound("User not found")
		}

		users[i].Verified = true
		return users, nil
	})
	if err != nil {
		return false, err
	}

	a.Codes.Consume(security.PurposeSignup, email)
	return false, nil
}

// ResendSignupCode mails a fresh signup code, invalidating the previous one.
// Verified accounts are left alone.
func (a *Accounts) ResendSignupCode(ctx context.Context, email string) (alreadyVerified bool, err error) {
	if email == "" {
		return false, badRequest("Email is required")
	}

	users, err := loadUsers(ctx, a.Store)
	if err != nil {
		return false, err
	}

	i := indexOfUser(users, func(u *model.User) bool { return u.Email == email })
	if i == -1 {
		return false, notFound("User not found")
	}

	if users[i].Verified {
		return true, nil
	}

	if err := a.Resends.Allow(email); err != nil {
		return false, err
	}

	if err := a.sendCode(ctx, security.PurposeSignup, email, email); err != nil {
		return false, &Error{Code: http.StatusBadGateway, Message: "The verification email could not be sent", Err: err}
	}

	return false, nil
}

func (a *Accounts) Login(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, badRequest("Username and password are required")
	}

	users, err := loadUsers(ctx, a.Store)
	if err != nil {
		return nil, err
	}

	i := indexOfUser(users, func(u *model.User) bool { return u.Username == username })
	if i == -1 {
		return nil, unauthorized("Invalid username or password")
	}

	u := users[i]

	ok, err := a.Argon.VerifyPasswd(password, u.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, unauthorized("Invalid username or password")
	}

	if !u.Verified {
		return nil, forbidden("Please verify your email before logging in")
	}

	return &u, nil
}

// RequestEmailChange stages a new address and mails a code to it
func (a *Accounts) RequestEmailChange(ctx context.Context, userID int64, email string) error {
	if userID == 0 || email == "" {
		return badRequest("User ID and email are required")
	}

	if err := validators.EmailValidator(email); err != nil {
		return badRequest(err.Error())
	}

	err := updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		i := indexOfUser(users, byID(userID))
		if i == -1 {
			return nil, notFound("User not found")
		}

		if users[i].Email == email {
			return nil, badRequest("The new email is the same as the current one")
		}

		for _, u := range users {
			if u.ID != userID && (u.Email == email || u.PendingEmail == email) {
				return nil, conflict("This email is already in use")
			}
		}

		users[i].PendingEmail = email
		return users, nil
	})
	if err != nil {
		return err
	}

	if err := a.sendCode(ctx, security.PurposeEmailChange, email, email); err != nil {
		return mailUndelivered("Failed to send the email change verification code", err)
	}

	return nil
}

func (a *Accounts) ConfirmEmailChange(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return badRequest("Email and verification code are required")
	}

	if err := a.checkCode(security.PurposeEmailChange, email, code); err != nil {
		return err
	}

	err := updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		i := indexOfUser(users, func(u *model.User) bool { return u.PendingEmail == email })
		if i == -1 {
			return nil, notFound("User not found")
		}

		for _, u := range users {
			if u.Email == email {
				return nil, conflict("This email is already in use")
			}
		}

		users[i].Email = users[i].PendingEmail
		users[i].PendingEmail = ""
		return users, nil
	})
	if err != nil {
		return err
	}

	a.Codes.Consume(security.PurposeEmailChange, email)
	return nil
}

// RequestPasswordChange stages the hash of a new password and mails a code
// to the account's current address
func (a *Accounts) RequestPasswordChange(ctx context.Context, userID int64, current, next string) error {
	if userID == 0 || current == "" || next == "" {
		return badRequest("User ID, current password and new password are required")
	}

	u, err := a.Get(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := a.Argon.VerifyPasswd(current, u.Password)
	if err != nil {
		return fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return unauthorized("The current password is incorrect")
	}

	if next == current {
		return badRequest("The new password must differ from the current one")
	}

	if err := validators.PasswordValidator(next); err != nil {
		return badRequest(err.Error())
	}

	hash, err := a.Argon.GenerateFromPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	var to string

	err = updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		i := indexOfUser(users, byID(userID))
		if i == -1 {
			return nil, notFound("User not found")
		}

		users[i].PendingPassword = hash
		to = users[i].Email
		return users, nil
	})
	if err != nil {
		return err
	}

	if err := a.sendCode(ctx, security.PurposePasswordChange, owner(userID), to); err != nil {
		return mailUndelivered("Failed to send the password change verification code", err)
	}

	return nil
}

func (a *Accounts) ConfirmPasswordChange(ctx context.Context, userID int64, code string) error {
	if userID == 0 || code == "" {
		return badRequest("User ID and verification code are required")
	}

	key := owner(userID)
	if err := a.checkCode(security.PurposePasswordChange, key, code); err != nil {
		return err
	}

	err := updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		i := indexOfUser(users, byID(userID))
		if i == -1 {
			return nil, notFound("User not found")
		}

		if users[i].PendingPassword == "" {
			return nil, badRequest("There is no pending password change")
		}

		users[i].Password = users[i].PendingPassword
		users[i].PendingPassword = ""
		return users, nil
	})
	if err != nil {
		return err
	}

	a.Codes.Consume(security.PurposePasswordChange, key)
	return nil
}

// Delete removes the account and every collection it owns. Memberships in
// other users' groups are dropped as well.
func (a *Accounts) Delete(ctx context.Context, userID int64, password string) error {
	if userID == 0 || password == "" {
		return badRequest("User ID and password are required")
	}

	u, err := a.Get(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := a.Argon.VerifyPasswd(password, u.Password)
	if err != nil {
		return fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return unauthorized("The password is incorrect")
	}

	// Owned data first, a failed cascade leaves the account in place
	if err := a.dropOwned(ctx, userID); err != nil {
		return err
	}

	return updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		i := indexOfUser(users, byID(userID))
		if i == -1 {
			return nil, notFound("User not found")
		}

		return slices.Delete(users, i, i+1), nil
	})
}

// dropOwned removes everything stored for a deleted account
func (a *Accounts) dropOwned(ctx context.Context, userID int64) error {
	for _, kind := range []store.Kind{store.KindStudySessions, store.KindSubjects} {
		if err := a.Store.Drop(ctx, kind, owner(userID)); err != nil {
			return fmt.Errorf("failed to delete %s of user %d, %w", kind, userID, err)
		}

		zap.L().Debug("Deleted user collection", zap.String("kind", string(kind)), zap.Int64("userID", userID))
	}

	if a.Groups != nil {
		if err := a.Groups.RemoveUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to clean up groups of user %d, %w", userID, err)
		}
	}

	return nil
}

// PruneUnverified deletes accounts that were never verified within maxAge of
// signing up. Imported accounts without a creation time are kept.
func (a *Accounts) PruneUnverified(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := a.Now().Add(-maxAge)

	var pruned []int64

	err := updateUsers(ctx, a.Store, func(users []model.User) ([]model.User, error) {
		return slices.DeleteFunc(users, func(u model.User) bool {
			stale := !u.Verified && !u.CreatedAt.IsZero() && u.CreatedAt.Before(cutoff)
			if stale {
				pruned = append(pruned, u.ID)
			}
			return stale
		}), nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range pruned {
		if err := a.dropOwned(ctx, id); err != nil {
			return 0, err
		}
	}

	return len(pruned), nil
}

// Usernames maps every account id to its username
func (a *Accounts) Usernames(ctx context.Context) (map[int64]string, error) {
	return usernames(ctx, a.Store)
}

func usernames(ctx context.Context, s *store.Store) (map[int64]string, error) {
	users, err := loadUsers(ctx, s)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	return names, nil
}
