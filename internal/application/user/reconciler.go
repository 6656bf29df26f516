package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

// Reconciler matches one record against the identity store and upserts the
// user, login and e-mail channel it describes.
type Reconciler struct {
	run      domain.RunContext
	hasher   domain.PasswordHasher
	newToken func() string
	log      *slog.Logger
}

func NewReconciler(run domain.RunContext, hasher domain.PasswordHasher, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		run:      run,
		hasher:   hasher,
		newToken: uuid.NewString,
		log:      log,
	}
}

// rowOutcome collects what a row produced. Deferred ids and the processed
// count are only published once the row's scope commits.
type rowOutcome struct {
	counted  bool
	warnings []string
	deferred domain.DeferredIDSets
}

func (o *rowOutcome) warn(format string, args ...any) {
	o.warnings = append(o.warnings, fmt.Sprintf(format, args...))
}

// ApplyRow reconciles rec inside a nested scope of tx. Persistence failures
// roll back the row and become warnings; only context cancellation is
// returned.
func (r *Reconciler) ApplyRow(ctx context.Context, tx domain.IdentityTx, rec domain.ImportRecord, report *domain.RunReport, deferred *domain.DeferredIDSets) error {
	r.log.Debug("processing user", "line", rec.Line, "user_id", rec.ExternalUserID)

	var out rowOutcome
	err := tx.Nested(ctx, func(rowTx domain.IdentityTx) error {
		out = rowOutcome{}
		return r.reconcile(ctx, rowTx, rec, &out)
	})

	for _, w := range out.warnings {
		report.AddWarning("%s", w)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		report.AddWarning("failed saving user. internal error: %v", err)
		return nil
	}

	deferred.Merge(&out.deferred)
	if out.counted {
		report.Counts.Users++
	}
	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, tx domain.IdentityTx, rec domain.ImportRecord, out *rowOutcome) error {
	root := r.run.RootAccountID

	var byExternalID, byLoginID, login *domain.Login
	var err error

	if !domain.Blank(rec.ExternalUserID) {
		if byExternalID, err = tx.FindLoginByExternalUserID(ctx, root, rec.ExternalUserID); err != nil {
			return fmt.Errorf("find login by user_id: %w", err)
		}
	}
	if !domain.Blank(rec.LoginID) {
		if byLoginID, err = tx.FindLoginByUniqueID(ctx, root, rec.LoginID); err != nil {
			return fmt.Errorf("find login by login_id: %w", err)
		}
	}

	login = byExternalID
	if login == nil {
		login = byLoginID
	}
	if login == nil && !domain.Blank(rec.Email) {
		if login, err = tx.FindLoginByUniqueID(ctx, root, rec.Email); err != nil {
			return fmt.Errorf("find login by email: %w", err)
		}
	}

	if login != nil {
		if login.ExternalUserID != "" && login.ExternalUserID != rec.ExternalUserID {
			out.warn("user %s has already claimed %s's requested login information, skipping", login.ExternalUserID, rec.ExternalUserID)
			out.counted = true
			return nil
		}
		if byLoginID != nil && login.UniqueID != rec.LoginID {
			out.warn("user %s has already claimed %s's requested login information, skipping", byLoginID.ExternalUserID, rec.ExternalUserID)
			out.counted = true
			return nil
		}
	}

	status, statusErr := rec.ParsedStatus()
	name := rec.FullName()

	var user, loadedUser domain.User
	if login != nil {
		found, err := tx.GetUser(ctx, login.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if found == nil {
			return fmt.Errorf("load user: %w", domain.ErrUserNotFound)
		}
		user = *found
		loadedUser = user
		if user.NameIsManaged() {
			user.DisplayName = name
			user.ManagedName = name
		}
	} else {
		user = domain.User{
			DisplayName:   name,
			ManagedName:   name,
			WorkflowState: domain.UserPreRegistered,
		}
	}
	newUser := user.ID == ""

	if statusErr == nil {
		switch status {
		case domain.StatusActive:
			user.WorkflowState = domain.UserRegistered
		case domain.StatusDeleted:
			user.WorkflowState = domain.UserDeleted
			if !newUser {
				if err := tx.DeleteEnrollments(ctx, user.ID, root); err != nil {
					return err
				}
				out.deferred.DeletedUsers.Add(user.ID)
			}
		}
	}

	var current, loadedLogin domain.Login
	newLogin := login == nil
	if !newLogin {
		current = *login
		loadedLogin = current
	}

	current.UniqueID = rec.LoginID
	current.ExternalSourceID = rec.LoginID
	current.ExternalUserID = rec.ExternalUserID
	current.AccountID = root
	current.WorkflowState = domain.LoginDeleted
	if statusErr == nil && status == domain.StatusActive {
		current.WorkflowState = domain.LoginActive
	}
	if newLogin {
		current.PersistenceToken = r.newToken()
	}

	if err := r.applyPassword(&current, rec, newLogin); err != nil {
		return err
	}
	if !domain.Blank(rec.PasswordHash) {
		current.ExternalPasswordHash = rec.PasswordHash
	}
	if current.ExternalPasswordHash != loadedLogin.ExternalPasswordHash && current.PasswordAutoGenerated {
		current.PersistenceToken = r.newToken()
	}

	if user != loadedUser {
		if r.run.HasBatch() {
			user.CreationBatchID = r.run.BatchID
		}
		if err := tx.SaveUser(ctx, &user); err != nil {
			return err
		}
		if newUser && user.WorkflowState != domain.UserDeleted {
			out.deferred.NewUsers.Add(user.ID)
		}
	} else if r.run.HasBatch() {
		out.deferred.UsersToStamp.Add(user.ID)
	}

	current.UserID = user.ID
	if current != loadedLogin {
		if r.run.HasBatch() {
			current.BatchID = r.run.BatchID
		}
		if err := tx.SaveLogin(ctx, &current); err != nil {
			return err
		}
	}
	saved := current

	if !domain.Blank(rec.Email) && statusErr == nil && status == domain.StatusActive {
		var linked string
		err := tx.Nested(ctx, func(chTx domain.IdentityTx) error {
			var chErr error
			linked, chErr = r.reconcileChannel(ctx, chTx, rec, user, current, out)
			return chErr
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.log.Warn("communication channel failed", "email", rec.Email, "login_id", rec.LoginID, "error", err)
			out.warn("failed adding communication channel %s to user %s", rec.Email, rec.LoginID)
		} else {
			current.LinkedChannelID = linked
		}
	}

	if current != saved {
		if r.run.HasBatch() {
			current.BatchID = r.run.BatchID
		}
		if err := tx.SaveLogin(ctx, &current); err != nil {
			return err
		}
	} else if r.run.HasBatch() && current.BatchID != r.run.BatchID {
		out.deferred.LoginsToStamp.Add(current.ID)
	}

	out.counted = true
	return nil
}

// applyPassword sets a supplied password only on new logins, or when the
// stored one was generated by an import and no longer matches. Rewriting an
// unchanged password would rotate the persistence token and end sessions.
func (r *Reconciler) applyPassword(login *domain.Login, rec domain.ImportRecord, newLogin bool) error {
	if domain.Blank(rec.Password) {
		return nil
	}
	if !newLogin && !(login.PasswordAutoGenerated && !r.hasher.Matches(login.CryptedPassword, rec.Password)) {
		return nil
	}

	hash, err := r.hasher.Hash(rec.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	login.CryptedPassword = hash
	login.PasswordAutoGenerated = true
	login.PersistenceToken = r.newToken()
	return nil
}

// reconcileChannel returns the channel id the login should link to.
func (r *Reconciler) reconcileChannel(ctx context.Context, tx domain.IdentityTx, rec domain.ImportRecord, user domain.User, login domain.Login, out *rowOutcome) (string, error) {
	found, err := tx.FindActiveChannel(ctx, rec.Email, domain.ChannelTypeEmail)
	if err != nil {
		return "", fmt.Errorf("find channel: %w", err)
	}

	if found == nil {
		var ch, loaded domain.CommunicationChannel
		if login.LinkedChannelID != "" {
			existing, err := tx.GetChannel(ctx, login.LinkedChannelID)
			if err != nil {
				return "", fmt.Errorf("load linked channel: %w", err)
			}
			if existing != nil {
				ch = *existing
				loaded = ch
			}
		}
		if ch.ID == "" {
			ch.UserID = user.ID
			ch.LoginID = login.ID
			ch.Type = domain.ChannelTypeEmail
		}
		ch.Path = rec.Email
		ch.WorkflowState = domain.ChannelActive

		if ch != loaded {
			if err := tx.SaveChannel(ctx, &ch); err != nil {
				return "", err
			}
		}
		return ch.ID, nil
	}

	if found.UserID != login.UserID {
		out.warn("e-mail address %s for user %s is already claimed; ignoring", rec.Email, rec.LoginID)
		return login.LinkedChannelID, nil
	}

	if login.LinkedChannelID != "" && login.LinkedChannelID != found.ID {
		if err := tx.DestroyChannel(ctx, login.LinkedChannelID); err != nil {
			return "", fmt.Errorf("destroy stale channel: %w", err)
		}
	}
	return found.ID, nil
}
