package pool

import (
	"context"

	"github.com/KirillAyvazov/BotShop/internal/domain"
)

// reconcileAccount pushes one account's profile to the backend according to
// its registration and dirty state. On success the account is marked synced
// and registered. It reports whether the account ended up in sync.
func reconcileAccount(ctx context.Context, api UserAPI, a *domain.Account) bool {
	var synced bool
	switch {
	case a.RegisteredOnServer && a.IsChanged():
		synced = api.UpdateUser(ctx, a) == nil

	case a.RegisteredOnServer:
		synced = true

	case a.IsChanged():
		if api.CreateUser(ctx, a) == nil {
			synced = true
			break
		}
		// The create may have failed because the backend already knows
		// this user and the local registered flag was lost to a network
		// blip. Merge the remote record into the empty local fields and
		// retry as an update.
		if mergeRemote(ctx, api, a) {
			synced = api.UpdateUser(ctx, a) == nil
		}

	default:
		synced = api.CreateUser(ctx, a) == nil
	}

	if synced {
		a.RegisteredOnServer = true
		a.MarkSynced()
	}
	return synced
}

// mergeRemote fills unset profile fields from the backend record, if one
// exists.
func mergeRemote(ctx context.Context, api UserAPI, a *domain.Account) bool {
	remote, err := api.GetUser(ctx, a.TgID)
	if err != nil || remote == nil {
		return false
	}
	a.FillMissingProfile(remote.Profile())
	return true
}
