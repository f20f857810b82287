package accounts

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Account pairs an Instagram page id with the access token used to send on
// behalf of that page. Immutable after load.
type Account struct {
	PageID      string
	AccessToken string
}

// Registry maps page ids to configured accounts. It is built once at startup
// and never mutated afterwards; picking up new accounts requires a restart.
type Registry struct {
	byPageID map[string]Account
}

// NewRegistry builds a registry from an explicit account list. Later entries
// with a duplicate page id are ignored.
func NewRegistry(accts []Account) *Registry {
	byPageID := make(map[string]Account, len(accts))
	for _, a := range accts {
		if _, exists := byPageID[a.PageID]; exists {
			continue
		}
		byPageID[a.PageID] = a
	}
	return &Registry{byPageID: byPageID}
}

// LoadFromEnv reads sequentially numbered account pairs
// (IG_ACCOUNT_1_PAGE_ID / IG_ACCOUNT_1_PAGE_ACCESS_TOKEN, IG_ACCOUNT_2_...,
// and so on), stopping at the first index where neither variable is set.
// An index with only one of the pair set is dropped with a warning and the
// scan continues. An empty result is a warning, not an error: the process
// still starts, but no inbound event will be routable.
func LoadFromEnv(logger *zap.Logger) *Registry {
	var accts []Account

	for i := 1; ; i++ {
		pageIDEnv := fmt.Sprintf("IG_ACCOUNT_%d_PAGE_ID", i)
		tokenEnv := fmt.Sprintf("IG_ACCOUNT_%d_PAGE_ACCESS_TOKEN", i)

		pageID := os.Getenv(pageIDEnv)
		token := os.Getenv(tokenEnv)

		if pageID != "" && token != "" {
			accts = append(accts, Account{PageID: pageID, AccessToken: token})
			continue
		}
		if pageID != "" || token != "" {
			logger.Warn("Incomplete Instagram account configuration, both variables must be set to activate this account",
				zap.String("page_id_env", pageIDEnv),
				zap.String("token_env", tokenEnv))
			continue
		}
		break
	}

	if len(accts) == 0 {
		logger.Warn("No Instagram account configurations found, inbound events will not be routable")
	} else {
		logger.Info("Loaded Instagram account configurations", zap.Int("count", len(accts)))
	}

	return NewRegistry(accts)
}

// Resolve returns the account configured for the given page id.
func (r *Registry) Resolve(pageID string) (Account, bool) {
	a, ok := r.byPageID[pageID]
	return a, ok
}

// Len reports how many accounts are configured.
func (r *Registry) Len() int {
	return len(r.byPageID)
}
