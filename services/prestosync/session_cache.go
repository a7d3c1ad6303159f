package prestosync

import (
	"context"
	"time"

	"prestoassist-backend/lib/scrapers/presto"
	"prestoassist-backend/services/transactions"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type sessionCache struct {
	cache   *expirable.LRU[string, *presto.Client]
	store   transactions.Store
	baseUrl string
}

func newSessionCache(store transactions.Store, baseUrl string) sessionCache {
	return sessionCache{
		cache:   expirable.NewLRU[string, *presto.Client](2048, nil, time.Minute*15),
		store:   store,
		baseUrl: baseUrl,
	}
}

// Get returns the user's portal client. a cache miss rebuilds the
// client from the cookies persisted at login, a user with no persisted
// session has never logged in.
func (s sessionCache) Get(ctx context.Context, userId string) (*presto.Client, error) {
	cached, hit := s.cache.Get(userId)
	if hit {
		return cached, nil
	}

	cookies, ok, err := s.store.GetSession(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &presto.AuthError{
			Kind:    presto.KindNotLoggedIn,
			Message: "no stored portal session",
		}
	}

	client, err := presto.NewClient(presto.ClientOptions{
		BaseUrl: s.baseUrl,
		Cookies: cookies,
	})
	if err != nil {
		return nil, err
	}
	s.cache.Add(userId, client)
	return client, nil
}

func (s sessionCache) Put(userId string, client *presto.Client) {
	s.cache.Add(userId, client)
}

func (s sessionCache) Drop(userId string) {
	s.cache.Remove(userId)
}
