package identity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"deepwork-api/internal/domain"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Client implementa Provider para el consumidor logico unico (la app).
// Mantiene la sesion actual, la persiste en SessionStorage y notifica
// cambios a los suscriptores en el orden en que ocurren.
type Client struct {
	logger   *zap.Logger
	accounts *AccountService
	tokens   *TokenService
	storage  SessionStorage

	mu      sync.Mutex
	current *domain.Session
	subs    []subscriber
	nextID  int
}

type subscriber struct {
	id int
	fn func(Change)
}

func NewClient(logger *zap.Logger, accounts *AccountService, tokens *TokenService, storage SessionStorage) *Client {
	if storage == nil {
		storage = NewMemorySessionStorage()
	}
	return &Client{
		logger:   logger,
		accounts: accounts,
		tokens:   tokens,
		storage:  storage,
	}
}

var _ Provider = (*Client)(nil)

func (c *Client) SignUp(ctx context.Context, emailAddr, password, fullName string) error {
	account, err := c.accounts.SignUp(ctx, SignUpInput{
		Email:    emailAddr,
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		return err
	}
	sess, err := c.tokens.IssueSession(account)
	if err != nil {
		return err
	}
	c.setSession(&sess, EventSignedIn)
	return nil
}

func (c *Client) SignIn(ctx context.Context, emailAddr, password string) error {
	account, err := c.accounts.Authenticate(ctx, emailAddr, password)
	if err != nil {
		return err
	}
	sess, err := c.tokens.IssueSession(account)
	if err != nil {
		return err
	}
	c.setSession(&sess, EventSignedIn)
	return nil
}

func (c *Client) SignOut(_ context.Context) error {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	if current == nil {
		return nil
	}
	if err := c.tokens.RevokeRefresh(current.RefreshToken); err != nil && c.logger != nil {
		c.logger.Warn("revoke refresh on sign out failed", zap.Error(err))
	}
	c.setSession(nil, EventSignedOut)
	return nil
}

func (c *Client) ResetPassword(ctx context.Context, emailAddr string) error {
	return c.accounts.RequestPasswordReset(ctx, emailAddr)
}

// GetSession devuelve la sesion vigente, restaurandola del storage si
// hace falta. Un access token vencido con refresh valido se renueva de
// forma transparente y emite token_refreshed.
func (c *Client) GetSession(_ context.Context) (*domain.Session, error) {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	if current == nil {
		loaded, err := c.storage.Load()
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			return nil, nil
		}
		current = loaded
		c.mu.Lock()
		c.current = loaded
		c.mu.Unlock()
	}

	if !current.Expired(nowUTC()) {
		copied := *current
		return &copied, nil
	}

	refreshed, err := c.tokens.RefreshSession(current.RefreshToken)
	if err != nil {
		// Refresh imposible: la sesion persistida ya no sirve.
		c.setSession(nil, EventSignedOut)
		return nil, nil
	}
	c.setSession(&refreshed, EventTokenRefreshed)
	copied := refreshed
	return &copied, nil
}

func (c *Client) Subscribe(fn func(Change)) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
	}
}

// setSession actualiza la sesion actual, la persiste y notifica. Los
// callbacks corren fuera del lock para que puedan volver a llamar al
// cliente; la emision es sincrona en la goroutine que origino el
// cambio, asi el orden de entrega sigue el orden de emision.
func (c *Client) setSession(sess *domain.Session, event string) {
	c.mu.Lock()
	c.current = sess
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	if err := c.storage.Save(sess); err != nil && c.logger != nil {
		c.logger.Warn("persist session failed", zap.Error(err))
	}

	for _, sub := range subs {
		var copied *domain.Session
		if sess != nil {
			clone := *sess
			copied = &clone
		}
		sub.fn(Change{Event: event, Session: copied})
	}
}
