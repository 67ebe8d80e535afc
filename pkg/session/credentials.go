package session

import (
	"context"
	"errors"
	"sync"
)

var ErrSignedOut = errors.New("signed out")

// StaticCredentials serves a fixed token until SignOut is called
type StaticCredentials struct {
	mu        sync.Mutex
	Value     string
	signedOut bool
}

// NewStaticCredentials creates credentials for token
func NewStaticCredentials(token string) *StaticCredentials {
	return &StaticCredentials{Value: token}
}

func (c *StaticCredentials) Token(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signedOut {
		return "", ErrSignedOut
	}
	return c.Value, nil
}

func (c *StaticCredentials) SignOut(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signedOut = true
	c.Value = ""
	return nil
}

// SignedOut reports whether SignOut has been called
func (c *StaticCredentials) SignedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signedOut
}
