// Package settings backs the environment settings page. The values live
// only in this process: nothing is sent upstream or written to disk.
package settings

import (
	"net/url"
	"strings"
	"sync"
)

// Flash messages returned by Save and Reset.
const (
	SavedMessage = "Settings saved successfully"
	ResetMessage = "Settings reset to defaults"
)

type Database struct {
	Host           string
	Port           string
	Name           string
	MaxConnections string
}

type Auth struct {
	TokenExpiryHours         string
	RequireEmailVerification bool
	AllowPasswordReset       bool
}

type Notifications struct {
	EmailAlerts      bool
	SlackIntegration bool
	WebhookURL       string
}

// Settings is the whole form. Numeric fields stay strings, the page takes
// them as typed.
type Settings struct {
	Database      Database
	Auth          Auth
	Notifications Notifications
}

// Defaults returns the values the page starts with.
func Defaults() Settings {
	return Settings{
		Database: Database{
			Host:           "localhost",
			Port:           "5432",
			Name:           "postgres",
			MaxConnections: "100",
		},
		Auth: Auth{
			TokenExpiryHours:         "24",
			RequireEmailVerification: true,
			AllowPasswordReset:       true,
		},
		Notifications: Notifications{
			EmailAlerts:      true,
			SlackIntegration: false,
			WebhookURL:       "",
		},
	}
}

// FromForm reads the posted settings form. Checkboxes are true when present.
func FromForm(values url.Values) Settings {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }

	return Settings{
		Database: Database{
			Host:           get("database.host"),
			Port:           get("database.port"),
			Name:           get("database.name"),
			MaxConnections: get("database.maxConnections"),
		},
		Auth: Auth{
			TokenExpiryHours:         get("auth.tokenExpiry"),
			RequireEmailVerification: values.Has("auth.requireEmailVerification"),
			AllowPasswordReset:       values.Has("auth.allowPasswordReset"),
		},
		Notifications: Notifications{
			EmailAlerts:      values.Has("notifications.emailAlerts"),
			SlackIntegration: values.Has("notifications.slackIntegration"),
			WebhookURL:       get("notifications.webhookUrl"),
		},
	}
}

// Store holds the current settings.
type Store struct {
	mu  sync.RWMutex
	cur Settings
}

func NewStore() *Store {
	return &Store{cur: Defaults()}
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Save replaces the current values and returns the confirmation message.
func (s *Store) Save(next Settings) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur = next
	return SavedMessage
}

// Reset restores the defaults and returns the confirmation message.
func (s *Store) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur = Defaults()
	return ResetMessage
}
